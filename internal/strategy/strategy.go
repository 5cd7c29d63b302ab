package strategy

import (
	"fmt"
	"time"

	"github.com/tazeemc/Entropy/internal/model"
)

// Sizer names accepted by New.
const (
	SizerThermo = "thermo"
	SizerFixed  = "fixed"
)

// Context is everything a sizer may look at for one step. It only carries
// information available at the close of that step.
type Context struct {
	Index     int
	Timestamp time.Time
	Equity    float64
	State     model.SystemState
}

// Sizer maps a step context to a position size in currency units.
// Implementations must be pure: the same context always yields the same size.
type Sizer interface {
	Name() string
	Size(ctx Context) (float64, error)
}

// New builds the named sizer. An empty name selects the thermodynamic sizer.
// The fixed sizer holds MaxPositionFraction of equity, the level the
// thermodynamic sizer is capped at.
func New(name string, p ThermoParams) (Sizer, error) {
	switch name {
	case "", SizerThermo:
		s, err := NewThermoSizer(p)
		if err != nil {
			return nil, err
		}
		return s, nil
	case SizerFixed:
		s, err := NewFixedFractionSizer(p.MaxPositionFraction)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, &model.InvalidConfigurationError{Field: "sizer", Reason: fmt.Sprintf("unknown sizer %q (want %s or %s)", name, SizerThermo, SizerFixed)}
	}
}
