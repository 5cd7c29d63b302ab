package strategy

import (
	"math"

	"github.com/tazeemc/Entropy/internal/model"
)

// FixedFractionSizer holds a constant fraction of equity once the state is
// warm. It ignores temperature, entropy and heat, so a run with it shows what
// the thermodynamic factors add over plain fractional sizing.
//
// It waits for the same warm-up as ThermoSizer so both start trading on the
// same step.
type FixedFractionSizer struct {
	Fraction float64
}

func NewFixedFractionSizer(fraction float64) (*FixedFractionSizer, error) {
	if !(fraction >= 0) || fraction > 1 {
		return nil, &model.InvalidConfigurationError{Field: "max_position_fraction", Reason: "must be in [0, 1]"}
	}
	return &FixedFractionSizer{Fraction: fraction}, nil
}

func (s *FixedFractionSizer) Name() string { return SizerFixed }

func (s *FixedFractionSizer) Size(ctx Context) (float64, error) {
	if !ctx.State.Warm {
		return 0, nil
	}
	if math.IsNaN(ctx.Equity) || math.IsInf(ctx.Equity, 0) || ctx.Equity < 0 {
		return 0, &model.DegenerateInputError{Index: ctx.Index, Timestamp: ctx.Timestamp, Reason: "equity must be a finite number >= 0"}
	}
	return ctx.Equity * s.Fraction, nil
}
