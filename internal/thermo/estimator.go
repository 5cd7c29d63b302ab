package thermo

import (
	"fmt"

	"github.com/tazeemc/Entropy/internal/model"
)

// Estimator derives the per-step system state from a return series.
//
// Temperature is rolling. Entropy is, by default, a single value computed over
// the entire sample and broadcast to every step; setting EntropyWindow > 0
// switches to a trailing window instead.
type Estimator struct {
	VolatilityWindow int
	EntropyBins      int
	EntropyWindow    int
}

func (e Estimator) Validate() error {
	if e.VolatilityWindow < 2 {
		return &model.InvalidConfigurationError{Field: "volatility_window", Reason: "must be >= 2"}
	}
	if e.EntropyBins < 1 {
		return &model.InvalidConfigurationError{Field: "entropy_bins", Reason: "must be >= 1"}
	}
	if e.EntropyWindow < 0 || e.EntropyWindow == 1 {
		return &model.InvalidConfigurationError{Field: "entropy_window", Reason: "must be 0 (global) or >= 2"}
	}
	return nil
}

// Estimate returns one SystemState per return. Heat is left at 0; it is
// owned by the simulator, which knows which positions are open.
//
// Fewer returns than the volatility window is an InsufficientDataError:
// no step would ever warm up.
func (e Estimator) Estimate(returns []float64) ([]model.SystemState, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if len(returns) < e.VolatilityWindow {
		return nil, &model.InsufficientDataError{Need: e.VolatilityWindow, Have: len(returns)}
	}

	temps, err := RollingTemperature(returns, e.VolatilityWindow)
	if err != nil {
		return nil, err
	}

	entropies := make([]float64, len(returns))
	if e.EntropyWindow > 0 {
		entropies, err = RollingEntropy(returns, e.EntropyWindow, e.EntropyBins)
		if err != nil {
			return nil, err
		}
	} else {
		h, err := Entropy(returns, e.EntropyBins)
		if err != nil {
			return nil, err
		}
		for i := range entropies {
			entropies[i] = h
		}
	}

	states := make([]model.SystemState, len(returns))
	for i := range returns {
		s, err := model.NewSystemState(temps[i], entropies[i], 0)
		if err != nil {
			return nil, fmt.Errorf("state at index %d: %w", i, err)
		}
		states[i] = s
	}
	return states, nil
}

// WarmupLength is the number of leading steps that cannot carry a position.
func (e Estimator) WarmupLength() int {
	return max(e.VolatilityWindow, e.EntropyWindow) - 1
}
