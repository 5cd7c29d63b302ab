package model

import (
	"fmt"
	"math"
)

// SystemState is the thermodynamic reading at one timestamp.
//
//   - Temperature: annualized rolling volatility. NaN while the window is filling.
//   - Entropy: Shannon entropy of the return distribution (nats).
//   - Heat: aggregate absolute exposure held strictly before the timestamp.
//
// Warm is false when any estimate is still undefined; such a state must be
// treated as "insufficient data", never as zero.
type SystemState struct {
	Temperature float64
	Entropy     float64
	Heat        float64
	Warm        bool
}

// NewSystemState validates a reading. NaN temperature or entropy yields a
// cold (not Warm) state; any defined quantity must be finite and >= 0.
func NewSystemState(temperature, entropy, heat float64) (SystemState, error) {
	s := SystemState{
		Temperature: temperature,
		Entropy:     entropy,
		Heat:        heat,
		Warm:        !math.IsNaN(temperature) && !math.IsNaN(entropy),
	}
	if err := checkQuantity("temperature", temperature); err != nil {
		return SystemState{}, err
	}
	if err := checkQuantity("entropy", entropy); err != nil {
		return SystemState{}, err
	}
	if math.IsNaN(heat) {
		return SystemState{}, fmt.Errorf("heat must be defined")
	}
	if err := checkQuantity("heat", heat); err != nil {
		return SystemState{}, err
	}
	return s, nil
}

// WithHeat returns a copy carrying a new heat reading.
func (s SystemState) WithHeat(heat float64) SystemState {
	s.Heat = heat
	return s
}

func checkQuantity(name string, v float64) error {
	if math.IsNaN(v) {
		return nil
	}
	if math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite", name)
	}
	if v < 0 {
		return fmt.Errorf("%s must be >= 0, got %g", name, v)
	}
	return nil
}
