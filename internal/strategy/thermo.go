package strategy

import (
	"math"

	"github.com/tazeemc/Entropy/internal/model"
)

// ThermoParams are the constants of the thermodynamic sizing model.
// Units:
// - BaseTemperature: reference annualized volatility, same units as temperature
// - MaxHeat: currency units of aggregate exposure at which sizing goes to zero
// - BasePositionFraction / MaxPositionFraction: fractions of equity
type ThermoParams struct {
	BaseTemperature      float64
	MaxHeat              float64
	BasePositionFraction float64
	MaxPositionFraction  float64
}

func DefaultThermoParams() ThermoParams {
	return ThermoParams{
		BaseTemperature:      15,
		MaxHeat:              100,
		BasePositionFraction: 0.01,
		MaxPositionFraction:  0.02,
	}
}

func (p ThermoParams) Validate() error {
	if !(p.BaseTemperature > 0) || math.IsInf(p.BaseTemperature, 0) {
		return &model.InvalidConfigurationError{Field: "base_temperature", Reason: "must be a finite number > 0"}
	}
	if !(p.MaxHeat > 0) || math.IsInf(p.MaxHeat, 0) {
		return &model.InvalidConfigurationError{Field: "max_heat", Reason: "must be a finite number > 0"}
	}
	if !(p.BasePositionFraction >= 0) || p.BasePositionFraction > 1 {
		return &model.InvalidConfigurationError{Field: "base_position_fraction", Reason: "must be in [0, 1]"}
	}
	if !(p.MaxPositionFraction >= 0) || p.MaxPositionFraction > 1 {
		return &model.InvalidConfigurationError{Field: "max_position_fraction", Reason: "must be in [0, 1]"}
	}
	return nil
}

// ThermoSizer sizes positions from temperature, entropy and heat:
//
//	temp_ratio     = base_temperature / temperature
//	entropy_factor = exp(-entropy / 2)
//	heat_factor    = max(0, 1 - heat / max_heat)
//	raw            = equity * base_fraction * temp_ratio^2 * entropy_factor * heat_factor
//	size           = min(raw, equity * max_fraction)
//
// A cold state (temperature still undefined) sizes to 0 without error.
// Zero temperature has no defined ratio and is reported as a
// DegenerateInputError; the caller decides how to resolve it.
type ThermoSizer struct {
	Params ThermoParams
}

func NewThermoSizer(p ThermoParams) (*ThermoSizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &ThermoSizer{Params: p}, nil
}

func (s *ThermoSizer) Name() string { return SizerThermo }

func (s *ThermoSizer) Size(ctx Context) (float64, error) {
	st := ctx.State
	if !st.Warm {
		return 0, nil
	}
	if math.IsNaN(ctx.Equity) || math.IsInf(ctx.Equity, 0) || ctx.Equity < 0 {
		return 0, s.degenerate(ctx, "equity must be a finite number >= 0")
	}
	if st.Temperature == 0 {
		return 0, s.degenerate(ctx, "temperature is zero (no volatility in window)")
	}

	heatFactor := HeatFactor(st.Heat, s.Params.MaxHeat)
	if heatFactor == 0 || ctx.Equity == 0 {
		return 0, nil
	}

	tempRatio := s.Params.BaseTemperature / st.Temperature
	entropyFactor := math.Exp(-st.Entropy / 2)
	baseSize := ctx.Equity * s.Params.BasePositionFraction

	raw := baseSize * tempRatio * tempRatio * entropyFactor * heatFactor
	if math.IsNaN(raw) {
		return 0, s.degenerate(ctx, "raw size is undefined")
	}
	return math.Min(raw, ctx.Equity*s.Params.MaxPositionFraction), nil
}

func (s *ThermoSizer) degenerate(ctx Context, reason string) error {
	return &model.DegenerateInputError{Index: ctx.Index, Timestamp: ctx.Timestamp, Reason: reason}
}

// HeatFactor is 1 - heat/maxHeat floored at 0, so exposure beyond MaxHeat
// shrinks the position to nothing instead of flipping its sign.
func HeatFactor(heat, maxHeat float64) float64 {
	f := 1 - heat/maxHeat
	if f < 0 {
		return 0
	}
	return f
}
