package thermo

import (
	"math"

	"github.com/tazeemc/Entropy/internal/model"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// RollingTemperature returns, for every index t, the sample standard
// deviation of returns[t-window+1..t] scaled by sqrt(252).
//
// Indices with fewer than window returns available (t < window-1) are NaN:
// there is no valid estimate yet, which is not the same as zero volatility.
func RollingTemperature(returns []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, &model.InvalidConfigurationError{Field: "volatility_window", Reason: "must be >= 2"}
	}
	out := make([]float64, len(returns))
	ann := math.Sqrt(TradingDaysPerYear)
	for t := range returns {
		if t < window-1 {
			out[t] = math.NaN()
			continue
		}
		out[t] = SampleStdDev(returns[t-window+1:t+1]) * ann
	}
	return out, nil
}

// SampleStdDev is the n-1 standard deviation. It is exactly 0 for a
// constant sample and NaN for fewer than two values.
func SampleStdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	constant := true
	sum := 0.0
	for _, x := range xs {
		sum += x
		if x != xs[0] {
			constant = false
		}
	}
	if constant {
		return 0
	}
	mean := sum / float64(n)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
