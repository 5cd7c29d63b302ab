package thermo

import (
	"math"

	"github.com/tazeemc/Entropy/internal/model"
)

// entropyEpsilon keeps ln(p) finite for empty bins.
const entropyEpsilon = 1e-10

// Histogram bins returns into `bins` equal-width buckets spanning
// [min, max] (the last bucket is closed on the right) and returns the
// empirical probability of each bucket.
//
// Counts are first turned into a density (count / (n * width)) and the
// density is then normalized to sum to 1. With equal widths this equals
// count/n. A sample with a single distinct value falls into the middle
// bucket of a unit-wide range around it.
func Histogram(returns []float64, bins int) ([]float64, error) {
	if bins < 1 {
		return nil, &model.InvalidConfigurationError{Field: "entropy_bins", Reason: "must be >= 1"}
	}
	if len(returns) == 0 {
		return nil, &model.InsufficientDataError{Need: 1, Have: 0}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, &model.InvalidSeriesError{Index: i, Reason: "return is not a finite number"}
		}
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(bins)

	counts := make([]float64, bins)
	for _, r := range returns {
		idx := int((r - lo) / (hi - lo) * float64(bins))
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	n := float64(len(returns))
	density := make([]float64, bins)
	total := 0.0
	for i, c := range counts {
		density[i] = c / (n * width)
		total += density[i]
	}
	for i := range density {
		density[i] /= total
	}
	return density, nil
}

// ShannonEntropy computes -sum p*ln(p + eps) in nats. The epsilon can push a
// fully concentrated distribution a hair below zero; that is floored at 0.
func ShannonEntropy(probs []float64) float64 {
	h := 0.0
	for _, p := range probs {
		h -= p * math.Log(p+entropyEpsilon)
	}
	if h < 0 {
		return 0
	}
	return h
}

// Entropy is the Shannon entropy of the whole return sample.
func Entropy(returns []float64, bins int) (float64, error) {
	probs, err := Histogram(returns, bins)
	if err != nil {
		return 0, err
	}
	return ShannonEntropy(probs), nil
}

// RollingEntropy computes entropy over a trailing window of returns.
// Indices before the window fills are NaN.
func RollingEntropy(returns []float64, window, bins int) ([]float64, error) {
	if window < 2 {
		return nil, &model.InvalidConfigurationError{Field: "entropy_window", Reason: "must be >= 2 when set"}
	}
	out := make([]float64, len(returns))
	for t := range returns {
		if t < window-1 {
			out[t] = math.NaN()
			continue
		}
		h, err := Entropy(returns[t-window+1:t+1], bins)
		if err != nil {
			return nil, err
		}
		out[t] = h
	}
	return out, nil
}
