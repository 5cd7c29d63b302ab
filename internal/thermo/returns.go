package thermo

import (
	"math"

	"github.com/tazeemc/Entropy/internal/model"
)

// BuildReturns converts a price series into simple returns
// r[t] = p[t]/p[t-1] - 1. The first observation has no predecessor and is
// dropped, so the result has len(obs)-1 points.
//
// The series must be non-empty, strictly increasing in time, and carry
// finite positive prices; otherwise the offending index is reported.
func BuildReturns(obs []model.Observation) ([]model.ReturnPoint, error) {
	if len(obs) < 2 {
		return nil, &model.InsufficientDataError{Need: 1, Have: 0}
	}
	if err := ValidateObservations(obs); err != nil {
		return nil, err
	}

	out := make([]model.ReturnPoint, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		out = append(out, model.ReturnPoint{
			Timestamp: obs[i].Timestamp,
			Price:     obs[i].Price,
			Return:    obs[i].Price/obs[i-1].Price - 1,
		})
	}
	return out, nil
}

// ValidateObservations checks prices and timestamp ordering.
func ValidateObservations(obs []model.Observation) error {
	for i, o := range obs {
		if math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
			return &model.InvalidSeriesError{Index: i, Timestamp: o.Timestamp, Reason: "price is not a finite number"}
		}
		if o.Price <= 0 {
			return &model.InvalidSeriesError{Index: i, Timestamp: o.Timestamp, Reason: "price must be > 0"}
		}
		if o.Timestamp.IsZero() {
			return &model.InvalidSeriesError{Index: i, Reason: "missing timestamp"}
		}
		if i > 0 && !o.Timestamp.After(obs[i-1].Timestamp) {
			return &model.InvalidSeriesError{Index: i, Timestamp: o.Timestamp, Reason: "timestamps must be strictly increasing"}
		}
	}
	return nil
}
