package model

import "time"

// PriceSeries is the JSON shape of a pre-fetched daily price file.
//
// Example:
//
//	{
//	  "symbol": "NU",
//	  "data": [ {"timestamp": "2021-12-09T00:00:00Z", "price": 10.33}, ... ]
//	}
type PriceSeries struct {
	Symbol string        `json:"symbol"`
	Data   []Observation `json:"data"`
}

// Observation is one closing price per trading period.
// Timestamps are expected to be strictly increasing and unique within a series.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// ReturnPoint is one simple return, keyed by the timestamp of the later price.
type ReturnPoint struct {
	Timestamp time.Time
	Price     float64
	Return    float64
}

// Returns extracts the raw return values.
func Returns(points []ReturnPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Return
	}
	return out
}
