package backtest

import (
	"time"

	"github.com/tazeemc/Entropy/internal/model"
)

// Record is one row of per-step output.
// This is the primary artifact for "what happened" in a backtest.
type Record struct {
	Index     int
	Timestamp time.Time
	Price     float64

	// MarketReturn is the simple return realized over (t-1, t].
	MarketReturn float64

	// Temperature (and Entropy, when rolling) is NaN while warming up.
	Temperature float64
	Entropy     float64
	Heat        float64

	// PositionSize is decided at the close of this step and applied to the
	// next step's market return.
	PositionSize float64

	StrategyReturn float64
	Equity         float64

	Status model.Status
	Note   string
}

type Result struct {
	Symbol        string
	Sizer         string
	InitialEquity float64
	Options       Options

	Records []Record

	FinalEquity     float64
	WarmupSteps     int
	DegenerateSteps int
}

// StrategyReturns returns the per-step strategy returns in order.
func (r *Result) StrategyReturns() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.StrategyReturn
	}
	return out
}

// EquityCurve returns the per-step equity values in order.
func (r *Result) EquityCurve() []float64 {
	out := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Equity
	}
	return out
}
