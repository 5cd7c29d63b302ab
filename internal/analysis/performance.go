package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/tazeemc/Entropy/internal/backtest"
	"github.com/tazeemc/Entropy/internal/model"
	"github.com/tazeemc/Entropy/internal/thermo"
)

// Performance summarizes one backtest run.
// Percentages are in percent units (5 means 5%). Sharpe is NaN when it is
// undefined for the run; Warnings then says why.
type Performance struct {
	Symbol string

	StartUTC time.Time
	EndUTC   time.Time

	Periods       int
	ActivePeriods int

	FinalEquity    float64
	TotalReturnPct float64
	Sharpe         float64
	MaxDrawdownPct float64

	// SharpeActive uses only the returns earned after warm-up, i.e. from
	// the step after the first sized position. NaN when undefined.
	SharpeActive float64

	AnnualizedVolatilityPct float64
	ExposureMeanPct         float64

	// Tails of the daily strategy return distribution.
	ReturnP05Pct float64
	ReturnP95Pct float64

	Warnings []string
}

// ComputePerformance derives the summary statistics of a run.
// The Sharpe ratio and volatility skip the first row, whose strategy return
// is 0 by construction.
func ComputePerformance(res *backtest.Result) (Performance, error) {
	if res == nil || len(res.Records) == 0 {
		return Performance{}, &model.InsufficientDataError{Need: 1, Have: 0}
	}
	recs := res.Records
	p := Performance{
		Symbol:   res.Symbol,
		StartUTC: recs[0].Timestamp.UTC(),
		EndUTC:   recs[len(recs)-1].Timestamp.UTC(),
		Periods:  len(recs),
	}

	equity := res.EquityCurve()
	returns := res.StrategyReturns()[1:]

	p.FinalEquity = equity[len(equity)-1]
	p.TotalReturnPct = TotalReturn(equity) * 100
	p.MaxDrawdownPct = MaxDrawdown(equity) * 100

	sharpe, err := Sharpe(returns)
	if err != nil {
		p.Sharpe = math.NaN()
		p.Warnings = append(p.Warnings, "sharpe ratio undefined: "+err.Error())
	} else {
		p.Sharpe = sharpe
	}
	p.SharpeActive = math.NaN()
	if from := res.WarmupSteps + 1; from < len(recs) {
		if s, err := Sharpe(res.StrategyReturns()[from:]); err == nil {
			p.SharpeActive = s
		}
	}
	p.AnnualizedVolatilityPct = thermo.SampleStdDev(returns) * math.Sqrt(thermo.TradingDaysPerYear) * 100

	exposure := 0.0
	for _, r := range recs {
		if r.PositionSize != 0 {
			p.ActivePeriods++
		}
		if r.Equity > 0 {
			exposure += r.PositionSize / r.Equity
		}
	}
	p.ExposureMeanPct = exposure / float64(len(recs)) * 100
	if p.ActivePeriods == 0 {
		p.Warnings = append(p.Warnings, "no position was ever taken")
	}

	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	p.ReturnP05Pct = percentileSorted(sorted, 0.05) * 100
	p.ReturnP95Pct = percentileSorted(sorted, 0.95) * 100

	return p, nil
}

// TotalReturn is equity[last]/equity[first] - 1 as a fraction.
func TotalReturn(equity []float64) float64 {
	if len(equity) == 0 || equity[0] == 0 {
		return 0
	}
	return equity[len(equity)-1]/equity[0] - 1
}

// Sharpe is the annualized ratio sqrt(252) * mean / stdev (sample stdev, no
// risk-free rate). Fewer than 2 returns or zero dispersion has no defined
// ratio and yields a DegenerateInputError.
func Sharpe(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return math.NaN(), &model.DegenerateInputError{Index: -1, Reason: "need at least 2 strategy returns"}
	}
	sd := thermo.SampleStdDev(returns)
	if sd == 0 {
		return math.NaN(), &model.DegenerateInputError{Index: -1, Reason: "strategy returns have zero standard deviation"}
	}
	return math.Sqrt(thermo.TradingDaysPerYear) * mean(returns) / sd, nil
}

// MaxDrawdown is the most negative equity/running-peak - 1 as a fraction.
// It is 0 for a curve that never falls below its running maximum.
func MaxDrawdown(equity []float64) float64 {
	worst := 0.0
	peak := math.Inf(-1)
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			if dd := e/peak - 1; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
