package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazeemc/Entropy/internal/backtest"
	"github.com/tazeemc/Entropy/internal/model"
)

var day0 = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

// resultFromEquity builds a run whose rows hold the given equity curve and
// positions.
func resultFromEquity(symbol string, equity, sizes []float64) *backtest.Result {
	res := &backtest.Result{Symbol: symbol, InitialEquity: equity[0]}
	for i, e := range equity {
		sr := 0.0
		if i > 0 {
			sr = e/equity[i-1] - 1
		}
		res.Records = append(res.Records, backtest.Record{
			Index:          i,
			Timestamp:      day0.AddDate(0, 0, i),
			Equity:         e,
			StrategyReturn: sr,
			PositionSize:   sizes[i],
		})
	}
	res.FinalEquity = equity[len(equity)-1]
	return res
}

func TestSharpe(t *testing.T) {
	s, err := Sharpe([]float64{0.01, 0.02, 0.03})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(252)*2, s, 1e-9)

	s, err = Sharpe([]float64{-0.01, -0.02, -0.03})
	require.NoError(t, err)
	assert.InDelta(t, -math.Sqrt(252)*2, s, 1e-9)
}

func TestSharpe_Degenerate(t *testing.T) {
	for name, returns := range map[string][]float64{
		"empty":         nil,
		"single return": {0.01},
		"zero variance": {0.01, 0.01, 0.01},
		"all zero":      {0, 0, 0, 0},
	} {
		t.Run(name, func(t *testing.T) {
			s, err := Sharpe(returns)
			assert.True(t, math.IsNaN(s))
			assert.True(t, errors.Is(err, model.ErrDegenerateInput))

			var de *model.DegenerateInputError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, -1, de.Index)
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, -0.25, MaxDrawdown([]float64{100, 120, 90, 130}), 1e-12)
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100, 101, 102}))
	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.InDelta(t, -0.5, MaxDrawdown([]float64{100, 50, 80, 60}), 1e-12)
}

func TestTotalReturn(t *testing.T) {
	assert.InDelta(t, 0.3, TotalReturn([]float64{100, 120, 90, 130}), 1e-12)
	assert.Equal(t, 0.0, TotalReturn(nil))
	assert.Equal(t, 0.0, TotalReturn([]float64{0, 10}))
}

func TestComputePerformance(t *testing.T) {
	res := resultFromEquity("NU",
		[]float64{1000, 1010, 1005, 1020, 1000},
		[]float64{0, 20, 20, 10, 0},
	)
	p, err := ComputePerformance(res)
	require.NoError(t, err)

	assert.Equal(t, "NU", p.Symbol)
	assert.Equal(t, day0, p.StartUTC)
	assert.Equal(t, day0.AddDate(0, 0, 4), p.EndUTC)
	assert.Equal(t, 5, p.Periods)
	assert.Equal(t, 3, p.ActivePeriods)
	assert.Equal(t, 1000.0, p.FinalEquity)
	assert.InDelta(t, 0.0, p.TotalReturnPct, 1e-12)
	assert.InDelta(t, (1000.0/1020-1)*100, p.MaxDrawdownPct, 1e-9)
	assert.False(t, math.IsNaN(p.Sharpe))
	assert.Greater(t, p.AnnualizedVolatilityPct, 0.0)
	assert.LessOrEqual(t, p.ReturnP05Pct, p.ReturnP95Pct)
	assert.Empty(t, p.Warnings)

	want, err := Sharpe(res.StrategyReturns()[1:])
	require.NoError(t, err)
	assert.Equal(t, want, p.Sharpe)
	assert.Equal(t, p.Sharpe, p.SharpeActive)
}

func TestComputePerformance_SharpeActiveSkipsWarmup(t *testing.T) {
	res := resultFromEquity("NU",
		[]float64{1000, 1000, 1000, 1010, 1005, 1020, 1000},
		[]float64{0, 0, 20, 20, 10, 10, 0},
	)
	res.WarmupSteps = 2

	p, err := ComputePerformance(res)
	require.NoError(t, err)

	want, err := Sharpe(res.StrategyReturns()[3:])
	require.NoError(t, err)
	assert.Equal(t, want, p.SharpeActive)
	assert.NotEqual(t, p.Sharpe, p.SharpeActive)

	res.WarmupSteps = 6
	p, err = ComputePerformance(res)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(p.SharpeActive))
}

func TestComputePerformance_FlatRun(t *testing.T) {
	res := resultFromEquity("FLAT",
		[]float64{1000, 1000, 1000, 1000},
		[]float64{0, 0, 0, 0},
	)
	p, err := ComputePerformance(res)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(p.Sharpe))
	assert.Equal(t, 0.0, p.TotalReturnPct)
	assert.Equal(t, 0.0, p.MaxDrawdownPct)
	assert.Equal(t, 0, p.ActivePeriods)
	assert.True(t, math.IsNaN(p.SharpeActive))
	require.Len(t, p.Warnings, 2)
	assert.Contains(t, p.Warnings[0], "sharpe ratio undefined")
	assert.Equal(t, "no position was ever taken", p.Warnings[1])
}

func TestComputePerformance_Empty(t *testing.T) {
	_, err := ComputePerformance(nil)
	assert.True(t, errors.Is(err, model.ErrInsufficientData))

	_, err = ComputePerformance(&backtest.Result{})
	assert.True(t, errors.Is(err, model.ErrInsufficientData))
}

func TestPercentileSorted(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, percentileSorted(xs, 0))
	assert.Equal(t, 5.0, percentileSorted(xs, 1))
	assert.Equal(t, 3.0, percentileSorted(xs, 0.5))
	assert.InDelta(t, 1.2, percentileSorted(xs, 0.05), 1e-12)
	assert.Equal(t, 0.0, percentileSorted(nil, 0.5))
}
