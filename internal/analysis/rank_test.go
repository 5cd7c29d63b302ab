package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazeemc/Entropy/internal/backtest"
)

func TestRankBySharpe(t *testing.T) {
	runs := map[string]*backtest.Result{
		"UP":   resultFromEquity("UP", []float64{100, 101, 103, 104, 106}, []float64{1, 1, 1, 1, 1}),
		"DOWN": resultFromEquity("DOWN", []float64{100, 99, 97, 96, 94}, []float64{1, 1, 1, 1, 1}),
		"FLAT": resultFromEquity("FLAT", []float64{100, 100, 100, 100, 100}, []float64{0, 0, 0, 0, 0}),
		"MIX":  resultFromEquity("MIX", []float64{100, 102, 101, 103, 102}, []float64{1, 1, 1, 1, 1}),
	}

	ranked, err := RankBySharpe(runs)
	require.NoError(t, err)
	require.Len(t, ranked, 4)

	symbols := make([]string, len(ranked))
	for i, r := range ranked {
		symbols[i] = r.Symbol
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"UP", "MIX", "DOWN", "FLAT"}, symbols)
	assert.True(t, math.IsNaN(ranked[3].Sharpe))
	assert.Greater(t, ranked[0].Sharpe, ranked[1].Sharpe)
}

func TestRankBySharpe_TiesBreakOnSymbol(t *testing.T) {
	eq := []float64{100, 100, 100}
	none := []float64{0, 0, 0}
	runs := map[string]*backtest.Result{
		"B": resultFromEquity("", eq, none),
		"A": resultFromEquity("", eq, none),
		"C": resultFromEquity("", eq, none),
	}
	ranked, err := RankBySharpe(runs)
	require.NoError(t, err)
	assert.Equal(t, "A", ranked[0].Symbol)
	assert.Equal(t, "B", ranked[1].Symbol)
	assert.Equal(t, "C", ranked[2].Symbol)
}

func TestRankBySharpe_PropagatesErrors(t *testing.T) {
	_, err := RankBySharpe(map[string]*backtest.Result{"EMPTY": {Symbol: "EMPTY"}})
	assert.Error(t, err)
}
