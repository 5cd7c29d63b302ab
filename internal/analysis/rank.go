package analysis

import (
	"math"
	"sort"

	"github.com/tazeemc/Entropy/internal/backtest"
)

type RankedPerformance struct {
	Performance
	Rank int
}

// RankBySharpe computes performance per instrument and sorts descending by
// Sharpe. Runs with an undefined Sharpe sort last; ties break on symbol so
// the order is stable across calls.
func RankBySharpe(bySymbol map[string]*backtest.Result) ([]RankedPerformance, error) {
	out := make([]RankedPerformance, 0, len(bySymbol))
	for symbol, res := range bySymbol {
		p, err := ComputePerformance(res)
		if err != nil {
			return nil, err
		}
		if p.Symbol == "" {
			p.Symbol = symbol
		}
		out = append(out, RankedPerformance{Performance: p})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Sharpe, out[j].Sharpe
		switch {
		case math.IsNaN(a) && math.IsNaN(b):
			return out[i].Symbol < out[j].Symbol
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case a != b:
			return a > b
		}
		return out[i].Symbol < out[j].Symbol
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
