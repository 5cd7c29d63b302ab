package model

import (
	"math"
	"sort"
	"time"
)

// Position is a sized exposure in currency units.
type Position struct {
	Symbol    string
	Timestamp time.Time
	Size      float64
}

// OpenPositions tracks currently held positions keyed by symbol and derives
// heat from them.
//
// In a single-instrument backtest nothing is ever opened here, so heat stays 0
// for the whole run. That is the reference behavior of the model: the heat
// term only becomes active once several concurrent instruments are tracked
// (or when the engine is configured to register its own positions).
type OpenPositions struct {
	bySymbol map[string]Position
}

func NewOpenPositions() *OpenPositions {
	return &OpenPositions{bySymbol: map[string]Position{}}
}

// Open records (or replaces) the position for p.Symbol. A zero size closes it.
func (o *OpenPositions) Open(p Position) {
	if p.Size == 0 {
		o.Close(p.Symbol)
		return
	}
	o.bySymbol[p.Symbol] = p
}

func (o *OpenPositions) Close(symbol string) {
	delete(o.bySymbol, symbol)
}

// Heat is the sum of absolute sizes of all open positions.
func (o *OpenPositions) Heat() float64 {
	if o == nil {
		return 0
	}
	// Sum in a fixed order so results are bit-identical across runs.
	symbols := make([]string, 0, len(o.bySymbol))
	for s := range o.bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	heat := 0.0
	for _, s := range symbols {
		heat += math.Abs(o.bySymbol[s].Size)
	}
	return heat
}

// Len is the number of open positions.
func (o *OpenPositions) Len() int {
	if o == nil {
		return 0
	}
	return len(o.bySymbol)
}
