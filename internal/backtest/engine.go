package backtest

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/tazeemc/Entropy/internal/model"
	"github.com/tazeemc/Entropy/internal/strategy"
	"github.com/tazeemc/Entropy/internal/thermo"
)

// Options configure a run. Zero values are not defaulted here; config.Load
// is responsible for that.
type Options struct {
	Symbol        string
	InitialEquity float64
	Estimator     thermo.Estimator

	// TrackHeat registers each step's decided position with the heat tracker
	// so the following step sees it as heat. Off by default: a single-asset
	// run then has heat 0 throughout.
	TrackHeat bool
}

// State is what one step hands to the next.
type State struct {
	// Index of the last processed step; -1 before the first step.
	Index int
	// Equity after the last step.
	Equity float64
	// Position decided at the close of the last step.
	Position float64
}

// InitialState is the state before the first step.
func InitialState(equity float64) State {
	return State{Index: -1, Equity: equity}
}

// Input is one step's market data and system state.
type Input struct {
	Timestamp time.Time
	Price     float64
	Return    float64
	State     model.SystemState
}

type Engine struct {
	sizer strategy.Sizer
	opts  Options
}

func New(sizer strategy.Sizer, opts Options) *Engine {
	return &Engine{sizer: sizer, opts: opts}
}

// Step applies one input to the previous state and returns the next state
// with the row it produced. It has no side effects.
//
// The previous step's position earns this step's return (lag-1):
//
//	strategy_return[t] = position[t-1] / equity[t-1] * market_return[t]
//	equity[t]          = equity[t-1] * (1 + strategy_return[t])
//
// The new position is then sized from equity[t] and the state at t. A sizing
// failure resolves to no position and is flagged on the row.
func (e *Engine) Step(prev State, in Input) (State, Record) {
	rec := Record{
		Index:        prev.Index + 1,
		Timestamp:    in.Timestamp,
		Price:        in.Price,
		MarketReturn: in.Return,
		Temperature:  in.State.Temperature,
		Entropy:      in.State.Entropy,
		Heat:         in.State.Heat,
	}

	strategyReturn := 0.0
	if prev.Index >= 0 && prev.Equity > 0 {
		strategyReturn = prev.Position / prev.Equity * in.Return
	}
	if math.IsNaN(strategyReturn) || math.IsInf(strategyReturn, 0) {
		strategyReturn = 0
		rec.Status = model.StatusDegenerate
		rec.Note = "market return is not a finite number"
	}
	rec.StrategyReturn = strategyReturn
	rec.Equity = prev.Equity * (1 + strategyReturn)

	size, err := e.sizer.Size(strategy.Context{
		Index:     rec.Index,
		Timestamp: in.Timestamp,
		Equity:    rec.Equity,
		State:     in.State,
	})
	switch {
	case err != nil:
		size = 0
		rec.Status = model.StatusDegenerate
		rec.Note = err.Error()
	case !in.State.Warm:
		rec.Status = model.StatusWarmup
	case rec.Status == "":
		rec.Status = model.StatusFromSize(size)
	}
	rec.PositionSize = size

	return State{Index: rec.Index, Equity: rec.Equity, Position: size}, rec
}

// Run executes a backtest over a single-instrument price series.
// Data problems (empty, too short, bad prices, unordered timestamps) abort
// before any step is simulated.
func (e *Engine) Run(observations []model.Observation) (*Result, error) {
	if e.sizer == nil {
		return nil, fmt.Errorf("sizer is nil")
	}
	if !(e.opts.InitialEquity > 0) || math.IsInf(e.opts.InitialEquity, 0) {
		return nil, &model.InvalidConfigurationError{Field: "initial_equity", Reason: "must be a finite number > 0"}
	}
	if len(observations) < 2 {
		return nil, &model.InsufficientDataError{Need: e.opts.Estimator.VolatilityWindow, Have: 0}
	}

	points, err := thermo.BuildReturns(observations)
	if err != nil {
		return nil, err
	}
	states, err := e.opts.Estimator.Estimate(model.Returns(points))
	if err != nil {
		return nil, err
	}

	heat := model.NewOpenPositions()
	res := &Result{
		Symbol:        e.opts.Symbol,
		Sizer:         e.sizer.Name(),
		InitialEquity: e.opts.InitialEquity,
		Options:       e.opts,
		Records:       make([]Record, 0, len(points)),
	}

	st := InitialState(e.opts.InitialEquity)
	warm := false
	for i, p := range points {
		next, rec := e.Step(st, Input{
			Timestamp: p.Timestamp,
			Price:     p.Price,
			Return:    p.Return,
			State:     states[i].WithHeat(heat.Heat()),
		})

		switch rec.Status {
		case model.StatusWarmup:
			res.WarmupSteps++
		case model.StatusDegenerate:
			if res.DegenerateSteps == 0 {
				log.Printf("[Engine] %s: holding no position: %s", e.opts.Symbol, rec.Note)
			}
			res.DegenerateSteps++
		}
		if !warm && states[i].Warm {
			warm = true
			log.Printf("[Engine] %s: warm-up complete at index %d (%s)", e.opts.Symbol, i, p.Timestamp.Format("2006-01-02"))
		}

		if e.opts.TrackHeat {
			heat.Open(model.Position{Symbol: e.opts.Symbol, Timestamp: p.Timestamp, Size: rec.PositionSize})
		}

		res.Records = append(res.Records, rec)
		st = next
	}

	if res.DegenerateSteps > 0 {
		log.Printf("[Engine] %s: %d of %d steps had degenerate inputs", e.opts.Symbol, res.DegenerateSteps, len(points))
	}
	res.FinalEquity = st.Equity
	return res, nil
}
