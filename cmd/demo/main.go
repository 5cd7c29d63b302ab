package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/tazeemc/Entropy/internal/analysis"
	"github.com/tazeemc/Entropy/internal/backtest"
	"github.com/tazeemc/Entropy/internal/config"
	"github.com/tazeemc/Entropy/internal/data"
	"github.com/tazeemc/Entropy/internal/strategy"
)

// Demo:
// - Generate a seeded synthetic price path (optionally with a crash)
// - Run the thermodynamic sizer over it
// - Print the first rows after warm-up and the performance summary
// - Run the fixed-fraction baseline over the same path for comparison
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional; only the model block is used)")
	days := flag.Int("days", 500, "Number of observations to generate")
	seed := flag.Int64("seed", 42, "Random seed")
	vol := flag.Float64("vol", 0.03, "Daily volatility")
	drift := flag.Float64("drift", 0.0005, "Daily drift")
	shockDay := flag.Int("shock-day", 0, "Observation index of a one-day shock (0=none)")
	shock := flag.Float64("shock", -0.25, "Shock return, e.g. -0.25 for a 25% drop")
	n := flag.Int("n", 12, "Number of rows to print")
	outCSV := flag.String("out", "", "Optional path to write records CSV (e.g. results/demo.csv)")
	baseline := flag.Bool("baseline", true, "Also run the fixed-fraction baseline and print its summary")
	flag.Parse()

	logger := log.New(os.Stderr, "[demo] ", log.LstdFlags)

	m := config.Defaults()
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			logger.Fatalf("config: %v", err)
		}
		m = cfg.Model
	}

	gen := data.Synthetic{
		Symbol:        "SYNTH",
		Days:          *days,
		StartPrice:    10,
		DailyDrift:    *drift,
		DailyVol:      *vol,
		Seed:          *seed,
		ShockDay:      *shockDay,
		ShockReturn:   *shock,
		AfterShockVol: *vol / 3,
	}
	if err := gen.Validate(); err != nil {
		logger.Fatalf("synthetic series: %v", err)
	}
	series := gen.Generate()

	engine, err := m.NewEngine(series.Symbol)
	if err != nil {
		logger.Fatalf("model: %v", err)
	}
	res, err := engine.Run(series.Data)
	if err != nil {
		logger.Fatalf("backtest: %v", err)
	}

	first := res.Options.Estimator.WarmupLength()
	fmt.Printf("Generated %d observations for %s (seed=%d)\n", len(series.Data), series.Symbol, *seed)
	fmt.Printf("Sizer=%s  window=%d  bins=%d  entropy=%.4f  warm-up=%d\n\n", res.Sizer, m.VolatilityWindow, m.EntropyBins, res.Records[len(res.Records)-1].Entropy, first)

	for i := first; i < min(first+*n, len(res.Records)); i++ {
		r := res.Records[i]
		fmt.Printf(
			"%s price=%8.3f  ret=%+7.4f  temp=%6.3f  size=%9.2f  equity=%11.2f  %s\n",
			r.Timestamp.Format("2006-01-02"),
			r.Price,
			r.MarketReturn,
			r.Temperature,
			r.PositionSize,
			r.Equity,
			r.Status,
		)
	}

	if *outCSV != "" {
		if err := backtest.WriteRecordsCSV(*outCSV, res.Records); err != nil {
			logger.Fatalf("write csv: %v", err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	perf, err := analysis.ComputePerformance(res)
	if err != nil {
		logger.Fatalf("performance: %v", err)
	}
	fmt.Println()
	printSummary(res.Sizer, perf)

	if *baseline && res.Sizer != strategy.SizerFixed {
		fixed := m
		fixed.Sizer = strategy.SizerFixed
		engine, err := fixed.NewEngine(series.Symbol)
		if err != nil {
			logger.Fatalf("baseline: %v", err)
		}
		bres, err := engine.Run(series.Data)
		if err != nil {
			logger.Fatalf("baseline: %v", err)
		}
		bperf, err := analysis.ComputePerformance(bres)
		if err != nil {
			logger.Fatalf("baseline performance: %v", err)
		}
		printSummary(bres.Sizer, bperf)
	}
}

func printSummary(sizer string, perf analysis.Performance) {
	sharpe := "n/a"
	if !math.IsNaN(perf.Sharpe) {
		sharpe = fmt.Sprintf("%.4f", perf.Sharpe)
	}
	fmt.Printf("%-7s Total Return=%.4f%%  Sharpe=%s  Max Drawdown=%.4f%%  Final Equity=%.2f\n",
		sizer+":", perf.TotalReturnPct, sharpe, perf.MaxDrawdownPct, perf.FinalEquity)
}
