package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tazeemc/Entropy/internal/analysis"
	"github.com/tazeemc/Entropy/internal/backtest"
	"github.com/tazeemc/Entropy/internal/config"
	"github.com/tazeemc/Entropy/internal/data"
	"github.com/tazeemc/Entropy/internal/thermo"
)

var logger = log.New(os.Stderr, "[cli] ", log.LstdFlags)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "rank":
		cmdRank(os.Args[2:])
	case "ingest":
		cmdIngest(os.Args[2:])
	case "defaults":
		cmdDefaults(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli backtest --config examples/config.yaml --out results/records.csv")
	fmt.Println("  cli backtest --data prices.csv --symbol NU")
	fmt.Println("  cli backtest --source chart --symbol NU --start 2021-12-09")
	fmt.Println("  cli rank --data prices/ [--config examples/config.yaml]")
	fmt.Println("  cli ingest --data prices.csv --symbol NU [--dsn postgres://...]")
	fmt.Println("  cli defaults")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - backtest writes one CSV row per return with status=WARMUP/FLAT/SIZED/DEGENERATE")
	fmt.Println("  - rank backtests each series independently and sorts by Sharpe ratio")
	fmt.Println("  - the postgres source and ingest read POSTGRES_DSN when --dsn is not given")
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional; defaults otherwise)")
	source := fs.String("source", "", "Data source: file, chart or postgres (overrides config)")
	dataPath := fs.String("data", "", "Price file (.json or .csv); implies --source file")
	symbol := fs.String("symbol", "", "Instrument symbol (overrides config)")
	start := fs.String("start", "", "Start date YYYY-MM-DD (overrides config)")
	end := fs.String("end", "", "End date YYYY-MM-DD (overrides config)")
	dsn := fs.String("dsn", "", "Postgres DSN (overrides config and POSTGRES_DSN)")
	sizer := fs.String("sizer", "", "Sizer: thermo or fixed (overrides config)")
	outPath := fs.String("out", "results/records.csv", "Output CSV path")
	n := fs.Int("n", 0, "Optional: limit to first N observations (0=all)")
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	if *dataPath != "" {
		cfg.Data.Source = config.SourceFile
		cfg.Data.Path = *dataPath
	}
	if *source != "" {
		cfg.Data.Source = *source
	}
	if *symbol != "" {
		cfg.Data.Symbol = *symbol
	}
	if *start != "" {
		cfg.Data.Start = *start
	}
	if *end != "" {
		cfg.Data.End = *end
	}
	if *sizer != "" {
		cfg.Model.Sizer = *sizer
	}
	applyDSN(&cfg.Data, *dsn)
	if cfg.Data.Source == "" {
		fmt.Println("no data source: pass --data, --source or a config with a data block")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	series, err := data.Fetch(ctx, cfg.Data)
	if err != nil {
		logger.Fatalf("load prices: %v", err)
	}
	obs := series.Data
	if *n > 0 && *n < len(obs) {
		obs = obs[:*n]
	}

	engine, err := cfg.Model.NewEngine(series.Symbol)
	if err != nil {
		logger.Fatalf("model: %v", err)
	}
	res, err := engine.Run(obs)
	if err != nil {
		logger.Fatalf("backtest: %v", err)
	}
	perf, err := analysis.ComputePerformance(res)
	if err != nil {
		logger.Fatalf("performance: %v", err)
	}

	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		logger.Fatalf("create output dir: %v", err)
	}
	if err := backtest.WriteRecordsCSV(*outPath, res.Records); err != nil {
		logger.Fatalf("write csv: %v", err)
	}

	if *asJSON {
		printJSON(perf)
		return
	}
	fmt.Printf("Wrote %d rows to %s\n", len(res.Records), *outPath)
	printPerformance(res, perf)
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	dataPaths := fs.String("data", "", "Comma-separated price files (.json/.csv) or directories")
	cfgPath := fs.String("config", "", "Path to YAML config (optional; only the model block is used)")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	if err := cfg.Model.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	bySymbol := map[string]*backtest.Result{}
	loadedFrom := map[string]string{}
	for _, p := range expandPaths(splitPaths(*dataPaths)) {
		series, err := data.LoadPrices(p)
		if err != nil {
			logger.Fatalf("load %s: %v", p, err)
		}
		if prev, dup := loadedFrom[series.Symbol]; dup {
			logger.Fatalf("load %s: symbol %s already loaded from %s", p, series.Symbol, prev)
		}
		loadedFrom[series.Symbol] = p
		engine, err := cfg.Model.NewEngine(series.Symbol)
		if err != nil {
			logger.Fatalf("model: %v", err)
		}
		res, err := engine.Run(series.Data)
		if err != nil {
			logger.Printf("skipping %s: %v", series.Symbol, err)
			continue
		}
		bySymbol[series.Symbol] = res
	}
	if len(bySymbol) == 0 {
		logger.Fatalf("no series could be backtested")
	}

	ranked, err := analysis.RankBySharpe(bySymbol)
	if err != nil {
		logger.Fatalf("rank: %v", err)
	}
	fmt.Printf("%-4s %-10s %-8s %-10s %-12s %-12s %-14s\n", "rank", "symbol", "periods", "sharpe", "return%", "max_dd%", "final_equity")
	for _, r := range ranked {
		fmt.Printf(
			"%-4d %-10s %-8d %-10s %-12.4f %-12.4f %-14.2f\n",
			r.Rank,
			r.Symbol,
			r.Periods,
			fmtSharpe(r.Sharpe),
			r.TotalReturnPct,
			r.MaxDrawdownPct,
			r.FinalEquity,
		)
	}
}

func cmdIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataPaths := fs.String("data", "", "Comma-separated price files (.json/.csv) or directories")
	symbol := fs.String("symbol", "", "Symbol to store under (single file only; default from file)")
	dsn := fs.String("dsn", "", "Postgres DSN (default POSTGRES_DSN)")
	replace := fs.Bool("replace", true, "Replace prices already stored for the same day")
	_ = fs.Parse(args)

	dc := config.DataConfig{}
	applyDSN(&dc, *dsn)
	if dc.PostgresDSN == "" {
		fmt.Println("--dsn or POSTGRES_DSN is required")
		os.Exit(2)
	}

	paths := expandPaths(splitPaths(*dataPaths))
	if len(paths) == 0 {
		fmt.Println("--data is required")
		os.Exit(2)
	}
	if *symbol != "" && len(paths) > 1 {
		fmt.Println("--symbol can only be used with a single file")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := data.NewPriceStore(ctx, dc.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("postgres: %v", err)
	}

	for _, p := range paths {
		series, err := data.LoadPrices(p)
		if err != nil {
			logger.Fatalf("load %s: %v", p, err)
		}
		if *symbol != "" {
			series.Symbol = *symbol
		}
		if err := thermo.ValidateObservations(series.Data); err != nil {
			logger.Fatalf("%s: %v", p, err)
		}
		if *replace {
			err = store.UpsertBulk(ctx, series)
		} else {
			err = store.InsertBulk(ctx, series)
		}
		if err != nil {
			logger.Fatalf("ingest %s: %v", p, err)
		}
		fmt.Printf("Stored %d prices for %s\n", len(series.Data), series.Symbol)
	}

	symbols, err := store.Symbols(ctx)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	fmt.Printf("Symbols in store: %s\n", strings.Join(symbols, ", "))
}

func cmdDefaults(args []string) {
	fs := flag.NewFlagSet("defaults", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg := &config.Config{
		Model: config.Defaults(),
		Data: config.DataConfig{
			Source: config.SourceChart,
			Symbol: "NU",
			Start:  "2021-12-09",
		},
	}
	out, err := cfg.Marshal()
	if err != nil {
		logger.Fatalf("marshal: %v", err)
	}
	fmt.Print(string(out))
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return &config.Config{Model: config.Defaults()}
	}
	cfg, err := config.LoadUnchecked(path)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	cfg.Model = config.MergeModel(config.Defaults(), cfg.Model)
	return cfg
}

func applyDSN(dc *config.DataConfig, flagDSN string) {
	switch {
	case flagDSN != "":
		dc.PostgresDSN = flagDSN
	case dc.PostgresDSN == "":
		dc.PostgresDSN = os.Getenv("POSTGRES_DSN")
	}
}

func printPerformance(res *backtest.Result, p analysis.Performance) {
	fmt.Printf("Symbol=%s  %s to %s\n", p.Symbol, p.StartUTC.Format("2006-01-02"), p.EndUTC.Format("2006-01-02"))
	fmt.Printf("Periods=%d  Warm-up=%d  Active=%d  Degenerate=%d\n", p.Periods, res.WarmupSteps, p.ActivePeriods, res.DegenerateSteps)
	fmt.Printf("Total Return: %.4f%%\n", p.TotalReturnPct)
	fmt.Printf("Sharpe Ratio: %s (after warm-up: %s)\n", fmtSharpe(p.Sharpe), fmtSharpe(p.SharpeActive))
	fmt.Printf("Max Drawdown: %.4f%%\n", p.MaxDrawdownPct)
	fmt.Printf("Daily Return p05/p95: %.4f%% / %.4f%%\n", p.ReturnP05Pct, p.ReturnP95Pct)
	fmt.Printf("Final Equity: %.2f  Mean Exposure: %.4f%%\n", p.FinalEquity, p.ExposureMeanPct)
	for _, w := range p.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}

type jsonPerformance struct {
	analysis.Performance
	Sharpe                  *float64 `json:"Sharpe"`
	SharpeActive            *float64 `json:"SharpeActive"`
	AnnualizedVolatilityPct *float64 `json:"AnnualizedVolatilityPct"`
}

func printJSON(p analysis.Performance) {
	out := jsonPerformance{
		Performance:             p,
		Sharpe:                  finite(p.Sharpe),
		SharpeActive:            finite(p.SharpeActive),
		AnnualizedVolatilityPct: finite(p.AnnualizedVolatilityPct),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatalf("encode: %v", err)
	}
}

func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func fmtSharpe(x float64) string {
	if math.IsNaN(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", x)
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// expandPaths replaces directories with the price files they contain.
func expandPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if ext := strings.ToLower(filepath.Ext(e.Name())); ext == ".json" || ext == ".csv" {
				out = append(out, filepath.Join(p, e.Name()))
			}
		}
	}
	return out
}
