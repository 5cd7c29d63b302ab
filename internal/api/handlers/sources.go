package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tazeemc/Entropy/internal/analysis"
	"github.com/tazeemc/Entropy/internal/api/models"
	"github.com/tazeemc/Entropy/internal/backtest"
	"github.com/tazeemc/Entropy/internal/config"
	"github.com/tazeemc/Entropy/internal/data"
	"github.com/tazeemc/Entropy/internal/model"

	"github.com/gin-gonic/gin"
)

// Data source types accepted in requests.
const (
	SourceInline   = "inline"
	SourceChart    = "chart"
	SourcePostgres = "postgres"
)

// Sources resolves request data sources to price series.
type Sources struct {
	Chart *data.ChartClient
	// Store serves the postgres source; nil when no database is configured.
	Store data.Provider
}

// fetchError marks a failure of an upstream data provider.
type fetchError struct {
	err error
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

// Fetch returns the series a request selects.
func (s *Sources) Fetch(ctx context.Context, ds models.DataSourceConfig) (*model.PriceSeries, error) {
	start, end, err := config.DataConfig{Start: ds.StartDate, End: ds.EndDate}.Range()
	if err != nil {
		return nil, err
	}

	var provider data.Provider
	switch ds.Type {
	case SourceInline:
		symbol := ds.Symbol
		if symbol == "" {
			symbol = "INLINE"
		}
		return &model.PriceSeries{Symbol: symbol, Data: data.FilterRange(ds.Prices, start, end)}, nil
	case SourceChart:
		if s.Chart == nil {
			return nil, &fetchError{err: errors.New("chart source is not configured")}
		}
		provider = s.Chart
	case SourcePostgres:
		if s.Store == nil {
			return nil, &fetchError{err: errors.New("postgres source is not configured (set POSTGRES_DSN)")}
		}
		provider = s.Store
	default:
		return nil, &model.InvalidConfigurationError{Field: "data_source.type", Reason: fmt.Sprintf("unsupported type %q", ds.Type)}
	}
	if ds.Symbol == "" {
		return nil, &model.InvalidConfigurationError{Field: "data_source.symbol", Reason: "required for " + ds.Type + " source"}
	}

	series, err := provider.Prices(ctx, data.Query{Symbol: ds.Symbol, Start: start, End: end})
	if err != nil {
		return nil, &fetchError{err: err}
	}
	return series, nil
}

// PresetDir returns the model preset directory from PRESET_DIR, defaulting
// to examples/models under the working directory.
func PresetDir() string {
	dir := os.Getenv("PRESET_DIR")
	if dir == "" {
		wd, err := os.Getwd()
		if err == nil {
			dir = filepath.Join(wd, "examples", "models")
		} else {
			dir = "./examples/models"
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

// resolveModel builds the effective model config: defaults, then the named
// preset, then the request's own overrides.
func resolveModel(presetDir string, req models.ModelConfig) (config.ModelConfig, error) {
	base := config.Defaults()
	if req.ModelFile != "" {
		// Presets are looked up by id only; no paths from the request.
		id := strings.TrimSuffix(filepath.Base(req.ModelFile), ".yaml")
		presetPath := filepath.Join(presetDir, id+".yaml")
		loaded, err := config.LoadModelFile(presetPath)
		if err != nil {
			log.Printf("[API] Failed to load preset %s: %v", presetPath, err)
			return config.ModelConfig{}, &model.InvalidConfigurationError{Field: "model_file", Reason: fmt.Sprintf("unknown preset %q", id)}
		}
		base = config.MergeModel(base, loaded)
		if loaded.Name == "" {
			base.Name = id
		}
	}
	m := config.MergeModel(base, toModelConfig(req))
	if err := m.Validate(); err != nil {
		return config.ModelConfig{}, err
	}
	return m, nil
}

// mergeConfig overlays non-zero fields of override onto base.
func mergeConfig(base, override models.ModelConfig) models.ModelConfig {
	merged := fromModelConfig(config.MergeModel(toModelConfig(base), toModelConfig(override)))
	merged.ModelFile = base.ModelFile
	if override.ModelFile != "" {
		merged.ModelFile = override.ModelFile
	}
	return merged
}

func toModelConfig(m models.ModelConfig) config.ModelConfig {
	return config.ModelConfig{
		Sizer:                m.Sizer,
		BaseTemperature:      m.BaseTemperature,
		MaxHeat:              m.MaxHeat,
		VolatilityWindow:     m.VolatilityWindow,
		EntropyBins:          m.EntropyBins,
		EntropyWindow:        m.EntropyWindow,
		InitialEquity:        m.InitialEquity,
		MaxPositionFraction:  m.MaxPositionFraction,
		BasePositionFraction: m.BasePositionFraction,
		TrackHeat:            m.TrackHeat,
	}
}

func fromModelConfig(m config.ModelConfig) models.ModelConfig {
	return models.ModelConfig{
		Sizer:                m.Sizer,
		BaseTemperature:      m.BaseTemperature,
		MaxHeat:              m.MaxHeat,
		VolatilityWindow:     m.VolatilityWindow,
		EntropyBins:          m.EntropyBins,
		EntropyWindow:        m.EntropyWindow,
		InitialEquity:        m.InitialEquity,
		MaxPositionFraction:  m.MaxPositionFraction,
		BasePositionFraction: m.BasePositionFraction,
		TrackHeat:            m.TrackHeat,
	}
}

// runBacktest simulates one series and summarizes it.
func runBacktest(m config.ModelConfig, series *model.PriceSeries, limit int) (*backtest.Result, analysis.Performance, error) {
	obs := series.Data
	if limit > 0 && limit < len(obs) {
		obs = obs[:limit]
	}
	engine, err := m.NewEngine(series.Symbol)
	if err != nil {
		return nil, analysis.Performance{}, err
	}
	res, err := engine.Run(obs)
	if err != nil {
		return nil, analysis.Performance{}, err
	}
	perf, err := analysis.ComputePerformance(res)
	if err != nil {
		return nil, analysis.Performance{}, err
	}
	return res, perf, nil
}

func buildSummary(res *backtest.Result, perf analysis.Performance, modelName string) models.BacktestSummary {
	return models.BacktestSummary{
		Symbol:                  res.Symbol,
		Model:                   modelName,
		BacktestWindow:          models.TimeWindow{Start: perf.StartUTC, End: perf.EndUTC},
		Periods:                 perf.Periods,
		ActivePeriods:           perf.ActivePeriods,
		WarmupPeriods:           res.WarmupSteps,
		DegeneratePeriods:       res.DegenerateSteps,
		InitialEquity:           res.InitialEquity,
		FinalEquity:             perf.FinalEquity,
		TotalReturnPct:          perf.TotalReturnPct,
		Sharpe:                  finite(perf.Sharpe),
		SharpeActive:            finite(perf.SharpeActive),
		MaxDrawdownPct:          perf.MaxDrawdownPct,
		AnnualizedVolatilityPct: finite(perf.AnnualizedVolatilityPct),
		ExposureMeanPct:         perf.ExposureMeanPct,
		ReturnP05Pct:            perf.ReturnP05Pct,
		ReturnP95Pct:            perf.ReturnP95Pct,
		Warnings:                perf.Warnings,
	}
}

func convertRecords(records []backtest.Record) []models.RecordRow {
	out := make([]models.RecordRow, len(records))
	for i, r := range records {
		out[i] = convertRecord(r)
	}
	return out
}

func convertRecord(r backtest.Record) models.RecordRow {
	return models.RecordRow{
		Index:          r.Index,
		Timestamp:      r.Timestamp,
		Price:          r.Price,
		MarketReturn:   r.MarketReturn,
		Temperature:    finite(r.Temperature),
		Entropy:        finite(r.Entropy),
		Heat:           r.Heat,
		PositionSize:   r.PositionSize,
		StrategyReturn: r.StrategyReturn,
		Equity:         r.Equity,
		Status:         string(r.Status),
		Note:           r.Note,
	}
}

// finite returns nil for NaN and ±Inf, which JSON cannot carry.
func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

// errorDetail maps an error to an HTTP status and a response body.
func errorDetail(err error) (int, models.ErrorDetail) {
	var chartErr *data.ChartError
	var fetchErr *fetchError
	var insufficient *model.InsufficientDataError
	var invalidSeries *model.InvalidSeriesError
	var invalidConfig *model.InvalidConfigurationError

	switch {
	case errors.As(err, &chartErr):
		status := http.StatusBadGateway
		switch chartErr.StatusCode {
		case http.StatusNotFound:
			status = http.StatusNotFound
		case http.StatusTooManyRequests:
			status = http.StatusTooManyRequests
		}
		return status, models.ErrorDetail{
			Code:    chartErr.Code,
			Message: chartErr.Message,
			Details: map[string]interface{}{
				"status_code": chartErr.StatusCode,
				"retry_after": chartErr.RetryAfter,
			},
		}
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, models.ErrorDetail{Code: "DATA_FETCH_ERROR", Message: err.Error()}
	case errors.As(err, &invalidConfig):
		return http.StatusBadRequest, models.ErrorDetail{
			Code:    "INVALID_CONFIG",
			Message: err.Error(),
			Details: map[string]interface{}{"field": invalidConfig.Field},
		}
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity, models.ErrorDetail{
			Code:    "INSUFFICIENT_DATA",
			Message: err.Error(),
			Details: map[string]interface{}{"need": insufficient.Need, "have": insufficient.Have},
		}
	case errors.As(err, &invalidSeries):
		return http.StatusUnprocessableEntity, models.ErrorDetail{
			Code:    "INVALID_SERIES",
			Message: err.Error(),
			Details: map[string]interface{}{"index": invalidSeries.Index},
		}
	default:
		return http.StatusInternalServerError, models.ErrorDetail{Code: "BACKTEST_ERROR", Message: err.Error()}
	}
}

func respondError(c *gin.Context, err error) {
	status, detail := errorDetail(err)
	c.JSON(status, models.ErrorResponse{Error: detail})
}

func respondInvalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}
