package models

import "github.com/tazeemc/Entropy/internal/model"

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Config     ModelConfig      `json:"config,omitempty"`
	Options    BacktestOptions  `json:"options,omitempty"`
}

// DataSourceConfig defines where the price series comes from
type DataSourceConfig struct {
	Type      string              `json:"type" binding:"required"` // "inline", "chart" or "postgres"
	Symbol    string              `json:"symbol,omitempty"`
	StartDate string              `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string              `json:"end_date,omitempty"`   // YYYY-MM-DD
	Prices    []model.Observation `json:"prices,omitempty"`     // inline only
}

// ModelConfig carries overrides of the model constants. Zero fields keep the
// preset (or default) value.
type ModelConfig struct {
	ModelFile            string  `json:"model_file,omitempty"` // preset id, e.g. "conservative"
	Sizer                string  `json:"sizer,omitempty"`      // "thermo" (default) or "fixed"
	BaseTemperature      float64 `json:"base_temperature,omitempty"`
	MaxHeat              float64 `json:"max_heat,omitempty"`
	VolatilityWindow     int     `json:"volatility_window,omitempty"`
	EntropyBins          int     `json:"entropy_bins,omitempty"`
	EntropyWindow        int     `json:"entropy_window,omitempty"`
	InitialEquity        float64 `json:"initial_equity,omitempty"`
	MaxPositionFraction  float64 `json:"max_position_fraction,omitempty"`
	BasePositionFraction float64 `json:"base_position_fraction,omitempty"`
	TrackHeat            bool    `json:"track_heat,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	LimitObservations int  `json:"limit_observations,omitempty"` // 0 = all
	IncludeRecords    bool `json:"include_records,omitempty"`    // default: false
}

// CompareBacktestRequest runs several model variations over one series
type CompareBacktestRequest struct {
	DataSource DataSourceConfig    `json:"data_source" binding:"required"`
	BaseConfig ModelConfig         `json:"base_config,omitempty"`
	Variations []BacktestVariation `json:"variations" binding:"required,min=1"`
}

// BacktestVariation defines a variation to test
type BacktestVariation struct {
	Name   string      `json:"name" binding:"required"`
	Config ModelConfig `json:"config"`
}

// RankRequest ranks several instruments, each run independently
type RankRequest struct {
	Series []DataSourceConfig `json:"series" binding:"required,min=1"`
	Config ModelConfig        `json:"config,omitempty"`
	Limit  int                `json:"limit,omitempty"` // default: all
}
