package models

import "time"

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID      string          `json:"id,omitempty"`
	Status  string          `json:"status"`
	Summary BacktestSummary `json:"summary"`
	Records []RecordRow     `json:"records,omitempty"`
}

// BacktestSummary contains the performance of a run.
// Sharpe is null when it is undefined (e.g. the strategy never traded).
// SharpeActive leaves out the warm-up rows.
type BacktestSummary struct {
	Symbol         string     `json:"symbol"`
	Model          string     `json:"model,omitempty"`
	BacktestWindow TimeWindow `json:"backtest_window"`

	Periods           int `json:"periods"`
	ActivePeriods     int `json:"active_periods"`
	WarmupPeriods     int `json:"warmup_periods"`
	DegeneratePeriods int `json:"degenerate_periods"`

	InitialEquity           float64  `json:"initial_equity"`
	FinalEquity             float64  `json:"final_equity"`
	TotalReturnPct          float64  `json:"total_return_pct"`
	Sharpe                  *float64 `json:"sharpe"`
	SharpeActive            *float64 `json:"sharpe_active"`
	MaxDrawdownPct          float64  `json:"max_drawdown_pct"`
	AnnualizedVolatilityPct *float64 `json:"annualized_volatility_pct"`
	ExposureMeanPct         float64  `json:"exposure_mean_pct"`
	ReturnP05Pct            float64  `json:"return_p05_pct"`
	ReturnP95Pct            float64  `json:"return_p95_pct"`

	Warnings []string `json:"warnings,omitempty"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RecordRow represents one step of the backtest.
// Temperature and Entropy are null while warming up.
type RecordRow struct {
	Index          int       `json:"index"`
	Timestamp      time.Time `json:"timestamp"`
	Price          float64   `json:"price"`
	MarketReturn   float64   `json:"market_return"`
	Temperature    *float64  `json:"temperature"`
	Entropy        *float64  `json:"entropy"`
	Heat           float64   `json:"heat"`
	PositionSize   float64   `json:"position_size"`
	StrategyReturn float64   `json:"strategy_return"`
	Equity         float64   `json:"equity"`
	Status         string    `json:"status"`
	Note           string    `json:"note,omitempty"`
}

// RecordsResponse is returned by GET /api/v1/backtest/:id/records
type RecordsResponse struct {
	ID      string      `json:"id"`
	Symbol  string      `json:"symbol"`
	Records []RecordRow `json:"records"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name    string           `json:"name"`
	Summary *BacktestSummary `json:"summary,omitempty"`
	Error   *ErrorDetail     `json:"error,omitempty"`
}

// RankResponse represents the response from ranking instruments
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked instrument
type Ranking struct {
	Rank           int      `json:"rank"`
	Symbol         string   `json:"symbol"`
	Periods        int      `json:"periods"`
	Sharpe         *float64 `json:"sharpe"`
	TotalReturnPct float64  `json:"total_return_pct"`
	MaxDrawdownPct float64  `json:"max_drawdown_pct"`
	FinalEquity    float64  `json:"final_equity"`
}

// PresetInfo represents information about a model preset
type PresetInfo struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	File  string      `json:"file"`
	Model ModelConfig `json:"model"`
}

// ModelInfo describes the sizing model
type ModelInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a model parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "bool", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default"`
}

// StreamMessage is one websocket frame of GET /api/v1/backtest/stream.
// Type is "record", "summary" or "error".
type StreamMessage struct {
	Type    string           `json:"type"`
	ID      string           `json:"id,omitempty"`
	Record  *RecordRow       `json:"record,omitempty"`
	Summary *BacktestSummary `json:"summary,omitempty"`
	Error   *ErrorDetail     `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
