package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tazeemc/Entropy/internal/backtest"
	"github.com/tazeemc/Entropy/internal/model"
	"github.com/tazeemc/Entropy/internal/strategy"
	"github.com/tazeemc/Entropy/internal/thermo"

	"gopkg.in/yaml.v3"
)

// Data sources understood by DataConfig.Source.
const (
	SourceFile     = "file"
	SourceChart    = "chart"
	SourcePostgres = "postgres"
)

// DateLayout is the layout of start/end dates in configs and requests.
const DateLayout = "2006-01-02"

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load model constants from a separate YAML (e.g. examples/models/*.yaml).
	// If both ModelFile and Model are provided, Model overrides ModelFile.
	ModelFile string      `yaml:"model_file,omitempty"`
	Model     ModelConfig `yaml:"model"`
	Data      DataConfig  `yaml:"data,omitempty"`
}

type ModelConfig struct {
	Name                 string  `yaml:"name,omitempty"`
	Sizer                string  `yaml:"sizer,omitempty"`
	BaseTemperature      float64 `yaml:"base_temperature"`
	MaxHeat              float64 `yaml:"max_heat"`
	VolatilityWindow     int     `yaml:"volatility_window"`
	EntropyBins          int     `yaml:"entropy_bins"`
	EntropyWindow        int     `yaml:"entropy_window"`
	InitialEquity        float64 `yaml:"initial_equity"`
	MaxPositionFraction  float64 `yaml:"max_position_fraction"`
	BasePositionFraction float64 `yaml:"base_position_fraction"`
	TrackHeat            bool    `yaml:"track_heat"`
}

type DataConfig struct {
	Source string `yaml:"source,omitempty"`
	Path   string `yaml:"path,omitempty"`
	Symbol string `yaml:"symbol,omitempty"`
	Start  string `yaml:"start,omitempty"`
	End    string `yaml:"end,omitempty"`

	BaseURL     string `yaml:"base_url,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

// Defaults returns the reference constants of the model.
func Defaults() ModelConfig {
	p := strategy.DefaultThermoParams()
	return ModelConfig{
		Name:                 "default",
		Sizer:                strategy.SizerThermo,
		BaseTemperature:      p.BaseTemperature,
		MaxHeat:              p.MaxHeat,
		VolatilityWindow:     20,
		EntropyBins:          50,
		EntropyWindow:        0,
		InitialEquity:        100000,
		MaxPositionFraction:  p.MaxPositionFraction,
		BasePositionFraction: p.BasePositionFraction,
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	// Anything left unset falls back to the reference constants.
	c.Model = MergeModel(Defaults(), c.Model)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if c.ModelFile != "" {
		modelPath := c.ModelFile
		if !filepath.IsAbs(modelPath) {
			// Prefer paths relative to the config file, then fall back to cwd.
			cand := filepath.Join(filepath.Dir(path), modelPath)
			if _, err := os.Stat(cand); err == nil {
				modelPath = cand
			}
		}
		loaded, err := LoadModelFile(modelPath)
		if err != nil {
			return nil, err
		}
		c.Model = MergeModel(loaded, c.Model)
	}
	if c.Data.Path != "" && !filepath.IsAbs(c.Data.Path) {
		cand := filepath.Join(filepath.Dir(path), c.Data.Path)
		if _, err := os.Stat(cand); err == nil {
			c.Data.Path = cand
		}
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model config invalid: %w", err)
	}
	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data config invalid: %w", err)
	}
	return nil
}

func (m ModelConfig) Validate() error {
	if err := m.ToParams().Validate(); err != nil {
		return err
	}
	if _, err := strategy.New(m.Sizer, m.ToParams()); err != nil {
		return err
	}
	if err := m.ToEstimator().Validate(); err != nil {
		return err
	}
	if !(m.InitialEquity > 0) {
		return &model.InvalidConfigurationError{Field: "initial_equity", Reason: "must be > 0"}
	}
	return nil
}

func (m ModelConfig) ToParams() strategy.ThermoParams {
	return strategy.ThermoParams{
		BaseTemperature:      m.BaseTemperature,
		MaxHeat:              m.MaxHeat,
		BasePositionFraction: m.BasePositionFraction,
		MaxPositionFraction:  m.MaxPositionFraction,
	}
}

func (m ModelConfig) ToEstimator() thermo.Estimator {
	return thermo.Estimator{
		VolatilityWindow: m.VolatilityWindow,
		EntropyBins:      m.EntropyBins,
		EntropyWindow:    m.EntropyWindow,
	}
}

func (m ModelConfig) ToOptions(symbol string) backtest.Options {
	return backtest.Options{
		Symbol:        symbol,
		InitialEquity: m.InitialEquity,
		Estimator:     m.ToEstimator(),
		TrackHeat:     m.TrackHeat,
	}
}

// NewEngine builds a backtest engine for the model's sizer.
func (m ModelConfig) NewEngine(symbol string) (*backtest.Engine, error) {
	sizer, err := strategy.New(m.Sizer, m.ToParams())
	if err != nil {
		return nil, err
	}
	return backtest.New(sizer, m.ToOptions(symbol)), nil
}

func (d DataConfig) Validate() error {
	switch d.Source {
	case "":
		return nil
	case SourceFile:
		if d.Path == "" {
			return &model.InvalidConfigurationError{Field: "data.path", Reason: "required for file source"}
		}
	case SourceChart, SourcePostgres:
		if d.Symbol == "" {
			return &model.InvalidConfigurationError{Field: "data.symbol", Reason: "required for " + d.Source + " source"}
		}
	default:
		return &model.InvalidConfigurationError{Field: "data.source", Reason: fmt.Sprintf("unknown source %q", d.Source)}
	}
	_, _, err := d.Range()
	return err
}

// Range parses Start and End. Either may be empty (zero time); End defaults
// to open-ended.
func (d DataConfig) Range() (start, end time.Time, err error) {
	if d.Start != "" {
		start, err = time.Parse(DateLayout, d.Start)
		if err != nil {
			return time.Time{}, time.Time{}, &model.InvalidConfigurationError{Field: "data.start", Reason: "expected YYYY-MM-DD"}
		}
	}
	if d.End != "" {
		end, err = time.Parse(DateLayout, d.End)
		if err != nil {
			return time.Time{}, time.Time{}, &model.InvalidConfigurationError{Field: "data.end", Reason: "expected YYYY-MM-DD"}
		}
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return time.Time{}, time.Time{}, &model.InvalidConfigurationError{Field: "data.end", Reason: "must be after data.start"}
	}
	return start, end, nil
}

type modelFileWrapper struct {
	Model ModelConfig `yaml:"model"`
}

// LoadModelFile reads a preset file of the form `model: {...}`.
func LoadModelFile(path string) (ModelConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ModelConfig{}, err
	}
	var w modelFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return ModelConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return w.Model, nil
}

// MergeModel overlays non-zero fields from override onto base.
// This is used when loading a model file and then applying overrides from
// the config or a request. TrackHeat can only be switched on by an override.
func MergeModel(base, override ModelConfig) ModelConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Sizer != "" {
		out.Sizer = override.Sizer
	}
	if override.BaseTemperature != 0 {
		out.BaseTemperature = override.BaseTemperature
	}
	if override.MaxHeat != 0 {
		out.MaxHeat = override.MaxHeat
	}
	if override.VolatilityWindow != 0 {
		out.VolatilityWindow = override.VolatilityWindow
	}
	if override.EntropyBins != 0 {
		out.EntropyBins = override.EntropyBins
	}
	if override.EntropyWindow != 0 {
		out.EntropyWindow = override.EntropyWindow
	}
	if override.InitialEquity != 0 {
		out.InitialEquity = override.InitialEquity
	}
	if override.MaxPositionFraction != 0 {
		out.MaxPositionFraction = override.MaxPositionFraction
	}
	if override.BasePositionFraction != 0 {
		out.BasePositionFraction = override.BasePositionFraction
	}
	if override.TrackHeat {
		out.TrackHeat = true
	}
	return out
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
