package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tazeemc/Entropy/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "default", d.Name)
	assert.Equal(t, "thermo", d.Sizer)
	assert.Equal(t, 15.0, d.BaseTemperature)
	assert.Equal(t, 100.0, d.MaxHeat)
	assert.Equal(t, 20, d.VolatilityWindow)
	assert.Equal(t, 50, d.EntropyBins)
	assert.Equal(t, 0, d.EntropyWindow)
	assert.Equal(t, 100000.0, d.InitialEquity)
	assert.Equal(t, 0.02, d.MaxPositionFraction)
	assert.Equal(t, 0.01, d.BasePositionFraction)
	assert.False(t, d.TrackHeat)
	assert.NoError(t, d.Validate())
}

func TestLoad_ModelFileRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "models/slow.yaml", `
model:
  name: slow
  base_temperature: 0.3
  volatility_window: 60
`)
	writeFile(t, dir, "data/prices.csv", "date,close\n2022-01-03,10\n")
	path := writeFile(t, dir, "config.yaml", `
model_file: models/slow.yaml
model:
  max_position_fraction: 0.05
data:
  source: file
  path: data/prices.csv
  start: "2022-01-01"
  end: "2022-06-30"
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "slow", c.Model.Name)
	assert.Equal(t, 0.3, c.Model.BaseTemperature)
	assert.Equal(t, 60, c.Model.VolatilityWindow)
	assert.Equal(t, 0.05, c.Model.MaxPositionFraction, "inline model overrides the file")
	assert.Equal(t, 50, c.Model.EntropyBins, "unset fields fall back to defaults")
	assert.Equal(t, 100000.0, c.Model.InitialEquity)
	assert.Equal(t, filepath.Join(dir, "data/prices.csv"), c.Data.Path)

	start, end, err := c.Data.Range()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC), end)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "model: [not a map")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse")

	missingModel := writeFile(t, dir, "missing_model.yaml", "model_file: nowhere.yaml\n")
	_, err = Load(missingModel)
	assert.Error(t, err)

	invalid := writeFile(t, dir, "invalid.yaml", "model:\n  volatility_window: 1\n")
	_, err = Load(invalid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
	assert.ErrorContains(t, err, "model config invalid")
	assert.ErrorContains(t, err, "volatility_window")
}

func TestLoadUnchecked_DoesNotValidate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "model:\n  base_temperature: -1\ndata:\n  source: nowhere\n")

	c, err := LoadUnchecked(path)
	require.NoError(t, err)
	assert.Equal(t, -1.0, c.Model.BaseTemperature)
	assert.Equal(t, 0, c.Model.VolatilityWindow, "defaults are not applied")
	assert.Error(t, c.Validate())
}

func TestModelConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*ModelConfig)
		field string
	}{
		{"zero base temperature", func(m *ModelConfig) { m.BaseTemperature = 0 }, "base_temperature"},
		{"negative max heat", func(m *ModelConfig) { m.MaxHeat = -5 }, "max_heat"},
		{"window of one", func(m *ModelConfig) { m.VolatilityWindow = 1 }, "volatility_window"},
		{"no bins", func(m *ModelConfig) { m.EntropyBins = 0 }, "entropy_bins"},
		{"entropy window of one", func(m *ModelConfig) { m.EntropyWindow = 1 }, "entropy_window"},
		{"zero equity", func(m *ModelConfig) { m.InitialEquity = 0 }, "initial_equity"},
		{"fraction above one", func(m *ModelConfig) { m.MaxPositionFraction = 1.5 }, "max_position_fraction"},
		{"unknown sizer", func(m *ModelConfig) { m.Sizer = "kelly" }, "sizer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Defaults()
			tt.edit(&m)
			err := m.Validate()

			var ce *model.InvalidConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestModelConfig_NewEngine(t *testing.T) {
	m := Defaults()
	m.TrackHeat = true
	opts := m.ToOptions("NU")
	assert.Equal(t, "NU", opts.Symbol)
	assert.Equal(t, 100000.0, opts.InitialEquity)
	assert.Equal(t, 20, opts.Estimator.VolatilityWindow)
	assert.True(t, opts.TrackHeat)

	e, err := m.NewEngine("NU")
	require.NoError(t, err)
	assert.NotNil(t, e)

	m.Sizer = "fixed"
	_, err = m.NewEngine("NU")
	require.NoError(t, err)
	m.Sizer = ""

	m.MaxHeat = 0
	_, err = m.NewEngine("NU")
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))
}

func TestDataConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		data    DataConfig
		wantErr string
	}{
		{"empty is allowed", DataConfig{}, ""},
		{"file", DataConfig{Source: SourceFile, Path: "x.csv"}, ""},
		{"file without path", DataConfig{Source: SourceFile}, "data.path"},
		{"chart", DataConfig{Source: SourceChart, Symbol: "NU", Start: "2021-12-09"}, ""},
		{"chart without symbol", DataConfig{Source: SourceChart}, "data.symbol"},
		{"postgres without symbol", DataConfig{Source: SourcePostgres}, "data.symbol"},
		{"unknown source", DataConfig{Source: "ftp"}, "unknown source"},
		{"bad start", DataConfig{Source: SourceChart, Symbol: "NU", Start: "12/09/2021"}, "data.start"},
		{"end before start", DataConfig{Source: SourceChart, Symbol: "NU", Start: "2022-01-02", End: "2022-01-01"}, "must be after"},
		{"end equals start", DataConfig{Source: SourceChart, Symbol: "NU", Start: "2022-01-02", End: "2022-01-02"}, "must be after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDataConfig_RangeOpenEnded(t *testing.T) {
	start, end, err := DataConfig{Start: "2021-12-09"}.Range()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 12, 9, 0, 0, 0, 0, time.UTC), start)
	assert.True(t, end.IsZero())
}

func TestMergeModel(t *testing.T) {
	base := Defaults()
	out := MergeModel(base, ModelConfig{Name: "fast", VolatilityWindow: 10, TrackHeat: true})
	assert.Equal(t, "fast", out.Name)
	assert.Equal(t, 10, out.VolatilityWindow)
	assert.True(t, out.TrackHeat)
	assert.Equal(t, base.BaseTemperature, out.BaseTemperature)
	assert.Equal(t, base.EntropyBins, out.EntropyBins)

	base.TrackHeat = true
	assert.True(t, MergeModel(base, ModelConfig{}).TrackHeat, "an override cannot switch heat tracking off")
}

func TestConfig_Marshal(t *testing.T) {
	c := &Config{Model: Defaults(), Data: DataConfig{Source: SourceChart, Symbol: "NU", Start: "2021-12-09"}}
	raw, err := c.Marshal()
	require.NoError(t, err)

	var back Config
	require.NoError(t, yaml.Unmarshal(raw, &back))
	assert.Equal(t, *c, back)
	assert.Contains(t, string(raw), "base_temperature: 15")
}

func TestExamplePresetsAreValid(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "models", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		m, err := LoadModelFile(p)
		require.NoError(t, err, p)
		assert.NoError(t, MergeModel(Defaults(), m).Validate(), p)
	}
}
