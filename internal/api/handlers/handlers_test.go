package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazeemc/Entropy/internal/api/models"
	"github.com/tazeemc/Entropy/internal/backtest"
	"github.com/tazeemc/Entropy/internal/data"
	"github.com/tazeemc/Entropy/internal/model"
)

var presetDir = filepath.Join("..", "..", "..", "examples", "models")

func TestResultStore_EvictsOldest(t *testing.T) {
	s := NewResultStore(2)
	a := s.Put(&backtest.Result{Symbol: "A"})
	b := s.Put(&backtest.Result{Symbol: "B"})
	c := s.Put(&backtest.Result{Symbol: "C"})

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(a)
	assert.False(t, ok)

	res, ok := s.Get(b)
	require.True(t, ok)
	assert.Equal(t, "B", res.Symbol)
	res, ok = s.Get(c)
	require.True(t, ok)
	assert.Equal(t, "C", res.Symbol)

	_, ok = s.Get(uuid.New())
	assert.False(t, ok)
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"chart not found", &fetchError{err: &data.ChartError{StatusCode: 404, Code: "SYMBOL_NOT_FOUND"}}, http.StatusNotFound, "SYMBOL_NOT_FOUND"},
		{"chart rate limit", &data.ChartError{StatusCode: 429, Code: "RATE_LIMIT_EXCEEDED"}, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{"chart upstream", &data.ChartError{StatusCode: 503, Code: "API_ERROR"}, http.StatusBadGateway, "API_ERROR"},
		{"fetch", &fetchError{err: errors.New("connection refused")}, http.StatusBadGateway, "DATA_FETCH_ERROR"},
		{"config", fmt.Errorf("wrapped: %w", &model.InvalidConfigurationError{Field: "max_heat"}), http.StatusBadRequest, "INVALID_CONFIG"},
		{"insufficient", &model.InsufficientDataError{Need: 20, Have: 3}, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"},
		{"series", &model.InvalidSeriesError{Index: 4}, http.StatusUnprocessableEntity, "INVALID_SERIES"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "BACKTEST_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := errorDetail(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, detail.Code)
		})
	}
}

func TestResolveModel(t *testing.T) {
	m, err := resolveModel(presetDir, models.ModelConfig{})
	require.NoError(t, err)
	assert.Equal(t, "default", m.Name)
	assert.Equal(t, 20, m.VolatilityWindow)

	m, err = resolveModel(presetDir, models.ModelConfig{ModelFile: "conservative.yaml", BasePositionFraction: 0.002})
	require.NoError(t, err)
	assert.Equal(t, "conservative", m.Name)
	assert.Equal(t, 60, m.VolatilityWindow)
	assert.Equal(t, 0.002, m.BasePositionFraction, "request overrides the preset")

	m, err = resolveModel(presetDir, models.ModelConfig{ModelFile: "rolling_entropy"})
	require.NoError(t, err)
	assert.Equal(t, 60, m.EntropyWindow)
	assert.True(t, m.TrackHeat)

	_, err = resolveModel(presetDir, models.ModelConfig{ModelFile: "nope"})
	var ce *model.InvalidConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "model_file", ce.Field)
}

func TestMergeConfig(t *testing.T) {
	base := models.ModelConfig{ModelFile: "conservative", BaseTemperature: 0.1, VolatilityWindow: 30}
	merged := mergeConfig(base, models.ModelConfig{VolatilityWindow: 10})
	assert.Equal(t, "conservative", merged.ModelFile)
	assert.Equal(t, 0.1, merged.BaseTemperature)
	assert.Equal(t, 10, merged.VolatilityWindow)

	merged = mergeConfig(base, models.ModelConfig{ModelFile: "default"})
	assert.Equal(t, "default", merged.ModelFile)
}

func TestSources_Fetch(t *testing.T) {
	obs := []model.Observation{
		{Timestamp: time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), Price: 1},
		{Timestamp: time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC), Price: 2},
		{Timestamp: time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), Price: 3},
	}
	s := &Sources{}

	series, err := s.Fetch(context.Background(), models.DataSourceConfig{Type: SourceInline, Prices: obs, StartDate: "2022-01-04"})
	require.NoError(t, err)
	assert.Equal(t, "INLINE", series.Symbol)
	assert.Len(t, series.Data, 2)

	_, err = s.Fetch(context.Background(), models.DataSourceConfig{Type: SourceChart, Symbol: "NU"})
	var fe *fetchError
	assert.ErrorAs(t, err, &fe)

	_, err = s.Fetch(context.Background(), models.DataSourceConfig{Type: SourcePostgres, Symbol: "NU"})
	assert.ErrorAs(t, err, &fe)

	_, err = s.Fetch(context.Background(), models.DataSourceConfig{Type: "ftp"})
	assert.True(t, errors.Is(err, model.ErrInvalidConfiguration))

	file := &data.FileSource{Path: filepath.Join("..", "..", "..", "examples", "data", "sample.csv")}
	s = &Sources{Store: file}
	series, err = s.Fetch(context.Background(), models.DataSourceConfig{Type: SourcePostgres, Symbol: "SAMPLE"})
	require.NoError(t, err)
	assert.Len(t, series.Data, 80)
}

func TestFinite(t *testing.T) {
	assert.Nil(t, finite(math.NaN()))
	assert.Nil(t, finite(math.Inf(1)))
	require.NotNil(t, finite(1.5))
	assert.Equal(t, 1.5, *finite(1.5))
}

func TestPresetDir(t *testing.T) {
	t.Setenv("PRESET_DIR", "/srv/presets")
	assert.Equal(t, "/srv/presets", PresetDir())

	t.Setenv("PRESET_DIR", "")
	assert.True(t, filepath.IsAbs(PresetDir()))
}
