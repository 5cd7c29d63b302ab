package data

import (
	"context"
	"fmt"
	"time"

	"github.com/tazeemc/Entropy/internal/config"
	"github.com/tazeemc/Entropy/internal/model"
)

// Query selects a daily price series. Zero Start/End leave that side open.
type Query struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

// Provider supplies ordered daily prices for one instrument.
type Provider interface {
	Prices(ctx context.Context, q Query) (*model.PriceSeries, error)
}

// FileSource serves prices from a local JSON or CSV file.
type FileSource struct {
	Path string
}

var _ Provider = (*FileSource)(nil)

func (s *FileSource) Prices(ctx context.Context, q Query) (*model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	series, err := LoadPrices(s.Path)
	if err != nil {
		return nil, err
	}
	if q.Symbol != "" {
		series.Symbol = q.Symbol
	}
	series.Data = FilterRange(series.Data, q.Start, q.End)
	return series, nil
}

// OpenProvider builds the provider named by cfg.Source. The returned close
// function releases any connection and is never nil.
func OpenProvider(ctx context.Context, cfg config.DataConfig) (Provider, func(), error) {
	noop := func() {}
	switch cfg.Source {
	case config.SourceFile:
		return &FileSource{Path: cfg.Path}, noop, nil
	case config.SourceChart:
		return NewChartClient(cfg.BaseURL), noop, nil
	case config.SourcePostgres:
		if cfg.PostgresDSN == "" {
			return nil, noop, fmt.Errorf("postgres source needs a dsn (data.postgres_dsn or POSTGRES_DSN)")
		}
		store, err := NewPriceStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown data source %q", cfg.Source)
	}
}

// Fetch opens the configured provider and reads the series it selects.
func Fetch(ctx context.Context, cfg config.DataConfig) (*model.PriceSeries, error) {
	start, end, err := cfg.Range()
	if err != nil {
		return nil, err
	}
	p, closeFn, err := OpenProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return p.Prices(ctx, Query{Symbol: cfg.Symbol, Start: start, End: end})
}
