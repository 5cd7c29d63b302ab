package data

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tazeemc/Entropy/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// ErrDuplicateKey is returned when a (symbol, timestamp) pair already exists.
var ErrDuplicateKey = errors.New("duplicate key")

// PostgreSQL error codes
const (
	pgErrUniqueViolation = "23505" // unique_violation
)

// PriceStore keeps daily prices in PostgreSQL.
type PriceStore struct {
	pool *pgxpool.Pool
}

var _ Provider = (*PriceStore)(nil)

// NewPriceStore connects to dsn and verifies the connection.
func NewPriceStore(ctx context.Context, dsn string) (*PriceStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PriceStore{pool: pool}, nil
}

func (s *PriceStore) Close() {
	s.pool.Close()
}

// EnsureSchema creates the price table if it does not exist.
func (s *PriceStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const insertPriceSQL = `
	INSERT INTO daily_prices (symbol, ts, price)
	VALUES ($1, $2, $3)
`

// InsertBulk adds a series atomically. Fails entire batch on any duplicate.
func (s *PriceStore) InsertBulk(ctx context.Context, series *model.PriceSeries) error {
	return s.insert(ctx, series, insertPriceSQL)
}

// UpsertBulk adds a series atomically, replacing prices already stored for
// the same (symbol, timestamp).
func (s *PriceStore) UpsertBulk(ctx context.Context, series *model.PriceSeries) error {
	return s.insert(ctx, series, insertPriceSQL+` ON CONFLICT (symbol, ts) DO UPDATE SET price = EXCLUDED.price`)
}

func (s *PriceStore) insert(ctx context.Context, series *model.PriceSeries, query string) error {
	if series == nil || len(series.Data) == 0 {
		return nil
	}
	if series.Symbol == "" {
		return fmt.Errorf("series symbol is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, o := range series.Data {
		if _, err := tx.Exec(ctx, query, series.Symbol, o.Timestamp, o.Price); err != nil {
			if isDuplicateKeyError(err) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("insert price %s@%s: %w", series.Symbol, o.Timestamp.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves every stored price for symbol, ordered by timestamp ASC.
func (s *PriceStore) GetAll(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	query := `
		SELECT ts, price
		FROM daily_prices
		WHERE symbol = $1
		ORDER BY ts ASC
	`
	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}
	defer rows.Close()

	return scanSeries(symbol, rows)
}

// GetByTimeRange retrieves prices for symbol within [start, end] (inclusive).
func (s *PriceStore) GetByTimeRange(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	query := `
		SELECT ts, price
		FROM daily_prices
		WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC
	`
	rows, err := s.pool.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("get prices by time range: %w", err)
	}
	defer rows.Close()

	return scanSeries(symbol, rows)
}

// Symbols lists the stored instruments.
func (s *PriceStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}
	return out, nil
}

func (s *PriceStore) Prices(ctx context.Context, q Query) (*model.PriceSeries, error) {
	if q.Start.IsZero() && q.End.IsZero() {
		return s.GetAll(ctx, q.Symbol)
	}
	end := q.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return s.GetByTimeRange(ctx, q.Symbol, q.Start, end)
}

func scanSeries(symbol string, rows pgx.Rows) (*model.PriceSeries, error) {
	s := &model.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var o model.Observation
		if err := rows.Scan(&o.Timestamp, &o.Price); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		o.Timestamp = o.Timestamp.UTC()
		s.Data = append(s.Data, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}
	return s, nil
}

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	return false
}
