package data

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tazeemc/Entropy/internal/model"
)

// LoadPrices loads a price file, choosing the format from its extension
// (.json or .csv).
func LoadPrices(path string) (*model.PriceSeries, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadPriceJSON(path)
	case ".csv":
		return LoadPriceCSV(path)
	default:
		return nil, fmt.Errorf("unsupported price file %q (want .json or .csv)", path)
	}
}

// LoadPriceJSON reads {"symbol": "...", "data": [{"timestamp": ..., "price": ...}]}.
func LoadPriceJSON(path string) (*model.PriceSeries, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s model.PriceSeries
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Symbol == "" {
		s.Symbol = symbolFromPath(path)
	}
	return &s, nil
}

// LoadPriceCSV reads a CSV with a header row. The time column may be named
// timestamp or date; the price column price, adj_close or close (first match
// wins in that order). An optional symbol column names the series, otherwise
// the file name does.
func LoadPriceCSV(path string) (*model.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadPriceCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Symbol == "" {
		s.Symbol = symbolFromPath(path)
	}
	return s, nil
}

func ReadPriceCSV(in io.Reader) (*model.PriceSeries, error) {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv")
		}
		return nil, err
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	timeCol := firstColumn(cols, "timestamp", "date")
	priceCol := firstColumn(cols, "price", "adj_close", "close")
	symbolCol := firstColumn(cols, "symbol")
	if timeCol < 0 || priceCol < 0 {
		return nil, errors.New("csv header needs a timestamp/date and a price/adj_close/close column")
	}

	s := &model.PriceSeries{}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ts, err := ParseTimestamp(rec[timeCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price %q", line, rec[priceCol])
		}
		if symbolCol >= 0 && s.Symbol == "" {
			s.Symbol = strings.TrimSpace(rec[symbolCol])
		}
		s.Data = append(s.Data, model.Observation{Timestamp: ts, Price: price})
	}
	return s, nil
}

// ParseTimestamp accepts RFC3339 or a bare YYYY-MM-DD date (UTC).
func ParseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q (want RFC3339 or YYYY-MM-DD)", v)
}

// FilterRange keeps observations with start <= timestamp <= end. A zero
// bound is open.
func FilterRange(obs []model.Observation, start, end time.Time) []model.Observation {
	out := make([]model.Observation, 0, len(obs))
	for _, o := range obs {
		if !start.IsZero() && o.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && o.Timestamp.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func firstColumn(cols map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i
		}
	}
	return -1
}

func symbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}
