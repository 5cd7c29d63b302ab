package backtest

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"time"
)

var recordHeader = []string{
	"index",
	"timestamp",
	"price",
	"market_return",
	"temperature",
	"entropy",
	"heat",
	"position_size",
	"strategy_return",
	"equity",
	"status",
	"note",
}

func WriteRecordsCSV(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return WriteRecords(f, records)
}

// WriteRecords writes the record table as CSV. Undefined quantities
// (temperature while warming up) are written as empty cells.
func WriteRecords(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)

	if err := w.Write(recordHeader); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Timestamp),
			fmtFloat(r.Price),
			fmtFloat(r.MarketReturn),
			fmtFloat(r.Temperature),
			fmtFloat(r.Entropy),
			fmtFloat(r.Heat),
			fmtFloat(r.PositionSize),
			fmtFloat(r.StrategyReturn),
			fmtFloat(r.Equity),
			string(r.Status),
			r.Note,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
