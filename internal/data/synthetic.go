package data

import (
	"math"
	"math/rand"
	"time"

	"github.com/tazeemc/Entropy/internal/model"
)

// Synthetic describes a seeded geometric Brownian motion price path on
// weekdays, optionally with a one-day shock. The same parameters always
// produce the same series.
type Synthetic struct {
	Symbol     string
	Start      time.Time
	Days       int
	StartPrice float64
	DailyDrift float64
	DailyVol   float64
	Seed       int64

	// ShockDay > 0 applies ShockReturn on that observation index.
	ShockDay    int
	ShockReturn float64
	// AfterShockVol replaces DailyVol after the shock when > 0.
	AfterShockVol float64
}

// Validate rejects parameters that cannot yield a positive price path.
func (s Synthetic) Validate() error {
	if s.Days < 0 {
		return &model.InvalidConfigurationError{Field: "days", Reason: "must be >= 0"}
	}
	if math.IsNaN(s.DailyVol) || s.DailyVol < 0 {
		return &model.InvalidConfigurationError{Field: "vol", Reason: "must be >= 0"}
	}
	if s.ShockDay > 0 && !(s.ShockReturn > -1) {
		return &model.InvalidConfigurationError{Field: "shock", Reason: "must be > -1 (a -100% shock leaves no price)"}
	}
	return nil
}

func (s Synthetic) Generate() *model.PriceSeries {
	rng := rand.New(rand.NewSource(s.Seed))
	price := s.StartPrice
	if price <= 0 {
		price = 100
	}
	ts := s.Start
	if ts.IsZero() {
		ts = time.Date(2021, 12, 9, 0, 0, 0, 0, time.UTC)
	}

	out := &model.PriceSeries{Symbol: s.Symbol, Data: make([]model.Observation, 0, s.Days)}
	for i := 0; i < s.Days; i++ {
		if i > 0 {
			ts = nextWeekday(ts)
			vol := s.DailyVol
			if s.ShockDay > 0 && i > s.ShockDay && s.AfterShockVol > 0 {
				vol = s.AfterShockVol
			}
			r := s.DailyDrift - vol*vol/2 + vol*rng.NormFloat64()
			if s.ShockDay > 0 && i == s.ShockDay {
				r = math.Log1p(s.ShockReturn)
			}
			price *= math.Exp(r)
		}
		out.Data = append(out.Data, model.Observation{Timestamp: ts, Price: price})
	}
	return out
}

func nextWeekday(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
