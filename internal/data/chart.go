package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tazeemc/Entropy/internal/model"
)

// DefaultChartBaseURL serves /v8/finance/chart/{symbol}.
const DefaultChartBaseURL = "https://query1.finance.yahoo.com"

// ChartClient fetches daily adjusted closes from a chart API that speaks the
// /v8/finance/chart response format.
type ChartClient struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	// Cache is consulted before and filled after each request. Nil disables it.
	Cache *ResponseCache
}

var _ Provider = (*ChartClient)(nil)

// NewChartClient creates a client. If baseURL is empty, DefaultChartBaseURL
// is used. The cache comes from GetCache and is nil unless enabled.
func NewChartClient(baseURL string) *ChartClient {
	if baseURL == "" {
		baseURL = DefaultChartBaseURL
	}
	return &ChartClient{
		BaseURL:   baseURL,
		UserAgent: "Mozilla/5.0 (compatible; entropy-backtest/1.0)",
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		Cache: GetCache(),
	}
}

// ChartError represents an error from the chart API.
type ChartError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *ChartError) Error() string {
	return e.Message
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol string `json:"symbol"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

func (c *ChartClient) Prices(ctx context.Context, q Query) (*model.PriceSeries, error) {
	return c.QueryDaily(ctx, q)
}

// QueryDaily fetches the daily series for q.Symbol. Adjusted closes are used
// when present, raw closes otherwise; days without a close are skipped.
// A zero End means now.
func (c *ChartClient) QueryDaily(ctx context.Context, q Query) (*model.PriceSeries, error) {
	if q.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	end := q.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if !q.Start.IsZero() && q.Start.After(end) {
		return nil, fmt.Errorf("start must be before end")
	}

	cacheKey := GenerateCacheKey(q.Symbol, q.Start, q.End)
	if cached, found := c.Cache.Get(cacheKey); found {
		log.Printf("[Chart] Cache hit: Using cached response with %d observations (symbol=%s)", len(cached.Data), q.Symbol)
		return cached, nil
	}

	u, err := url.Parse(c.BaseURL + "/v8/finance/chart/" + url.PathEscape(q.Symbol))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	params := u.Query()
	params.Set("period1", strconv.FormatInt(q.Start.Unix(), 10))
	if q.Start.IsZero() {
		params.Set("period1", "0")
	}
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,split")
	u.RawQuery = params.Encode()

	log.Printf("[Chart] Request: GET %s (symbol=%s, start=%s, end=%s)",
		u.Path, q.Symbol, fmtDate(q.Start), fmtDate(end))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	started := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(started)
	if err != nil {
		log.Printf("[Chart] Request failed: %v (duration: %v)", err, duration)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[Chart] Response: %d (duration: %v, symbol=%s)", resp.StatusCode, duration, q.Symbol)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &ChartError{
			StatusCode: resp.StatusCode,
			Code:       "SYMBOL_NOT_FOUND",
			Message:    fmt.Sprintf("No chart data for symbol %s", q.Symbol),
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		log.Printf("[Chart] Error: 429 Rate Limit Exceeded - Retry after: %s (symbol=%s)", retryAfter, q.Symbol)
		return nil, &ChartError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		return nil, &ChartError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Printf("[Chart] Error decoding response: %v (symbol=%s)", err, q.Symbol)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if e := body.Chart.Error; e != nil {
		return nil, &ChartError{StatusCode: resp.StatusCode, Code: e.Code, Message: e.Description}
	}
	if len(body.Chart.Result) == 0 {
		return nil, &ChartError{StatusCode: resp.StatusCode, Code: "EMPTY_RESULT", Message: "chart response has no result"}
	}

	series := decodeChartResult(body.Chart.Result[0])
	if series.Symbol == "" {
		series.Symbol = q.Symbol
	}
	log.Printf("[Chart] Success: Received %d observations (symbol=%s)", len(series.Data), series.Symbol)

	if c.Cache != nil {
		c.Cache.Set(cacheKey, series)
		log.Printf("[Chart] Cached response (symbol=%s)", q.Symbol)
	}
	return series, nil
}

func decodeChartResult(r chartResult) *model.PriceSeries {
	var closes []*float64
	if len(r.Indicators.AdjClose) > 0 {
		closes = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}

	s := &model.PriceSeries{Symbol: r.Meta.Symbol}
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		s.Data = append(s.Data, model.Observation{
			Timestamp: time.Unix(ts, 0).UTC(),
			Price:     *closes[i],
		})
	}
	return s
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
