package handlers

import (
	"fmt"
	"net/http"

	"github.com/tazeemc/Entropy/internal/analysis"
	"github.com/tazeemc/Entropy/internal/api/models"
	"github.com/tazeemc/Entropy/internal/backtest"

	"github.com/gin-gonic/gin"
)

// RankHandler ranks several instruments by Sharpe ratio
type RankHandler struct {
	sources   *Sources
	presetDir string
}

// NewRankHandler creates a new rank handler
func NewRankHandler(sources *Sources, presetDir string) *RankHandler {
	return &RankHandler{sources: sources, presetDir: presetDir}
}

// Rank handles POST /api/v1/rank. Each series is backtested on its own with
// the same model; this is a comparison, not a portfolio.
func (h *RankHandler) Rank(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	cfg, err := resolveModel(h.presetDir, req.Config)
	if err != nil {
		respondError(c, err)
		return
	}

	bySymbol := make(map[string]*backtest.Result, len(req.Series))
	for i, ds := range req.Series {
		if ds.Type == SourceInline && ds.Symbol == "" {
			ds.Symbol = fmt.Sprintf("INLINE-%d", i+1)
		}
		series, err := h.sources.Fetch(c.Request.Context(), ds)
		if err != nil {
			respondError(c, err)
			return
		}
		if _, dup := bySymbol[series.Symbol]; dup {
			respondInvalidRequest(c, fmt.Errorf("series[%d]: symbol %q is already ranked", i, series.Symbol))
			return
		}
		engine, err := cfg.NewEngine(series.Symbol)
		if err != nil {
			respondError(c, err)
			return
		}
		res, err := engine.Run(series.Data)
		if err != nil {
			respondError(c, err)
			return
		}
		bySymbol[series.Symbol] = res
	}

	ranked, err := analysis.RankBySharpe(bySymbol)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Limit > 0 && req.Limit < len(ranked) {
		ranked = ranked[:req.Limit]
	}

	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		rankings[i] = models.Ranking{
			Rank:           r.Rank,
			Symbol:         r.Symbol,
			Periods:        r.Periods,
			Sharpe:         finite(r.Sharpe),
			TotalReturnPct: r.TotalReturnPct,
			MaxDrawdownPct: r.MaxDrawdownPct,
			FinalEquity:    r.FinalEquity,
		}
	}

	c.JSON(http.StatusOK, models.RankResponse{Rankings: rankings})
}
