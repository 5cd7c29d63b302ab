package handlers

import (
	"log"
	"net/http"

	"github.com/tazeemc/Entropy/internal/api/models"
	"github.com/tazeemc/Entropy/internal/backtest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	sources   *Sources
	results   *ResultStore
	presetDir string
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(sources *Sources, results *ResultStore, presetDir string) *BacktestHandler {
	return &BacktestHandler{
		sources:   sources,
		results:   results,
		presetDir: presetDir,
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	cfg, err := resolveModel(h.presetDir, req.Config)
	if err != nil {
		respondError(c, err)
		return
	}

	series, err := h.sources.Fetch(c.Request.Context(), req.DataSource)
	if err != nil {
		respondError(c, err)
		return
	}

	res, perf, err := runBacktest(cfg, series, req.Options.LimitObservations)
	if err != nil {
		respondError(c, err)
		return
	}

	id := h.results.Put(res)
	log.Printf("[API] Backtest %s: symbol=%s periods=%d final_equity=%.2f", id, res.Symbol, len(res.Records), res.FinalEquity)

	response := models.BacktestResponse{
		ID:      id.String(),
		Status:  "completed",
		Summary: buildSummary(res, perf, cfg.Name),
	}
	if req.Options.IncludeRecords {
		response.Records = convertRecords(res.Records)
	}
	c.JSON(http.StatusOK, response)
}

// GetRecords handles GET /api/v1/backtest/:id/records.
// ?format=csv returns the same table as the CLI writes.
func (h *BacktestHandler) GetRecords(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondInvalidRequest(c, err)
		return
	}

	res, ok := h.results.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "No backtest result with id " + id.String() + " (results are kept in memory and may have been evicted)",
			},
		})
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=\""+res.Symbol+"_records.csv\"")
		c.Status(http.StatusOK)
		if err := backtest.WriteRecords(c.Writer, res.Records); err != nil {
			log.Printf("[API] Failed to write records CSV for %s: %v", id, err)
		}
		return
	}

	c.JSON(http.StatusOK, models.RecordsResponse{
		ID:      id.String(),
		Symbol:  res.Symbol,
		Records: convertRecords(res.Records),
	})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	// Fetch data once
	series, err := h.sources.Fetch(c.Request.Context(), req.DataSource)
	if err != nil {
		respondError(c, err)
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, variation := range req.Variations {
		item := models.ComparisonResult{Name: variation.Name}

		cfg, err := resolveModel(h.presetDir, mergeConfig(req.BaseConfig, variation.Config))
		if err == nil {
			res, perf, runErr := runBacktest(cfg, series, 0)
			if runErr == nil {
				summary := buildSummary(res, perf, variation.Name)
				item.Summary = &summary
			}
			err = runErr
		}
		if err != nil {
			_, detail := errorDetail(err)
			item.Error = &detail
		}
		comparison = append(comparison, item)
	}

	c.JSON(http.StatusOK, models.CompareBacktestResponse{
		Comparison: comparison,
	})
}
