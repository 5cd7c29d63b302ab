package api

import (
	"net/http"

	"github.com/tazeemc/Entropy/internal/api/handlers"
	"github.com/tazeemc/Entropy/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// MaxStoredResults bounds the in-memory result store.
const MaxStoredResults = 100

// NewRouter wires handlers and middleware.
func NewRouter(sources *handlers.Sources, presetDir string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	results := handlers.NewResultStore(MaxStoredResults)
	backtestHandler := handlers.NewBacktestHandler(sources, results, presetDir)
	streamHandler := handlers.NewStreamHandler(sources, results, presetDir)
	modelHandler := handlers.NewModelHandler()
	presetHandler := handlers.NewPresetHandler(presetDir)
	rankHandler := handlers.NewRankHandler(sources, presetDir)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/backtest", backtestHandler.RunBacktest)
		v1.GET("/backtest/stream", streamHandler.Stream)
		v1.GET("/backtest/:id/records", backtestHandler.GetRecords)
		v1.POST("/backtest/compare", backtestHandler.CompareBacktests)

		v1.GET("/model", modelHandler.DescribeModel)
		v1.GET("/presets", presetHandler.ListPresets)

		v1.POST("/rank", rankHandler.Rank)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})

	return router
}
