package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tazeemc/Entropy/internal/api"
	"github.com/tazeemc/Entropy/internal/api/handlers"
	"github.com/tazeemc/Entropy/internal/data"

	"github.com/gin-gonic/gin"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sources := &handlers.Sources{
		Chart: data.NewChartClient(os.Getenv("CHART_BASE_URL")),
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := data.NewPriceStore(ctx, dsn)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer store.Close()
		sources.Store = store
		log.Printf("Postgres price source enabled")
	} else {
		log.Printf("POSTGRES_DSN not set, postgres source disabled")
	}

	router := api.NewRouter(sources, handlers.PresetDir())

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
