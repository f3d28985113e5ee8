package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gmaps-scraper/config"
	"gmaps-scraper/scraper/gmaps"
	"gmaps-scraper/services"
	"gmaps-scraper/storage"
	"gmaps-scraper/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	flag.StringVar(&cfg.SearchQuery, "search", cfg.SearchQuery, "search query to type into Google Maps")
	flag.StringVar(&cfg.SearchQuery, "s", cfg.SearchQuery, "shorthand for -search")
	flag.IntVar(&cfg.Total, "total", cfg.Total, "number of listings to collect")
	flag.IntVar(&cfg.Total, "t", cfg.Total, "shorthand for -total")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid arguments: %v", err)
		flag.Usage()
		return 2
	}

	logger.Info("=== Google Maps Scraper starting ===")
	logger.Info("Config | query: %q | total: %d | output: %s | headless: %v",
		cfg.SearchQuery, cfg.Total, cfg.OutputPath, cfg.Headless)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	page, err := gmaps.NewChromePage(cfg.ChromeBin, cfg.Headless, logger)
	if err != nil {
		logger.Error("Failed to start browser: %v", err)
		return 1
	}
	defer page.Close()

	session := gmaps.NewSession(page, gmaps.DefaultOptions(cfg.SearchQuery, cfg.Total), logger)
	result, err := session.Run(ctx)
	if err != nil {
		logger.Error("Scrape failed, nothing written: %v", err)
		return 1
	}

	// The run context may have hit its deadline; persistence gets its own.
	writeCtx := context.Background()

	store := storage.NewJSONStore(cfg.OutputPath, logger)
	if err := store.Write(writeCtx, result.Listings); err != nil {
		logger.Error("Failed to write %s: %v", store.Path(), err)
		return 1
	}
	logger.Info("Data saved to %s", store.Path())

	if cfg.PostgresEnabled() {
		mirrorToPostgres(writeCtx, cfg, result, logger)
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(result.Listings))

	fmt.Printf("  Done. %d listings appended to %s\n\n", len(result.Listings), store.Path())
	return 0
}

// mirrorToPostgres copies the run's listings into PostgreSQL. The JSON file is
// the record of truth, so failures here are only logged.
func mirrorToPostgres(ctx context.Context, cfg *config.Config, result *gmaps.RunResult, logger *utils.Logger) {
	pgWriter, err := storage.NewPostgresWriter(ctx, cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		return
	}
	defer pgWriter.Close()

	if err := pgWriter.Write(ctx, result.Listings); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return
	}
	logger.Info("Listings mirrored to PostgreSQL (table: places)")
}
