package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/tutomart/pricescout/internal/browser"
	"github.com/tutomart/pricescout/internal/config"
	"github.com/tutomart/pricescout/internal/proxy"
	"github.com/tutomart/pricescout/internal/scrape"
	"github.com/tutomart/pricescout/internal/sink"
)

// One-shot CLI: run a single query against the selected sites and print
// the merged records as JSON.
func main() {
	brand := flag.String("brand", "", "product brand (required)")
	product := flag.String("product", "", "product name (required)")
	oem := flag.String("oem", "", "OEM part number")
	asin := flag.String("asin", "", "Amazon ASIN")
	site := flag.String("site", "all", "target site or 'all'")
	domain := flag.String("amazon-domain", "", "Amazon regional domain, e.g. amazon.de")
	csvPath := flag.String("csv", "", "also write records to this CSV file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	q := scrape.Query{
		Brand:        *brand,
		Product:      *product,
		OEMNumber:    *oem,
		ASINNumber:   *asin,
		TargetSite:   *site,
		AmazonDomain: *domain,
	}
	if err := q.Validate(); err != nil {
		logger.Error("invalid query", "error", err)
		flag.Usage()
		os.Exit(2)
	}

	factory := browser.NewFactory(&browser.Options{
		Headless:    cfg.Browser.Headless,
		PageTimeout: cfg.Browser.PageTimeout,
	}, proxy.Gateway{
		Host:     cfg.Proxy.Host,
		Port:     cfg.Proxy.Port,
		Username: cfg.Proxy.Username,
		Password: cfg.Proxy.Password,
	}, nil, logger)

	orchestrator := scrape.NewOrchestrator(scrape.OrchestratorOptions{
		Factory:     browser.ScrapeFactory{Factory: factory},
		MaxAttempts: cfg.Scraper.MaxAttempts,
		UserWait:    cfg.Scraper.UserWait,
		RunTimeout:  cfg.Scraper.RunTimeout,
		PaceMin:     cfg.Scraper.PaceMin,
		PaceMax:     cfg.Scraper.PaceMax,
	}, logger)

	records, err := orchestrator.Run(context.Background(), "cli", q)
	if err != nil {
		logger.Error("scrape failed", "error", err)
		os.Exit(1)
	}

	// The CSV is written after the run so the process cannot exit with a
	// half-flushed file.
	if *csvPath != "" {
		csvSink, err := sink.NewCSVWriter(*csvPath)
		if err != nil {
			logger.Error("failed to create csv export", "error", err)
			os.Exit(1)
		}
		if err := csvSink.Write("all", records); err != nil {
			logger.Error("failed to write csv", "error", err)
		}
		if err := csvSink.Close(); err != nil {
			logger.Error("failed to close csv", "error", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		logger.Error("failed to encode records", "error", err)
		os.Exit(1)
	}
}
