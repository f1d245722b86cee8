package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tutomart/pricescout/internal/api"
	"github.com/tutomart/pricescout/internal/browser"
	"github.com/tutomart/pricescout/internal/config"
	"github.com/tutomart/pricescout/internal/coordinate"
	"github.com/tutomart/pricescout/internal/events"
	"github.com/tutomart/pricescout/internal/metrics"
	"github.com/tutomart/pricescout/internal/proxy"
	"github.com/tutomart/pricescout/internal/scrape"
	"github.com/tutomart/pricescout/internal/sink"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway := proxy.Gateway{
		Host:     cfg.Proxy.Host,
		Port:     cfg.Proxy.Port,
		Username: cfg.Proxy.Username,
		Password: cfg.Proxy.Password,
	}

	gate := coordinate.NewLaunchGate(cfg.Browser.MaxLaunches)
	factory := browser.NewFactory(&browser.Options{
		Headless:    cfg.Browser.Headless,
		PageTimeout: cfg.Browser.PageTimeout,
	}, gateway, gate, logger)

	m := metrics.New()

	var sinks []scrape.ArtifactSink
	var history api.HistoryStore
	if cfg.Export.PostgresEnabled {
		pg, err := sink.NewPostgres(ctx, sink.PostgresConfig{
			Host:     cfg.Export.DatabaseHost,
			Port:     cfg.Export.DatabasePort,
			User:     cfg.Export.DatabaseUser,
			Password: cfg.Export.DatabasePassword,
			Database: cfg.Export.DatabaseName,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		sinks = append(sinks, pg)
		history = pg
	}
	if cfg.Export.CSVPath != "" {
		csvSink, err := sink.NewCSVWriter(cfg.Export.CSVPath)
		if err != nil {
			logger.Error("failed to create csv export", "error", err)
			os.Exit(1)
		}
		defer csvSink.Close()
		sinks = append(sinks, csvSink)
	}
	var artifactSink scrape.ArtifactSink
	if len(sinks) > 0 {
		artifactSink = sink.NewMulti(sinks...)
	}

	var publisher scrape.OutcomePublisher
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		publisher = events.NewPublisher(redisClient, cfg.Redis.Stream, logger)
	}

	orchestrator := scrape.NewOrchestrator(scrape.OrchestratorOptions{
		Factory:     browser.ScrapeFactory{Factory: factory},
		MaxAttempts: cfg.Scraper.MaxAttempts,
		UserWait:    cfg.Scraper.UserWait,
		RunTimeout:  cfg.Scraper.RunTimeout,
		PaceMin:     cfg.Scraper.PaceMin,
		PaceMax:     cfg.Scraper.PaceMax,
		Sink:        artifactSink,
		Publisher:   publisher,
		Metrics:     m,
	}, logger)

	handlers := api.NewHandlers(orchestrator, history, cfg.Scraper.BulkLimit, logger)
	router := api.NewRouter(handlers, m, cfg.Server.WriteTimeout)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
