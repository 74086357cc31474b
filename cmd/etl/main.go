package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pyrelab/fireweather-etl/internal/adapter/csvfile"
	httpadapter "github.com/pyrelab/fireweather-etl/internal/adapter/http"
	kafkaadapter "github.com/pyrelab/fireweather-etl/internal/adapter/kafka"
	"github.com/pyrelab/fireweather-etl/internal/adapter/mongostore"
	"github.com/pyrelab/fireweather-etl/internal/adapter/openmeteo"
	"github.com/pyrelab/fireweather-etl/internal/config"
	"github.com/pyrelab/fireweather-etl/internal/observability"
	"github.com/pyrelab/fireweather-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rules, err := config.LoadGeoRules(cfg.GeoRulesFile)
	if err != nil {
		logger.Error("failed to load geo rules", "error", err, "path", cfg.GeoRulesFile)
		return 1
	}

	store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error("mongodb close error", "error", err)
		}
	}()

	archive := openmeteo.NewRateLimited(
		openmeteo.NewClient(cfg.ArchiveBaseURL, cfg.ArchiveTimeout, logger),
		cfg.ArchiveRPS, cfg.ArchiveBurst)

	var publisher pipeline.FeaturePublisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	opts := pipeline.Options{
		ImputeK:         cfg.ImputeK,
		JoinPolicy:      cfg.JoinPolicy,
		RepeatPrecision: cfg.RepeatPrecision,
		Link: pipeline.LinkOptions{
			Workers:      cfg.LinkWorkers,
			MaxAttempts:  cfg.LinkMaxAttempts,
			SkipExisting: cfg.LinkSkipExisting,
		},
	}

	p := pipeline.New(
		csvfile.NewSource(cfg.InputCSV, logger),
		store,
		archive,
		csvfile.NewSink(cfg.OutputCSV, logger),
		publisher,
		rules, opts, logger, metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}()

	logger.Info("pipeline starting", "input", cfg.InputCSV, "output", cfg.OutputCSV,
		"workers", cfg.LinkWorkers, "join_policy", cfg.JoinPolicy)

	if err := p.Run(ctx); err != nil {
		logger.Error("pipeline error", "error", err)
		return 1
	}

	logger.Info("pipeline finished")
	return 0
}
