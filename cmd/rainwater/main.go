package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/rainwater-assessment/internal/adapter/climate"
	httpadapter "github.com/couchcryptid/rainwater-assessment/internal/adapter/http"
	"github.com/couchcryptid/rainwater-assessment/internal/adapter/influx"
	kafkaadapter "github.com/couchcryptid/rainwater-assessment/internal/adapter/kafka"
	"github.com/couchcryptid/rainwater-assessment/internal/config"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/couchcryptid/rainwater-assessment/internal/pipeline"
)

// alwaysReady is the readiness checker used when the Kafka pipeline is disabled
// and the service only answers HTTP assessments.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Rainfall normals lookup (feature-flagged via RAINFALL_ENABLED).
	var rainfall domain.RainfallSource
	if cfg.RainfallEnabled {
		client := climate.NewClient(cfg.RainfallAPIURL, cfg.RainfallNormalYears, cfg.RainfallTimeout, metrics, logger)
		rainfall = climate.NewCachedSource(client, cfg.RainfallCacheSize, metrics)
		metrics.RainfallEnabled.Set(1)
		logger.Info("rainfall lookup enabled",
			"url", cfg.RainfallAPIURL,
			"cache_size", cfg.RainfallCacheSize,
			"normal_years", cfg.RainfallNormalYears,
		)
	} else {
		logger.Info("rainfall lookup disabled; requests must carry monthly rainfall")
	}

	assessor := pipeline.NewAssessor(rainfall, cfg.AssessmentOptions(), metrics, logger)

	var (
		ready  httpadapter.ReadinessChecker = alwaysReady{}
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		sink   *influx.Sink
	)

	if cfg.PipelineEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)

		var secondaries []pipeline.NamedLoader
		if cfg.InfluxURL != "" {
			sink, err = influx.NewSink(ctx, cfg, logger)
			if err != nil {
				logger.Error("influx sink unavailable", "error", err)
				os.Exit(1)
			}
			secondaries = append(secondaries, sink)
			logger.Info("influx sink enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
		}

		loader := pipeline.NewFanOutLoader(writer, metrics, logger, secondaries...)
		p := pipeline.New(reader, pipeline.NewTransformer(assessor), loader, logger, metrics, cfg.BatchSize)
		ready = p

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka pipeline disabled; serving HTTP assessments only")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, assessor, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			logger.Error("influx sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
