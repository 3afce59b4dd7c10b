package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-alert-map/internal/adapter/fetch"
	"github.com/couchcryptid/storm-alert-map/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/storm-alert-map/internal/adapter/kafka"
	"github.com/couchcryptid/storm-alert-map/internal/config"
	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/hitindex"
	"github.com/couchcryptid/storm-alert-map/internal/observability"
	"github.com/couchcryptid/storm-alert-map/internal/playback"
	"github.com/couchcryptid/storm-alert-map/internal/render"
	"github.com/couchcryptid/storm-alert-map/internal/selection"
	"github.com/couchcryptid/storm-alert-map/internal/timeseries"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	fetcher := fetch.NewClient(cfg.FetchTimeout, logger)
	readSource := func(ctx context.Context) ([]byte, error) {
		if fetch.IsURL(cfg.DataPath) {
			return fetcher.Fetch(ctx, cfg.DataPath)
		}
		return os.ReadFile(cfg.DataPath)
	}

	data, err := readSource(context.Background())
	if err != nil {
		logger.Error("failed to read dataset", "path", cfg.DataPath, "error", err)
		os.Exit(1)
	}
	series, err := timeseries.Load(data)
	if err != nil {
		metrics.DatasetLoads.WithLabelValues(loadOutcome(err)).Inc()
		logger.Error("failed to decode dataset", "path", cfg.DataPath, "error", err)
		os.Exit(1)
	}
	metrics.DatasetLoads.WithLabelValues("success").Inc()

	catalog := domain.NewAlertCatalog()
	if cfg.AlertColorsPath != "" {
		if err := loadColors(catalog, cfg.AlertColorsPath, logger); err != nil {
			logger.Error("failed to load alert colors", "path", cfg.AlertColorsPath, "error", err)
			os.Exit(1)
		}
	}

	names := domain.CountyNames{}
	if cfg.CountyNamesPath != "" {
		names, err = loadCountyNames(cfg.CountyNamesPath)
		if err != nil {
			logger.Error("failed to load county names", "path", cfg.CountyNamesPath, "error", err)
			os.Exit(1)
		}
		logger.Info("county names loaded", "count", len(names))
	}

	// Pointer input needs the click map; without one the API serves playback only.
	var hits *hitindex.Index
	if cfg.ClickMapPath != "" {
		raw, err := os.ReadFile(cfg.ClickMapPath)
		if err == nil {
			hits, err = hitindex.Load(raw, cfg.MapWidth, cfg.MapHeight)
		}
		if err != nil {
			logger.Error("failed to load click map", "path", cfg.ClickMapPath, "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("click map disabled")
	}

	canvas := render.NewCanvas()
	canvas.ResizeTo(cfg.MapWidth, cfg.MapHeight)
	surfaces := render.MultiSurface{canvas}

	var sink *kafkaadapter.PaintSink
	if cfg.KafkaEnabled {
		sink = kafkaadapter.NewPaintSink(cfg, logger, metrics)
		surfaces = append(surfaces, sink)
		logger.Info("kafka paint sink enabled", "topic", cfg.KafkaPaintTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka paint sink disabled")
	}

	renderer := render.NewRenderer(surfaces, catalog.ColorFor, logger, metrics)
	tracker := selection.NewTracker(renderer)
	ctrl := playback.New(series, renderer, tracker, playback.Options{
		SliderMax:    cfg.SliderMax,
		InitialSpeed: cfg.InitialSpeed,
		CacheSize:    cfg.SnapshotCacheSize,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, ctrl, httpadapter.MapAPI{
		Player:   ctrl,
		Selector: tracker,
		Hits:     hits,
		Alerts:   catalog,
		Regions:  names,
		Datasets: ctrl,
		Reload:   readSource,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start playback.
	go func() {
		if err := ctrl.Run(ctx); err != nil {
			logger.Error("playback error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			logger.Error("kafka paint sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func loadOutcome(err error) string {
	if errors.Is(err, timeseries.ErrTruncated) {
		return "truncated"
	}
	return "malformed"
}

func loadColors(catalog *domain.AlertCatalog, path string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := catalog.LoadColorOverrides(f)
	if err != nil {
		return err
	}
	logger.Info("alert color overrides loaded", "count", n)
	return nil
}

func loadCountyNames(path string) (domain.CountyNames, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return domain.LoadCountyNames(f)
}
