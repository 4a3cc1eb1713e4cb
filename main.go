// Package main wires together the vacancy ingest service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hhdata/vacancy-ingest/internal/api"
	"github.com/hhdata/vacancy-ingest/internal/clock/system"
	"github.com/hhdata/vacancy-ingest/internal/config"
	"github.com/hhdata/vacancy-ingest/internal/hh"
	"github.com/hhdata/vacancy-ingest/internal/ingest"
	"github.com/hhdata/vacancy-ingest/internal/logging"
	"github.com/hhdata/vacancy-ingest/internal/metrics"
	memorypublisher "github.com/hhdata/vacancy-ingest/internal/publisher/memory"
	pubsubpublisher "github.com/hhdata/vacancy-ingest/internal/publisher/pubsub"
	gcsstorage "github.com/hhdata/vacancy-ingest/internal/storage/gcs"
	memorystorage "github.com/hhdata/vacancy-ingest/internal/storage/memory"
	"github.com/hhdata/vacancy-ingest/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	initSchema := flag.Bool("init-schema", false, "Apply the database schema before ingesting")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *initSchema, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, initSchema bool, logger *zap.Logger) error {
	metrics.Init()

	store, err := postgres.New(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer store.Close()
	if initSchema {
		if err := store.InitSchema(ctx); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
		logger.Info("database schema applied")
	}

	archive, err := buildArchive(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("archive init: %w", err)
	}

	publisher, cleanup, err := buildPublisher(ctx, cfg.Events)
	if err != nil {
		return fmt.Errorf("publisher init: %w", err)
	}
	defer cleanup()

	client := hh.NewClient(cfg.API, logger.Named("hh"))
	pipeline := ingest.New(
		client,
		store,
		publisher,
		archive,
		system.New(),
		ingest.Config{
			Search: hh.SearchParameters{
				Text:        cfg.Search.Text,
				SearchField: cfg.Search.SearchField,
				Experience:  cfg.Search.Experience,
				Employment:  cfg.Search.Employment,
				Schedule:    cfg.Search.Schedule,
				Areas:       cfg.Search.Areas,
			},
			ArchivePrefix: cfg.Archive.Prefix,
			Topic:         cfg.Events.Topic,
		},
		logger.Named("ingest"),
	)

	var srv *http.Server
	if cfg.Server.Enabled {
		apiServer := api.NewServer(store, logger.Named("api"))
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           apiServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http server started", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", zap.Error(err))
			}
		}()
	}

	_, runErr := pipeline.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}
	return runErr
}

func buildArchive(ctx context.Context, cfg config.ArchiveConfig) (ingest.BlobStore, error) {
	switch cfg.Provider {
	case "gcs":
		return gcsstorage.Connect(ctx, cfg.Bucket)
	case "memory":
		return memorystorage.NewBlobStore(), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown archive provider %q", cfg.Provider)
	}
}

func buildPublisher(ctx context.Context, cfg config.EventsConfig) (ingest.Publisher, func(), error) {
	switch cfg.Provider {
	case "pubsub":
		pub, err := pubsubpublisher.Connect(ctx, cfg.ProjectID, cfg.Topic)
		if err != nil {
			return nil, nil, err
		}
		return pub, pub.Stop, nil
	case "memory":
		return memorypublisher.New(), func() {}, nil
	case "", "none":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown events provider %q", cfg.Provider)
	}
}
