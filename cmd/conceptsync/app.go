package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/synaptica-ai/conceptsync/pkg/common/config"
	"github.com/synaptica-ai/conceptsync/pkg/common/database"
	"github.com/synaptica-ai/conceptsync/pkg/common/kafka"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"github.com/synaptica-ai/conceptsync/pkg/correspondence"
	"github.com/synaptica-ai/conceptsync/pkg/dictionary"
	"github.com/synaptica-ai/conceptsync/pkg/observability/metrics"
	"github.com/synaptica-ai/conceptsync/pkg/pipeline"
	"github.com/synaptica-ai/conceptsync/pkg/runlog"
	"github.com/synaptica-ai/conceptsync/pkg/terminology"
	"gorm.io/gorm"
)

// app holds everything a command needs to run an import.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	repo    *dictionary.Repository
	catalog *terminology.Catalog
	runner  *pipeline.Runner

	closers []func() error
}

// openStore connects to the terminology store and loads the source directory.
// It is all check-sources needs.
func openStore(cfg *config.Config) (*app, error) {
	db, err := database.GetStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to terminology store: %w", err)
	}
	catalog, err := terminology.Load(cfg.SourceDirectoryPath)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		db:      db,
		repo:    dictionary.NewRepository(db),
		catalog: catalog,
	}
	a.closers = append(a.closers, database.CloseStore)
	return a, nil
}

// newApp wires the full import pipeline: store, event sinks, correspondence
// store and run ledger.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	sinks := []dictionary.EventSink{metrics.Sink{}}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		sinks = append(sinks, dictionary.NewPublisherSink(producer))
	}

	store, err := a.correspondenceStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var runs *runlog.Repository
	if cfg.RecordRuns {
		runs = runlog.NewRepository(a.db)
		if err := runs.AutoMigrate(); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate run ledger: %w", err)
		}
	}

	service := dictionary.NewService(a.repo, a.catalog, dictionary.Options{
		CreatorID:        cfg.CreatorID,
		StrictMapTypes:   cfg.StrictMapTypes,
		PreferForeignIDs: cfg.PreferForeignIDs,
	}, dictionary.MultiSink(sinks...))
	a.runner = pipeline.NewRunner(service, store, runs)
	return a, nil
}

func (a *app) correspondenceStore(ctx context.Context) (correspondence.Store, error) {
	switch a.cfg.CorrespondenceStore {
	case "", "file":
		return correspondence.NewFileStore(a.cfg.CorrespondencePath), nil
	case "redis":
		client, err := database.OpenRedis(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return correspondence.NewRedisStore(client, a.cfg.CorrespondenceRedisKey), nil
	default:
		return nil, fmt.Errorf("unknown correspondence store %q", a.cfg.CorrespondenceStore)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		logger.Log.WithError(err).Warn("Shutdown was not clean")
		return err
	}
	return nil
}
