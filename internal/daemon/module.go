// Package daemon composes the ingestion daemon: store, dedup state, feed
// connector, pipeline and read services, wired through fx.
package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/feedsink/feedsink/internal/analytics"
	"github.com/feedsink/feedsink/internal/bus"
	"github.com/feedsink/feedsink/internal/config"
	"github.com/feedsink/feedsink/internal/consistency"
	"github.com/feedsink/feedsink/internal/dedup"
	"github.com/feedsink/feedsink/internal/feed"
	"github.com/feedsink/feedsink/internal/ingest"
	"github.com/feedsink/feedsink/internal/lock"
	"github.com/feedsink/feedsink/internal/logging"
	"github.com/feedsink/feedsink/internal/paths"
	"github.com/feedsink/feedsink/internal/query"
	"github.com/feedsink/feedsink/internal/status"
	"github.com/feedsink/feedsink/internal/store"
)

// Core bundles the read surface handed to the consuming chat backend when
// it embeds the daemon in-process.
type Core struct {
	Dialogs   *query.DialogService
	Analytics *analytics.Aggregator
	Status    *status.Machine
	Bus       *bus.Bus
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(cfg *config.Config) fx.Option {
	return fx.Module("daemon",
		fx.Supply(cfg),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideMessageStore,
			provideCache,
			provideWatermarks,
			provideMonitor,
			providePipeline,
			provideConnector,
			provideDialogService,
			provideAggregator,
			provideCore,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(paths.LogPath(cfg.DataDir))
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(cfg *config.Config, logger *zap.Logger) (*lock.Lock, error) {
	if err := paths.EnsureDirs(cfg.DataDir); err != nil {
		return nil, err
	}
	l, err := lock.Acquire(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired", zap.String("data_dir", cfg.DataDir))
	return l, nil
}

func provideStore(cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	dbPath := paths.DBPath(cfg.DataDir)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideMessageStore(db *store.DB) store.MessageStore {
	return db
}

func provideCache(cfg *config.Config) *dedup.Cache {
	return dedup.NewCache(cfg.CacheTTL(), cfg.SweepInterval())
}

func provideWatermarks() *dedup.Watermarks {
	return dedup.NewWatermarks()
}

func provideMonitor(st store.MessageStore, cfg *config.Config, logger *zap.Logger) *consistency.Monitor {
	return consistency.NewMonitor(st, cfg.Consistency.GapThresholdMS, logger)
}

func providePipeline(st store.MessageStore, cache *dedup.Cache, marks *dedup.Watermarks, monitor *consistency.Monitor, b *bus.Bus, logger *zap.Logger) *ingest.Pipeline {
	return ingest.NewPipeline(st, cache, marks, monitor, b, logger)
}

func provideConnector(cfg *config.Config, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *feed.Connector {
	return feed.NewConnector(feed.Options{
		URL:         cfg.FeedURL,
		MaxAttempts: cfg.Feed.MaxReconnectAttempts,
		Interval:    cfg.ReconnectInterval(),
	}, b, machine, logger)
}

func provideDialogService(st store.MessageStore) *query.DialogService {
	return query.NewDialogService(st)
}

func provideAggregator(st store.MessageStore, monitor *consistency.Monitor) *analytics.Aggregator {
	return analytics.NewAggregator(st, monitor)
}

func provideCore(dialogs *query.DialogService, agg *analytics.Aggregator, machine *status.Machine, b *bus.Bus) *Core {
	return &Core{
		Dialogs:   dialogs,
		Analytics: agg,
		Status:    machine,
		Bus:       b,
	}
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, cache *dedup.Cache, pipeline *ingest.Pipeline, connector *feed.Connector, core *Core, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Dedup cache janitor and pipeline first, so no feed event is
			// published before a subscriber exists.
			cache.Start(context.Background())
			pipeline.Start(context.Background())
			connector.Start(context.Background())
			logger.Info("daemon started",
				zap.String("feed_url", cfg.FeedURL),
				zap.String("state", string(core.Status.Current())))
			return nil
		},
		OnStop: func(_ context.Context) error {
			connector.Stop()
			pipeline.Stop()
			cache.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
