package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/config"
	dbValkey "github.com/kailas-cloud/crindex/internal/db/valkey"
	"github.com/kailas-cloud/crindex/internal/engine/opensearch"
	logpkg "github.com/kailas-cloud/crindex/internal/logger"
	"github.com/kailas-cloud/crindex/internal/metrics"
	"github.com/kailas-cloud/crindex/internal/repository/errorlog"
	"github.com/kailas-cloud/crindex/internal/repository/nodes"
	"github.com/kailas-cloud/crindex/internal/repository/querycache"
	healthuc "github.com/kailas-cloud/crindex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/crindex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/crindex/internal/usecase/search"
)

const engineReadyTimeout = 30 * time.Second

// app is the composition root shared by all commands.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	engine  *opensearch.Client
	tree    *nodes.Repo
	indexer *indexinguc.Service
	search  *searchuc.Service
	health  *healthuc.Service
	closers []func()
}

func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}

	// Register metrics explicitly (no init())
	metrics.Register()

	a.engine, err = opensearch.NewClient(opensearch.Config{
		Addrs:      cfg.Engine.Addrs,
		Username:   cfg.Engine.Username,
		Password:   cfg.Engine.Password,
		MaxRetries: cfg.Engine.MaxRetries,
		Timeout:    time.Duration(cfg.Engine.TimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine client: %w", err)
	}
	if err := a.engine.WaitForReady(ctx, engineReadyTimeout); err != nil {
		return nil, fmt.Errorf("engine not ready: %w", err)
	}
	logger.Info("Connected to search engine", zap.Strings("addrs", cfg.Engine.Addrs))

	a.tree, err = nodes.Open(cfg.Repository.SQLitePath, cfg.Repository.LookupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("open content tree: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.tree.Close() })

	cache, cachePinger, err := a.buildCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	names := indexinguc.NewPrefixNamer(cfg.Engine.IndexPrefix)
	ids := indexinguc.HashIdentifiers{}

	a.indexer = indexinguc.New(a.tree, a.engine, names, ids, indexinguc.Config{
		TopLevelContainers: cfg.Repository.TopLevelContainers,
		RetryOnConflict:    cfg.Engine.RetryOnConflict,
	}, logger)
	a.search = searchuc.New(a.engine, a.tree, names, ids, cache,
		errorlog.NewFileStorage(cfg.Errors.Dir),
		searchuc.Config{DefaultCacheTTL: time.Duration(cfg.Cache.DefaultTTLSec) * time.Second},
		logger)
	a.health = healthuc.New(a.engine, a.tree, cachePinger)
	return a, nil
}

// buildCache returns the configured query cache. Both results are nil for
// the "none" driver; the pinger is nil for the in-process cache.
func (a *app) buildCache(ctx context.Context) (searchuc.Cache, healthuc.Pinger, error) {
	cfg := a.cfg.Cache
	switch cfg.Driver {
	case "none":
		return nil, nil, nil
	case "valkey":
		store, err := dbValkey.NewStore(dbValkey.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, nil, fmt.Errorf("create cache store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			return nil, nil, fmt.Errorf("cache store not ready: %w", err)
		}
		a.logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Addrs))
		return querycache.NewKV(store, cfg.KeyPrefix, metrics.QueryCacheTotal, a.logger), store, nil
	default:
		mem, err := querycache.NewMemory(querycache.MemoryConfig{MaxCost: cfg.MaxCost}, metrics.QueryCacheTotal)
		if err != nil {
			return nil, nil, fmt.Errorf("create memory cache: %w", err)
		}
		a.closers = append(a.closers, mem.Close)
		return mem, nil, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}
