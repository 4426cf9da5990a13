package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantlayer/tradecache/internal/cache"
	"github.com/quantlayer/tradecache/internal/dispatch"
	"github.com/quantlayer/tradecache/internal/instruments"
	"github.com/quantlayer/tradecache/internal/prefetch"
	"github.com/quantlayer/tradecache/internal/source"
	memcache "github.com/quantlayer/tradecache/pkg/cache"
	"github.com/quantlayer/tradecache/pkg/config"
	"github.com/quantlayer/tradecache/pkg/healthprobe"
	"github.com/quantlayer/tradecache/pkg/httpserver"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker()

	store, err := setupStore(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup trade store: %w", err)
	}
	registerStoreCheck(healthChecker, store)

	metaCache, err := setupMetadataCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup metadata cache: %w", err)
	}
	metadata := instruments.NewClient(store, metaCache, cfg.MetadataTTL, logger)

	index, err := cache.NewIndex(cfg.CacheCapacity, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup bucket index: %w", err)
	}
	inflight := cache.NewInflight()

	predictor, err := prefetch.NewPredictor(&prefetch.PredictorConfig{
		RunThreshold:  cfg.SequentialRunThreshold,
		HistoryLength: cfg.HistoryLength,
		Logger:        logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup predictor: %w", err)
	}

	var worker *prefetch.Worker
	if !opts.InlinePrefetch {
		worker, err = prefetch.NewWorker(&prefetch.WorkerConfig{
			Workers:     cfg.PrefetchWorkers,
			QueueSize:   cfg.PrefetchQueueSize,
			BucketWidth: cfg.BucketWidth,
			Index:       index,
			Store:       store,
			Inflight:    inflight,
			Predictor:   predictor,
			Logger:      logger,
		})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup prefetch workers: %w", err)
		}
	}

	dispatcherCfg := &dispatch.Config{
		Index:       index,
		Store:       store,
		Predictor:   predictor,
		Inflight:    inflight,
		BucketWidth: cfg.BucketWidth,
		Logger:      logger,
	}
	if worker != nil {
		dispatcherCfg.Prefetcher = worker
	}

	dispatcher, err := dispatch.New(dispatcherCfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup dispatcher: %w", err)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Querier:       dispatcher,
		Metadata:      metadata,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		store:         store,
		index:         index,
		inflight:      inflight,
		predictor:     predictor,
		worker:        worker,
		dispatcher:    dispatcher,
		metadata:      metadata,
		metaCache:     metaCache,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupStore(cfg *config.Config, logger *zap.Logger) (source.Store, error) {
	switch cfg.SourceMode {
	case config.SourcePostgres:
		return source.NewPostgresStore(&source.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	case config.SourceSynthetic:
		return source.NewSyntheticStore(defaultSyntheticInstruments(), 25*time.Millisecond, logger), nil
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.SourceMode)
	}
}

// defaultSyntheticInstruments is the instrument set served in synthetic
// mode: a 30-day archive ending now.
func defaultSyntheticInstruments() []source.SyntheticInstrument {
	latest := time.Now().UTC().Truncate(time.Second)
	earliest := latest.Add(-30 * 24 * time.Hour)

	return []source.SyntheticInstrument{
		{InstrumentID: "BTC-USD", BasePrice: 65000, Earliest: earliest, Latest: latest},
		{InstrumentID: "ETH-USD", BasePrice: 3400, Earliest: earliest, Latest: latest},
		{InstrumentID: "SOL-USD", BasePrice: 180, Earliest: earliest, Latest: latest},
	}
}

func registerStoreCheck(checker *healthprobe.HealthChecker, store source.Store) {
	pinger, ok := store.(interface {
		Ping(ctx context.Context) error
	})
	if !ok {
		return
	}

	checker.Register(healthprobe.Check{
		Name: "trade-store",
		Probe: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pinger.Ping(ctx)
		},
	})
}

func setupMetadataCache(logger *zap.Logger) (memcache.Cache, error) {
	return memcache.NewRistrettoCache(&memcache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max instruments
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}
