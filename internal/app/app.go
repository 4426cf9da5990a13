// Package app wires configuration, the trade source, the bucket cache, the
// prefetch pipeline and the HTTP surface into one runnable service.
package app

import (
	"context"
	"sync"

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

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	store         source.Store
	index         *cache.Index
	inflight      *cache.Inflight
	predictor     *prefetch.Predictor
	worker        *prefetch.Worker
	dispatcher    *dispatch.Dispatcher
	metadata      *instruments.Client
	metaCache     memcache.Cache
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// InlinePrefetch disables the worker pool and runs predictions
	// synchronously on the query path. Useful for debugging prefetch
	// behaviour.
	InlinePrefetch bool
}

// Dispatcher exposes the query entry point for embedding callers such as
// the one-shot CLI query command.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Metadata exposes the instrument metadata client.
func (a *App) Metadata() *instruments.Client {
	return a.metadata
}
