package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. Components stop in
// dependency order: the HTTP surface first so no new queries arrive, then
// the prefetch workers, then the shared caches and the trade store.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if a.worker != nil {
		a.worker.Stop()
	}

	if a.metaCache != nil {
		a.metaCache.Close()
	}

	err = a.store.Close()
	if err != nil {
		a.logger.Error("trade-store-close-error", zap.Error(err))
	}

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
