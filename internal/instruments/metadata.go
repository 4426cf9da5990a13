// Package instruments resolves per-instrument metadata: the valid time
// domain over which trades exist. Lookups go to the trade source and are
// cached with a TTL; the domain of a historical archive moves slowly.
package instruments

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantlayer/tradecache/internal/source"
	"github.com/quantlayer/tradecache/pkg/cache"
)

// Metadata holds cached instrument metadata.
type Metadata struct {
	InstrumentID string    `json:"instrument_id"`
	Earliest     time.Time `json:"earliest"`
	Latest       time.Time `json:"latest"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Client resolves instrument metadata with caching.
type Client struct {
	store  source.Store
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewClient creates a metadata client. cache may be nil, which disables
// caching.
func NewClient(store source.Store, metaCache cache.Cache, ttl time.Duration, logger *zap.Logger) *Client {
	return &Client{
		store:  store,
		cache:  metaCache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetMetadata returns the instrument's metadata, from cache when possible.
func (c *Client) GetMetadata(ctx context.Context, instrumentID string) (*Metadata, error) {
	cacheKey := fmt.Sprintf("metadata:%s", instrumentID)

	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if meta, ok := cached.(*Metadata); ok {
				CacheHitsTotal.Inc()
				return meta, nil
			}
		}
		CacheMissesTotal.Inc()
	}

	earliest, latest, err := c.store.Bounds(ctx, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("instrument bounds: %w", err)
	}

	meta := &Metadata{
		InstrumentID: instrumentID,
		Earliest:     earliest,
		Latest:       latest,
		FetchedAt:    time.Now(),
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, meta, c.ttl)
	}

	c.logger.Debug("instrument-metadata-fetched",
		zap.String("instrument-id", instrumentID),
		zap.Time("earliest", earliest),
		zap.Time("latest", latest))

	return meta, nil
}

// Invalidate drops the cached metadata for an instrument.
func (c *Client) Invalidate(instrumentID string) {
	if c.cache == nil {
		return
	}
	c.cache.Delete(fmt.Sprintf("metadata:%s", instrumentID))
}
