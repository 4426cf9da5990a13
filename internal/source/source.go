package source

import (
	"context"
	"time"

	"github.com/quantlayer/tradecache/pkg/types"
)

// Store is the contract required of the authoritative trade source. Calls
// are blocking and potentially expensive; that cost is the reason the cache
// in front of it exists. Historical trades are assumed immutable, so
// repeated fetches of the same range return the same trades.
type Store interface {
	// FetchRange returns the trades for instrumentID with timestamps in
	// [start, end), ordered by (timestamp, sequence). It fails with
	// types.ErrSourceUnavailable when the source cannot be reached and
	// types.ErrInstrumentNotFound for unknown instruments or ranges outside
	// the instrument's time domain.
	FetchRange(ctx context.Context, instrumentID string, start, end time.Time) ([]types.Trade, error)

	// Bounds returns the earliest and latest trade timestamps known for
	// instrumentID. It fails with types.ErrInstrumentNotFound for unknown
	// instruments.
	Bounds(ctx context.Context, instrumentID string) (earliest, latest time.Time, err error)

	// Close releases any resources held by the store.
	Close() error
}
