package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quantlayer/tradecache/pkg/types"
)

// FetchCall records one FetchRange invocation against the mock store.
type FetchCall struct {
	InstrumentID string
	Start        time.Time
	End          time.Time
}

// MockStore is an in-memory source.Store for tests. It serves a fixed trade
// set, records every fetch, and can be forced to fail.
type MockStore struct {
	mu     sync.Mutex
	trades map[string][]types.Trade
	calls  []FetchCall

	// Err, when set, is returned by every FetchRange call.
	Err error

	// Bounded, when set, makes ranges with no overlap with the instrument's
	// trade domain fail with ErrInstrumentNotFound, like a real archive that
	// has run out of data.
	Bounded bool
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		trades: make(map[string][]types.Trade),
	}
}

// AddTrades registers trades for an instrument, kept in sorted order.
func (m *MockStore) AddTrades(instrumentID string, trades ...types.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trades[instrumentID] = append(m.trades[instrumentID], trades...)
	sort.Slice(m.trades[instrumentID], func(i, j int) bool {
		return m.trades[instrumentID][i].Before(m.trades[instrumentID][j])
	})
}

// FetchRange returns the registered trades in [start, end).
func (m *MockStore) FetchRange(_ context.Context, instrumentID string, start, end time.Time) ([]types.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, FetchCall{InstrumentID: instrumentID, Start: start, End: end})

	if m.Err != nil {
		return nil, m.Err
	}

	all, ok := m.trades[instrumentID]
	if !ok {
		return nil, fmt.Errorf("instrument %q: %w", instrumentID, types.ErrInstrumentNotFound)
	}

	if m.Bounded && len(all) > 0 {
		earliest := all[0].Timestamp
		latest := all[len(all)-1].Timestamp
		if !start.Before(latest.Add(time.Nanosecond)) || !end.After(earliest) {
			return nil, fmt.Errorf("instrument %q range exhausted: %w", instrumentID, types.ErrInstrumentNotFound)
		}
	}

	var out []types.Trade
	for _, t := range all {
		if !t.Timestamp.Before(start) && t.Timestamp.Before(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Bounds returns the first and last registered trade timestamps.
func (m *MockStore) Bounds(_ context.Context, instrumentID string) (time.Time, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return time.Time{}, time.Time{}, m.Err
	}

	all, ok := m.trades[instrumentID]
	if !ok || len(all) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("instrument %q: %w", instrumentID, types.ErrInstrumentNotFound)
	}
	return all[0].Timestamp, all[len(all)-1].Timestamp, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// FetchCalls returns a copy of the recorded fetches.
func (m *MockStore) FetchCalls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]FetchCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// FetchCount returns the number of recorded fetches.
func (m *MockStore) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.calls)
}

// FetchCountFor returns the number of recorded fetches covering the given
// timestamp for an instrument.
func (m *MockStore) FetchCountFor(instrumentID string, ts time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c.InstrumentID == instrumentID && !ts.Before(c.Start) && ts.Before(c.End) {
			n++
		}
	}
	return n
}
