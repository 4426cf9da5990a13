package prefetch

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Predictor watches the sequence of demanded bucket indices per instrument
// and decides which bucket to fetch speculatively. It only reads its own
// history, never cache state, so its decisions are cheap; residency and
// in-flight checks happen where the prefetch is issued.
type Predictor struct {
	mu     sync.Mutex
	states map[string]*accessRecord

	runThreshold  int // K: consecutive step-1 accesses to call a scan
	historyLength int // N: ring size per instrument
	logger        *zap.Logger
}

// PredictorConfig holds predictor configuration.
type PredictorConfig struct {
	RunThreshold  int
	HistoryLength int
	Logger        *zap.Logger
}

// accessRecord is one instrument's rolling access history.
type accessRecord struct {
	ring  []int64
	next  int
	count int

	// Once a prefetch past an edge of the instrument's data comes back
	// not-found, that direction is exhausted for the rest of the run.
	exhaustedUp   bool
	exhaustedDown bool
}

// Prediction is a speculative fetch decision: the bucket index to fetch and
// the scan direction that produced it.
type Prediction struct {
	InstrumentID string
	Index        int64
	Ascending    bool
}

// NewPredictor creates a predictor.
func NewPredictor(cfg *PredictorConfig) (*Predictor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.RunThreshold < 2 {
		return nil, fmt.Errorf("run threshold must be at least 2, got %d", cfg.RunThreshold)
	}
	if cfg.HistoryLength < cfg.RunThreshold {
		return nil, fmt.Errorf("history length %d must hold at least one run of %d",
			cfg.HistoryLength, cfg.RunThreshold)
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Predictor{
		states:        make(map[string]*accessRecord),
		runThreshold:  cfg.RunThreshold,
		historyLength: cfg.HistoryLength,
		logger:        cfg.Logger,
	}, nil
}

// Observe records the ordered bucket indices a query just accessed.
func (p *Predictor) Observe(instrumentID string, indices []int64) {
	if len(indices) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rec := p.states[instrumentID]
	if rec == nil {
		rec = &accessRecord{ring: make([]int64, p.historyLength)}
		p.states[instrumentID] = rec
	}

	for _, idx := range indices {
		rec.ring[rec.next] = idx
		rec.next = (rec.next + 1) % len(rec.ring)
		if rec.count < len(rec.ring) {
			rec.count++
		}
	}
}

// Predict returns the next bucket to prefetch, if the instrument's recent
// history is a monotonic step-1 run of at least the configured threshold.
// Dispersed history, short history and exhausted directions predict nothing.
func (p *Predictor) Predict(instrumentID string) (Prediction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := p.states[instrumentID]
	if rec == nil || rec.count < p.runThreshold {
		return Prediction{}, false
	}

	run := rec.lastN(p.runThreshold)

	ascending := true
	descending := true
	for i := 1; i < len(run); i++ {
		if run[i] != run[i-1]+1 {
			ascending = false
		}
		if run[i] != run[i-1]-1 {
			descending = false
		}
	}

	last := run[len(run)-1]
	switch {
	case ascending && !rec.exhaustedUp:
		PredictionsTotal.WithLabelValues("ascending").Inc()
		return Prediction{InstrumentID: instrumentID, Index: last + 1, Ascending: true}, true
	case descending && !rec.exhaustedDown:
		PredictionsTotal.WithLabelValues("descending").Inc()
		return Prediction{InstrumentID: instrumentID, Index: last - 1, Ascending: false}, true
	default:
		PredictionsTotal.WithLabelValues("none").Inc()
		return Prediction{}, false
	}
}

// MarkExhausted records that a speculative fetch ran past the edge of the
// instrument's data in the given direction.
func (p *Predictor) MarkExhausted(instrumentID string, ascending bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := p.states[instrumentID]
	if rec == nil {
		return
	}
	if ascending {
		rec.exhaustedUp = true
	} else {
		rec.exhaustedDown = true
	}

	p.logger.Debug("prefetch-direction-exhausted",
		zap.String("instrument-id", instrumentID),
		zap.Bool("ascending", ascending))
}

// lastN returns the most recent n observed indices, oldest first.
func (r *accessRecord) lastN(n int) []int64 {
	out := make([]int64, n)
	for i := range n {
		pos := (r.next - n + i + len(r.ring)) % len(r.ring)
		out[i] = r.ring[pos]
	}
	return out
}
