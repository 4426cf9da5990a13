package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/quantlayer/tradecache/internal/aggregate"
	"github.com/quantlayer/tradecache/internal/instruments"
	"github.com/quantlayer/tradecache/pkg/types"
)

// TradeQuerier answers range queries. The dispatcher implements it.
type TradeQuerier interface {
	Query(ctx context.Context, instrumentID string, start, end time.Time) ([]types.Trade, error)
}

// TradesHandler handles the query API.
type TradesHandler struct {
	querier  TradeQuerier
	metadata *instruments.Client
	logger   *zap.Logger
}

// NewTradesHandler creates a trades handler.
func NewTradesHandler(querier TradeQuerier, metadata *instruments.Client, logger *zap.Logger) *TradesHandler {
	return &TradesHandler{
		querier:  querier,
		metadata: metadata,
		logger:   logger,
	}
}

// TradeRecord is the wire form of one trade.
type TradeRecord struct {
	InstrumentID string  `json:"instrument_id"`
	Timestamp    int64   `json:"timestamp"`
	Price        float64 `json:"price"`
	Volume       float64 `json:"volume"`
	Sequence     uint64  `json:"sequence"`
	Direction    int8    `json:"direction"`
}

// TradesResponse is the /api/trades response body.
type TradesResponse struct {
	InstrumentID string        `json:"instrument_id"`
	Start        int64         `json:"start"`
	End          int64         `json:"end"`
	Count        int           `json:"count"`
	Trades       []TradeRecord `json:"trades"`
}

// SummaryResponse is the /api/summary response body.
type SummaryResponse struct {
	InstrumentID string            `json:"instrument_id"`
	Start        int64             `json:"start"`
	End          int64             `json:"end"`
	Summary      aggregate.Summary `json:"summary"`
}

// ErrorResponse is the error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleTrades handles GET /api/trades?instrument=<id>&start=<unix>&end=<unix>.
func (h *TradesHandler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	instrumentID, start, end, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	trades, err := h.querier.Query(r.Context(), instrumentID, start, end)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	records := make([]TradeRecord, len(trades))
	for i, t := range trades {
		records[i] = TradeRecord{
			InstrumentID: t.InstrumentID,
			Timestamp:    t.Timestamp.Unix(),
			Price:        t.Price,
			Volume:       t.Volume,
			Sequence:     t.Sequence,
			Direction:    t.Direction,
		}
	}

	h.writeJSON(w, http.StatusOK, TradesResponse{
		InstrumentID: instrumentID,
		Start:        start.Unix(),
		End:          end.Unix(),
		Count:        len(records),
		Trades:       records,
	})
}

// HandleSummary handles GET /api/summary with the same parameters as
// /api/trades, returning the aggregate report instead of the trade list.
func (h *TradesHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	instrumentID, start, end, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	trades, err := h.querier.Query(r.Context(), instrumentID, start, end)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, SummaryResponse{
		InstrumentID: instrumentID,
		Start:        start.Unix(),
		End:          end.Unix(),
		Summary:      aggregate.Summarize(trades),
	})
}

// HandleInstrument handles GET /api/instrument?instrument=<id>.
func (h *TradesHandler) HandleInstrument(w http.ResponseWriter, r *http.Request) {
	instrumentID := r.URL.Query().Get("instrument")
	if instrumentID == "" {
		h.writeError(w, "missing required query parameter: instrument", http.StatusBadRequest)
		return
	}
	if h.metadata == nil {
		h.writeError(w, "instrument metadata not available", http.StatusNotFound)
		return
	}

	meta, err := h.metadata.GetMetadata(r.Context(), instrumentID)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, meta)
}

func (h *TradesHandler) parseQuery(w http.ResponseWriter, r *http.Request) (string, time.Time, time.Time, bool) {
	q := r.URL.Query()

	instrumentID := q.Get("instrument")
	if instrumentID == "" {
		h.writeError(w, "missing required query parameter: instrument", http.StatusBadRequest)
		return "", time.Time{}, time.Time{}, false
	}

	start, err := parseUnix(q.Get("start"))
	if err != nil {
		h.writeError(w, "invalid start: expected unix seconds", http.StatusBadRequest)
		return "", time.Time{}, time.Time{}, false
	}

	end, err := parseUnix(q.Get("end"))
	if err != nil {
		h.writeError(w, "invalid end: expected unix seconds", http.StatusBadRequest)
		return "", time.Time{}, time.Time{}, false
	}

	return instrumentID, start, end, true
}

func parseUnix(s string) (time.Time, error) {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}

func (h *TradesHandler) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidRange):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, types.ErrInstrumentNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, types.ErrSourceUnavailable):
		h.writeError(w, err.Error(), http.StatusBadGateway)
	default:
		h.logger.Error("query-handler-error", zap.Error(err))
		h.writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *TradesHandler) writeError(w http.ResponseWriter, msg string, status int) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}

func (h *TradesHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response-encode-error", zap.Error(err))
	}
}
