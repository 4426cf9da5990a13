package testutil

import (
	"time"

	"github.com/quantlayer/tradecache/pkg/types"
)

// TradeAt builds a buy trade with the given timestamp and sequence.
func TradeAt(instrumentID string, sec int64, seq uint64) types.Trade {
	return types.Trade{
		InstrumentID: instrumentID,
		Timestamp:    time.Unix(sec, 0).UTC(),
		Price:        100 + float64(seq),
		Volume:       1,
		Sequence:     seq,
		Direction:    types.DirectionBuy,
	}
}

// TradesEvery builds one trade per step second over [startSec, endSec),
// sequences numbered from startSec.
func TradesEvery(instrumentID string, startSec, endSec, step int64) []types.Trade {
	var out []types.Trade
	for sec := startSec; sec < endSec; sec += step {
		out = append(out, TradeAt(instrumentID, sec, uint64(sec)))
	}
	return out
}
