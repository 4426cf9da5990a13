// Package aggregate computes fill-set reports over query results: unique
// trade counts overall and per side, and traded dollar volume. Trades may
// appear once per fill leg under the same sequence number, so all counts
// deduplicate by sequence.
package aggregate

import "github.com/quantlayer/tradecache/pkg/types"

// Summary aggregates one query's trade set.
type Summary struct {
	Trades int     `json:"trades"` // unique sequence numbers
	Buys   int     `json:"buys"`   // unique sequences with direction buy
	Sells  int     `json:"sells"`  // unique sequences with direction sell
	Volume float64 `json:"volume"` // sum of price * volume over all fills
}

// Summarize folds a trade slice into a Summary.
func Summarize(trades []types.Trade) Summary {
	seen := make(map[uint64]struct{}, len(trades))
	buys := make(map[uint64]struct{})
	sells := make(map[uint64]struct{})

	var volume float64
	for _, t := range trades {
		seen[t.Sequence] = struct{}{}
		switch t.Direction {
		case types.DirectionBuy:
			buys[t.Sequence] = struct{}{}
		case types.DirectionSell:
			sells[t.Sequence] = struct{}{}
		}
		volume += t.Price * t.Volume
	}

	return Summary{
		Trades: len(seen),
		Buys:   len(buys),
		Sells:  len(sells),
		Volume: volume,
	}
}
