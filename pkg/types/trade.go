package types

import "time"

// Trade direction as reported by the source.
const (
	DirectionBuy  int8 = 1
	DirectionSell int8 = -1
)

// Trade represents a single executed trade. Trades are produced by the trade
// store and never mutated after load. Ordering is by (Timestamp, Sequence) so
// trades sharing a timestamp still have a total order.
type Trade struct {
	InstrumentID string
	Timestamp    time.Time
	Price        float64
	Volume       float64
	Sequence     uint64
	Direction    int8 // 1 = market buy, -1 = market sell
}

// Before reports whether t sorts before other in (Timestamp, Sequence) order.
func (t Trade) Before(other Trade) bool {
	if !t.Timestamp.Equal(other.Timestamp) {
		return t.Timestamp.Before(other.Timestamp)
	}
	return t.Sequence < other.Sequence
}
