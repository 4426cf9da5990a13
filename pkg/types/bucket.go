package types

import "time"

// BucketKey identifies one resident bucket: a fixed-width time slice of one
// instrument's trade stream. The struct is comparable and used directly as a
// map key.
type BucketKey struct {
	InstrumentID string
	Index        int64
}

// Bucket is a fully materialized slice of an instrument's trade stream
// covering [Start, End). A bucket is immutable once built; a re-fetch
// replaces it wholesale.
type Bucket struct {
	Key    BucketKey
	Start  time.Time
	End    time.Time
	Trades []Trade
}

// BucketIndexAt maps a timestamp to its bucket index for the given width.
// The mapping is floor(ts / width), with floor semantics (not truncation)
// for timestamps before the epoch, so the index is monotonic non-decreasing
// in the timestamp.
func BucketIndexAt(ts time.Time, width time.Duration) int64 {
	ns := ts.UnixNano()
	w := int64(width)
	idx := ns / w
	if ns%w != 0 && ns < 0 {
		idx--
	}
	return idx
}

// BucketStart returns the inclusive start of the bucket at index.
func BucketStart(index int64, width time.Duration) time.Time {
	return time.Unix(0, index*int64(width)).UTC()
}

// BucketEnd returns the exclusive end of the bucket at index.
func BucketEnd(index int64, width time.Duration) time.Time {
	return time.Unix(0, (index+1)*int64(width)).UTC()
}

// BucketSpan returns the inclusive index range [first, last] of buckets
// overlapping the half-open interval [start, end). The caller guarantees
// start < end.
func BucketSpan(start, end time.Time, width time.Duration) (first, last int64) {
	first = BucketIndexAt(start, width)
	last = BucketIndexAt(end.Add(-time.Nanosecond), width)
	return first, last
}
