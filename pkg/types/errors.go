package types

import "errors"

// Error taxonomy of the caching core. Callers classify failures with
// errors.Is; wrapped context is added at each layer with fmt.Errorf("%w").
var (
	// ErrInvalidRange rejects a malformed query (start >= end) before any
	// cache or source interaction.
	ErrInvalidRange = errors.New("invalid range: start must be before end")

	// ErrSourceUnavailable reports that the authoritative trade source could
	// not be reached or failed mid-fetch.
	ErrSourceUnavailable = errors.New("trade source unavailable")

	// ErrInstrumentNotFound reports an unknown instrument, or a fetch outside
	// the instrument's valid time domain.
	ErrInstrumentNotFound = errors.New("instrument not found")
)
