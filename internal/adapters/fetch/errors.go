package fetch

import "errors"

// Sentinel kinds for fetch errors.
var (
	// ErrUnavailable covers timeouts, connection failures, and 4xx/5xx
	// responses. Non-fatal: the caller treats the data as absent.
	ErrUnavailable = errors.New("source unavailable")
)
