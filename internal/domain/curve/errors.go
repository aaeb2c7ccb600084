package curve

import "errors"

// Sentinel kinds for curve errors.
var (
	// ErrTooFewPoints marks a measurement that parsed to fewer valid rows
	// than the minimum needed for scoring.
	ErrTooFewPoints = errors.New("too few valid measurement points")
)
