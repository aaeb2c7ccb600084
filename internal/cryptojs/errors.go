package cryptojs

import "errors"

// Sentinel kinds for envelope errors.
var (
	// ErrDecrypt covers every decryption failure mode: malformed envelope,
	// bad key or IV, padding faults, and the double-parse failing. All are
	// non-fatal to a scan.
	ErrDecrypt = errors.New("envelope decrypt failed")
)
