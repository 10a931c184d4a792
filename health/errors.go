package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check did not finish in time.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under a name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrStoreNotReady indicates the cache store reports itself unready.
	ErrStoreNotReady = errors.New("health: cache store not ready")

	// ErrCircuitOpen indicates store calls are being short-circuited.
	ErrCircuitOpen = errors.New("health: store circuit open")
)
