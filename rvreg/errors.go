package rvreg

import "errors"

// Sentinel errors returned by the register cache. Lifecycle misuse that the
// reference debugger treats as an assertion failure is reported as a
// recoverable error here, so a hosting application can fail one command
// instead of the whole process.
var (
	// ErrNoCache is returned when an operation requires an initialized
	// register cache and none exists for the target.
	ErrNoCache = errors.New("register cache not initialized")

	// ErrCacheExists is returned by InitCache when the target already
	// owns a register cache.
	ErrCacheExists = errors.New("register cache already initialized")

	// ErrAlreadyInitialized is returned by InitOne when the slot for the
	// given register number has already been stamped.
	ErrAlreadyInitialized = errors.New("register already initialized")

	// ErrInvalidState is returned when a slot violates a cache invariant.
	ErrInvalidState = errors.New("register cache invariant violated")

	// ErrNonexistent is returned when accessing a register the hardware
	// does not implement.
	ErrNonexistent = errors.New("register does not exist")

	// ErrNotHalted is returned by operations that require a halted hart.
	ErrNotHalted = errors.New("target not halted")
)
