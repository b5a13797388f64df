package gc

import "errors"

// Sentinel errors surfaced by the memory manager.
var (
	// ErrOutOfMemory is returned when an allocation cannot be satisfied
	// even after growing to the configured page maximum and running one
	// synchronous full collection. It is fatal: the context makes no
	// further attempt to satisfy the request.
	ErrOutOfMemory = errors.New("gc: out of memory")

	// ErrTypeMismatch is returned when a heap accessor is applied to an
	// immediate value.
	ErrTypeMismatch = errors.New("gc: value is not a heap reference")

	// ErrProtocolViolation reports misuse of the root-protection arena:
	// Protect with no open frame, or PopFrame out of LIFO order. This is
	// a programming error in native glue code, so it is raised as a panic
	// rather than returned.
	ErrProtocolViolation = errors.New("gc: arena protocol violation")
)
