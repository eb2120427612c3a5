package coordinator

import "errors"

// Sentinel errors the API layer maps to HTTP status codes via errors.Is.
var (
	ErrNotFound          = errors.New("coordinator: not found")
	ErrIllegalTransition = errors.New("coordinator: illegal state transition")
	ErrValidationFailed  = errors.New("coordinator: validation failed")
	ErrUnknownPlugin     = errors.New("coordinator: unknown plugin")
	ErrWorkerNotIdle     = errors.New("coordinator: worker is not idle")
	ErrWorkerInUse       = errors.New("coordinator: worker still holds a task")
)
