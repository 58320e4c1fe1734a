package sim

import "errors"

// Error kinds the kernel distinguishes. Inside a scenario every failure
// aborts the run; the experiment driver traps them at the run boundary.
var (
	// ErrPastEvent is raised when an event is scheduled before the current
	// simulation time.
	ErrPastEvent = errors.New("event scheduled in the past")

	// ErrEventsEnabledBelowZero is raised when EnableEvents is called more
	// often than DisableEvents.
	ErrEventsEnabledBelowZero = errors.New("events enabled below zero")

	// ErrConcurrentModification is raised when the listener list of a stream
	// is modified while a notification for that stream is being delivered.
	// Removing the listener currently being informed is the one permitted
	// exception.
	ErrConcurrentModification = errors.New("listener list modified during notification delivery")

	// ErrDuplicateResultKey is raised when two result producers write the
	// same key into a result map.
	ErrDuplicateResultKey = errors.New("duplicate result key")
)
