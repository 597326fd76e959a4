package domain

import "fmt"

// RunNotFoundError indicates that no run matches the requested identifier.
type RunNotFoundError struct {
	GUID string
}

// Error implements the error interface.
func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run not found: guid=%q", e.GUID)
}

// NoRunError indicates that a participant and phase have no recorded run.
type NoRunError struct {
	Participant string
	Phase       Phase
}

// Error implements the error interface.
func (e *NoRunError) Error() string {
	return fmt.Sprintf("no recorded run for participant %q phase %q", e.Participant, string(e.Phase))
}
