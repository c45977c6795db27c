package relay

import (
	"fmt"
)

// TargetConfigError reports an invalid field on a target at registration
// time. Registration fails fast; nothing is partially registered.
type TargetConfigError struct {
	Field   string // offending target field
	Message string
}

// Error implements the error interface.
func (e *TargetConfigError) Error() string {
	return fmt.Sprintf("target config: %s: %s", e.Field, e.Message)
}

// UnsupportedTypeError indicates no dispatch strategy is registered for
// a target's type tag. It surfaces at dispatch time, isolated to the
// offending target.
type UnsupportedTypeError struct {
	Type string
}

// Error implements the error interface.
func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("no dispatcher registered for target type %q", e.Type)
}

// DispatchError wraps a failed dispatch attempt with the target it was
// addressed to. One target's DispatchError never affects delivery to
// other targets in the same emission.
type DispatchError struct {
	Target Target // the destination that failed
	Event  string // normalized event key
	Err    error  // underlying cause
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %q to %s target %s: %v", e.Event, e.Target.Type, e.Target.Address, e.Err)
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// ListenerError wraps an error returned (or a panic recovered) from a
// local listener. Remaining listeners and remote dispatch still run.
type ListenerError struct {
	Event string
	Err   error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener for %q: %v", e.Event, e.Err)
}

// Unwrap returns the underlying error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}
