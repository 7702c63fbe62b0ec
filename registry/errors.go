package registry

import (
	"fmt"

	"github.com/queryfabric/uql/aqr"
)

// UnknownConnectionError reports a dispatcher lookup miss.
type UnknownConnectionError struct {
	ID string
}

func (e *UnknownConnectionError) Error() string {
	return fmt.Sprintf("unknown connection %q", e.ID)
}

// ExecutionError wraps a failure from the backend handle, or a
// forwarded cancellation, preserving the original message per
// spec.md §7.
type ExecutionError struct {
	Cause     error
	Cancelled bool
}

func (e *ExecutionError) Error() string {
	if e.Cancelled {
		return "execution cancelled: " + e.Cause.Error()
	}
	return "execution error: " + e.Cause.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// UnsupportedBackendKindError reports a descriptor carrying a
// BackendKind the dispatcher has no translator or capability for.
type UnsupportedBackendKindError struct {
	Kind aqr.BackendKind
}

func (e *UnsupportedBackendKindError) Error() string {
	return fmt.Sprintf("unsupported backend kind %q", e.Kind)
}
