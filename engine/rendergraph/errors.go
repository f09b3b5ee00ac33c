package rendergraph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is a distinct taxonomy value as described in the error
// handling design: every GraphError carries exactly one of these.
type ErrorKind int

const (
	// ErrBadDeclaration covers duplicate pass names, reads without a
	// producer, handles from another graph and write-set overlaps.
	ErrBadDeclaration ErrorKind = iota
	// ErrCycleDetected means the dependency graph is not acyclic.
	ErrCycleDetected
	// ErrArenaExhausted means the bump allocator ran out of capacity. Fatal.
	ErrArenaExhausted
	// ErrResourceUnavailable means the device failed to realise a physical resource.
	ErrResourceUnavailable
	// ErrStateTrackingFailure means the tracker could not reconcile a transition. Fatal.
	ErrStateTrackingFailure
	// ErrRecorderError wraps an error propagated from the command recorder.
	ErrRecorderError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrBadDeclaration:
		return "BadDeclaration"
	case ErrCycleDetected:
		return "CycleDetected"
	case ErrArenaExhausted:
		return "ArenaExhausted"
	case ErrResourceUnavailable:
		return "ResourceUnavailable"
	case ErrStateTrackingFailure:
		return "StateTrackingFailure"
	case ErrRecorderError:
		return "RecorderError"
	default:
		return "Unknown"
	}
}

// GraphError is the single error type returned across the public API.
// Callers distinguish the taxonomy with errors.As and (*GraphError).Kind.
type GraphError struct {
	Kind    ErrorKind
	Message string
	// Cycle holds the offending pass names when Kind == ErrCycleDetected.
	Cycle []string
	// Pass names the pass in scope, if any, when the error occurred.
	Pass string
	Err  error
}

func (e *GraphError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Pass != "" {
		fmt.Fprintf(&b, " (pass %q)", e.Pass)
	}
	if len(e.Cycle) > 0 {
		fmt.Fprintf(&b, " [cycle: %s]", strings.Join(e.Cycle, " -> "))
	}
	return b.String()
}

func (e *GraphError) Unwrap() error { return e.Err }

// IsFatal reports whether the condition indicates an unrecoverable
// engine bug rather than a recoverable compile-time declaration error.
func (e *GraphError) IsFatal() bool {
	return e.Kind == ErrArenaExhausted || e.Kind == ErrStateTrackingFailure
}

func newError(kind ErrorKind, msg string) *GraphError {
	return &GraphError{Kind: kind, Message: msg}
}

func newErrorf(kind ErrorKind, format string, args ...interface{}) *GraphError {
	return &GraphError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, msg string, err error) *GraphError {
	return &GraphError{Kind: kind, Message: msg, Err: err}
}

// AsGraphError unwraps err into a *GraphError, if possible.
func AsGraphError(err error) (*GraphError, bool) {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
