package hsm

import "fmt"

// ErrorCode classifies the kind of failure a hsm operation reports.
type ErrorCode int

const (
	// ErrCodeNone is the zero value; no error occurred.
	ErrCodeNone ErrorCode = iota
	// ErrCodeConfiguration marks a setup-time error (no states, bad initial state, duplicate resource name).
	ErrCodeConfiguration
	// ErrCodeLookup marks a runtime error where a handler named a state that isn't registered.
	ErrCodeLookup
	// ErrCodeCapacity marks a send() against a full, non-blocking/timed-out queue.
	ErrCodeCapacity
	// ErrCodeHandler marks a panic or error raised from user handler code.
	ErrCodeHandler
	// ErrCodeImmutable marks an attempt to mutate an Event after construction.
	ErrCodeImmutable
)

// ConfigurationError is reported at construction/setup time and prevents the
// machine from reaching a running state.
type ConfigurationError struct {
	Component string
	Issue     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("hsm: configuration error in %s: %s", e.Component, e.Issue)
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(component, issue string) *ConfigurationError {
	return &ConfigurationError{Component: component, Issue: issue}
}

// LookupError is reported when a handler returns a state designator that is
// not a registered state of the machine.
type LookupError struct {
	Machine string
	State   string
	Target  string
}

func (e *LookupError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("hsm: %s: %q not found", e.Machine, e.Target)
	}
	return fmt.Sprintf("hsm: %s: state %q returned unregistered target %q", e.Machine, e.State, e.Target)
}

// NewLookupError builds a LookupError.
func NewLookupError(machine, state, target string) *LookupError {
	return &LookupError{Machine: machine, State: state, Target: target}
}

// CapacityError is raised synchronously at the Send call site when the
// bounded queue is full and the caller asked for non-blocking or timed-out
// delivery.
type CapacityError struct {
	Machine string
	Event   string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("hsm: %s: queue full, event %q not admitted", e.Machine, e.Event)
}

// NewCapacityError builds a CapacityError.
func NewCapacityError(machine, event string) *CapacityError {
	return &CapacityError{Machine: machine, Event: event}
}

// HandlerError wraps a panic or error raised by user handler code (event,
// entry, exit or init). The triggering event produces no transition; the
// loop continues.
type HandlerError struct {
	Machine string
	State   string
	Event   string
	Phase   string // "event", "entry", "exit", or "init"
	Cause   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("hsm: %s: %s handler for state %q on event %q failed: %v",
		e.Machine, e.Phase, e.State, e.Event, e.Cause)
}

func (e *HandlerError) Unwrap() error { return e.Cause }

// NewHandlerError builds a HandlerError.
func NewHandlerError(machine, state, event, phase string, cause error) *HandlerError {
	return &HandlerError{Machine: machine, State: state, Event: event, Phase: phase, Cause: cause}
}

// ImmutableError is returned when code attempts to mutate an Event's data
// after construction.
type ImmutableError struct {
	Event string
	Field string
}

func (e *ImmutableError) Error() string {
	return fmt.Sprintf("hsm: event %q is immutable, cannot set %q after construction", e.Event, e.Field)
}

// NewImmutableError builds an ImmutableError.
func NewImmutableError(event, field string) *ImmutableError {
	return &ImmutableError{Event: event, Field: field}
}

// IsConfigurationError reports whether err is a *ConfigurationError.
func IsConfigurationError(err error) bool { _, ok := err.(*ConfigurationError); return ok }

// IsLookupError reports whether err is a *LookupError.
func IsLookupError(err error) bool { _, ok := err.(*LookupError); return ok }

// IsCapacityError reports whether err is a *CapacityError.
func IsCapacityError(err error) bool { _, ok := err.(*CapacityError); return ok }

// IsHandlerError reports whether err is a *HandlerError.
func IsHandlerError(err error) bool { _, ok := err.(*HandlerError); return ok }

// IsImmutableError reports whether err is a *ImmutableError.
func IsImmutableError(err error) bool { _, ok := err.(*ImmutableError); return ok }

// GetErrorCode returns the ErrorCode for any of the taxonomy's error types,
// or ErrCodeNone for anything else.
func GetErrorCode(err error) ErrorCode {
	switch err.(type) {
	case *ConfigurationError:
		return ErrCodeConfiguration
	case *LookupError:
		return ErrCodeLookup
	case *CapacityError:
		return ErrCodeCapacity
	case *HandlerError:
		return ErrCodeHandler
	case *ImmutableError:
		return ErrCodeImmutable
	default:
		return ErrCodeNone
	}
}
