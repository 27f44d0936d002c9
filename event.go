package hsm

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// handlerPrefix is prepended to a canonical event name to derive the
// method-style key a state's dispatch table is looked up by.
const handlerPrefix = "on_"

// Pseudo-signal names, never observable at the external queue boundary.
const (
	entrySignalName = "entry"
	exitSignalName  = "exit"
	initSignalName  = "init"
)

// CanonicalEventName derives the canonical snake_case form of an event name
// the way constructing an Event from a Go type name would: an underscore is
// inserted before each interior uppercase letter that either follows a
// lowercase letter/digit, or starts a new word (is itself followed by a
// lowercase letter), then the result is lowercased. Implemented as a direct
// rune scan rather than a regular expression, since the rule depends on
// lookaround (what precedes and follows each uppercase letter) that Go's
// regexp engine cannot express.
// Idempotent: CanonicalEventName(CanonicalEventName(s)) == CanonicalEventName(s).
func CanonicalEventName(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(runes) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			prevLowerOrDigit := unicode.IsLower(prev) || unicode.IsDigit(prev)
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLowerOrDigit || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// Event is a message dispatched to a machine's current state. It is
// immutable after construction: Data and Metadata can only be set while the
// Event is being built, never afterward.
type Event struct {
	name       string
	handlerKey string
	id         string
	data       any
	metadata   map[string]any
	frozen     bool
}

// EventOption configures an Event at construction time.
type EventOption func(*Event)

// WithData attaches a payload to the event being built.
func WithData(data any) EventOption {
	return func(e *Event) { e.data = data }
}

// WithMetadata attaches a metadata key/value to the event being built.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.metadata == nil {
			e.metadata = make(map[string]any)
		}
		e.metadata[key] = value
	}
}

// NewEvent constructs an immutable Event. name is used verbatim as the
// dispatch key; no canonicalization is applied to explicit string names.
func NewEvent(name string, opts ...EventOption) *Event {
	e := &Event{
		name: name,
		id:   uuid.New().String(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.handlerKey = handlerPrefix + name
	e.frozen = true
	return e
}

// NewEventFromType constructs an Event whose name is the canonical form of
// typeName, e.g. NewEventFromType("MySpecialEvent") names itself
// "my_special_event".
func NewEventFromType(typeName string, opts ...EventOption) *Event {
	return NewEvent(CanonicalEventName(typeName), opts...)
}

// Name returns the event's dispatch name.
func (e *Event) Name() string { return e.name }

// ID returns the event's unique identifier.
func (e *Event) ID() string { return e.id }

// Data returns the event's payload, if any.
func (e *Event) Data() any { return e.data }

// Metadata looks up a metadata value by key.
func (e *Event) Metadata(key string) (any, bool) {
	if e.metadata == nil {
		return nil, false
	}
	v, ok := e.metadata[key]
	return v, ok
}

// SetData would mutate the event's payload; it always fails once the event
// is constructed, enforcing immutability. It exists so callers have an
// explicit, erroring mutation path instead of a silent no-op.
func (e *Event) SetData(any) error {
	if e.frozen {
		return NewImmutableError(e.name, "data")
	}
	return nil
}

// newSignal builds one of the three internal pseudo-events. Signals never
// carry a payload and are never admitted to a machine's external queue.
func newSignal(name string) *Event {
	return &Event{name: name, handlerKey: handlerPrefix + name, frozen: true}
}
