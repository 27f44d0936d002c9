package hsm

// EventHandler is the signature of a state's handler for an external event.
// A non-nil *State return value requests a transition to that state; a nil
// return (with nil error) means the event was handled but no transition is
// requested. The machine is passed explicitly rather than discovered
// through ambient/thread-local lookup, so a handler that wants to arm a
// timer can pass m straight into NewAfter/NewEvery.
type EventHandler func(m *StateMachine, e *Event) (*State, error)

// SignalHandler is the signature of a state's entry, exit or init handler.
// The three pseudo-signals never carry an event argument. Entry and exit
// handlers may return a non-nil *State, but the dispatcher discards it —
// exit/entry handlers may not themselves request a transition; only the
// init handler's return value is honored.
type SignalHandler func(m *StateMachine) (*State, error)

// UnhandledEventHandler is invoked when a state exposes no handler for the
// event being dispatched. The default implementation is a no-op; a state
// configured with OnUnhandled can observe unhandled events (e.g. for
// diagnostics) without itself resolving them.
type UnhandledEventHandler func(m *StateMachine, e *Event)

// State is one node of a machine's hierarchy. It owns a table of event
// handlers keyed by canonical handler name, the three pseudo-signal
// handlers, and a resource manager scoped to its own lifetime: resources
// registered on a state are released whenever that state is exited.
//
// A State never holds a live reference back to its owning machine; the
// dispatcher always passes itself into handler closures that need it,
// keeping the machine↔state reference a one-way, machine-owns-state edge.
type State struct {
	name      string
	parent    *State
	resources *ResourceManager

	handlers    map[string]EventHandler
	onEntry     SignalHandler
	onExit      SignalHandler
	onInit      SignalHandler
	onUnhandled UnhandledEventHandler
}

// Name returns the state's registered name.
func (s *State) Name() string { return s.name }

// Parent returns the state's super-state, or nil if s is a root.
func (s *State) Parent() *State { return s.parent }

// Resources returns the resource manager scoped to this state's lifetime.
func (s *State) Resources() *ResourceManager { return s.resources }

// HasEntry reports whether the state has an entry handler configured.
func (s *State) HasEntry() bool { return s.onEntry != nil }

// HasExit reports whether the state has an exit handler configured.
func (s *State) HasExit() bool { return s.onExit != nil }

// HasInit reports whether the state has an init handler configured.
func (s *State) HasInit() bool { return s.onInit != nil }

// handlerFor looks up the handler registered for a canonical handler key.
func (s *State) handlerFor(key string) (EventHandler, bool) {
	h, ok := s.handlers[key]
	return h, ok
}

func (s *State) runEntry(m *StateMachine) (*State, error) {
	if s.onEntry == nil {
		return nil, nil
	}
	return s.onEntry(m)
}

func (s *State) runExit(m *StateMachine) (*State, error) {
	if s.onExit == nil {
		return nil, nil
	}
	return s.onExit(m)
}

func (s *State) runInit(m *StateMachine) (*State, error) {
	if s.onInit == nil {
		return nil, nil
	}
	return s.onInit(m)
}

func (s *State) runUnhandled(m *StateMachine, e *Event) {
	if s.onUnhandled != nil {
		s.onUnhandled(m, e)
	}
}

// StateBuilder assembles a State through a fluent configuration surface,
// generalizing a flat, inheritance-free atomic state's entry/exit builder
// methods to a hierarchical one addressed by an explicit parent designator
// rather than a language-level super-state relationship.
type StateBuilder struct {
	s *State
}

// NewState begins building a state named name. parent is the state's
// super-state, or nil to make it a hierarchy root.
func NewState(name string, parent *State) *StateBuilder {
	return &StateBuilder{s: &State{
		name:      name,
		parent:    parent,
		resources: NewResourceManager(),
		handlers:  make(map[string]EventHandler),
	}}
}

// On registers the handler for an externally-named event. eventName is used
// verbatim as the dispatch key; callers deriving a name from a type should
// canonicalize it first with CanonicalEventName.
func (b *StateBuilder) On(eventName string, h EventHandler) *StateBuilder {
	b.s.handlers[handlerPrefix+eventName] = h
	return b
}

// OnEntry sets the state's entry handler.
func (b *StateBuilder) OnEntry(h SignalHandler) *StateBuilder {
	b.s.onEntry = h
	return b
}

// OnExit sets the state's exit handler.
func (b *StateBuilder) OnExit(h SignalHandler) *StateBuilder {
	b.s.onExit = h
	return b
}

// OnInit sets the state's init handler, run at startup when this is the
// initial state and after every transition that lands on this state (after
// that transition's entry handlers, if any ran).
func (b *StateBuilder) OnInit(h SignalHandler) *StateBuilder {
	b.s.onInit = h
	return b
}

// OnUnhandled sets the state's fallback for events it has no handler for.
func (b *StateBuilder) OnUnhandled(h UnhandledEventHandler) *StateBuilder {
	b.s.onUnhandled = h
	return b
}

// Build finalizes and returns the configured State. The returned State must
// still be registered with a machine via MachineBuilder.AddState before the
// machine is started.
func (b *StateBuilder) Build() *State {
	return b.s
}
