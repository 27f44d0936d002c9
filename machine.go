package hsm

import (
	"fmt"
	"sync"
	"time"
)

// defaultQueueSize is the bounded event queue's default capacity.
const defaultQueueSize = 64

// defaultMaxInitCascade bounds the init-transition cascade so a misbehaving
// on_init handler that keeps requesting a further
// transition cannot hang the worker forever: it logs and aborts the cascade
// instead of looping indefinitely or deadlocking.
const defaultMaxInitCascade = 10000

// ExceptionHandler is invoked whenever dispatch catches a handler panic/
// error or an unregistered transition target. The default implementation
// logs the error and lets the loop continue rather than re-raising: a panic
// would permanently kill a Go worker goroutine on the first bad handler,
// which would let a single erroring handler corrupt the whole machine.
// Overriding ExceptionHandler lets a caller restore fail-fast behavior if
// that's what they want.
type ExceptionHandler func(m *StateMachine, err error, state *State, event *Event, msg string)

// StateMachine is a single hierarchical state machine instance: one
// dedicated worker goroutine running the event loop, consuming a bounded
// FIFO queue, with hierarchy and resources owned exclusively by that worker
// for its whole lifetime.
type StateMachine struct {
	name   string
	logger Logger

	pm        *PathManager
	resources *ResourceManager
	queue     *eventQueue
	queueSize int

	onStart       func(m *StateMachine)
	onTerminate   func(m *StateMachine)
	onException   ExceptionHandler
	maxInitCascade int

	initSignal  *Event
	entrySignal *Event
	exitSignal  *Event

	mu      sync.RWMutex
	current *State
	started bool
	done    chan struct{}
}

// MachineOption configures a StateMachine at Build time.
type MachineOption func(*StateMachine)

// WithLogger attaches the Logger handler/resource errors and debug/info
// records are reported to. Defaults to NopLogger.
func WithLogger(l Logger) MachineOption {
	return func(m *StateMachine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithQueueSize overrides the bounded event queue's capacity.
func WithQueueSize(n int) MachineOption {
	return func(m *StateMachine) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

// WithOnStart sets the hook run once, after the init cascade completes and
// before the worker enters its event loop.
func WithOnStart(f func(m *StateMachine)) MachineOption {
	return func(m *StateMachine) { m.onStart = f }
}

// WithOnTerminate sets the hook run once the sentinel has been consumed and
// before the worker exits. It runs *before* the default release-all, so
// machine-scoped resources are still present if the hook needs them.
func WithOnTerminate(f func(m *StateMachine)) MachineOption {
	return func(m *StateMachine) { m.onTerminate = f }
}

// WithExceptionHandler overrides the default log-and-continue exception
// policy (see ExceptionHandler's doc comment).
func WithExceptionHandler(f ExceptionHandler) MachineOption {
	return func(m *StateMachine) { m.onException = f }
}

// WithMaxInitCascade overrides the bounded init-cascade retry guard.
func WithMaxInitCascade(n int) MachineOption {
	return func(m *StateMachine) {
		if n > 0 {
			m.maxInitCascade = n
		}
	}
}

// MachineBuilder assembles a StateMachine's state hierarchy before it is
// built and started, splitting definition from instantiation the way a
// machine's state hierarchy is described once and a runtime instance built
// from it, adapted to this runtime's explicit-parent-pointer states instead
// of a transitions-table definition.
type MachineBuilder struct {
	name            string
	pm              *PathManager
	explicitInitial *State
	err             error
}

// NewMachine begins building a machine named name.
func NewMachine(name string) *MachineBuilder {
	return &MachineBuilder{name: name, pm: NewPathManager()}
}

// AddState registers a state. Registration order defines the default
// initial state (first-registered) unless InitialState overrides it.
func (b *MachineBuilder) AddState(s *State) *MachineBuilder {
	if b.err == nil {
		b.err = b.pm.Add(s)
	}
	return b
}

// InitialState overrides the default (first-registered) initial state. s
// must be one of the states already passed to AddState.
func (b *MachineBuilder) InitialState(s *State) *MachineBuilder {
	b.explicitInitial = s
	return b
}

// Build validates the hierarchy, constructs the StateMachine and, unless
// autostart is suppressed by the caller never invoking Start/DoStart
// themselves, leaves it ready for Start. Build never starts the worker;
// call Start (or DoStart, its alias for "autostart was disabled") to do so.
func (b *MachineBuilder) Build(opts ...MachineOption) (*StateMachine, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.pm.order) == 0 {
		return nil, NewConfigurationError(b.name, "machine has no registered states")
	}
	if err := b.pm.Build(); err != nil {
		return nil, err
	}
	init := b.explicitInitial
	if init == nil {
		init = b.pm.InitialState()
	} else if b.pm.Ancestors(init) == nil {
		return nil, NewConfigurationError(b.name, "explicit initial state \""+init.Name()+"\" is not a registered state")
	}

	m := &StateMachine{
		name:           b.name,
		logger:         NopLogger{},
		pm:             b.pm,
		resources:      NewResourceManager(),
		queueSize:      defaultQueueSize,
		maxInitCascade: defaultMaxInitCascade,
		current:        init,
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resources.SetLogger(m.logger)
	for _, s := range b.pm.order {
		s.resources.SetLogger(m.logger)
	}
	m.initSignal = newSignal(initSignalName)
	m.entrySignal = newSignal(entrySignalName)
	m.exitSignal = newSignal(exitSignalName)
	m.queue = newEventQueue(m.queueSize)
	return m, nil
}

// Name returns the machine's registered name.
func (m *StateMachine) Name() string { return m.name }

// Depth returns the hierarchy's maximum depth.
func (m *StateMachine) Depth() int { return m.pm.Depth() }

// States returns the registered state names, in registration order.
func (m *StateMachine) States() []string { return m.pm.States() }

// State returns the current state.
func (m *StateMachine) State() *State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Resources returns the machine-scoped resource manager.
func (m *StateMachine) Resources() *ResourceManager { return m.resources }

func (m *StateMachine) setCurrent(s *State) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

// Start starts the worker goroutine: registers the machine in the
// process-wide registry, runs the init cascade against the initial state,
// invokes the on-start hook, then enters the event loop. Calling Start
// twice is a configuration error.
func (m *StateMachine) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return NewConfigurationError(m.name, "Start called more than once")
	}
	m.started = true
	m.mu.Unlock()

	if err := registerMachine(m); err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		return err
	}
	go m.eventLoop()
	return nil
}

// DoStart is an alias for Start, for callers who disabled autostart when
// assembling the machine.
func (m *StateMachine) DoStart() error { return m.Start() }

// Send enqueues an event for dispatch. mode selects blocking/timed/
// non-blocking admission; timeout is only consulted for SendTimeout.
func (m *StateMachine) Send(e *Event, mode SendMode, timeout time.Duration) error {
	if err := m.queue.put(queueItem{event: e}, mode, timeout); err != nil {
		return NewCapacityError(m.name, e.Name())
	}
	return nil
}

// DoTerminate requests orderly shutdown: the sentinel is enqueued behind
// every event already admitted, so earlier events complete first.
func (m *StateMachine) DoTerminate(mode SendMode, timeout time.Duration) error {
	if err := m.queue.put(queueItem{sentinel: true}, mode, timeout); err != nil {
		return NewCapacityError(m.name, "<terminate>")
	}
	return nil
}

// Wait blocks the caller until the worker exits. A non-positive timeout
// waits indefinitely.
func (m *StateMachine) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		<-m.done
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-m.done:
		return nil
	case <-t.C:
		return fmt.Errorf("hsm: %s: Wait timed out after %s", m.name, timeout)
	}
}

func (m *StateMachine) eventLoop() {
	m.logger.Debugf("%s registered states %v", m.name, m.pm.States())
	m.logger.Debugf("%s hierarchy: %d level(s) deep, %d state(s)", m.name, m.pm.Depth(), len(m.pm.States()))
	m.logger.Infof("%s %s is initial state", m.name, m.current.Name())

	m.dispatch(m.initSignal)
	if m.onStart != nil {
		m.onStart(m)
	}

	for {
		item := m.queue.get()
		if item.sentinel {
			if m.onTerminate != nil {
				m.onTerminate(m)
			}
			m.mu.RLock()
			current := m.current
			m.mu.RUnlock()
			for _, s := range m.pm.Ancestors(current) {
				if s != nil {
					s.Resources().ReleaseAll()
				}
			}
			m.resources.ReleaseAll()
			m.logger.Infof("%s terminated", m.name)
			unregisterMachine(m.name)
			close(m.done)
			return
		}
		m.dispatch(item.event)
	}
}

// resolveAndRun runs the handler (or pseudo-signal handler) named eventName
// against state. bubbled is true only when a regular (non-signal) event
// found no handler, signalling the dispatcher to retry against the parent;
// signals are always resolved directly at the state they're dispatched to
// and never bubble,
// since every state always "has" an entry/exit/init handler — possibly a
// no-op one, never a missing one.
func (m *StateMachine) resolveAndRun(state *State, eventName string, event *Event) (target *State, bubbled bool) {
	var err error
	var phase string
	switch eventName {
	case initSignalName:
		phase = "init"
		target, err = m.safeExec(func() (*State, error) { return state.runInit(m) })
	case entrySignalName:
		phase = "entry"
		target, err = m.safeExec(func() (*State, error) { return state.runEntry(m) })
	case exitSignalName:
		phase = "exit"
		target, err = m.safeExec(func() (*State, error) { return state.runExit(m) })
	default:
		phase = "event"
		h, ok := state.handlerFor(event.handlerKey)
		if !ok {
			state.runUnhandled(m, event)
			return nil, true
		}
		target, err = m.safeExec(func() (*State, error) { return h(m, event) })
	}
	if err != nil {
		herr := NewHandlerError(m.name, state.Name(), eventName, phase, err)
		m.reportException(herr, state, event, phase+" handler failed")
		return nil, false
	}
	return target, false
}

// safeExec runs fn with panic recovery, converting a panic into an error so
// a single bad handler cannot take down the worker goroutine.
func (m *StateMachine) safeExec(fn func() (*State, error)) (target *State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (m *StateMachine) reportException(err error, state *State, event *Event, msg string) {
	stateName := ""
	if state != nil {
		stateName = state.Name()
	}
	eventName := ""
	if event != nil {
		eventName = event.Name()
	}
	m.logger.Errorf("%s: %s (state=%s event=%s): %v", m.name, msg, stateName, eventName, err)
	if m.onException != nil {
		m.onException(m, err, state, event, msg)
	}
}

// dispatch executes one event (or pseudo-signal) to completion: bubble-up
// handler search, then the exit/enter/init transition cascade, repeating
// while an init handler keeps requesting a further target.
func (m *StateMachine) dispatch(event *Event) {
	current := m.State()
	m.logger.Debugf("%s %s(%s)", m.name, current.Name(), event.Name())
	m.pm.Reset()

	var target *State
	for {
		t, bubbled := m.resolveAndRun(current, event.Name(), event)
		if !bubbled {
			target = t
			break
		}
		m.pm.PendExit(current)
		parent := m.pm.ParentOf(current)
		if parent == nil {
			m.pm.Reset()
			return
		}
		current = parent
	}

	cascades := 0
	for target != nil {
		if m.pm.Ancestors(target) == nil {
			err := NewLookupError(m.name, current.Name(), target.Name())
			m.reportException(err, current, event, "handler returned unregistered target")
			return
		}
		m.logger.Debugf("%s %s -> %s", m.name, current.Name(), target.Name())

		m.pm.Generate(current, target)
		for _, s := range m.pm.ExitPath() {
			m.resolveAndRun(s, exitSignalName, m.exitSignal)
			s.Resources().ReleaseAll()
		}
		for _, s := range m.pm.EnterPath() {
			m.resolveAndRun(s, entrySignalName, m.entrySignal)
		}
		m.pm.Reset()

		current = target
		m.setCurrent(current)

		cascades++
		if cascades > m.maxInitCascade {
			m.logger.Errorf("%s: init cascade exceeded %d iterations at %s, aborting", m.name, m.maxInitCascade, current.Name())
			return
		}
		target, _ = m.resolveAndRun(current, initSignalName, m.initSignal)
	}
}
