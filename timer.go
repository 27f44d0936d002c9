package hsm

import (
	"sync"
	"time"
)

// Scope selects which resource manager a timer registers itself with: the
// owner state passed to the constructor (released when that state is exited)
// or the owning machine (released only at termination).
type Scope int

const (
	// ScopeState ties the timer's lifetime to the owner state passed to the
	// constructor.
	ScopeState Scope = iota
	// ScopeMachine ties the timer's lifetime to the machine itself.
	ScopeMachine
)

// timer is the shared implementation behind After and Every: a
// time.AfterFunc-armed one-shot or re-arming resource, self-named from
// kind/event/delay. The cancel-before-fire race is closed with a single
// mutex guarding both the underlying *time.Timer and a "released" flag, so a
// fire racing a Release can never enqueue after Release has returned.
type timer struct {
	name      string
	machine   *StateMachine
	eventName string
	delay     time.Duration
	periodic  bool

	mu       sync.Mutex
	t        *time.Timer
	released bool
}

func newTimer(m *StateMachine, scope Scope, owner *State, delay time.Duration, eventName string, periodic bool, kind string) (*timer, error) {
	if m == nil {
		return nil, NewConfigurationError(kind, "constructed outside a running machine's execution context")
	}
	tm := &timer{
		machine:   m,
		eventName: eventName,
		delay:     delay,
		periodic:  periodic,
	}
	tm.name = kind + "." + eventName + "." + delay.String()

	var rm *ResourceManager
	switch scope {
	case ScopeState:
		if owner == nil {
			return nil, NewConfigurationError(kind, "state-scoped timer requires an owning state")
		}
		rm = owner.Resources()
	default:
		rm = m.Resources()
	}
	if err := rm.Register(tm); err != nil {
		return nil, err
	}

	tm.mu.Lock()
	tm.t = time.AfterFunc(tm.delay, tm.fire)
	tm.mu.Unlock()
	return tm, nil
}

// NewAfter arms a one-shot timer: at expiry it enqueues an event named
// eventName on m and is then spent. It is not auto-unregistered; the owning
// scope releases it during exit or termination.
func NewAfter(m *StateMachine, scope Scope, owner *State, delay time.Duration, eventName string) (Resource, error) {
	return newTimer(m, scope, owner, delay, eventName, false, "After")
}

// NewEvery arms a periodic timer: after each delivery it re-arms with the
// same delay until cancelled or released.
func NewEvery(m *StateMachine, scope Scope, owner *State, delay time.Duration, eventName string) (Resource, error) {
	return newTimer(m, scope, owner, delay, eventName, true, "Every")
}

func (tm *timer) fire() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.released {
		return
	}
	if tm.periodic {
		tm.t = time.AfterFunc(tm.delay, tm.fire)
	}

	if err := tm.machine.Send(NewEvent(tm.eventName), SendNonBlocking, 0); err != nil {
		tm.machine.logger.Errorf("hsm: timer %q failed to enqueue %q: %v", tm.name, tm.eventName, err)
	}
}

// Name implements Resource.
func (tm *timer) Name() string { return tm.name }

// Release implements Resource. Cancellation is idempotent and safe to call
// after the timer has already fired.
func (tm *timer) Release() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.released = true
	if tm.t != nil {
		tm.t.Stop()
	}
	return nil
}
