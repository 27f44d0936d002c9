package hsm

import (
	"sync"
	"time"
)

// registryMu guards the process-wide name-to-machine registry: an explicit,
// name-keyed lookup any goroutine can use, rather than thread-local
// "current machine" storage.
var (
	registryMu sync.Mutex
	registry   = make(map[string]*StateMachine)
)

// registerMachine adds m under its name. Called once by Start; a second
// machine registered under the same still-live name is a configuration
// error.
func registerMachine(m *StateMachine) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[m.name]; exists {
		return NewConfigurationError(m.name, "a machine named \""+m.name+"\" is already registered")
	}
	registry[m.name] = m
	return nil
}

// unregisterMachine removes name from the registry. Called once by the
// event loop immediately before it exits.
func unregisterMachine(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// Lookup returns the currently running machine registered under name, for
// cross-machine Send. Returns false if no machine with that name is
// currently running.
func Lookup(name string) (*StateMachine, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	m, ok := registry[name]
	return m, ok
}

// Send delivers e to the currently running machine registered under name,
// for cross-machine addressing: a machine that only knows another
// machine's name can still reach it. Returns a LookupError if no machine
// with that name is currently running.
func Send(name string, e *Event, mode SendMode, timeout time.Duration) error {
	m, ok := Lookup(name)
	if !ok {
		return NewLookupError("registry", "", name)
	}
	return m.Send(e, mode, timeout)
}
