// Package hsm implements a general-purpose hierarchical finite state
// machine runtime: a dispatcher hosting one or more named state machines,
// each driven by its own bounded event queue and dedicated worker
// goroutine, with full UML-style hierarchical semantics (nested states,
// entry/exit/init pseudo-events, least-common-ancestor transitions) and
// state- or machine-scoped timer resources.
//
// A machine is assembled from states built with NewState and wired
// together through a MachineBuilder:
//
//	idle := hsm.NewState("idle", nil).
//		OnEntry(func(m *hsm.StateMachine) (*hsm.State, error) { return nil, nil }).
//		On("start", func(m *hsm.StateMachine, e *hsm.Event) (*hsm.State, error) { return running, nil }).
//		Build()
//
//	m, err := hsm.NewMachine("example").
//		AddState(idle).
//		AddState(running).
//		Build(hsm.WithLogger(hsm.NewDefaultLogger()))
//
// Build does not start the worker; call Start (or its alias DoStart) once
// the hierarchy is fully assembled.
package hsm
