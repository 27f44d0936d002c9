// Package config loads a state hierarchy's shape — names, parent links and
// an optional initial-state override — from a YAML document, for callers
// who prefer data-driven wiring over associating states with a machine
// directly in Go code. Handlers and entry/exit/init actions are arbitrary
// functions a YAML document cannot carry, so Build returns bare *hsm.State
// values with none attached. *hsm.State has no exported method for adding
// handlers to a state after it is built, so the states Build returns handle
// no events and run no entry/exit/init actions.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	hsm "github.com/statewerk/hsm"
)

// StateNode describes one state of a hierarchy document.
type StateNode struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent,omitempty"`
}

// Hierarchy is the declarative shape of a machine's state tree.
type Hierarchy struct {
	Machine string      `yaml:"machine"`
	Initial string      `yaml:"initial,omitempty"`
	States  []StateNode `yaml:"states"`
}

// Parse decodes a YAML hierarchy document. It does not validate cross-field
// consistency; call Validate (or Build, which validates internally) before
// relying on the result.
func Parse(data []byte) (*Hierarchy, error) {
	var h Hierarchy
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("hsm/config: %w", err)
	}
	return &h, nil
}

// Validate checks the document's internal consistency — a machine name, a
// non-empty, duplicate-free state list, parent references that resolve, and
// (if set) an initial state that resolves — without constructing any
// hsm.State.
func (h *Hierarchy) Validate() error {
	if h.Machine == "" {
		return hsm.NewConfigurationError("config", "machine name is required")
	}
	if len(h.States) == 0 {
		return hsm.NewConfigurationError(h.Machine, "states list is required and cannot be empty")
	}
	seen := make(map[string]bool, len(h.States))
	for _, s := range h.States {
		if s.Name == "" {
			return hsm.NewConfigurationError(h.Machine, "a state with an empty name is not allowed")
		}
		if seen[s.Name] {
			return hsm.NewConfigurationError(h.Machine, fmt.Sprintf("duplicate state name %q", s.Name))
		}
		seen[s.Name] = true
	}
	for _, s := range h.States {
		if s.Parent != "" && !seen[s.Parent] {
			return hsm.NewConfigurationError(h.Machine, fmt.Sprintf("state %q names unknown parent %q", s.Name, s.Parent))
		}
	}
	if h.Initial != "" && !seen[h.Initial] {
		return hsm.NewConfigurationError(h.Machine, fmt.Sprintf("initial state %q is not a declared state", h.Initial))
	}
	return nil
}

// Build materializes the hierarchy into bare hsm.State values — no handlers
// attached — and a ready-to-finish *hsm.MachineBuilder with every state
// already added (and the initial state overridden, if the document set
// one). Parent references may appear in any order in the document; Build
// resolves them by recursive lookup and rejects a parent cycle.
func Build(h *Hierarchy) (*hsm.MachineBuilder, map[string]*hsm.State, error) {
	if err := h.Validate(); err != nil {
		return nil, nil, err
	}

	byName := make(map[string]StateNode, len(h.States))
	for _, s := range h.States {
		byName[s.Name] = s
	}

	states := make(map[string]*hsm.State, len(h.States))
	building := make(map[string]bool, len(h.States))

	var resolve func(name string) (*hsm.State, error)
	resolve = func(name string) (*hsm.State, error) {
		if s, ok := states[name]; ok {
			return s, nil
		}
		if building[name] {
			return nil, hsm.NewConfigurationError(h.Machine, fmt.Sprintf("state %q participates in a parent cycle", name))
		}
		building[name] = true
		node := byName[name]
		var parent *hsm.State
		if node.Parent != "" {
			p, err := resolve(node.Parent)
			if err != nil {
				return nil, err
			}
			parent = p
		}
		s := hsm.NewState(name, parent).Build()
		states[name] = s
		building[name] = false
		return s, nil
	}

	b := hsm.NewMachine(h.Machine)
	for _, s := range h.States {
		if _, err := resolve(s.Name); err != nil {
			return nil, nil, err
		}
	}
	for _, s := range h.States {
		b.AddState(states[s.Name])
	}
	if h.Initial != "" {
		b.InitialState(states[h.Initial])
	}
	return b, states, nil
}

// Load is a convenience wrapper combining Parse and Build.
func Load(data []byte) (*hsm.MachineBuilder, map[string]*hsm.State, error) {
	h, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return Build(h)
}
