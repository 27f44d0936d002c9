package hsm

// PathManager owns the parent-of relation across a machine's registered
// states and computes least-common-ancestor exit/enter paths for a
// transition between any two of them. Each state is represented by a single
// *State pointer rather than a class or name key, so the ancestor-chain
// maps below are keyed directly on that pointer.
type PathManager struct {
	built bool
	depth int

	order []*State          // registration order; first entry is the default initial state
	paths map[*State][]*State // state -> [state, parent, grandparent, ..., nil]

	// exit/enter are scratch accumulators the dispatcher drives across a
	// single dispatch cycle: PendExit during ancestor bubble-up, then
	// Generate once a handling state and target are known.
	exit  []*State
	enter []*State
}

// NewPathManager constructs an empty PathManager.
func NewPathManager() *PathManager {
	return &PathManager{paths: make(map[*State][]*State)}
}

// Add registers one state. Invoked during setup only, before Build.
func (pm *PathManager) Add(s *State) error {
	if pm.built {
		return NewConfigurationError("PathManager", "Add called after Build")
	}
	if _, exists := pm.paths[s]; exists {
		return NewConfigurationError("PathManager", "state \""+s.name+"\" registered twice")
	}
	pm.paths[s] = nil
	pm.order = append(pm.order, s)
	return nil
}

// Build computes every registered state's ancestor chain once. It must run
// exactly once; a second call is an error.
func (pm *PathManager) Build() error {
	if pm.built {
		return NewConfigurationError("PathManager", "Build called more than once")
	}
	for s := range pm.paths {
		path := []*State{s}
		for p := s.parent; p != nil; p = p.parent {
			path = append(path, p)
		}
		path = append(path, nil)
		if chainDepth := len(path) - 1; chainDepth > pm.depth {
			pm.depth = chainDepth
		}
		pm.paths[s] = path
	}
	pm.built = true
	return nil
}

// Depth returns the hierarchy's maximum depth, roots at depth 1.
func (pm *PathManager) Depth() int { return pm.depth }

// States returns the registered state names, in registration order.
func (pm *PathManager) States() []string {
	names := make([]string, len(pm.order))
	for i, s := range pm.order {
		names[i] = s.name
	}
	return names
}

// InitialState returns the first-registered state, the default initial
// state unless the machine overrides it.
func (pm *PathManager) InitialState() *State {
	if len(pm.order) == 0 {
		return nil
	}
	return pm.order[0]
}

// RegisteredStates returns every registered *State, in registration order.
// Read-only consumers outside the dispatcher (hsm/diagram) use this instead
// of States to walk the actual hierarchy rather than just its names.
func (pm *PathManager) RegisteredStates() []*State {
	out := make([]*State, len(pm.order))
	copy(out, pm.order)
	return out
}

// ParentOf returns s's immediate parent, or nil if s is a root or nil.
func (pm *PathManager) ParentOf(s *State) *State {
	if s == nil {
		return nil
	}
	return s.parent
}

// Ancestors returns the ordered chain (state, parent, grandparent, …, root,
// nil-terminator) for a registered state.
func (pm *PathManager) Ancestors(s *State) []*State {
	return pm.paths[s]
}

// Generate computes the exit/enter path for a transition from source to
// destination and accumulates it onto the scratch lists: entries already
// pending from PendExit (ancestor bubble-up) are exited first, in the order
// they were pended; source's own remaining ancestor path is appended after.
// enter is accumulated in destination-to-root order and read back via
// EnterPath, which reverses it to root-to-destination.
func (pm *PathManager) Generate(source, destination *State) {
	srcPath := pm.paths[source]
	dstPath := pm.paths[destination]

	intersection := make(map[*State]bool, len(dstPath))
	for _, s := range dstPath {
		intersection[s] = true
	}
	for _, s := range srcPath {
		if !intersection[s] {
			pm.exit = append(pm.exit, s)
		}
	}

	inSrc := make(map[*State]bool, len(srcPath))
	for _, s := range srcPath {
		inSrc[s] = true
	}
	for _, s := range dstPath {
		if !inSrc[s] {
			pm.enter = append(pm.enter, s)
		}
	}
}

// PendExit appends a state to the exit scratch list directly, used by the
// dispatcher while bubbling an unhandled event up the ancestor chain: every
// descendant bubbled past must be exited once a handling ancestor is found
// and requests a transition.
func (pm *PathManager) PendExit(s *State) {
	pm.exit = append(pm.exit, s)
}

// Reset clears the scratch exit/enter lists, ready for the next dispatch
// cycle or transition step within one.
func (pm *PathManager) Reset() {
	pm.exit = nil
	pm.enter = nil
}

// ExitPath returns the accumulated exit list, source-to-root order.
func (pm *PathManager) ExitPath() []*State {
	return pm.exit
}

// EnterPath returns the accumulated enter list, reversed to root-to-
// destination order.
func (pm *PathManager) EnterPath() []*State {
	out := make([]*State, len(pm.enter))
	for i, s := range pm.enter {
		out[len(pm.enter)-1-i] = s
	}
	return out
}
