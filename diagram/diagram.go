// Package diagram renders a built hsm.PathManager's hierarchy as a PlantUML
// state diagram: @startuml framing, nested `state "name" as alias` blocks,
// and entry/exit/init annotation lines. Because this runtime's handlers are
// closures that compute their target dynamically, an actual transition's
// destination cannot be read back from a *hsm.State; there is no statically
// declared transition table to walk. Callers who want transition arrows
// supply them as Transition hints describing the diagram they intend, not
// behavior the renderer inspects or executes; the renderer never mutates or
// calls into the path manager's dispatch surface.
package diagram

import (
	"fmt"
	"sort"
	"strings"

	hsm "github.com/statewerk/hsm"
)

// Transition is a documentation-only arrow from one state name to another,
// labelled with the event name that is understood to trigger it.
type Transition struct {
	From  string
	Event string
	To    string
	Arrow string // overrides Builder's DefaultArrow for this edge only, if non-empty
}

// Builder assembles a PlantUML document for a finalized PathManager.
type Builder struct {
	pm           *hsm.PathManager
	defaultArrow string
	transitions  []Transition
}

// New begins a diagram for pm, which must already have had Build called.
func New(pm *hsm.PathManager) *Builder {
	return &Builder{pm: pm, defaultArrow: "-->"}
}

// DefaultArrow overrides the arrow style used for transitions with no
// per-edge override. The default is "-->".
func (b *Builder) DefaultArrow(arrow string) *Builder {
	b.defaultArrow = arrow
	return b
}

// Transition records a documentation-only arrow to render between two
// states, labelled by event name.
func (b *Builder) Transition(from, event, to string) *Builder {
	b.transitions = append(b.transitions, Transition{From: from, Event: event, To: to})
	return b
}

// Build renders the PlantUML document.
func (b *Builder) Build() string {
	states := b.pm.RegisteredStates()
	byName := make(map[string]*hsm.State, len(states))
	children := make(map[string][]*hsm.State)
	var roots []*hsm.State
	for _, s := range states {
		byName[s.Name()] = s
		if s.Parent() == nil {
			roots = append(roots, s)
		} else {
			children[s.Parent().Name()] = append(children[s.Parent().Name()], s)
		}
	}

	var bld strings.Builder
	bld.WriteString("@startuml\n\n")

	var dump func(indent int, s *hsm.State)
	dump = func(indent int, s *hsm.State) {
		prefix := strings.Repeat("  ", indent)
		fmt.Fprintf(&bld, "%sstate \"%s\" as %s", prefix, s.Name(), alias(s.Name()))
		kids := children[s.Name()]
		if len(kids) == 0 {
			bld.WriteString("\n")
		} else {
			bld.WriteString(" {\n")
			for _, c := range kids {
				dump(indent+1, c)
			}
			fmt.Fprintf(&bld, "%s}\n", prefix)
		}
		if s.HasEntry() {
			fmt.Fprintf(&bld, "%s%s : entry\n", prefix, alias(s.Name()))
		}
		if s.HasExit() {
			fmt.Fprintf(&bld, "%s%s : exit\n", prefix, alias(s.Name()))
		}
		if s.HasInit() {
			fmt.Fprintf(&bld, "%s%s : init\n", prefix, alias(s.Name()))
		}
	}

	if init := b.pm.InitialState(); init != nil {
		fmt.Fprintf(&bld, "[*] --> %s\n", alias(init.Name()))
	}
	for _, r := range roots {
		dump(0, r)
	}

	if len(b.transitions) > 0 {
		bld.WriteString("\n")
		ts := make([]Transition, len(b.transitions))
		copy(ts, b.transitions)
		sort.SliceStable(ts, func(i, j int) bool { return ts[i].From < ts[j].From })
		for _, t := range ts {
			arrow := b.defaultArrow
			if t.Arrow != "" {
				arrow = t.Arrow
			}
			fmt.Fprintf(&bld, "%s %s %s : %s\n", alias(t.From), arrow, alias(t.To), t.Event)
		}
	}

	bld.WriteString("\n@enduml\n")
	return bld.String()
}

// alias derives a PlantUML-safe identifier from a state name: spaces and
// dots (legal in this module's state names, illegal as bare PlantUML
// identifiers) become underscores.
func alias(name string) string {
	r := strings.NewReplacer(" ", "_", ".", "_", "-", "_")
	return r.Replace(name)
}
