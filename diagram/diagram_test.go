package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hsm "github.com/statewerk/hsm"
)

func buildPM(t *testing.T) *hsm.PathManager {
	t.Helper()
	s := hsm.NewState("S", nil).
		OnEntry(func(m *hsm.StateMachine) (*hsm.State, error) { return nil, nil }).
		Build()
	s1 := hsm.NewState("S1", s).
		OnExit(func(m *hsm.StateMachine) (*hsm.State, error) { return nil, nil }).
		Build()
	b := hsm.NewState("B", nil).Build()

	pm := hsm.NewPathManager()
	require.NoError(t, pm.Add(s))
	require.NoError(t, pm.Add(s1))
	require.NoError(t, pm.Add(b))
	require.NoError(t, pm.Build())
	return pm
}

func TestBuild_ContainsStartEndFraming(t *testing.T) {
	pm := buildPM(t)
	out := New(pm).Build()
	assert.Contains(t, out, "@startuml")
	assert.Contains(t, out, "@enduml")
}

func TestBuild_NestsChildUnderParent(t *testing.T) {
	pm := buildPM(t)
	out := New(pm).Build()
	assert.Contains(t, out, "state \"S\" as S {")
	assert.Contains(t, out, "state \"S1\" as S1")
}

func TestBuild_AnnotatesEntryAndExit(t *testing.T) {
	pm := buildPM(t)
	out := New(pm).Build()
	assert.Contains(t, out, "S : entry")
	assert.Contains(t, out, "S1 : exit")
}

func TestBuild_MarksInitialState(t *testing.T) {
	pm := buildPM(t)
	out := New(pm).Build()
	assert.Contains(t, out, "[*] --> S")
}

func TestBuild_RendersTransitionHints(t *testing.T) {
	pm := buildPM(t)
	out := New(pm).Transition("S", "go", "B").Build()
	assert.Contains(t, out, "S --> B : go")
}

func TestBuild_TransitionArrowOverride(t *testing.T) {
	pm := buildPM(t)
	b := New(pm)
	b.transitions = append(b.transitions, Transition{From: "S", Event: "go", To: "B", Arrow: "..>"})
	out := b.Build()
	assert.Contains(t, out, "S ..> B : go")
}

func TestAlias_SanitizesDotsAndSpaces(t *testing.T) {
	assert.Equal(t, "open_ajar", alias("open.ajar"))
	assert.Equal(t, "a_b", alias("a b"))
}
