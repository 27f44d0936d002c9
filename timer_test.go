package hsm

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T, states ...*State) *StateMachine {
	t.Helper()
	b := NewMachine("timer-test")
	for _, s := range states {
		b.AddState(s)
	}
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestNewAfter_MachineScopeRegistersOnMachine(t *testing.T) {
	idle := NewState("idle", nil).Build()
	m := newTestMachine(t, idle)

	r, err := NewAfter(m, ScopeMachine, nil, time.Hour, "tick")
	require.NoError(t, err)

	_, ok := m.Resources().Get(r.Name())
	assert.True(t, ok)

	require.NoError(t, r.Release())
	require.NoError(t, r.Release(), "release must be idempotent")
}

func TestNewAfter_StateScopeRequiresOwner(t *testing.T) {
	idle := NewState("idle", nil).Build()
	m := newTestMachine(t, idle)

	_, err := NewAfter(m, ScopeState, nil, time.Hour, "tick")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestNewAfter_StateScopeRegistersOnState(t *testing.T) {
	idle := NewState("idle", nil).Build()
	m := newTestMachine(t, idle)

	r, err := NewAfter(m, ScopeState, idle, time.Hour, "tick")
	require.NoError(t, err)

	_, ok := idle.Resources().Get(r.Name())
	assert.True(t, ok)
	_, ok = m.Resources().Get(r.Name())
	assert.False(t, ok)
}

func TestNewAfter_OutsideMachineIsError(t *testing.T) {
	_, err := NewAfter(nil, ScopeMachine, nil, time.Second, "tick")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestNewAfter_DuplicateDerivedNameErrors(t *testing.T) {
	idle := NewState("idle", nil).Build()
	m := newTestMachine(t, idle)

	_, err := NewAfter(m, ScopeMachine, nil, time.Hour, "tick")
	require.NoError(t, err)
	_, err = NewAfter(m, ScopeMachine, nil, time.Hour, "tick")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestEvery_RearmsUntilReleased(t *testing.T) {
	var beats int32
	idle := NewState("idle", nil).
		On("beat", func(m *StateMachine, e *Event) (*State, error) {
			atomic.AddInt32(&beats, 1)
			return nil, nil
		}).
		Build()
	m := newTestMachine(t, idle)
	require.NoError(t, m.Start())
	defer func() {
		require.NoError(t, m.DoTerminate(SendBlocking, 0))
		require.NoError(t, m.Wait(time.Second))
	}()

	r, err := NewEvery(m, ScopeMachine, nil, 10*time.Millisecond, "beat")
	require.NoError(t, err)

	time.Sleep(55 * time.Millisecond)
	require.NoError(t, r.Release())
	assert.GreaterOrEqual(t, atomic.LoadInt32(&beats), int32(2))
}
