package hsm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LookupAndSend(t *testing.T) {
	var received string
	leaf := NewState("leaf", nil).Build()
	leaf.handlers[handlerPrefix+"ping"] = func(m *StateMachine, e *Event) (*State, error) {
		received = e.Data().(string)
		return nil, nil
	}

	b := NewMachine("registry-test")
	b.AddState(leaf)
	m, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer func() {
		require.NoError(t, m.DoTerminate(SendBlocking, 0))
		require.NoError(t, m.Wait(time.Second))
	}()

	got, ok := Lookup("registry-test")
	require.True(t, ok)
	assert.Same(t, m, got)

	require.NoError(t, Send("registry-test", NewEvent("ping", WithData("hi")), SendBlocking, 0))
	require.NoError(t, m.Send(NewEvent("ping", WithData("flush")), SendBlocking, 0))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "flush", received)
}

func TestRegistry_SendUnknownNameIsLookupError(t *testing.T) {
	err := Send("no-such-machine", NewEvent("ping"), SendBlocking, 0)
	require.Error(t, err)
	assert.True(t, IsLookupError(err))
}

func TestRegistry_LookupAfterTerminateReturnsFalse(t *testing.T) {
	idle := NewState("idle", nil).Build()
	b := NewMachine("registry-terminate-test")
	b.AddState(idle)
	m, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, m.Start())
	require.NoError(t, m.DoTerminate(SendBlocking, 0))
	require.NoError(t, m.Wait(time.Second))

	_, ok := Lookup("registry-terminate-test")
	assert.False(t, ok)
}
