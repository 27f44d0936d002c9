package hsm

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNopLogger_DiscardsEverything(t *testing.T) {
	var l Logger = NopLogger{}
	assert.NotPanics(t, func() {
		l.Debugf("x %d", 1)
		l.Infof("y %d", 2)
		l.Errorf("z %d", 3)
	})
}

func TestZerologAdapter_WritesLeveledRecords(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(zerolog.New(&buf))

	l.Infof("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
	assert.Contains(t, buf.String(), `"level":"info"`)

	buf.Reset()
	l.Errorf("failed: %v", "boom")
	assert.Contains(t, buf.String(), "failed: boom")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestWithLogger_AttachesToMachineAndStates(t *testing.T) {
	var buf bytes.Buffer
	idle := NewState("idle", nil).Build()

	b := NewMachine("logger-test")
	b.AddState(idle)
	m, err := b.Build(WithLogger(NewZerologLogger(zerolog.New(&buf))))
	assert.NoError(t, err)
	assert.NoError(t, m.Start())
	assert.NoError(t, m.DoTerminate(SendBlocking, 0))
	assert.NoError(t, m.Wait(0))

	assert.Contains(t, buf.String(), "logger-test")
	assert.Same(t, m.logger, idle.Resources().logger)
}

func TestWithLogger_NilOptionKeepsDefault(t *testing.T) {
	idle := NewState("idle", nil).Build()
	b := NewMachine("logger-nil-test")
	b.AddState(idle)
	m, err := b.Build(WithLogger(nil))
	assert.NoError(t, err)
	_, ok := m.logger.(NopLogger)
	assert.True(t, ok)
}
