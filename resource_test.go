package hsm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	name      string
	released  bool
	failOnce  bool
	releaseFn func() error
}

func (r *fakeResource) Name() string { return r.name }

func (r *fakeResource) Release() error {
	r.released = true
	if r.releaseFn != nil {
		return r.releaseFn()
	}
	return nil
}

func TestResourceManager_RegisterAndGet(t *testing.T) {
	rm := NewResourceManager()
	r := &fakeResource{name: "timer1"}
	require.NoError(t, rm.Register(r))

	got, ok := rm.Get("timer1")
	require.True(t, ok)
	assert.Same(t, r, got)
	assert.Equal(t, 1, rm.Len())
}

func TestResourceManager_DuplicateNameErrors(t *testing.T) {
	rm := NewResourceManager()
	require.NoError(t, rm.Register(&fakeResource{name: "x"}))
	err := rm.Register(&fakeResource{name: "x"})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestResourceManager_UnregisterMissingErrors(t *testing.T) {
	rm := NewResourceManager()
	err := rm.Unregister("nope")
	require.Error(t, err)
	assert.True(t, IsLookupError(err))
}

func TestResourceManager_ReleaseAll_OrderAndEmpties(t *testing.T) {
	rm := NewResourceManager()
	var order []string
	mk := func(name string) *fakeResource {
		return &fakeResource{name: name, releaseFn: func() error {
			order = append(order, name)
			return nil
		}}
	}
	require.NoError(t, rm.Register(mk("a")))
	require.NoError(t, rm.Register(mk("b")))
	require.NoError(t, rm.Register(mk("c")))

	rm.ReleaseAll()

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, rm.Len())
}

func TestResourceManager_ReleaseAll_ContinuesPastError(t *testing.T) {
	rm := NewResourceManager()
	var released []string
	failing := &fakeResource{name: "bad", releaseFn: func() error { return errors.New("boom") }}
	ok1 := &fakeResource{name: "ok1", releaseFn: func() error { released = append(released, "ok1"); return nil }}
	ok2 := &fakeResource{name: "ok2", releaseFn: func() error { released = append(released, "ok2"); return nil }}

	require.NoError(t, rm.Register(failing))
	require.NoError(t, rm.Register(ok1))
	require.NoError(t, rm.Register(ok2))

	rm.ReleaseAll()

	assert.True(t, failing.released)
	assert.Equal(t, []string{"ok1", "ok2"}, released)
	assert.Equal(t, 0, rm.Len())
}
