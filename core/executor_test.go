package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"potlottery/core/events"
	"potlottery/core/state"
	"potlottery/storage"
)

type testEvent struct{ kind string }

func (e testEvent) EventType() string { return e.kind }

func TestApplyCommitsAndFlushes(t *testing.T) {
	db := storage.NewMemDB()
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(4)
	defer cancel()
	exec := NewExecutor(state.NewManager(db), bus)

	err := exec.Apply(func() error {
		bus.Emit(testEvent{kind: "ok"})
		require.Empty(t, ch)
		return exec.State().KVPut([]byte("k"), uint64(1))
	})
	require.NoError(t, err)
	require.Equal(t, 1, db.Len())
	evt := <-ch
	require.Equal(t, "ok", evt.Type)
}

func TestApplyDiscardsOnError(t *testing.T) {
	db := storage.NewMemDB()
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(4)
	defer cancel()
	exec := NewExecutor(state.NewManager(db), bus)

	boom := errors.New("boom")
	err := exec.Apply(func() error {
		bus.Emit(testEvent{kind: "lost"})
		require.NoError(t, exec.State().KVPut([]byte("k"), uint64(1)))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, db.Len())
	require.Zero(t, exec.State().Dirty())
	require.Empty(t, ch)

	var found bool
	require.NoError(t, exec.View(func() error {
		var err error
		found, err = exec.State().KVGet([]byte("k"), nil)
		return err
	}))
	require.False(t, found)
}
