package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"potlottery/storage"
)

func TestKVRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	require.NoError(t, mgr.KVPut([]byte("answer"), uint64(42)))
	var got uint64
	ok, err := mgr.KVGet([]byte("answer"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), got)

	require.NoError(t, mgr.KVDelete([]byte("answer")))
	ok, err = mgr.KVGet([]byte("answer"), &got)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = mgr.KVGet(nil, &got)
	require.Error(t, err)
}

func TestSnapshotRevert(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	require.NoError(t, mgr.KVPut([]byte("a"), uint64(1)))

	outer := mgr.Snapshot()
	require.NoError(t, mgr.KVPut([]byte("a"), uint64(2)))
	inner := mgr.Snapshot()
	require.NoError(t, mgr.KVPut([]byte("b"), uint64(3)))

	require.NoError(t, mgr.RevertToSnapshot(inner))
	ok, err := mgr.KVGet([]byte("b"), nil)
	require.NoError(t, err)
	require.False(t, ok)

	var a uint64
	_, err = mgr.KVGet([]byte("a"), &a)
	require.NoError(t, err)
	require.Equal(t, uint64(2), a)

	require.NoError(t, mgr.RevertToSnapshot(outer))
	_, err = mgr.KVGet([]byte("a"), &a)
	require.NoError(t, err)
	require.Equal(t, uint64(1), a)

	require.ErrorIs(t, mgr.RevertToSnapshot(outer), ErrInvalidSnapshot)
}

func TestCommitPersists(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)
	require.NoError(t, mgr.KVPut([]byte("a"), uint64(7)))
	require.Equal(t, 0, db.Len())

	require.NoError(t, mgr.Commit())
	require.Equal(t, 1, db.Len())
	require.Equal(t, 0, mgr.Dirty())

	fresh := NewManager(db)
	var a uint64
	ok, err := fresh.KVGet([]byte("a"), &a)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), a)

	require.NoError(t, fresh.KVDelete([]byte("a")))
	require.NoError(t, fresh.Commit())
	require.Equal(t, 0, db.Len())
}

func TestDiscardDropsWrites(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)
	require.NoError(t, mgr.PutTokenBalance([20]byte{1}, big.NewInt(5)))
	mgr.Discard()
	require.NoError(t, mgr.Commit())
	require.Equal(t, 0, db.Len())

	bal, err := mgr.TokenBalance([20]byte{1})
	require.NoError(t, err)
	require.Zero(t, bal.Sign())
}
