package queue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/fqueue/pkg/fs"
)

func TestLockProtocol_ReadOnlyCompatibleWithReadOnly(t *testing.T) {
	fsys := fs.NewReal()
	locker := fs.NewFileLocker(fsys)
	dir := t.TempDir()

	require.NoError(t, withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, ReadOnly)
	}))
	require.NoError(t, withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, ReadOnly)
	}))

	count, ok, err := readReaderCount(fsys, dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, count)
}

func TestLockProtocol_WriteOnlyExcludesEverything(t *testing.T) {
	fsys := fs.NewReal()
	locker := fs.NewFileLocker(fsys)
	dir := t.TempDir()

	require.NoError(t, withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, WriteOnly)
	}))

	err := withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, ReadOnly)
	})
	require.ErrorIs(t, err, ErrQueueIsBusy)

	err = withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, ReadWrite)
	})
	require.ErrorIs(t, err, ErrQueueIsBusy)
}

func TestLockProtocol_ReadOnlyExcludesWriters(t *testing.T) {
	fsys := fs.NewReal()
	locker := fs.NewFileLocker(fsys)
	dir := t.TempDir()

	require.NoError(t, withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, ReadOnly)
	}))

	err := withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, WriteOnly)
	})
	require.ErrorIs(t, err, ErrQueueIsBusy)
}

func TestLockProtocol_ReleaseDecrementsThenDeletes(t *testing.T) {
	fsys := fs.NewReal()
	locker := fs.NewFileLocker(fsys)
	dir := t.TempDir()

	require.NoError(t, withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, ReadOnly)
	}))
	require.NoError(t, withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, ReadOnly)
	}))

	require.NoError(t, withArbiter(locker, dir, func() error {
		return releaseCloseLock(fsys, dir, ReadOnly)
	}))

	count, ok, err := readReaderCount(fsys, dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, count)

	require.NoError(t, withArbiter(locker, dir, func() error {
		return releaseCloseLock(fsys, dir, ReadOnly)
	}))

	_, ok, err = readReaderCount(fsys, dir)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLockProtocol_AnyLockPresent(t *testing.T) {
	fsys := fs.NewReal()
	locker := fs.NewFileLocker(fsys)
	dir := t.TempDir()

	present, err := anyLockPresent(fsys, dir)
	require.NoError(t, err)
	require.False(t, present)

	require.NoError(t, withArbiter(locker, dir, func() error {
		return acquireOpenLock(fsys, dir, ReadWrite)
	}))

	present, err = anyLockPresent(fsys, dir)
	require.NoError(t, err)
	require.True(t, present)
}
