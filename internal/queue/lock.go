package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/calvinalkan/fqueue/pkg/fs"
)

// Lock protocol (spec §4.2): exactly one of three named files expresses a
// queue directory's access-sharing state across processes.
const (
	roLockName = ".rolock"
	woLockName = ".wolock"
	rwLockName = ".rwlock"

	// arbiterName is not one of the three state files above; it is a
	// dedicated file this engine flocks for the brief duration of a
	// check-then-mutate critical section on the other three. The spec
	// (§9, "Lock file durability") calls the .rolock counter's
	// read-modify-write a race between cooperating processes and asks for
	// "a filesystem-level exclusive-create primitive as the authoritative
	// arbiter"; flock on a fixed path is that primitive, reused from
	// pkg/fs.FileLocker rather than hand-rolled.
	arbiterName = ".arbiter"
)

// lockKind identifies which (if any) of the three lock files is present.
type lockKind int

const (
	lockNone lockKind = iota
	lockRO
	lockWO
	lockRW
)

// probeLocks reports which lock file is present in dir and, for lockRO,
// its current reader count. Callers must hold the arbiter lock before
// calling this as part of a check-then-mutate sequence.
func probeLocks(fsys fs.FS, dir string) (lockKind, int, error) {
	if n, ok, err := readReaderCount(fsys, dir); err != nil {
		return lockNone, 0, err
	} else if ok {
		return lockRO, n, nil
	}

	if exists, err := fsys.Exists(filepath.Join(dir, woLockName)); err != nil {
		return lockNone, 0, err
	} else if exists {
		return lockWO, 0, nil
	}

	if exists, err := fsys.Exists(filepath.Join(dir, rwLockName)); err != nil {
		return lockNone, 0, err
	} else if exists {
		return lockRW, 0, nil
	}

	return lockNone, 0, nil
}

// readReaderCount reads the 1-byte reader counter from .rolock, if present.
func readReaderCount(fsys fs.FS, dir string) (count int, ok bool, err error) {
	path := filepath.Join(dir, roLockName)

	exists, err := fsys.Exists(path)
	if err != nil || !exists {
		return 0, false, err
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return 0, false, err
	}

	if len(data) != 1 {
		return 0, false, fmt.Errorf("%w: .rolock payload is %d bytes, want 1", ErrFSAccessFail, len(data))
	}

	return int(data[0]), true, nil
}

// writeReaderCount writes n (1..255) as the 1-byte .rolock payload.
func writeReaderCount(fsys fs.FS, dir string, n int) error {
	return fsys.WriteFileAtomic(filepath.Join(dir, roLockName), []byte{byte(n)}, 0o644)
}

// withArbiter runs fn while holding an exclusive, blocking lock on dir's
// arbiter file, guaranteeing the lock-file check-then-mutate sequence in fn
// is atomic across every process and goroutine that goes through this
// engine.
func withArbiter(locker *fs.FileLocker, dir string, fn func() error) error {
	lock, err := locker.Lock(filepath.Join(dir, arbiterName))
	if err != nil {
		return fmt.Errorf("%w: acquiring lock arbiter: %v", ErrFSAccessFail, err)
	}
	defer lock.Close()

	return fn()
}

// acquireOpenLock implements the §4.2 compatibility rules for Open. It must
// be called inside withArbiter.
func acquireOpenLock(fsys fs.FS, dir string, access AccessType) error {
	kind, count, err := probeLocks(fsys, dir)
	if err != nil {
		return err
	}

	switch access {
	case ReadOnly:
		if kind == lockWO || kind == lockRW {
			return ErrQueueIsBusy
		}

		return writeReaderCount(fsys, dir, count+1)

	case WriteOnly, ReadWrite:
		if kind != lockNone {
			return ErrQueueIsBusy
		}

		name := woLockName
		if access == ReadWrite {
			name = rwLockName
		}

		return fsys.WriteFileAtomic(filepath.Join(dir, name), nil, 0o644)

	default:
		return ErrInvalidArg
	}
}

// releaseCloseLock implements the §4.2 release rules for Close. It must be
// called inside withArbiter.
func releaseCloseLock(fsys fs.FS, dir string, access AccessType) error {
	switch access {
	case ReadOnly:
		count, ok, err := readReaderCount(fsys, dir)
		if err != nil {
			return err
		}

		if !ok {
			// Already gone; release is idempotent.
			return nil
		}

		if count <= 1 {
			return removeIfExists(fsys, filepath.Join(dir, roLockName))
		}

		return writeReaderCount(fsys, dir, count-1)

	case WriteOnly:
		return removeIfExists(fsys, filepath.Join(dir, woLockName))

	case ReadWrite:
		return removeIfExists(fsys, filepath.Join(dir, rwLockName))

	default:
		return ErrInvalidArg
	}
}

// backOutOpenLock undoes acquireOpenLock after a later step in Open fails
// (e.g. no free handle-table row), so the queue is left exactly as it was
// found.
func backOutOpenLock(fsys fs.FS, dir string, access AccessType) error {
	return releaseCloseLock(fsys, dir, access)
}

func removeIfExists(fsys fs.FS, path string) error {
	err := fsys.Remove(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

// hasReaderLock reports whether dir currently has a reader-compatible lock
// (.rolock or .rwlock) -- used by Seek/GetEntry's "require a reader lock"
// precondition. It does not take the arbiter: callers already hold a valid
// handle, so the lock file they themselves established cannot disappear
// concurrently from under them within this process, and a stale read here
// only affects which error is returned, never on-disk consistency.
func hasReaderLock(fsys fs.FS, dir string) (bool, error) {
	if _, ok, err := readReaderCount(fsys, dir); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}

	return fsys.Exists(filepath.Join(dir, rwLockName))
}

// hasWriterLock reports whether dir currently has a writer-compatible lock
// (.wolock or .rwlock) -- used by Enqueue/Dequeue's "require a writer
// lock" precondition. See hasReaderLock for the no-arbiter rationale.
func hasWriterLock(fsys fs.FS, dir string) (bool, error) {
	if exists, err := fsys.Exists(filepath.Join(dir, woLockName)); err != nil || exists {
		return exists, err
	}

	return fsys.Exists(filepath.Join(dir, rwLockName))
}

// anyLockPresent reports whether any of the three lock files exists --
// used by Destroy's busy check.
func anyLockPresent(fsys fs.FS, dir string) (bool, error) {
	kind, _, err := probeLocks(fsys, dir)
	if err != nil {
		return false, err
	}

	return kind != lockNone, nil
}
