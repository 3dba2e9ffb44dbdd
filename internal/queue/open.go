package queue

import (
	"errors"
	"fmt"
)

// Open opens queue name with the given access type and payload mode,
// returning a Handle valid until Close.
//
// If name is already bound to a handle in this process with a matching
// (access, mode), that existing handle is returned again with no lock
// state change (spec's "round-trip" law in §8). If it is bound with a
// different (access, mode), ErrQueueOpened is returned. Otherwise the lock
// protocol's compatibility rules (§4.2) decide whether the open succeeds;
// on success a free handle-table row is reserved, or ErrHandleNotAvail is
// returned and the lock change is backed out (spec §4.4.3).
func (e *Engine) Open(name string, access AccessType, mode Mode) (Handle, error) {
	if err := validateName(name); err != nil {
		return Handle{}, err
	}

	if !access.valid() || !mode.valid() {
		return Handle{}, fmt.Errorf("%w: invalid access or mode", ErrInvalidArg)
	}

	dir := e.dirFor(name)

	exists, err := e.fsys.Exists(dir)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if !exists {
		return Handle{}, ErrQueueMissing
	}

	var (
		h   Handle
		ret error
	)

	e.tbl.withLock(func() {
		if i, ok := e.tbl.findByName(name); ok {
			row := e.tbl.rows[i]
			if row.access == access && row.mode == mode {
				h = Handle{index: i, generation: row.generation}

				return
			}

			ret = ErrQueueOpened

			return
		}

		lockErr := withArbiter(e.locker, dir, func() error {
			return acquireOpenLock(e.fsys, dir, access)
		})
		if lockErr != nil {
			ret = classifyLockErr(lockErr)

			return
		}

		i, ok := e.tbl.findFree()
		if !ok {
			_ = withArbiter(e.locker, dir, func() error {
				return backOutOpenLock(e.fsys, dir, access)
			})

			ret = ErrHandleNotAvail

			return
		}

		h = e.tbl.bind(i, name, access, mode)
	})

	return h, ret
}

// classifyLockErr passes ErrQueueIsBusy through unchanged and wraps
// anything else as ErrFSAccessFail.
func classifyLockErr(err error) error {
	if errors.Is(err, ErrQueueIsBusy) {
		return err
	}

	return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
}

// Close releases h: the lock protocol's release rules (§4.2) are applied
// (decrement .rolock or delete the exclusive lock file) and the
// handle-table row is freed (spec §4.4.4).
func (e *Engine) Close(h Handle) error {
	row, err := e.tbl.resolve(h)
	if err != nil {
		return err
	}

	dir := e.dirFor(row.name)

	exists, err := e.fsys.Exists(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if !exists {
		return ErrQueueMissing
	}

	lockErr := withArbiter(e.locker, dir, func() error {
		return releaseCloseLock(e.fsys, dir, row.access)
	})
	if lockErr != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, lockErr)
	}

	e.tbl.withLock(func() {
		e.tbl.release(h)
	})

	return nil
}
