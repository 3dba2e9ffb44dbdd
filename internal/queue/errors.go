package queue

import "errors"

// Error kinds returned by every public operation. Callers classify errors
// with errors.Is; operations wrap these with fmt.Errorf("%w: ...") for
// context but never return an unwrapped, unclassifiable error.
var (
	// ErrInvalidArg is returned when an argument fails precondition checks
	// (empty name, name too long, zero size, unknown access/mode/seek
	// type, ...).
	ErrInvalidArg = errors.New("queue: invalid argument")

	// ErrInvalidHandle is returned when a handle does not resolve to a live
	// row in the handle table.
	ErrInvalidHandle = errors.New("queue: invalid handle")

	// ErrInvalidSeek is returned when a Seek position is out of range.
	ErrInvalidSeek = errors.New("queue: invalid seek position")

	// ErrQueueExists is returned by Create when the queue directory already
	// exists.
	ErrQueueExists = errors.New("queue: already exists")

	// ErrQueueMissing is returned when the queue directory is absent.
	ErrQueueMissing = errors.New("queue: does not exist")

	// ErrQueueOpened is returned by Open when the queue is already open in
	// this process under a different (access, mode) pair.
	ErrQueueOpened = errors.New("queue: already opened with different access")

	// ErrQueueClosed is returned when the lock file an operation requires
	// is absent: a writer lock for Enqueue/Dequeue, a reader lock for
	// Seek/GetEntry, any lock for GetLength.
	ErrQueueClosed = errors.New("queue: required lock not held")

	// ErrQueueIsFull is reserved: the engine evicts the oldest entry on
	// overflow instead of raising this. Kept for parity with the full error
	// kind set.
	ErrQueueIsFull = errors.New("queue: is full")

	// ErrQueueIsEmpty is returned by Dequeue/Seek/GetEntry on an empty queue.
	ErrQueueIsEmpty = errors.New("queue: is empty")

	// ErrQueueIsBusy is returned by Destroy/Open when a conflicting handle
	// or lock file prevents the operation; retrying later may succeed.
	ErrQueueIsBusy = errors.New("queue: is busy")

	// ErrQueueReadOnly is returned when a write operation is attempted on a
	// handle opened without write access.
	ErrQueueReadOnly = errors.New("queue: opened read-only")

	// ErrQueueWriteOnly is returned when a read operation is attempted on a
	// handle opened without read access.
	ErrQueueWriteOnly = errors.New("queue: opened write-only")

	// ErrQueueNotSeekable is returned by Seek when the queue was created
	// without the RandomAccess flag.
	ErrQueueNotSeekable = errors.New("queue: not seekable")

	// ErrFSAccessFail is returned when a filesystem port call fails. The
	// engine attempts best-effort cleanup before returning it.
	ErrFSAccessFail = errors.New("queue: filesystem access failed")

	// ErrHandleNotAvail is returned by Open when the handle table has no
	// free row.
	ErrHandleNotAvail = errors.New("queue: no handle slots available")
)
