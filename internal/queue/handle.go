package queue

import "sync"

// handleRow is one row of the handle table: either free (live == false) or
// bound to an open queue's name and the access/mode it was opened with.
type handleRow struct {
	live       bool
	generation uint64
	name       string
	access     AccessType
	mode       Mode
}

// handleTable is the process-wide, fixed-capacity registry mapping open
// handles to queue names and access parameters (spec §4.3). It never
// exposes raw pointers into its rows: callers get back a value-type Handle
// carrying {index, generation}, both validated on every call.
//
// Every row starts free; find-by-name and find-free-slot are linear scans,
// matching the spec's description of the table (capacity HandleListMax is
// small enough that this is not a performance concern).
type handleTable struct {
	mu   sync.Mutex
	rows [HandleListMax]handleRow
	// nextGen is a monotonic counter; each newly bound row gets the next
	// value so a Handle from a freed-and-reused slot never validates.
	nextGen uint64
}

func newHandleTable() *handleTable {
	return &handleTable{}
}

// findByName returns the row index bound to name, or (-1, false).
func (t *handleTable) findByName(name string) (int, bool) {
	for i := range t.rows {
		if t.rows[i].live && t.rows[i].name == name {
			return i, true
		}
	}

	return -1, false
}

// findFree returns the index of a free row, or (-1, false).
func (t *handleTable) findFree() (int, bool) {
	for i := range t.rows {
		if !t.rows[i].live {
			return i, true
		}
	}

	return -1, false
}

// bind reserves row i for name/access/mode and returns the Handle for it.
// The caller must already know row i is free (via findFree) and must hold
// t.mu across the findFree+bind pair.
func (t *handleTable) bind(i int, name string, access AccessType, mode Mode) Handle {
	t.nextGen++
	gen := t.nextGen

	t.rows[i] = handleRow{live: true, generation: gen, name: name, access: access, mode: mode}

	return Handle{index: i, generation: gen}
}

// resolve validates h against the live table and returns its row, or
// ErrInvalidHandle.
func (t *handleTable) resolve(h Handle) (handleRow, error) {
	if h.index < 0 || h.index >= HandleListMax {
		return handleRow{}, ErrInvalidHandle
	}

	row := t.rows[h.index]
	if !row.live || row.generation != h.generation || h.generation == 0 {
		return handleRow{}, ErrInvalidHandle
	}

	return row, nil
}

// release marks h's row free. It is a no-op (not an error) if h no longer
// resolves; callers that need "was this a live handle" should resolve
// before releasing (Close does, and returns ErrInvalidHandle on a repeat
// call).
func (t *handleTable) release(h Handle) {
	if h.index < 0 || h.index >= HandleListMax {
		return
	}

	row := &t.rows[h.index]
	if row.live && row.generation == h.generation {
		*row = handleRow{}
	}
}

// anyBoundTo reports whether some live row names this queue -- used by
// Destroy's busy check.
func (t *handleTable) anyBoundTo(name string) bool {
	_, ok := t.findByName(name)

	return ok
}

// withLock runs fn while holding the table mutex, the single critical
// section every Open/Close/Destroy call funnels through.
func (t *handleTable) withLock(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn()
}
