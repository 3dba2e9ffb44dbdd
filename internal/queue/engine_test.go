package queue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/fqueue/pkg/fs"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	return New(fs.NewReal(), t.TempDir())
}

// Scenario 1 (spec §8): Create-Enqueue-GetLength-Dequeue-Destroy.
func TestEngine_CreateEnqueueGetLengthDequeueDestroy(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64, Flags: FlagRandomAccess}))

	h, err := e.Open("q", ReadWrite, ModeBinaryPacked)
	require.NoError(t, err)

	require.NoError(t, e.Enqueue(h, []byte("hello")))

	n, err := e.GetLength(h)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	data, err := e.Dequeue(h)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	require.NoError(t, e.Close(h))
	require.NoError(t, e.Destroy("q"))
}

// Scenario 2 (spec §8): overflow eviction.
func TestEngine_OverflowEviction(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 3, MaxEntrySize: 64}))

	h, err := e.Open("q", ReadWrite, ModeBinaryPacked)
	require.NoError(t, err)

	for _, v := range []string{"a", "b", "c", "d"} {
		require.NoError(t, e.Enqueue(h, []byte(v)))
	}

	n, err := e.GetLength(h)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	dir := e.dirFor("q")
	hdr, l, err := e.loadState(dir)
	require.NoError(t, err)
	require.Equal(t, uint32(3), hdr.NumOfEntries)

	headRef := l.reference(int(hdr.HeadLUTOffs))
	tailRef := l.reference(int(hdr.TailLUTOffs))
	require.NotEmpty(t, headRef)
	require.NotEmpty(t, tailRef)

	// "a"'s payload (reference "0001") must be gone; the other three remain.
	exists, err := e.fsys.Exists(e.payloadPath("q", "0001"))
	require.NoError(t, err)
	require.False(t, exists, "evicted payload should be removed")

	for _, ref := range []string{"0002", "0003", "0004"} {
		exists, err := e.fsys.Exists(e.payloadPath("q", ref))
		require.NoError(t, err)
		require.True(t, exists, "ref %s should still be on disk", ref)
	}

	got := make([]string, 0, 3)
	for _, want := range []string{"b", "c", "d"} {
		data, err := e.Dequeue(h)
		require.NoError(t, err)
		got = append(got, string(data))
		_ = want
	}
	require.Equal(t, []string{"b", "c", "d"}, got)
}

// Scenario 3 (spec §8): seek random access.
func TestEngine_SeekRandomAccess(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 8, MaxEntrySize: 64, Flags: FlagRandomAccess}))

	wh, err := e.Open("q", WriteOnly, ModeBinaryPacked)
	require.NoError(t, err)

	for _, v := range []string{"x", "y", "z"} {
		require.NoError(t, e.Enqueue(wh, []byte(v)))
	}
	require.NoError(t, e.Close(wh))

	rh, err := e.Open("q", ReadOnly, ModeBinaryPacked)
	require.NoError(t, err)

	require.NoError(t, e.Seek(rh, SeekHead, 0))

	for _, want := range []string{"x", "y", "z", "z"} {
		data, err := e.GetEntry(rh)
		require.NoError(t, err)
		require.Equal(t, want, string(data))
	}

	require.NoError(t, e.Seek(rh, SeekPosition, 1))
	data, err := e.GetEntry(rh)
	require.NoError(t, err)
	require.Equal(t, "y", string(data))
}

// Scenario 4 (spec §8): non-seekable rejection.
func TestEngine_NonSeekableRejection(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64}))

	h, err := e.Open("q", ReadOnly, ModeBinaryPacked)
	require.NoError(t, err)

	err = e.Seek(h, SeekHead, 0)
	require.ErrorIs(t, err, ErrQueueNotSeekable)
}

// Scenario 6 (spec §8): read-only sharing. The two readers are two Engine
// instances sharing one root (as in TestEngine_BusyAcrossEngines): a second
// Open on the same Engine would return the first handle with no lock change.
func TestEngine_ReadOnlySharing(t *testing.T) {
	root := t.TempDir()
	e := New(fs.NewReal(), root)
	e2 := New(fs.NewReal(), root)

	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64}))

	ha, err := e.Open("q", ReadOnly, ModeBinaryPacked)
	require.NoError(t, err)

	hb, err := e2.Open("q", ReadOnly, ModeBinaryPacked)
	require.NoError(t, err)

	dir := e.dirFor("q")
	count, ok, err := readReaderCount(e.fsys, dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, count)

	require.NoError(t, e.Close(ha))

	count, ok, err = readReaderCount(e.fsys, dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, count)

	require.NoError(t, e2.Close(hb))

	exists, err := e.fsys.Exists(dir + "/" + roLockName)
	require.NoError(t, err)
	require.False(t, exists)
}

// Cross-process busy: simulated in-process since Open is keyed by the
// handle table, a genuinely different process is approximated by a second
// Engine instance sharing the same root directory.
func TestEngine_BusyAcrossEngines(t *testing.T) {
	root := t.TempDir()
	e1 := New(fs.NewReal(), root)
	e2 := New(fs.NewReal(), root)

	require.NoError(t, e1.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64}))

	h1, err := e1.Open("q", ReadWrite, ModeBinaryPacked)
	require.NoError(t, err)

	_, err = e2.Open("q", ReadOnly, ModeBinaryPacked)
	require.ErrorIs(t, err, ErrQueueIsBusy)

	require.NoError(t, e1.Close(h1))

	h2, err := e2.Open("q", ReadOnly, ModeBinaryPacked)
	require.NoError(t, err)
	require.NoError(t, e2.Close(h2))
}

func TestEngine_Destroy_IdempotentOnAbsent(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Destroy("does-not-exist"))
}

func TestEngine_Destroy_BusyWhileOpen(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64}))

	h, err := e.Open("q", ReadOnly, ModeBinaryPacked)
	require.NoError(t, err)

	err = e.Destroy("q")
	require.ErrorIs(t, err, ErrQueueIsBusy)

	require.NoError(t, e.Close(h))
	require.NoError(t, e.Destroy("q"))
}

func TestEngine_Open_SameAccessModeReturnsSameHandle(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64}))

	h1, err := e.Open("q", ReadWrite, ModeBinaryPacked)
	require.NoError(t, err)

	h2, err := e.Open("q", ReadWrite, ModeBinaryPacked)
	require.NoError(t, err)

	require.Equal(t, h1, h2)

	dir := e.dirFor("q")
	exists, err := e.fsys.Exists(dir + "/" + rwLockName)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestEngine_Open_DifferentAccessModeReturnsQueueOpened(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64}))

	_, err := e.Open("q", ReadWrite, ModeBinaryPacked)
	require.NoError(t, err)

	_, err = e.Open("q", ReadOnly, ModeBinaryPacked)
	require.ErrorIs(t, err, ErrQueueOpened)
}

func TestEngine_Enqueue_RejectsReadOnlyHandle(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64}))

	h, err := e.Open("q", ReadOnly, ModeBinaryPacked)
	require.NoError(t, err)

	err = e.Enqueue(h, []byte("x"))
	require.ErrorIs(t, err, ErrQueueReadOnly)
}

func TestEngine_Enqueue_RejectsOversizedEntry(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 2}))

	h, err := e.Open("q", ReadWrite, ModeBinaryPacked)
	require.NoError(t, err)

	err = e.Enqueue(h, []byte("too-long"))
	require.ErrorIs(t, err, ErrInvalidArg)
}

func TestEngine_Dequeue_EmptyQueueReturnsErrQueueIsEmpty(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64}))

	h, err := e.Open("q", ReadWrite, ModeBinaryPacked)
	require.NoError(t, err)

	_, err = e.Dequeue(h)
	require.ErrorIs(t, err, ErrQueueIsEmpty)
}

func TestEngine_Create_RejectsDuplicateName(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64}))

	err := e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 64})
	require.ErrorIs(t, err, ErrQueueExists)
}

func TestEngine_Create_RejectsInvalidArgs(t *testing.T) {
	e := newTestEngine(t)

	require.ErrorIs(t, e.Create(CreateOptions{Name: "", MaxEntries: 4, MaxEntrySize: 64}), ErrInvalidArg)
	require.ErrorIs(t, e.Create(CreateOptions{Name: "q", MaxEntries: 0, MaxEntrySize: 64}), ErrInvalidArg)
	require.ErrorIs(t, e.Create(CreateOptions{Name: "q", MaxEntries: 4, MaxEntrySize: 0}), ErrInvalidArg)
}

func TestEngine_FIFOOrderPreservedAcrossFullDrain(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Create(CreateOptions{Name: "q", MaxEntries: 5, MaxEntrySize: 64}))

	h, err := e.Open("q", ReadWrite, ModeBinaryPacked)
	require.NoError(t, err)

	in := []string{"1", "2", "3", "4", "5"}
	for _, v := range in {
		require.NoError(t, e.Enqueue(h, []byte(v)))
	}

	for _, want := range in {
		data, err := e.Dequeue(h)
		require.NoError(t, err)
		require.Equal(t, want, string(data))
	}

	n, err := e.GetLength(h)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	entries, err := e.fsys.ReadDir(e.dirFor("q"))
	require.NoError(t, err)

	for _, ent := range entries {
		name := ent.Name()
		require.True(t, name == ".header" || name == ".lut" || name == rwLockName || name == arbiterName,
			"unexpected leftover file %q after full drain", name)
	}
}
