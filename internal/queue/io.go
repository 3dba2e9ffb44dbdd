package queue

import (
	"fmt"
	"path/filepath"
)

// loadHeader reads and decodes .header only, for operations that never
// touch the LUT (Seek, GetLength).
func (e *Engine) loadHeader(dir string) (header, error) {
	hdrBuf, err := e.fsys.ReadFile(filepath.Join(dir, ".header"))
	if err != nil {
		return header{}, fmt.Errorf("%w: reading header: %v", ErrFSAccessFail, err)
	}

	return decodeHeader(hdrBuf)
}

// loadState reads and decodes .header and .lut for dir.
func (e *Engine) loadState(dir string) (header, lut, error) {
	h, err := e.loadHeader(dir)
	if err != nil {
		return header{}, lut{}, err
	}

	lutBuf, err := e.fsys.ReadFile(filepath.Join(dir, ".lut"))
	if err != nil {
		return header{}, lut{}, fmt.Errorf("%w: reading lut: %v", ErrFSAccessFail, err)
	}

	l, err := decodeLUT(lutBuf, int(h.MaxEntries))
	if err != nil {
		return header{}, lut{}, err
	}

	return h, l, nil
}

// persistState writes .lut then .header, in that order: only once the
// header commits does a mutation "count", per the stronger-implementation
// note in spec §7 (orphan payloads/LUT entries without a matching header
// update are treated as the engine's own best-effort progress, not a
// committed state).
func (e *Engine) persistState(dir string, h header, l lut) error {
	if err := e.fsys.WriteFileAtomic(filepath.Join(dir, ".lut"), l.encode(), 0o644); err != nil {
		return fmt.Errorf("%w: writing lut: %v", ErrFSAccessFail, err)
	}

	if err := e.fsys.WriteFileAtomic(filepath.Join(dir, ".header"), encodeHeader(h), 0o644); err != nil {
		return fmt.Errorf("%w: writing header: %v", ErrFSAccessFail, err)
	}

	return nil
}

// resolveForIO validates h, confirms the queue directory still exists, and
// returns the row and directory for an I/O operation.
func (e *Engine) resolveForIO(h Handle) (handleRow, string, error) {
	row, err := e.tbl.resolve(h)
	if err != nil {
		return handleRow{}, "", err
	}

	dir := e.dirFor(row.name)

	exists, err := e.fsys.Exists(dir)
	if err != nil {
		return handleRow{}, "", fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if !exists {
		return handleRow{}, "", ErrQueueMissing
	}

	return row, dir, nil
}

// Enqueue appends data to the tail of the queue bound to h. If the queue is
// at capacity, the oldest live entry is evicted (including its payload
// file) to make room; Enqueue itself never returns ErrQueueIsFull (spec
// §4.4.5, §7).
func (e *Engine) Enqueue(h Handle, data []byte) error {
	row, dir, err := e.resolveForIO(h)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("%w: data must not be empty", ErrInvalidArg)
	}

	if !row.access.canWrite() {
		return ErrQueueReadOnly
	}

	writable, err := hasWriterLock(e.fsys, dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if !writable {
		return ErrQueueClosed
	}

	hdr, l, err := e.loadState(dir)
	if err != nil {
		return err
	}

	if uint32(len(data)) > hdr.MaxEntrySize {
		return fmt.Errorf("%w: entry of %d bytes exceeds max_entry_size %d", ErrInvalidArg, len(data), hdr.MaxEntrySize)
	}

	nextRefCount, ref := mintReference(hdr.ReferenceCount)

	payloadPath := filepath.Join(dir, ref)
	if err := e.writePayload(payloadPath, data); err != nil {
		return err
	}

	hdr.ReferenceCount = nextRefCount

	maxEntries := int(hdr.MaxEntries)
	head := int(hdr.HeadLUTOffs)
	tail := int(hdr.TailLUTOffs)
	num := int(hdr.NumOfEntries)

	switch {
	case num == 0 && head == tail:
		l.setReference(tail, ref)
		num = 1

	case num == maxEntries && tail == mod(head+maxEntries-1, maxEntries):
		if int(hdr.SeekLUTOffs) == head {
			hdr.SeekLUTOffs = uint32(mod(head+1, maxEntries))
		}

		evicted := l.reference(head)
		l.clear(head)

		if evicted != "" {
			if err := e.removePayload(filepath.Join(dir, evicted)); err != nil {
				return err
			}
		}

		head = mod(head+1, maxEntries)
		tail = mod(tail+1, maxEntries)
		l.setReference(tail, ref)

	default:
		tail = mod(tail+1, maxEntries)
		l.setReference(tail, ref)
		num++
	}

	hdr.HeadLUTOffs = uint32(head)
	hdr.TailLUTOffs = uint32(tail)
	hdr.NumOfEntries = uint32(num)

	return e.persistState(dir, hdr, l)
}

// Dequeue removes and returns the oldest live entry. Returns
// ErrQueueIsEmpty if the queue currently holds no entries (spec §4.4.6).
func (e *Engine) Dequeue(h Handle) ([]byte, error) {
	row, dir, err := e.resolveForIO(h)
	if err != nil {
		return nil, err
	}

	if !row.access.canWrite() {
		return nil, ErrQueueReadOnly
	}

	writable, err := hasWriterLock(e.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if !writable {
		return nil, ErrQueueClosed
	}

	hdr, l, err := e.loadState(dir)
	if err != nil {
		return nil, err
	}

	if hdr.NumOfEntries == 0 {
		return nil, ErrQueueIsEmpty
	}

	maxEntries := int(hdr.MaxEntries)
	head := int(hdr.HeadLUTOffs)

	if int(hdr.SeekLUTOffs) == head {
		hdr.SeekLUTOffs = uint32(mod(head+1, maxEntries))
	}

	ref := l.reference(head)
	if ref == "" {
		return nil, fmt.Errorf("%w: head slot %d is empty with num_of_entries=%d", ErrFSAccessFail, head, hdr.NumOfEntries)
	}

	data, err := e.fsys.ReadFile(filepath.Join(dir, ref))
	if err != nil {
		return nil, fmt.Errorf("%w: reading payload %q: %v", ErrFSAccessFail, ref, err)
	}

	if err := e.removePayload(filepath.Join(dir, ref)); err != nil {
		return nil, err
	}

	l.clear(head)
	hdr.HeadLUTOffs = uint32(mod(head+1, maxEntries))
	hdr.NumOfEntries--

	if err := e.persistState(dir, hdr, l); err != nil {
		return nil, err
	}

	return data, nil
}

// Seek repositions the seek cursor used by GetEntry (spec §4.4.7).
func (e *Engine) Seek(h Handle, seekType SeekType, position int) error {
	row, dir, err := e.resolveForIO(h)
	if err != nil {
		return err
	}

	if !seekType.valid() {
		return fmt.Errorf("%w: invalid seek type", ErrInvalidArg)
	}

	if !row.access.canRead() {
		return ErrQueueWriteOnly
	}

	readable, err := hasReaderLock(e.fsys, dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if !readable {
		return ErrQueueClosed
	}

	hdr, err := e.loadHeader(dir)
	if err != nil {
		return err
	}

	if !Flags(hdr.Flags).has(FlagRandomAccess) {
		return ErrQueueNotSeekable
	}

	if hdr.NumOfEntries == 0 {
		return ErrQueueIsEmpty
	}

	if position < 0 || position >= int(hdr.NumOfEntries) {
		return ErrInvalidSeek
	}

	maxEntries := int(hdr.MaxEntries)

	switch seekType {
	case SeekHead:
		hdr.SeekLUTOffs = hdr.HeadLUTOffs
	case SeekTail:
		hdr.SeekLUTOffs = hdr.TailLUTOffs
	case SeekPosition:
		hdr.SeekLUTOffs = uint32(mod(int(hdr.HeadLUTOffs)+position, maxEntries))
	}

	return e.persistHeader(dir, hdr)
}

// GetEntry reads the entry at the seek cursor without removing it,
// advancing the cursor unless it is already at the tail (spec §4.4.8).
func (e *Engine) GetEntry(h Handle) ([]byte, error) {
	row, dir, err := e.resolveForIO(h)
	if err != nil {
		return nil, err
	}

	if !row.access.canRead() {
		return nil, ErrQueueWriteOnly
	}

	readable, err := hasReaderLock(e.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if !readable {
		return nil, ErrQueueClosed
	}

	hdr, l, err := e.loadState(dir)
	if err != nil {
		return nil, err
	}

	if hdr.NumOfEntries == 0 {
		return nil, ErrQueueIsEmpty
	}

	maxEntries := int(hdr.MaxEntries)
	seek := int(hdr.SeekLUTOffs)

	ref := l.reference(seek)
	if ref == "" {
		return nil, fmt.Errorf("%w: seek slot %d is empty with num_of_entries=%d", ErrFSAccessFail, seek, hdr.NumOfEntries)
	}

	data, err := e.fsys.ReadFile(filepath.Join(dir, ref))
	if err != nil {
		return nil, fmt.Errorf("%w: reading payload %q: %v", ErrFSAccessFail, ref, err)
	}

	if seek != int(hdr.TailLUTOffs) {
		hdr.SeekLUTOffs = uint32(mod(seek+1, maxEntries))
	}

	if err := e.persistHeader(dir, hdr); err != nil {
		return nil, err
	}

	return data, nil
}

// GetLength returns the number of currently live entries (spec §4.4.9).
func (e *Engine) GetLength(h Handle) (int, error) {
	row, dir, err := e.resolveForIO(h)
	if err != nil {
		return 0, err
	}

	var locked bool

	if row.access.canRead() {
		locked, err = hasReaderLock(e.fsys, dir)
	}

	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if !locked {
		locked, err = hasWriterLock(e.fsys, dir)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFSAccessFail, err)
		}
	}

	if !locked {
		return 0, ErrQueueClosed
	}

	hdr, err := e.loadHeader(dir)
	if err != nil {
		return 0, err
	}

	return int(hdr.NumOfEntries), nil
}

// persistHeader rewrites only .header, used by operations (Seek, GetEntry)
// that never modify the LUT.
func (e *Engine) persistHeader(dir string, h header) error {
	if err := e.fsys.WriteFileAtomic(filepath.Join(dir, ".header"), encodeHeader(h), 0o644); err != nil {
		return fmt.Errorf("%w: writing header: %v", ErrFSAccessFail, err)
	}

	return nil
}

// writePayload creates a payload file with exactly data's bytes.
func (e *Engine) writePayload(path string, data []byte) error {
	f, err := e.fsys.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating payload: %v", ErrFSAccessFail, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()

		return fmt.Errorf("%w: writing payload: %v", ErrFSAccessFail, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing payload: %v", ErrFSAccessFail, err)
	}

	return nil
}

func (e *Engine) removePayload(path string) error {
	if err := e.fsys.Remove(path); err != nil {
		return fmt.Errorf("%w: removing payload: %v", ErrFSAccessFail, err)
	}

	return nil
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}

	return r
}
