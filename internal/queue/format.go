package queue

import (
	"encoding/binary"
	"fmt"
)

// header is the in-memory form of the .header file: nine little-endian
// uint32 fields, no padding, headerSize bytes on disk.
type header struct {
	Size            uint32 // reserved; total persisted bytes, if tracked
	MaxEntrySize    uint32 // cap enforced on each enqueued payload
	MaxEntries      uint32 // capacity of the LUT (1..MaxEntries)
	NumOfEntries    uint32 // count of currently live entries
	HeadLUTOffs     uint32 // LUT index of the oldest live entry
	TailLUTOffs     uint32 // LUT index of the newest live entry
	SeekLUTOffs     uint32 // LUT index the next GetEntry will read
	ReferenceCount  uint32 // monotonically increasing, mints payload names
	Flags           uint32 // FlagMessageLog | FlagRandomAccess
}

// headerOffsets mirrors the field order above; kept explicit (rather than
// relying on struct layout) so the encoding is documented independently of
// Go's in-memory representation.
const (
	offSize           = 0 * 4
	offMaxEntrySize   = 1 * 4
	offMaxEntries     = 2 * 4
	offNumOfEntries   = 3 * 4
	offHeadLUTOffs    = 4 * 4
	offTailLUTOffs    = 5 * 4
	offSeekLUTOffs    = 6 * 4
	offReferenceCount = 7 * 4
	offFlags          = 8 * 4
)

// encodeHeader serializes h into a fresh headerSize-byte little-endian
// buffer with no padding between fields.
func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)

	binary.LittleEndian.PutUint32(buf[offSize:], h.Size)
	binary.LittleEndian.PutUint32(buf[offMaxEntrySize:], h.MaxEntrySize)
	binary.LittleEndian.PutUint32(buf[offMaxEntries:], h.MaxEntries)
	binary.LittleEndian.PutUint32(buf[offNumOfEntries:], h.NumOfEntries)
	binary.LittleEndian.PutUint32(buf[offHeadLUTOffs:], h.HeadLUTOffs)
	binary.LittleEndian.PutUint32(buf[offTailLUTOffs:], h.TailLUTOffs)
	binary.LittleEndian.PutUint32(buf[offSeekLUTOffs:], h.SeekLUTOffs)
	binary.LittleEndian.PutUint32(buf[offReferenceCount:], h.ReferenceCount)
	binary.LittleEndian.PutUint32(buf[offFlags:], h.Flags)

	return buf
}

// decodeHeader deserializes a headerSize-byte buffer into a header. It
// returns ErrFSAccessFail if len(buf) < headerSize.
func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, fmt.Errorf("%w: header is %d bytes, want %d", ErrFSAccessFail, len(buf), headerSize)
	}

	var h header
	h.Size = binary.LittleEndian.Uint32(buf[offSize:])
	h.MaxEntrySize = binary.LittleEndian.Uint32(buf[offMaxEntrySize:])
	h.MaxEntries = binary.LittleEndian.Uint32(buf[offMaxEntries:])
	h.NumOfEntries = binary.LittleEndian.Uint32(buf[offNumOfEntries:])
	h.HeadLUTOffs = binary.LittleEndian.Uint32(buf[offHeadLUTOffs:])
	h.TailLUTOffs = binary.LittleEndian.Uint32(buf[offTailLUTOffs:])
	h.SeekLUTOffs = binary.LittleEndian.Uint32(buf[offSeekLUTOffs:])
	h.ReferenceCount = binary.LittleEndian.Uint32(buf[offReferenceCount:])
	h.Flags = binary.LittleEndian.Uint32(buf[offFlags:])

	return h, nil
}

// lut is the in-memory form of the .lut file: a contiguous buffer of
// MaxEntries slots, each LUTEntrySize bytes. A zeroed slot means empty; a
// non-zero slot holds the ASCII decimal reference string naming both the
// slot and its payload file.
type lut struct {
	buf        []byte
	maxEntries int
}

// newLUT allocates an all-zero (all-empty) LUT buffer for maxEntries slots.
func newLUT(maxEntries int) lut {
	return lut{buf: make([]byte, maxEntries*LUTEntrySize), maxEntries: maxEntries}
}

// decodeLUT wraps an on-disk LUT buffer for in-memory manipulation. It
// returns ErrFSAccessFail if len(buf) != maxEntries*LUTEntrySize.
func decodeLUT(buf []byte, maxEntries int) (lut, error) {
	want := maxEntries * LUTEntrySize
	if len(buf) != want {
		return lut{}, fmt.Errorf("%w: lut is %d bytes, want %d", ErrFSAccessFail, len(buf), want)
	}

	return lut{buf: buf, maxEntries: maxEntries}, nil
}

// encode returns the LUT's on-disk byte representation.
func (l lut) encode() []byte {
	return l.buf
}

// slot returns the raw LUTEntrySize-byte slot content at index i ("" is
// never returned; an empty slot is all-zero bytes).
func (l lut) slot(i int) []byte {
	return l.buf[i*LUTEntrySize : (i+1)*LUTEntrySize]
}

// isEmpty reports whether slot i holds all-zero bytes.
func (l lut) isEmpty(i int) bool {
	for _, b := range l.slot(i) {
		if b != 0 {
			return false
		}
	}

	return true
}

// reference returns the decimal reference string stored at slot i, or ""
// if the slot is empty.
func (l lut) reference(i int) string {
	if l.isEmpty(i) {
		return ""
	}

	return string(l.slot(i))
}

// setReference writes ref (already rendered to LUTEntrySize digits) into
// slot i.
func (l lut) setReference(i int, ref string) {
	copy(l.slot(i), ref)
}

// clear zeroes slot i, marking it empty.
func (l lut) clear(i int) {
	s := l.slot(i)
	for j := range s {
		s[j] = 0
	}
}

// mintReference increments refCount and renders the new value as a fixed
// LUTEntrySize-digit zero-padded decimal string using its low digits, per
// the payload filename minting rule in the on-disk layout manager. The
// caller is responsible for choosing max_entries small enough, relative to
// LUTEntrySize, that live references never collide (see limits.go).
func mintReference(refCount uint32) (next uint32, ref string) {
	next = refCount + 1

	mod := uint32(1)
	for i := 0; i < LUTEntrySize; i++ {
		mod *= 10
	}

	return next, fmt.Sprintf("%0*d", LUTEntrySize, next%mod)
}
