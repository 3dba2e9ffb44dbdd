package queue

import "fmt"

// AccessType is the closed set of access types a handle may be opened with.
type AccessType uint8

const (
	// ReadOnly grants GetEntry/Seek/GetLength, never Enqueue/Dequeue.
	ReadOnly AccessType = iota
	// WriteOnly grants Enqueue/Dequeue/GetLength, never Seek/GetEntry.
	WriteOnly
	// ReadWrite grants every operation.
	ReadWrite
)

func (a AccessType) String() string {
	switch a {
	case ReadOnly:
		return "ReadOnly"
	case WriteOnly:
		return "WriteOnly"
	case ReadWrite:
		return "ReadWrite"
	default:
		return fmt.Sprintf("AccessType(%d)", uint8(a))
	}
}

func (a AccessType) valid() bool {
	return a == ReadOnly || a == WriteOnly || a == ReadWrite
}

func (a AccessType) canRead() bool  { return a == ReadOnly || a == ReadWrite }
func (a AccessType) canWrite() bool { return a == WriteOnly || a == ReadWrite }

// Mode is the closed set of payload encodings a queue may be opened with.
//
// The source this spec distills accepted any value up to an internal
// ACCESS_MODE_MAX, including unused ones; this enumerates only the two
// modes that are actually meaningful and rejects anything else.
type Mode uint8

const (
	// ModeBinaryPacked is the default mode (the only mode early callers of
	// this engine need).
	ModeBinaryPacked Mode = iota
	// ModeBinaryUnpacked reserves the distinction for a future payload
	// layout that pads entries to an alignment boundary; the engine
	// itself treats both modes identically since payload files are
	// whole, independent files rather than packed records.
	ModeBinaryUnpacked
)

func (m Mode) String() string {
	switch m {
	case ModeBinaryPacked:
		return "ModeBinaryPacked"
	case ModeBinaryUnpacked:
		return "ModeBinaryUnpacked"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

func (m Mode) valid() bool {
	return m == ModeBinaryPacked || m == ModeBinaryUnpacked
}

// SeekType selects which cursor Seek repositions to.
type SeekType uint8

const (
	// SeekHead repositions the seek cursor to the oldest live entry.
	SeekHead SeekType = iota
	// SeekTail repositions the seek cursor to the newest live entry.
	SeekTail
	// SeekPosition repositions the seek cursor to an offset from head.
	SeekPosition
)

func (s SeekType) valid() bool {
	return s == SeekHead || s == SeekTail || s == SeekPosition
}

// Flags is a bitmask of queue-level capabilities, set at Create and fixed
// for the queue's lifetime.
type Flags uint32

const (
	// FlagMessageLog marks the queue for diagnostic/log-style use. Carried
	// through from the header format; the engine does not change behavior
	// based on it.
	FlagMessageLog Flags = 1 << iota
	// FlagRandomAccess enables Seek; without it Seek always returns
	// ErrQueueNotSeekable. GetEntry does not check it.
	FlagRandomAccess
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// CreateOptions are the arguments to Create.
type CreateOptions struct {
	// Name is the queue's directory name, relative to the engine's root.
	Name string
	// MaxEntries bounds the LUT's slot count (1..MaxEntries).
	MaxEntries int
	// MaxEntrySize caps every enqueued payload's size in bytes.
	MaxEntrySize int
	// Flags is the fixed capability bitmask for this queue's lifetime.
	Flags Flags
}

// Handle is an opaque, process-local reference to an open queue. Handles
// are value types carrying {index, generation}; they carry no raw pointer
// into the handle table and are validated on every call. The zero Handle
// never refers to a live row.
type Handle struct {
	index      int
	generation uint64
}

// Valid reports whether h could possibly refer to a live row, without
// consulting the table (a cheap, table-independent sanity check; full
// validation still happens on every operation against the live table).
func (h Handle) Valid() bool {
	return h.generation != 0
}
