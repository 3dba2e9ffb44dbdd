package queue

// Hardcoded implementation limits.
//
// These exist to keep LUT-slot/filename arithmetic away from overflow and to
// bound resource usage for configurations the engine does not test.
// MaxEntries and MaxNameLen violations are reported as ErrInvalidArg; a
// full handle table (HandleListMax) as ErrHandleNotAvail.
const (
	// HandleListMax is the fixed capacity of the process-wide handle table.
	HandleListMax = 10

	// LUTEntrySize is the width, in bytes, of one LUT slot: a fixed-width
	// zero-padded decimal digit string that is also the payload filename.
	// With LUTEntrySize = 4, filenames cycle through "0000".."9999", so
	// MaxEntries must stay under 10^LUTEntrySize.
	LUTEntrySize = 4

	// LUTFileSizeMax bounds the on-disk size of .lut: 256 slots is the
	// original configuration's ceiling.
	LUTFileSizeMax = 256 * LUTEntrySize

	// MaxEntries is the largest max_entries a queue may be created with.
	// Keeps the LUT within LUTFileSizeMax.
	MaxEntries = 255

	// MaxNameLen bounds a queue's name, matching the "recommended ≤31
	// bytes" sizing the spec carries over from the original's fixed
	// 32-byte buffer, without hardcoding a fixed-size array.
	MaxNameLen = 31

	// headerSize is the encoded size, in bytes, of the on-disk header
	// record (see format.go). Nine little-endian uint32 fields, no padding.
	headerSize = 9 * 4
)
