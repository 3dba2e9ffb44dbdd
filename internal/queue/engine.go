// Package queue implements the persistent file-backed FIFO queue engine:
// the on-disk header/LUT layout, the lock protocol, the handle table, and
// the nine public operations (Create, Destroy, Open, Close, Enqueue,
// Dequeue, Seek, GetEntry, GetLength) built on top of them.
//
// Every filesystem call an Engine makes is rooted at an absolute base
// directory supplied at construction; the engine never calls chdir and
// never mutates process-global state. All synchronization across threads
// in one process goes through the engine's own handle table mutex and the
// on-disk lock files' arbiter (see lock.go); synchronization across
// processes goes through the lock files themselves.
package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/fqueue/pkg/fs"
)

// Engine is a handle to a directory of queues. One Engine is normally
// shared by every goroutine in a process that talks to these queues; its
// handle table and the on-disk lock files are the only shared state.
type Engine struct {
	root   string
	fsys   fs.FS
	locker *fs.FileLocker
	tbl    *handleTable
}

// New creates an Engine rooted at root. New does not create root; Create
// makes each queue directory with MkdirAll, which also creates a missing
// root.
func New(fsys fs.FS, root string) *Engine {
	return &Engine{
		root:   root,
		fsys:   fsys,
		locker: fs.NewFileLocker(fsys),
		tbl:    newHandleTable(),
	}
}

// dirFor returns the absolute directory path for queue name, without
// checking that it exists.
func (e *Engine) dirFor(name string) string {
	return filepath.Join(e.root, name)
}

func (e *Engine) payloadPath(name, ref string) string {
	return filepath.Join(e.dirFor(name), ref)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidArg)
	}

	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: name %q exceeds %d bytes", ErrInvalidArg, name, MaxNameLen)
	}

	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("%w: name %q is not a bare path component", ErrInvalidArg, name)
	}

	return nil
}

// Create creates a new queue directory with a zeroed header and LUT.
//
// Preconditions: opts.Name non-empty and valid, MaxEntries in
// (0, MaxEntries], MaxEntrySize > 0. Fails with ErrQueueExists if the
// directory already exists. On any filesystem error after partial
// progress, the partial directory is removed before returning
// ErrFSAccessFail (spec §4.4.1).
func (e *Engine) Create(opts CreateOptions) error {
	if err := validateName(opts.Name); err != nil {
		return err
	}

	if opts.MaxEntries <= 0 || opts.MaxEntries > MaxEntries {
		return fmt.Errorf("%w: max_entries must be in (0, %d]", ErrInvalidArg, MaxEntries)
	}

	if opts.MaxEntrySize <= 0 {
		return fmt.Errorf("%w: max_entry_size must be > 0", ErrInvalidArg)
	}

	dir := e.dirFor(opts.Name)

	exists, err := e.fsys.Exists(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if exists {
		return ErrQueueExists
	}

	if err := e.createDir(dir, opts); err != nil {
		_ = e.fsys.RemoveAll(dir)

		return err
	}

	return nil
}

func (e *Engine) createDir(dir string, opts CreateOptions) error {
	if err := e.fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	h := header{
		MaxEntrySize: uint32(opts.MaxEntrySize),
		MaxEntries:   uint32(opts.MaxEntries),
		Flags:        uint32(opts.Flags),
	}

	headerPath := filepath.Join(dir, ".header")
	if err := e.fsys.WriteFileAtomic(headerPath, encodeHeader(h), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	l := newLUT(opts.MaxEntries)

	lutPath := filepath.Join(dir, ".lut")
	if err := e.fsys.WriteFileAtomic(lutPath, l.encode(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	return nil
}

// Destroy removes a queue directory and its contents.
//
// Idempotent: returns OK (nil) if the queue does not exist. Returns
// ErrQueueIsBusy if any handle in this process's handle table names the
// queue, or if any lock file is present (spec §4.4.2).
func (e *Engine) Destroy(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	dir := e.dirFor(name)

	exists, err := e.fsys.Exists(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if !exists {
		return nil
	}

	var bound bool

	e.tbl.withLock(func() {
		bound = e.tbl.anyBoundTo(name)
	})

	if bound {
		return ErrQueueIsBusy
	}

	busy, err := anyLockPresent(e.fsys, dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	if busy {
		return ErrQueueIsBusy
	}

	if err := e.fsys.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrFSAccessFail, err)
	}

	return nil
}
