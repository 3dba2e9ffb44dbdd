package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/calvinalkan/fqueue/internal/queue"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// ReplCmd returns the interactive command. Unlike every other command, a
// repl session keeps handles open across lines: opening a queue once and
// issuing several enqueue/dequeue/seek/show calls against it reuses the
// same Handle the way a long-lived process would, instead of each call
// opening and closing the queue on its own (spec's round-trip law for
// Open applies here: reopening a name already bound with the same access
// and mode returns the very same Handle).
func ReplCmd(eng *queue.Engine, cfg Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("repl", flag.ContinueOnError),
		Usage: "repl",
		Short: "Start an interactive session",
		Long:  "Start a readline-style interactive session for exercising queues without opening and closing them on every command.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			r := &repl{eng: eng, cfg: cfg, handles: make(map[string]queue.Handle)}
			return r.run(o)
		},
	}
}

type repl struct {
	eng     *queue.Engine
	cfg     Config
	handles map[string]queue.Handle
	liner   *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".fq_history")
}

func (r *repl) run(o *IO) error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	o.Println("fq - interactive queue session")
	o.Println("Type 'help' for available commands.")
	o.Println()

	for {
		line, err := r.liner.Prompt("fq> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				o.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			r.closeAll(o)
			r.saveHistory()

			return nil
		case "help", "?":
			r.printHelp(o)
		case "create":
			r.cmdCreate(o, args)
		case "destroy":
			r.cmdDestroy(o, args)
		case "open":
			r.cmdOpen(o, args)
		case "close":
			r.cmdClose(o, args)
		case "enqueue", "put":
			r.cmdEnqueue(o, args)
		case "dequeue", "get":
			r.cmdDequeue(o, args)
		case "seek":
			r.cmdSeek(o, args)
		case "show", "peek":
			r.cmdShow(o, args)
		case "len":
			r.cmdLen(o, args)
		default:
			o.Println("unknown command:", cmd, "(type 'help' for commands)")
		}
	}

	r.closeAll(o)
	r.saveHistory()

	return nil
}

func (r *repl) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *repl) completer(line string) []string {
	commands := []string{
		"create", "destroy", "open", "close",
		"enqueue", "put", "dequeue", "get",
		"seek", "show", "peek", "len",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			completions = append(completions, c)
		}
	}

	return completions
}

func (r *repl) printHelp(o *IO) {
	o.Println("Commands:")
	o.Println("  create <name> [max_entries] [max_entry_size] [ra]  Create a queue (ra = random access)")
	o.Println("  destroy <name>                                     Remove a queue")
	o.Println("  open <name> <ro|wo|rw>                              Open and keep a handle for this session")
	o.Println("  close <name>                                        Release this session's handle")
	o.Println("  enqueue <name> <data>                               Append an entry (auto-opens rw)")
	o.Println("  dequeue <name>                                      Remove the oldest entry (auto-opens rw)")
	o.Println("  seek <name> <head|tail|offset>                      Reposition the seek cursor")
	o.Println("  show <name>                                         Print the entry at the seek cursor")
	o.Println("  len <name>                                          Print the number of live entries")
	o.Println("  help                                                Show this help")
	o.Println("  exit / quit / q                                     Exit, closing all open handles")
}

func (r *repl) closeAll(o *IO) {
	for name, h := range r.handles {
		if err := r.eng.Close(h); err != nil {
			o.Println("error closing", name+":", err)
		}
	}

	r.handles = make(map[string]queue.Handle)
}

// handleFor returns a handle for name, opening it with access/mode if it
// isn't already held by this session.
func (r *repl) handleFor(name string, access queue.AccessType, mode queue.Mode) (queue.Handle, error) {
	if h, ok := r.handles[name]; ok {
		return h, nil
	}

	h, err := r.eng.Open(name, access, mode)
	if err != nil {
		return queue.Handle{}, err
	}

	r.handles[name] = h

	return h, nil
}

func (r *repl) cmdCreate(o *IO, args []string) {
	if len(args) < 1 {
		o.Println("Usage: create <name> [max_entries] [max_entry_size] [ra]")

		return
	}

	maxEntries := r.cfg.DefaultMaxEntries
	maxEntrySize := r.cfg.DefaultMaxEntrySize

	var flags queue.Flags

	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			o.Println("error: max_entries must be an integer")

			return
		}

		maxEntries = n
	}

	if len(args) >= 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			o.Println("error: max_entry_size must be an integer")

			return
		}

		maxEntrySize = n
	}

	if len(args) >= 4 && args[3] == "ra" {
		flags |= queue.FlagRandomAccess
	}

	err := r.eng.Create(queue.CreateOptions{
		Name:         args[0],
		MaxEntries:   maxEntries,
		MaxEntrySize: maxEntrySize,
		Flags:        flags,
	})
	if err != nil {
		o.Println("error:", err)

		return
	}

	o.Println("OK: created", args[0])
}

func (r *repl) cmdDestroy(o *IO, args []string) {
	if len(args) < 1 {
		o.Println("Usage: destroy <name>")

		return
	}

	if err := r.eng.Destroy(args[0]); err != nil {
		o.Println("error:", err)

		return
	}

	delete(r.handles, args[0])
	o.Println("OK: destroyed", args[0])
}

func (r *repl) cmdOpen(o *IO, args []string) {
	if len(args) < 2 {
		o.Println("Usage: open <name> <ro|wo|rw>")

		return
	}

	access, err := parseAccess(args[1])
	if err != nil {
		o.Println("error:", err)

		return
	}

	h, err := r.eng.Open(args[0], access, queue.ModeBinaryPacked)
	if err != nil {
		o.Println("error:", err)

		return
	}

	r.handles[args[0]] = h
	o.Println("OK: opened", args[0], "as", access)
}

func parseAccess(s string) (queue.AccessType, error) {
	switch strings.ToLower(s) {
	case "ro":
		return queue.ReadOnly, nil
	case "wo":
		return queue.WriteOnly, nil
	case "rw":
		return queue.ReadWrite, nil
	default:
		return 0, fmt.Errorf("%w: access must be \"ro\", \"wo\", or \"rw\"", errMissingArg)
	}
}

func (r *repl) cmdClose(o *IO, args []string) {
	if len(args) < 1 {
		o.Println("Usage: close <name>")

		return
	}

	h, ok := r.handles[args[0]]
	if !ok {
		o.Println("error: not open in this session:", args[0])

		return
	}

	if err := r.eng.Close(h); err != nil {
		o.Println("error:", err)

		return
	}

	delete(r.handles, args[0])
	o.Println("OK: closed", args[0])
}

func (r *repl) cmdEnqueue(o *IO, args []string) {
	if len(args) < 2 {
		o.Println("Usage: enqueue <name> <data>")

		return
	}

	h, err := r.handleFor(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
	if err != nil {
		o.Println("error:", err)

		return
	}

	if err := r.eng.Enqueue(h, []byte(strings.Join(args[1:], " "))); err != nil {
		o.Println("error:", err)

		return
	}

	o.Println("OK: enqueued")
}

func (r *repl) cmdDequeue(o *IO, args []string) {
	if len(args) < 1 {
		o.Println("Usage: dequeue <name>")

		return
	}

	h, err := r.handleFor(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
	if err != nil {
		o.Println("error:", err)

		return
	}

	data, err := r.eng.Dequeue(h)
	if err != nil {
		o.Println("error:", err)

		return
	}

	o.Printf("%s\n", data)
}

func (r *repl) cmdSeek(o *IO, args []string) {
	if len(args) < 2 {
		o.Println("Usage: seek <name> <head|tail|offset>")

		return
	}

	seekType, position, err := parseSeekArg(args[1])
	if err != nil {
		o.Println("error:", err)

		return
	}

	h, err := r.handleFor(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
	if err != nil {
		o.Println("error:", err)

		return
	}

	if err := r.eng.Seek(h, seekType, position); err != nil {
		o.Println("error:", err)

		return
	}

	o.Println("OK")
}

func (r *repl) cmdShow(o *IO, args []string) {
	if len(args) < 1 {
		o.Println("Usage: show <name>")

		return
	}

	h, err := r.handleFor(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
	if err != nil {
		o.Println("error:", err)

		return
	}

	data, err := r.eng.GetEntry(h)
	if err != nil {
		o.Println("error:", err)

		return
	}

	o.Printf("%s\n", data)
}

func (r *repl) cmdLen(o *IO, args []string) {
	if len(args) < 1 {
		o.Println("Usage: len <name>")

		return
	}

	h, err := r.handleFor(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
	if err != nil {
		o.Println("error:", err)

		return
	}

	n, err := r.eng.GetLength(h)
	if err != nil {
		o.Println("error:", err)

		return
	}

	o.Println(n)
}
