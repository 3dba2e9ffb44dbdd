package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/calvinalkan/fqueue/internal/queue"

	flag "github.com/spf13/pflag"
)

// CreateCmd returns the create command. Flag defaults come from cfg, which
// in turn may have been overridden by a JSONC config file (see config.go).
func CreateCmd(eng *queue.Engine, cfg Config) *Command {
	flagSet := flag.NewFlagSet("create", flag.ContinueOnError)

	maxEntries := flagSet.IntP("max-entries", "n", cfg.DefaultMaxEntries, "maximum number of live entries")
	maxEntrySize := flagSet.IntP("max-entry-size", "s", cfg.DefaultMaxEntrySize, "maximum size in bytes of a single entry")
	randomAccess := flagSet.Bool("random-access", false, "allow Seek on this queue")
	messageLog := flagSet.Bool("message-log", false, "mark this queue as a diagnostic message log")

	var helpBuf bytes.Buffer
	flagSet.SetOutput(&helpBuf)
	flagSet.Usage = func() {
		w := flagSet.Output()
		fmt.Fprintf(w, "Usage: fq create <name> [options]\n\n")
		fmt.Fprintf(w, "Create a new queue directory with a zeroed header and LUT.\n\n")
		fmt.Fprintf(w, "Options:\n")
		flagSet.PrintDefaults()
	}

	return &Command{
		Flags: flagSet,
		Usage: "create <name> [flags]",
		Short: "Create a new queue",
		Long:  "Create a new queue directory with a zeroed header and LUT.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("%w: missing queue name", errMissingArg)
			}

			var flags queue.Flags
			if *randomAccess {
				flags |= queue.FlagRandomAccess
			}

			if *messageLog {
				flags |= queue.FlagMessageLog
			}

			err := eng.Create(queue.CreateOptions{
				Name:         args[0],
				MaxEntries:   *maxEntries,
				MaxEntrySize: *maxEntrySize,
				Flags:        flags,
			})
			if err != nil {
				return err
			}

			o.Println("created", args[0])

			return nil
		},
	}
}
