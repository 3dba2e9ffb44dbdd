package cli

import (
	"context"
	"fmt"

	"github.com/calvinalkan/fqueue/internal/queue"

	flag "github.com/spf13/pflag"
)

// EnqueueCmd returns the enqueue command.
func EnqueueCmd(eng *queue.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("enqueue", flag.ContinueOnError),
		Usage: "enqueue <name> <data>",
		Short: "Append an entry to the tail of a queue",
		Long:  "Append data to the tail of the named queue, opening and closing it for the duration of the call. Evicts the oldest entry if the queue is full.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("%w: usage: enqueue <name> <data>", errMissingArg)
			}

			h, err := eng.Open(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close(h) }()

			if err := eng.Enqueue(h, []byte(args[1])); err != nil {
				return err
			}

			o.Println("enqueued", len(args[1]), "bytes")

			return nil
		},
	}
}
