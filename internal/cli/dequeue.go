package cli

import (
	"context"
	"fmt"

	"github.com/calvinalkan/fqueue/internal/queue"

	flag "github.com/spf13/pflag"
)

// DequeueCmd returns the dequeue command.
func DequeueCmd(eng *queue.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("dequeue", flag.ContinueOnError),
		Usage: "dequeue <name>",
		Short: "Remove and print the oldest entry",
		Long:  "Remove and print the oldest live entry of the named queue, opening and closing it for the duration of the call.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("%w: missing queue name", errMissingArg)
			}

			h, err := eng.Open(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close(h) }()

			data, err := eng.Dequeue(h)
			if err != nil {
				return err
			}

			o.Printf("%s\n", data)

			return nil
		},
	}
}
