package cli

import (
	"context"
	"fmt"

	"github.com/calvinalkan/fqueue/internal/queue"

	flag "github.com/spf13/pflag"
)

// ShowCmd returns the show command, wrapping GetEntry.
func ShowCmd(eng *queue.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("show", flag.ContinueOnError),
		Usage: "show <name>",
		Short: "Print the entry at the seek cursor without removing it",
		Long:  "Print the entry at the seek cursor, advancing the cursor unless it is already at the tail.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("%w: missing queue name", errMissingArg)
			}

			h, err := eng.Open(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close(h) }()

			data, err := eng.GetEntry(h)
			if err != nil {
				return err
			}

			o.Printf("%s\n", data)

			return nil
		},
	}
}
