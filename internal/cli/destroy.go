package cli

import (
	"context"
	"fmt"

	"github.com/calvinalkan/fqueue/internal/queue"

	flag "github.com/spf13/pflag"
)

// DestroyCmd returns the destroy command.
func DestroyCmd(eng *queue.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("destroy", flag.ContinueOnError),
		Usage: "destroy <name>",
		Short: "Remove a queue and its contents",
		Long:  "Remove a queue directory and its contents. Idempotent if the queue does not exist, and refused while the queue is open or locked anywhere.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("%w: missing queue name", errMissingArg)
			}

			if err := eng.Destroy(args[0]); err != nil {
				return err
			}

			o.Println("destroyed", args[0])

			return nil
		},
	}
}
