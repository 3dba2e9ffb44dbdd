package cli

import (
	"context"
	"fmt"

	"github.com/calvinalkan/fqueue/internal/queue"

	flag "github.com/spf13/pflag"
)

// LenCmd returns the len command, wrapping GetLength.
func LenCmd(eng *queue.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("len", flag.ContinueOnError),
		Usage: "len <name>",
		Short: "Print the number of live entries",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("%w: missing queue name", errMissingArg)
			}

			h, err := eng.Open(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close(h) }()

			n, err := eng.GetLength(h)
			if err != nil {
				return err
			}

			o.Println(n)

			return nil
		},
	}
}
