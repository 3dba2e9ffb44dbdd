package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/calvinalkan/fqueue/internal/queue"

	flag "github.com/spf13/pflag"
)

// SeekCmd returns the seek command.
func SeekCmd(eng *queue.Engine) *Command {
	return &Command{
		Flags: flag.NewFlagSet("seek", flag.ContinueOnError),
		Usage: "seek <name> <head|tail|<offset>>",
		Short: "Reposition the seek cursor used by 'show'",
		Long:  "Reposition the seek cursor to head, tail, or an absolute offset from head. Requires the queue to have been created with random access enabled.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("%w: usage: seek <name> <head|tail|<offset>>", errMissingArg)
			}

			seekType, position, err := parseSeekArg(args[1])
			if err != nil {
				return err
			}

			h, err := eng.Open(args[0], queue.ReadWrite, queue.ModeBinaryPacked)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close(h) }()

			if err := eng.Seek(h, seekType, position); err != nil {
				return err
			}

			o.Println("ok")

			return nil
		},
	}
}

func parseSeekArg(arg string) (queue.SeekType, int, error) {
	switch arg {
	case "head":
		return queue.SeekHead, 0, nil
	case "tail":
		return queue.SeekTail, 0, nil
	default:
		pos, err := strconv.Atoi(arg)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: seek position must be \"head\", \"tail\", or an integer offset", errMissingArg)
		}

		return queue.SeekPosition, pos, nil
	}
}
