package command

import (
	"context"
	"errors"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/client"
	"github.com/yndnr/minikv/internal/cli/connection"
	"github.com/yndnr/minikv/internal/protocol/frame"
)

// errReply marks a command that got an error reply. The reply itself has
// already been printed.
var errReply = errors.New("error reply")

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check the server is answering",
		ArgsUsage: "[MESSAGE]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return exactArgs(c, 1)
			}
			return runRaw(c, append([]string{"PING"}, c.Args().Slice()...)...)
		},
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read the value of a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			return runRaw(c, "GET", c.Args().First())
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value, optionally with an expiry",
		ArgsUsage: "KEY VALUE",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "ex",
				Usage: "expire after N seconds",
			},
			&cli.Int64Flag{
				Name:  "px",
				Usage: "expire after N milliseconds",
			},
		},
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 2); err != nil {
				return err
			}
			if c.IsSet("ex") && c.IsSet("px") {
				return cli.Exit("set: --ex and --px are mutually exclusive", 2)
			}
			args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}
			if c.IsSet("ex") {
				args = append(args, "EX", strconv.FormatInt(c.Int64("ex"), 10))
			}
			if c.IsSet("px") {
				args = append(args, "PX", strconv.FormatInt(c.Int64("px"), 10))
			}
			return runRaw(c, args...)
		},
	}
}

// DelCommand returns the del command.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete keys",
		ArgsUsage: "KEY [KEY...]",
		Action: func(c *cli.Context) error {
			if err := minArgs(c, 1); err != nil {
				return err
			}
			return runRaw(c, append([]string{"DEL"}, c.Args().Slice()...)...)
		},
	}
}

// TTLCommand returns the ttl command.
func TTLCommand() *cli.Command {
	return &cli.Command{
		Name:      "ttl",
		Usage:     "Show seconds left before a key expires (-1 no expiry, -2 missing)",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			return runRaw(c, "TTL", c.Args().First())
		},
	}
}

// runRaw sends args as one command and prints the reply.
func runRaw(c *cli.Context, args ...string) error {
	p, flags, err := newPrinter(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	err = execRaw(ctx, GetConnectionManager(c), p, args)
	if errors.Is(err, errReply) {
		return cli.Exit("", 1)
	}
	return err
}

// execRaw is the shared request path of commands and the REPL.
func execRaw(ctx context.Context, mgr *connection.Manager, p *printer, args []string) error {
	cl, err := mgr.Client(ctx)
	if err != nil {
		return err
	}
	reply, err := cl.Do(ctx, args...)
	if err != nil {
		if !errors.Is(err, client.ErrSubscribed) {
			mgr.Reset()
		}
		return err
	}
	if err := p.print(reply); err != nil {
		return err
	}
	if reply.Kind == frame.KindError {
		return errReply
	}
	return nil
}
