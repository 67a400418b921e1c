package command

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/client"
	"github.com/yndnr/minikv/internal/cli/connection"
)

// PublishCommand returns the publish command.
func PublishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Send a message to a channel",
		ArgsUsage: "CHANNEL MESSAGE",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 2); err != nil {
				return err
			}
			return runRaw(c, "PUBLISH", c.Args().Get(0), c.Args().Get(1))
		},
	}
}

// SubscribeCommand returns the subscribe command.
func SubscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Print messages from channels until interrupted",
		ArgsUsage: "CHANNEL [CHANNEL...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "exit after N messages (0 = unlimited)",
			},
		},
		Action: func(c *cli.Context) error {
			if err := minArgs(c, 1); err != nil {
				return err
			}
			p, _, err := newPrinter(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return subscribe(ctx, GetConnectionManager(c), p, c.Args().Slice(), c.Int("count"))
		},
	}
}

// subscribe takes over the manager's connection and prints every push
// until ctx is done or limit messages arrived.
func subscribe(ctx context.Context, mgr *connection.Manager, p *printer, channels []string, limit int) error {
	cl, err := mgr.Client(ctx)
	if err != nil {
		return err
	}
	mgr.Detach()

	sub, err := cl.Subscribe(ctx, channels...)
	if err != nil {
		cl.Close()
		return err
	}
	defer sub.Close()

	received := 0
	for {
		m, err := sub.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if err := p.print(m); err != nil {
			return err
		}
		if m.Kind != client.KindMessage {
			continue
		}
		received++
		if limit > 0 && received >= limit {
			return nil
		}
	}
}
