package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/cli/connection"
	"github.com/yndnr/minikv/internal/cli/repl"
)

// ReplCommand returns the repl command.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "Interactive mode (the default without a command)",
		Action: replAction,
	}
}

func replAction(c *cli.Context) error {
	if c.NArg() > 0 {
		return cli.Exit(fmt.Sprintf("unknown command %q, see --help", c.Args().First()), 2)
	}
	p, flags, err := newPrinter(c)
	if err != nil {
		return err
	}
	mgr := GetConnectionManager(c)

	history := repl.NewHistory(loadedConfig(c).HistoryFile)
	if err := history.Load(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: history not loaded: %v\n", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "warning: history not saved: %v\n", err)
		}
	}()

	exec := &replExecutor{mgr: mgr, p: p, flags: flags}
	opts := []repl.Option{
		repl.WithHistory(history),
		repl.WithPrompt(func() string { return mgr.Addr() + "> " }),
	}
	if c.App.Reader != nil && c.App.Reader != os.Stdin {
		opts = append(opts, repl.WithIO(c.App.Reader, p.w))
	}
	return repl.New(exec, opts...).Run(c.Context)
}

// replExecutor runs REPL lines: connect and subscribe locally, anything
// else as a raw command.
type replExecutor struct {
	mgr   *connection.Manager
	p     *printer
	flags *GlobalFlags
}

func (e *replExecutor) Execute(ctx context.Context, args []string) error {
	switch strings.ToLower(args[0]) {
	case "connect":
		if len(args) != 2 {
			return errors.New("usage: connect host:port")
		}
		rctx, cancel := e.requestContext(ctx)
		defer cancel()
		if err := e.mgr.Connect(rctx, args[1]); err != nil {
			return err
		}
		return e.p.print("connected to " + args[1])
	case "subscribe":
		if len(args) < 2 {
			return errors.New("usage: subscribe channel [channel ...]")
		}
		sctx, stop := signal.NotifyContext(ctx, syscall.SIGINT)
		defer stop()
		return subscribe(sctx, e.mgr, e.p, args[1:], 0)
	}

	rctx, cancel := e.requestContext(ctx)
	defer cancel()
	if err := execRaw(rctx, e.mgr, e.p, args); err != nil && !errors.Is(err, errReply) {
		return err
	}
	return nil
}

func (e *replExecutor) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.flags.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.flags.Timeout)
}
