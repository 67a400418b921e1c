package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrQuit may be returned by an Executor to end the loop.
var ErrQuit = errors.New("quit")

// Executor runs one non-builtin input line.
type Executor interface {
	Execute(ctx context.Context, args []string) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, args []string) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, args []string) error {
	return f(ctx, args)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input       io.Reader
	output      io.Writer
	exec        Executor
	completer   *Completer
	history     *History
	prompt      func() string
	interactive bool
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout. The prompt is suppressed unless
// WithInteractive(true) follows.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input, r.output = in, out
		r.interactive = false
	}
}

// WithInteractive forces the prompt on or off.
func WithInteractive(on bool) Option {
	return func(r *REPL) { r.interactive = on }
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithPrompt sets the prompt builder, called before every line.
func WithPrompt(p func() string) Option {
	return func(r *REPL) { r.prompt = p }
}

// New creates a new REPL instance reading stdin. The prompt is shown only
// when stdin is a terminal.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:       os.Stdin,
		output:      os.Stdout,
		exec:        exec,
		completer:   NewCompleter(),
		history:     NewHistory(""),
		prompt:      func() string { return "minikv> " },
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the REPL loop. It returns nil on EOF, exit or quit, and
// ctx.Err() when ctx is cancelled between lines.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.interactive {
			fmt.Fprint(r.output, r.prompt())
		}

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				if r.interactive {
					fmt.Fprintln(r.output)
				}
				return nil
			}
			continue
		}

		r.history.Add(line)

		if quit := r.handle(ctx, line); quit {
			return nil
		}
		if eof {
			return nil
		}
	}
}

// handle runs one line and reports whether the loop should stop.
func (r *REPL) handle(ctx context.Context, line string) bool {
	args, err := Split(line)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return false
	}

	switch strings.ToLower(args[0]) {
	case "exit", "quit":
		return true
	case "help":
		r.help(args[1:])
		return false
	case "history":
		for i, e := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
		}
		return false
	}

	if err := r.exec.Execute(ctx, args); err != nil {
		if errors.Is(err, ErrQuit) {
			return true
		}
		fmt.Fprintf(r.output, "Error: %v\n", err)
	}
	return false
}

func (r *REPL) help(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = strings.ToLower(args[0])
	}
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "no command starts with %q\n", prefix)
		return
	}
	for _, m := range matches {
		fmt.Fprintf(r.output, "  %-28s %s\n", m, r.completer.Usage(m))
	}
}
