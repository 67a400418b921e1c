package repl

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) Execute(_ context.Context, args []string) error {
	r.calls = append(r.calls, args)
	return r.err
}

func newTestREPL(t *testing.T, input string, exec Executor) (*REPL, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	r := New(exec,
		WithIO(strings.NewReader(input), out),
		WithHistory(NewHistory(filepath.Join(t.TempDir(), "history"))),
	)
	return r, out
}

func TestNew(t *testing.T) {
	r := New(&recorder{})
	if r.completer == nil {
		t.Error("completer should be initialized")
	}
	if r.history == nil {
		t.Error("history should be initialized")
	}
	if r.prompt() != "minikv> " {
		t.Errorf("prompt = %q", r.prompt())
	}
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\nget never\n"},
		{"quit command", "QUIT\nget never\n"},
		{"EOF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r, _ := newTestREPL(t, tt.input, rec)
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() returned error: %v", err)
			}
			if len(rec.calls) != 0 {
				t.Errorf("executor called %d times, want 0", len(rec.calls))
			}
		})
	}
}

func TestREPL_Run_Dispatch(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL(t, "\n\nset k \"hello world\"\n  get k  \ndel a b", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := [][]string{{"set", "k", "hello world"}, {"get", "k"}, {"del", "a", "b"}}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %q, want %q", rec.calls, want)
	}
	for i := range want {
		if strings.Join(rec.calls[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("call %d = %q, want %q", i, rec.calls[i], want[i])
		}
	}
	if got := r.history.Entries(); len(got) != 3 {
		t.Errorf("history = %q, want 3 entries", got)
	}
}

func TestREPL_Run_Errors(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	r, out := newTestREPL(t, "get k\nset \"open\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Error: boom") {
		t.Errorf("output missing executor error: %q", got)
	}
	if !strings.Contains(got, "unterminated quote") {
		t.Errorf("output missing split error: %q", got)
	}
}

func TestREPL_Run_ExecutorQuit(t *testing.T) {
	rec := &recorder{err: ErrQuit}
	r, _ := newTestREPL(t, "disconnect\nget k\n", rec)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(rec.calls))
	}
}

func TestREPL_Run_Builtins(t *testing.T) {
	r, out := newTestREPL(t, "help se\nhistory\nhelp zz\n", &recorder{})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"set key value", "1  help se", `no command starts with "zz"`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
}

func TestREPL_Run_Prompt(t *testing.T) {
	out := &bytes.Buffer{}
	r := New(&recorder{},
		WithIO(strings.NewReader("ping\n"), out),
		WithInteractive(true),
		WithPrompt(func() string { return "127.0.0.1:6379> " }),
		WithHistory(NewHistory(filepath.Join(t.TempDir(), "h"))),
	)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Count(out.String(), "127.0.0.1:6379> ") != 2 {
		t.Errorf("output = %q, want two prompts", out.String())
	}
}

func TestREPL_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _ := newTestREPL(t, "get k\n", &recorder{})
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want Canceled", err)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"get k", []string{"get", "k"}, false},
		{"  set   k\tv ", []string{"set", "k", "v"}, false},
		{`set k "a b"`, []string{"set", "k", "a b"}, false},
		{`set k "line\nbreak \"q\""`, []string{"set", "k", "line\nbreak \"q\""}, false},
		{`set k 'it\'s \n raw'`, []string{"set", "k", `it's \n raw`}, false},
		{`set k ""`, []string{"set", "k", ""}, false},
		{`set k pre"fix"`, []string{"set", "k", "prefix"}, false},
		{`set k "open`, nil, true},
		{"   ", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Split(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Split(%q) error = %v", tt.in, err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
