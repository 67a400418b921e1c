package command

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/server/httpserver"
	"github.com/yndnr/minikv/internal/server/redisserver"
	"github.com/yndnr/minikv/internal/storage/memory"
	"github.com/yndnr/minikv/internal/telemetry/logger"
)

// testEnv is a running RESP server plus its admin endpoint.
type testEnv struct {
	store *memory.Store
	addr  string
	admin string
	cfg   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	store := memory.New()
	srv := redisserver.New(redisserver.DefaultConfig(), store, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()
	<-srv.Ready()

	admin := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Store:  store,
		Logger: logger.Discard(),
	}))

	t.Cleanup(func() {
		admin.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	dir := t.TempDir()
	cfg := filepath.Join(dir, "cli.yaml")
	data := "history_file: " + filepath.Join(dir, "history") + "\n"
	if err := os.WriteFile(cfg, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		store: store,
		addr:  ln.Addr().String(),
		admin: admin.URL,
		cfg:   cfg,
	}
}

// run executes the CLI with the env's addresses and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runWithInput(t, nil, args...)
}

func (e *testEnv) runWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	if in != nil {
		app.Reader = in
	}

	full := append([]string{"minikv-cli", "--config", e.cfg, "--server", e.addr, "--admin", e.admin}, args...)
	err := app.Run(full)
	return out.String(), err
}

func mustContain(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(got, w) {
			t.Errorf("output %q does not contain %q", got, w)
		}
	}
}
