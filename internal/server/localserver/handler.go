package localserver

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Controls are the server actions reachable from the socket. A nil
// function makes its command answer "ERR not supported".
type Controls struct {
	Status   func() map[string]any
	Reload   func() error
	Shutdown func()
}

var errNotSupported = errors.New("not supported")

// Handler handles local management commands.
type Handler struct {
	ctl Controls
}

// NewHandler creates a new Handler.
func NewHandler(ctl Controls) *Handler {
	return &Handler{ctl: ctl}
}

// Execute runs one command and writes its reply, terminated by the
// status line. The returned error is a write failure only.
func (h *Handler) Execute(w io.Writer, cmd string, args []string) error {
	var err error
	switch strings.ToLower(cmd) {
	case "status":
		err = h.handleStatus(w)
	case "reload":
		err = h.handleReload()
	case "shutdown":
		// Reply first; the connection may be torn down by the shutdown.
		if h.ctl.Shutdown == nil {
			err = errNotSupported
			break
		}
		if _, werr := io.WriteString(w, "OK\n"); werr != nil {
			return werr
		}
		h.ctl.Shutdown()
		return nil
	case "help":
		_, err = io.WriteString(w, "status\nreload\nshutdown\nhelp\n")
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		_, werr := fmt.Fprintf(w, "ERR %v\n", err)
		return werr
	}
	_, werr := io.WriteString(w, "OK\n")
	return werr
}

func (h *Handler) handleStatus(w io.Writer) error {
	if h.ctl.Status == nil {
		return errNotSupported
	}
	out, err := yaml.Marshal(h.ctl.Status())
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func (h *Handler) handleReload() error {
	if h.ctl.Reload == nil {
		return errNotSupported
	}
	return h.ctl.Reload()
}
