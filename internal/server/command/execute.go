package command

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/yndnr/minikv/internal/infra/shutdown"
	"github.com/yndnr/minikv/internal/protocol/connection"
	"github.com/yndnr/minikv/internal/protocol/frame"
	"github.com/yndnr/minikv/internal/storage/memory"
	"github.com/yndnr/minikv/internal/telemetry/metric"
)

// Env is the per-connection execution context.
//
// Frames must deliver the connection's subsequent requests; it is only read
// while the connection is in subscribed mode. Metrics may be nil.
type Env struct {
	Store    *memory.Store
	Conn     *connection.Conn
	Frames   <-chan connection.Result
	Shutdown *shutdown.Shutdown
	Logger   *slog.Logger
	Metrics  *metric.Registry

	sub *memory.Subscriber
}

// Execute runs cmd and writes its reply.
//
// If cmd leaves the connection subscribed, Execute keeps serving the
// connection in subscribed mode and returns once the last channel is left
// (nil), shutdown fires (nil, with the handle's flag set), the peer goes
// away (io.EOF) or a read or write fails. Any returned error ends the
// connection.
func (env *Env) Execute(cmd Command) error {
	if err := env.run(cmd); err != nil {
		return err
	}
	if env.sub == nil || env.sub.Count() == 0 {
		env.leave()
		return nil
	}
	return env.serveSubscribed()
}

// ReplyError writes a command error to the client.
func (env *Env) ReplyError(err error) error {
	env.Metrics.ObserveCommand("invalid", metric.StatusError, 0)
	return env.Conn.WriteFrame(frame.NewError(err.Error()))
}

// Subscribed reports whether the connection is in subscribed mode.
func (env *Env) Subscribed() bool {
	return env.sub != nil
}

func (env *Env) run(cmd Command) error {
	start := time.Now()

	var out []frame.Frame
	if env.Subscribed() && !allowedWhileSubscribed(cmd) {
		out = []frame.Frame{frame.NewError(fmt.Sprintf(
			"ERR Can't execute '%s': only (UN)SUBSCRIBE / PING are allowed in this context",
			verbOf(cmd)))}
	} else {
		out = cmd.exec(env)
	}

	status := metric.StatusOK
	if len(out) > 0 && out[0].Kind == frame.KindError {
		status = metric.StatusError
	}
	env.Metrics.ObserveCommand(cmd.Name(), status, time.Since(start))

	return env.Conn.WriteFrames(out...)
}

func (env *Env) serveSubscribed() error {
	env.Conn.HoldIdle(true)
	defer env.Conn.HoldIdle(false)
	defer env.leave()
	env.logger().Debug("entered subscribed mode", "channels", env.sub.Count())

	for env.sub.Count() > 0 {
		select {
		case <-env.Shutdown.Done():
			env.Shutdown.Recv()
			return nil
		default:
		}

		select {
		case <-env.Shutdown.Done():
			env.Shutdown.Recv()
			return nil

		case m, ok := <-env.sub.Messages():
			if !ok {
				return nil
			}
			push := frame.NewArray(
				frame.NewBulkString("message"),
				frame.NewBulkString(m.Channel),
				frame.NewBulk(m.Payload),
			)
			if err := env.Conn.WriteFrame(push); err != nil {
				return err
			}

		case r, ok := <-env.Frames:
			if !ok {
				return io.EOF
			}
			if r.Err != nil {
				return r.Err
			}
			cmd, err := Parse(r.Frame)
			if err != nil {
				if err := env.ReplyError(err); err != nil {
					return err
				}
				continue
			}
			if err := env.run(cmd); err != nil {
				return err
			}
		}
	}

	env.logger().Debug("left subscribed mode")
	return nil
}

// leave drops every subscription and returns to request/reply mode.
func (env *Env) leave() {
	if env.sub == nil {
		return
	}
	env.Store.Unsubscribe(env.sub)
	env.sub.Close()
	env.sub = nil
}

func allowedWhileSubscribed(cmd Command) bool {
	switch cmd.(type) {
	case *Subscribe, *Unsubscribe, *Ping:
		return true
	}
	return false
}

func verbOf(cmd Command) string {
	if u, ok := cmd.(*Unknown); ok {
		return printable(u.Verb)
	}
	return cmd.Name()
}

// printable makes client text safe to embed in an Error frame.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}

func (env *Env) logger() *slog.Logger {
	if env.Logger == nil {
		return slog.Default()
	}
	return env.Logger
}

func (c *Ping) exec(env *Env) []frame.Frame {
	if env.Subscribed() {
		msg := frame.NewBulkString("")
		if c.HasMsg {
			msg = frame.NewBulk(c.Message)
		}
		return []frame.Frame{frame.NewArray(frame.NewBulkString("pong"), msg)}
	}
	if c.HasMsg {
		return []frame.Frame{frame.NewBulk(c.Message)}
	}
	return []frame.Frame{frame.NewSimple("PONG")}
}

func (c *Get) exec(env *Env) []frame.Frame {
	v, ok := env.Store.Get(c.Key)
	if !ok {
		return []frame.Frame{frame.Null()}
	}
	return []frame.Frame{frame.NewBulk(v)}
}

func (c *Set) exec(env *Env) []frame.Frame {
	env.Store.Set(c.Key, c.Value, c.TTL)
	return []frame.Frame{frame.NewSimple("OK")}
}

func (c *Del) exec(env *Env) []frame.Frame {
	return []frame.Frame{frame.NewInteger(int64(env.Store.Delete(c.Keys...)))}
}

func (c *TTL) exec(env *Env) []frame.Frame {
	d, ok := env.Store.TTL(c.Key)
	switch {
	case !ok:
		return []frame.Frame{frame.NewInteger(-2)}
	case d == 0:
		return []frame.Frame{frame.NewInteger(-1)}
	}
	return []frame.Frame{frame.NewInteger(int64((d + 500*time.Millisecond) / time.Second))}
}

func (c *Publish) exec(env *Env) []frame.Frame {
	n := env.Store.Publish(c.Channel, c.Message)
	env.Metrics.ObservePublish(n)
	return []frame.Frame{frame.NewInteger(int64(n))}
}

func (c *Subscribe) exec(env *Env) []frame.Frame {
	if env.sub == nil {
		env.sub = env.Store.NewSubscriber()
	}
	counts := env.Store.Subscribe(env.sub, c.Channels...)
	out := make([]frame.Frame, len(c.Channels))
	for i, ch := range c.Channels {
		out[i] = frame.NewArray(
			frame.NewBulkString("subscribe"),
			frame.NewBulkString(ch),
			frame.NewInteger(int64(counts[i])),
		)
	}
	return out
}

func (c *Unsubscribe) exec(env *Env) []frame.Frame {
	var names []string
	var counts []int
	if env.sub != nil {
		names, counts = env.Store.Unsubscribe(env.sub, c.Channels...)
	} else {
		names = c.Channels
		counts = make([]int, len(names))
	}

	if len(names) == 0 {
		return []frame.Frame{frame.NewArray(
			frame.NewBulkString("unsubscribe"),
			frame.Null(),
			frame.NewInteger(0),
		)}
	}
	out := make([]frame.Frame, len(names))
	for i, ch := range names {
		out[i] = frame.NewArray(
			frame.NewBulkString("unsubscribe"),
			frame.NewBulkString(ch),
			frame.NewInteger(int64(counts[i])),
		)
	}
	return out
}

func (c *Unknown) exec(*Env) []frame.Frame {
	return []frame.Frame{frame.NewError(fmt.Sprintf("ERR unknown command '%s'", printable(c.Verb)))}
}
