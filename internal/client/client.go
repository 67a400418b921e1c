package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/yndnr/minikv/internal/protocol/connection"
	"github.com/yndnr/minikv/internal/protocol/frame"
)

// DefaultDialTimeout bounds Dial when ctx carries no deadline.
const DefaultDialTimeout = 5 * time.Second

var (
	// ErrUnexpectedReply is wrapped when the server answers with a frame
	// kind the call does not expect.
	ErrUnexpectedReply = errors.New("unexpected reply")

	// ErrSubscribed is returned by request methods once Subscribe took over
	// the connection.
	ErrSubscribed = errors.New("connection is in subscriber mode")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("client closed")

	// ErrBroken is returned once a request failed mid-exchange. The stream
	// may still carry the late reply, so the connection is dropped.
	ErrBroken = errors.New("connection broken by an earlier failure")
)

// Error is an error reply sent by the server.
type Error string

func (e Error) Error() string { return string(e) }

// Client is a connection to a minikv server.
type Client struct {
	nc   net.Conn
	conn *connection.Conn

	mu         sync.Mutex
	subscribed bool
	closed     bool
	broken     error
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	d := net.Dialer{Timeout: DefaultDialTimeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(nc), nil
}

// New wraps an established stream.
func New(nc net.Conn) *Client {
	return &Client{nc: nc, conn: connection.New(nc)}
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.broken != nil {
		return nil
	}
	return c.conn.Close()
}

// Do sends one command and returns the raw reply. Error replies are
// returned as frames, not as errors.
func (c *Client) Do(ctx context.Context, args ...string) (frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return frame.Frame{}, err
	}
	return c.roundTrip(ctx, frame.Command(args...))
}

// usable reports why the connection cannot take a request. Callers hold
// c.mu.
func (c *Client) usable() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.broken != nil:
		return fmt.Errorf("%w: %w", ErrBroken, c.broken)
	case c.subscribed:
		return ErrSubscribed
	}
	return nil
}

// roundTrip writes req and reads one reply. Callers hold c.mu.
func (c *Client) roundTrip(ctx context.Context, req frame.Frame) (frame.Frame, error) {
	release := c.bind(ctx)
	defer release()

	if err := c.conn.WriteFrame(req); err != nil {
		return frame.Frame{}, c.fail(ctx, err)
	}
	f, err := c.conn.ReadFrame()
	if err != nil {
		return frame.Frame{}, c.fail(ctx, err)
	}
	return f, nil
}

// fail drops the connection after an interrupted exchange, so a reply
// arriving late is never taken for the answer to the next request. It
// returns the error to report. Callers hold c.mu.
func (c *Client) fail(ctx context.Context, err error) error {
	err = c.ctxErr(ctx, err)
	c.broken = err
	_ = c.conn.Close()
	return err
}

// bind ties the socket deadline to ctx until the returned func runs.
func (c *Client) bind(ctx context.Context) func() {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.nc.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.nc.SetDeadline(time.Unix(1, 0))
	})
	return func() {
		stop()
		_ = c.nc.SetDeadline(time.Time{})
	}
}

// ctxErr reports a failure caused by ctx as the context error.
func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	// The socket deadline can fire just before the context timer does.
	if dl, ok := ctx.Deadline(); ok && errors.Is(err, os.ErrDeadlineExceeded) && !time.Now().Before(dl) {
		return context.DeadlineExceeded
	}
	return err
}

// call runs Do and turns error replies into Error.
func (c *Client) call(ctx context.Context, args ...string) (frame.Frame, error) {
	f, err := c.Do(ctx, args...)
	if err != nil {
		return f, err
	}
	if f.Kind == frame.KindError {
		return f, Error(f.Str)
	}
	return f, nil
}

// Ping sends PING, with msg as the echo payload when given.
func (c *Client) Ping(ctx context.Context, msg ...string) (string, error) {
	if len(msg) > 1 {
		return "", fmt.Errorf("ping takes at most one message, got %d", len(msg))
	}
	f, err := c.call(ctx, append([]string{"PING"}, msg...)...)
	if err != nil {
		return "", err
	}
	s, ok := f.Text()
	if !ok {
		return "", unexpected("PING", f)
	}
	return s, nil
}

// Get returns the value of key and whether it exists.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f, err := c.call(ctx, "GET", key)
	if err != nil {
		return nil, false, err
	}
	switch f.Kind {
	case frame.KindNull:
		return nil, false, nil
	case frame.KindBulk:
		return f.Bulk, true, nil
	default:
		return nil, false, unexpected("GET", f)
	}
}

// Set stores value under key. A positive ttl is sent with PX, rounded up to
// a whole millisecond.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := []string{"SET", key, string(value)}
	if ttl > 0 {
		ms := (ttl + time.Millisecond - 1) / time.Millisecond
		args = append(args, "PX", strconv.FormatInt(int64(ms), 10))
	}
	f, err := c.call(ctx, args...)
	if err != nil {
		return err
	}
	if f.Kind != frame.KindSimple || f.Str != "OK" {
		return unexpected("SET", f)
	}
	return nil
}

// Del removes keys and returns how many existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.integer(ctx, "DEL", keys...)
}

// TTL returns the remaining lifetime of key in seconds: -1 when the key has
// no expiry, -2 when it does not exist.
func (c *Client) TTL(ctx context.Context, key string) (int64, error) {
	return c.integer(ctx, "TTL", key)
}

// Publish sends message to channel and returns the number of receivers.
func (c *Client) Publish(ctx context.Context, channel string, message []byte) (int64, error) {
	return c.integer(ctx, "PUBLISH", channel, string(message))
}

func (c *Client) integer(ctx context.Context, verb string, args ...string) (int64, error) {
	f, err := c.call(ctx, append([]string{verb}, args...)...)
	if err != nil {
		return 0, err
	}
	if f.Kind != frame.KindInteger {
		return 0, unexpected(verb, f)
	}
	return f.Int, nil
}

func unexpected(verb string, f frame.Frame) error {
	return fmt.Errorf("%w to %s: %s", ErrUnexpectedReply, verb, f)
}
