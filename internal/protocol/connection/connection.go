// Package connection reads and writes frames over a stream socket.
//
// A Conn owns one net.Conn and one growable receive buffer. Frames split
// across several socket reads are reassembled transparently; callers only
// ever see complete frames.
package connection

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/yndnr/minikv/internal/protocol/frame"
)

const (
	initialBufferSize = 4 * 1024
	readChunkSize     = 4 * 1024
	writeBufferSize   = 32 * 1024
)

// ErrConnReset is returned when the peer closes the stream in the middle
// of a frame.
var ErrConnReset = fmt.Errorf("%w: connection reset by peer", frame.ErrProtocol)

// Conn is a framed connection. It is not safe for concurrent readers or
// concurrent writers, but one reader may run alongside one writer.
type Conn struct {
	netConn      net.Conn
	buf          bytes.Buffer
	scan         frame.Scanner
	chunk        []byte
	bw           *bufio.Writer
	scratch      []byte
	writeTimeout time.Duration

	readTimeout time.Duration
	idleTimeout time.Duration
	idleHeld    atomic.Bool
	// frameArmed is set once the read deadline for the frame in progress
	// has been applied.
	frameArmed bool
}

// Option configures a Conn.
type Option func(*Conn)

// WithWriteTimeout bounds every WriteFrame call. Zero disables it.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Conn) {
		c.writeTimeout = d
	}
}

// WithReadTimeout bounds how long a frame may take to arrive once its
// first byte has been received. Zero disables it.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Conn) {
		c.readTimeout = d
	}
}

// WithIdleTimeout bounds how long ReadFrame waits for the first byte of
// the next frame. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Conn) {
		c.idleTimeout = d
	}
}

// New wraps a stream socket.
func New(nc net.Conn, opts ...Option) *Conn {
	c := &Conn{
		netConn: nc,
		chunk:   make([]byte, readChunkSize),
		bw:      bufio.NewWriterSize(nc, writeBufferSize),
	}
	c.buf.Grow(initialBufferSize)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadFrame returns the next complete frame.
//
// It returns io.EOF when the peer closed the stream on a frame boundary,
// ErrConnReset when it closed mid-frame, and an error wrapping
// frame.ErrProtocol when the buffered bytes are malformed. A read or idle
// timeout surfaces as an error matching os.ErrDeadlineExceeded.
func (c *Conn) ReadFrame() (frame.Frame, error) {
	for {
		if c.buf.Len() > 0 {
			n, err := c.scan.Scan(c.buf.Bytes())
			if err == nil {
				c.frameArmed = false
				f, _, err := frame.Parse(c.buf.Next(n))
				return f, err
			}
			if !errors.Is(err, frame.ErrIncomplete) {
				return frame.Frame{}, err
			}
		}

		if err := c.armReadDeadline(); err != nil {
			return frame.Frame{}, err
		}
		n, err := c.netConn.Read(c.chunk)
		if n > 0 {
			c.buf.Write(c.chunk[:n])
			continue
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if c.buf.Len() == 0 {
				return frame.Frame{}, io.EOF
			}
			return frame.Frame{}, ErrConnReset
		}
		if errors.Is(err, os.ErrDeadlineExceeded) && c.buf.Len() == 0 && c.idleHeld.Load() {
			// Idle deadline armed before HoldIdle was called.
			continue
		}
		return frame.Frame{}, err
	}
}

// HoldIdle suspends the idle timeout while hold is true, for connections
// that legitimately sit silent such as subscribers. It may be called while
// another goroutine is blocked in ReadFrame and takes effect no later than
// the pending idle deadline.
func (c *Conn) HoldIdle(hold bool) {
	c.idleHeld.Store(hold)
}

func (c *Conn) armReadDeadline() error {
	if c.readTimeout <= 0 && c.idleTimeout <= 0 {
		return nil
	}

	var d time.Duration
	if c.buf.Len() == 0 {
		c.frameArmed = false
		if !c.idleHeld.Load() {
			d = c.idleTimeout
		}
	} else {
		if c.frameArmed {
			return nil
		}
		c.frameArmed = true
		d = c.readTimeout
	}

	var deadline time.Time
	if d > 0 {
		deadline = time.Now().Add(d)
	}
	return c.netConn.SetReadDeadline(deadline)
}

// WriteFrame encodes f, writes it and flushes before returning.
func (c *Conn) WriteFrame(f frame.Frame) error {
	if err := c.encode(f); err != nil {
		return err
	}
	return c.Flush()
}

// WriteFrames writes several frames with a single flush.
func (c *Conn) WriteFrames(fs ...frame.Frame) error {
	for _, f := range fs {
		if err := c.encode(f); err != nil {
			return err
		}
	}
	return c.Flush()
}

func (c *Conn) encode(f frame.Frame) error {
	var err error
	c.scratch, err = frame.AppendEncode(c.scratch[:0], f)
	if err != nil {
		return err
	}
	_, err = c.bw.Write(c.scratch)
	return err
}

// Flush writes any buffered output to the socket.
func (c *Conn) Flush() error {
	if c.writeTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.bw.Flush()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// Close closes the underlying socket. A blocked ReadFrame returns.
func (c *Conn) Close() error {
	return c.netConn.Close()
}
