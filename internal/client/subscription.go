package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yndnr/minikv/internal/protocol/connection"
	"github.com/yndnr/minikv/internal/protocol/frame"
)

// Push kinds delivered to a subscriber.
const (
	KindMessage     = "message"
	KindSubscribe   = "subscribe"
	KindUnsubscribe = "unsubscribe"
	KindPong        = "pong"
)

// Message is one push received in subscriber mode.
type Message struct {
	Kind    string `json:"kind" yaml:"kind"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
	Payload []byte `json:"payload,omitempty" yaml:"payload,omitempty"`

	// Count is the subscription count carried by subscribe and
	// unsubscribe confirmations.
	Count int64 `json:"count,omitempty" yaml:"count,omitempty"`
}

// Subscription is a connection in subscriber mode. One goroutine may call
// Receive while others call Subscribe, Unsubscribe and Ping.
type Subscription struct {
	c    *Client
	pump *connection.Pump

	// pending holds the confirmations read by Subscribe, handed out by
	// Receive before anything else.
	pending []Message

	wmu sync.Mutex
}

// Subscribe registers the connection on channels and returns once every
// confirmation has arrived. The confirmations are the first values
// Receive returns. The Client is unusable for requests afterwards.
func (c *Client) Subscribe(ctx context.Context, channels ...string) (*Subscription, error) {
	if len(channels) == 0 {
		return nil, errors.New("subscribe needs at least one channel")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return nil, err
	}

	release := c.bind(ctx)
	pending := make([]Message, 0, len(channels))
	err := c.conn.WriteFrame(frame.Command(append([]string{"SUBSCRIBE"}, channels...)...))
	for i := 0; err == nil && i < len(channels); i++ {
		var f frame.Frame
		if f, err = c.conn.ReadFrame(); err != nil {
			break
		}
		if f.Kind == frame.KindError {
			err = Error(f.Str)
			break
		}
		var m Message
		if m, err = decodePush(f); err == nil && m.Kind != KindSubscribe {
			err = unexpected("SUBSCRIBE", f)
		}
		pending = append(pending, m)
	}
	release()
	if err != nil {
		var reply Error
		if errors.As(err, &reply) {
			return nil, err
		}
		return nil, c.fail(ctx, err)
	}

	c.subscribed = true
	return &Subscription{c: c, pump: c.conn.StartPump(), pending: pending}, nil
}

// Receive returns the next push. Error replies become Error values and do
// not end the subscription; I/O failures do.
func (s *Subscription) Receive(ctx context.Context) (Message, error) {
	if len(s.pending) > 0 {
		m := s.pending[0]
		s.pending = s.pending[1:]
		return m, nil
	}
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case res := <-s.pump.Frames():
		if res.Err != nil {
			return Message{}, res.Err
		}
		if res.Frame.Kind == frame.KindError {
			return Message{}, Error(res.Frame.Str)
		}
		return decodePush(res.Frame)
	}
}

// Subscribe adds channels. Confirmations arrive through Receive.
func (s *Subscription) Subscribe(ctx context.Context, channels ...string) error {
	return s.send(ctx, append([]string{"SUBSCRIBE"}, channels...)...)
}

// Unsubscribe removes channels, or every channel when none are given.
// Confirmations arrive through Receive; after the count reaches zero the
// server serves ordinary requests again, but this Subscription keeps
// ownership of the connection.
func (s *Subscription) Unsubscribe(ctx context.Context, channels ...string) error {
	return s.send(ctx, append([]string{"UNSUBSCRIBE"}, channels...)...)
}

// Ping asks for a pong push.
func (s *Subscription) Ping(ctx context.Context) error {
	return s.send(ctx, "PING")
}

func (s *Subscription) send(ctx context.Context, args ...string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = s.c.nc.SetWriteDeadline(dl)
		defer func() { _ = s.c.nc.SetWriteDeadline(time.Time{}) }()
	}
	if err := s.c.conn.WriteFrame(frame.Command(args...)); err != nil {
		return s.c.ctxErr(ctx, err)
	}
	return nil
}

// Close closes the connection and stops the reader.
func (s *Subscription) Close() error {
	err := s.c.Close()
	s.pump.Stop()
	return err
}

func decodePush(f frame.Frame) (Message, error) {
	if f.Kind != frame.KindArray || len(f.Array) == 0 {
		return Message{}, fmt.Errorf("%w: push %s", ErrUnexpectedReply, f)
	}
	kind, ok := f.Array[0].Text()
	if !ok {
		return Message{}, fmt.Errorf("%w: push %s", ErrUnexpectedReply, f)
	}
	m := Message{Kind: kind}

	switch kind {
	case KindMessage:
		if len(f.Array) != 3 {
			break
		}
		m.Channel, _ = f.Array[1].Text()
		m.Payload = f.Array[2].Bulk
		return m, nil
	case KindSubscribe, KindUnsubscribe:
		if len(f.Array) != 3 || f.Array[2].Kind != frame.KindInteger {
			break
		}
		m.Channel, _ = f.Array[1].Text()
		m.Count = f.Array[2].Int
		return m, nil
	case KindPong:
		if len(f.Array) == 2 {
			m.Payload = f.Array[1].Bulk
		}
		return m, nil
	}
	return Message{}, fmt.Errorf("%w: push %s", ErrUnexpectedReply, f)
}
