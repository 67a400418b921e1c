package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/yndnr/minikv/internal/protocol/connection"
	"github.com/yndnr/minikv/internal/protocol/frame"
	"github.com/yndnr/minikv/internal/server/redisserver"
	"github.com/yndnr/minikv/internal/storage/memory"
	"github.com/yndnr/minikv/internal/telemetry/logger"
)

func startServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := redisserver.New(redisserver.DefaultConfig(), memory.New(), logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()
	<-srv.Ready()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_RequestReply(t *testing.T) {
	c := dial(t, startServer(t))
	ctx := testCtx(t)

	if got, err := c.Ping(ctx); err != nil || got != "PONG" {
		t.Fatalf("Ping() = %q, %v", got, err)
	}
	if got, err := c.Ping(ctx, "hello"); err != nil || got != "hello" {
		t.Fatalf("Ping(hello) = %q, %v", got, err)
	}

	if _, ok, err := c.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("Get(k) before set: ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get(k) = %q, %v, %v", v, ok, err)
	}
	if ttl, err := c.TTL(ctx, "k"); err != nil || ttl != -1 {
		t.Errorf("TTL(k) = %d, %v, want -1", ttl, err)
	}
	if ttl, err := c.TTL(ctx, "absent"); err != nil || ttl != -2 {
		t.Errorf("TTL(absent) = %d, %v, want -2", ttl, err)
	}
	if n, err := c.Del(ctx, "k", "absent"); err != nil || n != 1 {
		t.Errorf("Del() = %d, %v, want 1", n, err)
	}
	if n, err := c.Publish(ctx, "nobody", []byte("x")); err != nil || n != 0 {
		t.Errorf("Publish() = %d, %v, want 0", n, err)
	}
}

func TestClient_SetWithTTL(t *testing.T) {
	c := dial(t, startServer(t))
	ctx := testCtx(t)

	if err := c.Set(ctx, "k", []byte("v"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("key missing right after set")
	}
	time.Sleep(120 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("key still present after ttl")
	}
}

func TestClient_ErrorReply(t *testing.T) {
	c := dial(t, startServer(t))
	ctx := testCtx(t)

	f, err := c.Do(ctx, "NOSUCHCMD")
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if f.Kind != frame.KindError {
		t.Fatalf("Do() = %s, want error reply", f)
	}

	_, err = c.Del(ctx)
	var srvErr Error
	if !errors.As(err, &srvErr) {
		t.Fatalf("Del() error = %v, want Error", err)
	}

	// The connection survives command errors.
	if _, err := c.Ping(ctx); err != nil {
		t.Errorf("Ping() after error = %v", err)
	}
}

func TestClient_ContextCancel(t *testing.T) {
	server, peer := net.Pipe()
	defer peer.Close()
	c := New(server)
	defer c.Close()

	// Drain the request and never answer.
	go func() {
		conn := connection.New(peer)
		_, _ = conn.ReadFrame()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Ping(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Ping() error = %v, want DeadlineExceeded", err)
	}
}

func TestClient_UnusableAfterInterruptedRequest(t *testing.T) {
	server, peer := net.Pipe()
	defer peer.Close()
	c := New(server)
	defer c.Close()

	// Answer only after the caller gave up.
	answered := make(chan error, 1)
	go func() {
		conn := connection.New(peer)
		if _, err := conn.ReadFrame(); err != nil {
			answered <- err
			return
		}
		time.Sleep(150 * time.Millisecond)
		answered <- conn.WriteFrame(frame.NewSimple("PONG"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Ping(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Ping() error = %v, want DeadlineExceeded", err)
	}

	got, err := c.Do(context.Background(), "GET", "k")
	if !errors.Is(err, ErrBroken) {
		t.Fatalf("Do() after interrupted request = (%v, %v), want ErrBroken", got, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ErrBroken should carry the original cause, got %v", err)
	}
	if _, err := c.Subscribe(context.Background(), "ch"); !errors.Is(err, ErrBroken) {
		t.Errorf("Subscribe() error = %v, want ErrBroken", err)
	}

	select {
	case err := <-answered:
		if err == nil {
			t.Error("late reply was delivered to a dropped connection")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("peer never finished")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestClient_Closed(t *testing.T) {
	c := dial(t, startServer(t))
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := c.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after close = %v, want ErrClosed", err)
	}
}

func TestSubscription(t *testing.T) {
	addr := startServer(t)
	ctx := testCtx(t)
	pub := dial(t, addr)
	c := dial(t, addr)

	sub, err := c.Subscribe(ctx, "news", "sport")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	if _, err := c.Ping(ctx); !errors.Is(err, ErrSubscribed) {
		t.Errorf("Ping() on subscribed client = %v, want ErrSubscribed", err)
	}

	for i, ch := range []string{"news", "sport"} {
		m, err := sub.Receive(ctx)
		if err != nil || m.Kind != KindSubscribe || m.Channel != ch || m.Count != int64(i+1) {
			t.Fatalf("confirmation %d = %+v, %v", i, m, err)
		}
	}

	if n, err := pub.Publish(ctx, "news", []byte("hello")); err != nil || n != 1 {
		t.Fatalf("Publish() = %d, %v, want 1", n, err)
	}
	m, err := sub.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if m.Kind != KindMessage || m.Channel != "news" || string(m.Payload) != "hello" {
		t.Errorf("Receive() = %+v", m)
	}

	if err := sub.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if m, err := sub.Receive(ctx); err != nil || m.Kind != KindPong {
		t.Errorf("Receive() = %+v, %v, want pong", m, err)
	}

	if err := sub.Unsubscribe(ctx, "news"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	m, err = sub.Receive(ctx)
	if err != nil || m.Kind != KindUnsubscribe || m.Channel != "news" || m.Count != 1 {
		t.Errorf("Receive() = %+v, %v, want unsubscribe news 1", m, err)
	}

	if n, err := pub.Publish(ctx, "news", []byte("gone")); err != nil || n != 0 {
		t.Errorf("Publish() after unsubscribe = %d, %v, want 0", n, err)
	}
}

func TestSubscription_ReceiveHonoursContext(t *testing.T) {
	c := dial(t, startServer(t))

	sub, err := c.Subscribe(testCtx(t), "quiet")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()
	if m, err := sub.Receive(context.Background()); err != nil || m.Kind != KindSubscribe {
		t.Fatalf("Receive() = %+v, %v, want confirmation", m, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := sub.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Receive() error = %v, want DeadlineExceeded", err)
	}
}

func TestDecodePush(t *testing.T) {
	tests := []struct {
		name    string
		in      frame.Frame
		want    Message
		wantErr bool
	}{
		{
			name: "message",
			in:   frame.NewArray(frame.NewBulkString("message"), frame.NewBulkString("c"), frame.NewBulkString("p")),
			want: Message{Kind: KindMessage, Channel: "c", Payload: []byte("p")},
		},
		{
			name: "subscribe",
			in:   frame.NewArray(frame.NewBulkString("subscribe"), frame.NewBulkString("c"), frame.NewInteger(2)),
			want: Message{Kind: KindSubscribe, Channel: "c", Count: 2},
		},
		{
			name: "unsubscribe all with nothing",
			in:   frame.NewArray(frame.NewBulkString("unsubscribe"), frame.Null(), frame.NewInteger(0)),
			want: Message{Kind: KindUnsubscribe},
		},
		{name: "not an array", in: frame.NewSimple("OK"), wantErr: true},
		{name: "unknown kind", in: frame.NewArray(frame.NewBulkString("pmessage")), wantErr: true},
		{name: "short message", in: frame.NewArray(frame.NewBulkString("message")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodePush(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnexpectedReply) {
					t.Errorf("decodePush() error = %v, want ErrUnexpectedReply", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodePush() error = %v", err)
			}
			if got.Kind != tt.want.Kind || got.Channel != tt.want.Channel ||
				string(got.Payload) != string(tt.want.Payload) || got.Count != tt.want.Count {
				t.Errorf("decodePush() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
