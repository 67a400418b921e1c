// Package redisserver provides the RESP2 TCP server for minikv.
package redisserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yndnr/minikv/internal/infra/shutdown"
	"github.com/yndnr/minikv/internal/storage/memory"
	"github.com/yndnr/minikv/internal/telemetry/metric"
)

// ErrAcceptFailed wraps the accept error that ended the server.
var ErrAcceptFailed = errors.New("redisserver: accept failed")

// Config holds the server configuration.
type Config struct {
	// Addr is the TCP address to listen on.
	Addr string
	// MaxConnections caps concurrently served connections.
	MaxConnections int
	// ReadTimeout bounds how long a request may take to arrive once its
	// first byte is in. Helps against slowloris clients. Zero disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds each reply flush. Zero disables it.
	WriteTimeout time.Duration
	// IdleTimeout closes connections that send nothing between requests
	// for this long. Subscribed connections are exempt. Zero disables it.
	IdleTimeout time.Duration
	// RateLimit is the maximum commands per second per connection.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// AcceptBackoff is the first retry delay after a failed accept.
	AcceptBackoff time.Duration
	// AcceptBackoffMax is the largest delay retried; beyond it the accept
	// error is fatal.
	AcceptBackoffMax time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:             "127.0.0.1:6379",
		MaxConnections:   1024,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     30 * time.Second,
		IdleTimeout:      5 * time.Minute,
		AcceptBackoff:    time.Second,
		AcceptBackoffMax: 64 * time.Second,
	}
}

// Server is the connection orchestrator.
type Server struct {
	cfg     *Config
	store   *memory.Store
	logger  *slog.Logger
	metrics *metric.Registry

	limit   *semaphore.Weighted
	notify  *shutdown.Broadcast
	tracker shutdown.Tracker

	mu   sync.Mutex
	addr net.Addr
	up   chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records connection and command metrics into reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = reg
	}
}

// New creates a server serving store.
func New(cfg *Config, store *memory.Store, logger *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultConfig().MaxConnections
	}
	if cfg.AcceptBackoff <= 0 {
		cfg.AcceptBackoff = time.Second
	}
	if cfg.AcceptBackoffMax < cfg.AcceptBackoff {
		cfg.AcceptBackoffMax = cfg.AcceptBackoff
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		limit:  semaphore.NewWeighted(int64(cfg.MaxConnections)),
		notify: shutdown.NewBroadcast(),
		up:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves connections from ln until ctx is cancelled or accepting fails
// fatally, then drains: it closes ln, signals every handler and waits for
// all of them to finish. It returns the fatal accept error, if any.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	close(s.up)

	s.logger.Info("accepting inbound connections",
		"address", ln.Addr().String(),
		"max_connections", s.cfg.MaxConnections)

	// The server holds its own completion token until the accept loop has
	// stopped, so no handler can be tracked after Wait starts.
	own := s.tracker.Acquire()

	acceptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.acceptLoop(acceptCtx, ln)
	}()

	var err error
	select {
	case err = <-errCh:
		cancel()
		_ = ln.Close()
	case <-ctx.Done():
		cancel()
		_ = ln.Close()
		err = <-errCh
	}

	if err != nil {
		s.logger.Error("accept loop failed", "error", err)
	}
	s.logger.Info("draining connections")

	s.notify.Fire()
	own.Release()
	_ = s.tracker.Wait(context.Background())

	s.logger.Info("server stopped")
	return err
}

// Addr returns the bound address once Run has started, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Ready is closed once the server is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.up
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		if err := s.limit.Acquire(ctx, 1); err != nil {
			return nil
		}

		nc, err := s.accept(ctx, ln)
		if err != nil {
			s.limit.Release(1)
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		s.metrics.ConnOpened()
		tok := s.tracker.Acquire()
		sd := s.notify.Subscribe()
		go s.handle(nc, sd, tok)
	}
}

// accept retries failed accepts with doubling backoff. Once the next
// delay would exceed AcceptBackoffMax the error is returned.
func (s *Server) accept(ctx context.Context, ln net.Listener) (net.Conn, error) {
	backoff := s.cfg.AcceptBackoff
	for {
		nc, err := ln.Accept()
		if err == nil {
			return nc, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.metrics.AcceptFailed()
		if errors.Is(err, net.ErrClosed) || backoff > s.cfg.AcceptBackoffMax {
			return nil, fmt.Errorf("%w: %w", ErrAcceptFailed, err)
		}

		s.logger.Warn("accept failed, retrying", "error", err, "backoff", backoff)
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
		backoff *= 2
	}
}
