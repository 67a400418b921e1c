package redisserver

import (
	"errors"
	"io"
	"net"
	"os"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/minikv/internal/infra/shutdown"
	"github.com/yndnr/minikv/internal/protocol/connection"
	"github.com/yndnr/minikv/internal/protocol/frame"
	"github.com/yndnr/minikv/internal/server/command"
	"github.com/yndnr/minikv/internal/telemetry/logger"
)

// ErrRateLimited is replied when a connection exceeds its command rate.
var ErrRateLimited = errors.New("ERR rate limit exceeded")

// handle serves one connection. The admission slot and completion token
// are released on every exit path.
func (s *Server) handle(nc net.Conn, sd *shutdown.Shutdown, tok *shutdown.Token) {
	id := ulid.Make().String()
	log := s.logger.With(logger.ConnIDKey, id, "remote", nc.RemoteAddr().String())

	conn := connection.New(nc,
		connection.WithReadTimeout(s.cfg.ReadTimeout),
		connection.WithWriteTimeout(s.cfg.WriteTimeout),
		connection.WithIdleTimeout(s.cfg.IdleTimeout),
	)
	pump := conn.StartPump()
	defer func() {
		_ = conn.Close()
		pump.Stop()
		s.metrics.ConnClosed()
		s.limit.Release(1)
		tok.Release()
	}()

	log.Debug("connection accepted")

	env := &command.Env{
		Store:    s.store,
		Conn:     conn,
		Frames:   pump.Frames(),
		Shutdown: sd,
		Logger:   log,
		Metrics:  s.metrics,
	}

	var limiter *rate.Limiter
	if s.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateLimit)
	}

	err := s.serve(env, limiter)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		log.Debug("connection closed", "shutdown", sd.IsShutdown())
	case errors.Is(err, os.ErrDeadlineExceeded):
		log.Debug("connection timed out")
	case errors.Is(err, connection.ErrConnReset):
		log.Debug("connection reset by peer")
	case errors.Is(err, frame.ErrProtocol):
		s.metrics.ProtocolFailed()
		log.Warn("protocol error", "error", err)
		msg := "ERR protocol error"
		if errors.Is(err, frame.ErrLimitExceeded) {
			msg = "ERR protocol limit exceeded"
		}
		_ = conn.WriteFrame(frame.NewError(msg))
	default:
		log.Debug("connection error", "error", err)
	}
}

// serve runs the request loop until the peer leaves, an I/O or protocol
// error occurs, or shutdown fires. A command already read always runs to
// completion; frames still queued once shutdown fires are not served.
func (s *Server) serve(env *command.Env, limiter *rate.Limiter) error {
	for {
		select {
		case <-env.Shutdown.Done():
			env.Shutdown.Recv()
			return nil
		default:
		}

		var r connection.Result
		select {
		case r = <-env.Frames:
		case <-env.Shutdown.Done():
			env.Shutdown.Recv()
			return nil
		}
		if r.Err != nil {
			return r.Err
		}

		if limiter != nil && !limiter.Allow() {
			if err := env.ReplyError(ErrRateLimited); err != nil {
				return err
			}
			continue
		}

		cmd, err := command.Parse(r.Frame)
		if err != nil {
			if err := env.ReplyError(err); err != nil {
				return err
			}
			continue
		}
		if err := env.Execute(cmd); err != nil {
			return err
		}
	}
}
