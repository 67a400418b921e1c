// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if cfg.PubSub.SubscriberBuffer < 1 {
		return invalid("pubsub.subscriber_buffer must be at least 1")
	}
	if cfg.Metrics.Addr != "" {
		if err := verifyAddr("metrics.addr", cfg.Metrics.Addr); err != nil {
			return err
		}
		if cfg.Metrics.Addr == cfg.Server.Addr {
			return invalid("metrics.addr must differ from server.addr")
		}
	}
	if cfg.Metrics.RateLimit < 0 {
		return invalid("metrics.rate_limit must not be negative")
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.addr", cfg.Addr); err != nil {
		return err
	}
	if cfg.MaxConnections < 1 {
		return invalid("server.max_connections must be at least 1")
	}
	if cfg.ReadTimeout < 0 {
		return invalid("server.read_timeout must not be negative")
	}
	if cfg.WriteTimeout < 0 {
		return invalid("server.write_timeout must not be negative")
	}
	if cfg.IdleTimeout < 0 {
		return invalid("server.idle_timeout must not be negative")
	}
	if cfg.RateLimit < 0 {
		return invalid("server.rate_limit must not be negative")
	}
	if cfg.AcceptBackoff <= 0 {
		return invalid("server.accept_backoff must be positive")
	}
	if cfg.AcceptBackoffMax < cfg.AcceptBackoff {
		return invalid("server.accept_backoff_max must not be less than server.accept_backoff")
	}
	if cfg.ShutdownTimeout <= 0 {
		return invalid("server.shutdown_timeout must be positive")
	}
	if cfg.Socket != "" && cfg.Socket == cfg.Addr {
		return invalid("server.socket must differ from server.addr")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.Shards < 1 || cfg.Shards&(cfg.Shards-1) != 0 {
		return invalid("storage.shards must be a power of two")
	}
	if cfg.SweepInterval < 0 {
		return invalid("storage.sweep_interval must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid(fmt.Sprintf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return invalid(fmt.Sprintf("log.format %q is not one of json, text", cfg.Format))
	}
	return nil
}

func verifyAddr(field, addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return invalid(fmt.Sprintf("%s %q: %v", field, addr, err))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
