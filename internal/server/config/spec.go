// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for minikv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	PubSub  PubSubSection  `koanf:"pubsub"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the RESP listener.
type ServerSection struct {
	// Addr is the TCP listen address.
	Addr string `koanf:"addr"`

	// MaxConnections caps concurrently served connections.
	MaxConnections int `koanf:"max_connections"`

	// ReadTimeout bounds how long one request may take to arrive once
	// its first byte is in. Zero disables it.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds each reply flush. Zero disables it.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout closes request/reply connections silent for this long.
	// Zero disables it.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum commands per second per connection.
	// Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`

	// AcceptBackoff is the first delay after a failed accept.
	AcceptBackoff time.Duration `koanf:"accept_backoff"`

	// AcceptBackoffMax is the largest delay retried before the accept
	// error becomes fatal.
	AcceptBackoffMax time.Duration `koanf:"accept_backoff_max"`

	// ShutdownTimeout bounds the shutdown hooks run on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Socket is the local management Unix socket path. Empty disables it.
	Socket string `koanf:"socket"`
}

// StorageSection configures the keyspace.
type StorageSection struct {
	// Shards is the number of keyspace shards (power of two).
	Shards int `koanf:"shards"`

	// SweepInterval is how often expired keys are purged in the
	// background. Zero leaves expiry to reads only.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// PubSubSection configures publish/subscribe.
type PubSubSection struct {
	// SubscriberBuffer is how many undelivered messages a subscriber may
	// queue before further messages are dropped for it.
	SubscriberBuffer int `koanf:"subscriber_buffer"`
}

// MetricsSection configures the admin HTTP endpoint.
type MetricsSection struct {
	// Addr is the admin listen address. Empty disables the endpoint.
	Addr string `koanf:"addr"`

	// RateLimit is the per-client request rate on /admin routes. Zero
	// disables it.
	RateLimit int `koanf:"rate_limit"`

	// AccessLog logs every /admin and /version request.
	AccessLog bool `koanf:"access_log"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
