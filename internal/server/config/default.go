// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultAddr             = "127.0.0.1:6379"
	DefaultMaxConnections   = 1024
	DefaultReadTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 30 * time.Second
	DefaultIdleTimeout      = 5 * time.Minute
	DefaultAcceptBackoff    = time.Second
	DefaultAcceptBackoffMax = 64 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second

	DefaultShards        = 32
	DefaultSweepInterval = time.Second

	DefaultSubscriberBuffer = 128

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:             DefaultAddr,
			MaxConnections:   DefaultMaxConnections,
			ReadTimeout:      DefaultReadTimeout,
			WriteTimeout:     DefaultWriteTimeout,
			IdleTimeout:      DefaultIdleTimeout,
			AcceptBackoff:    DefaultAcceptBackoff,
			AcceptBackoffMax: DefaultAcceptBackoffMax,
			ShutdownTimeout:  DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			Shards:        DefaultShards,
			SweepInterval: DefaultSweepInterval,
		},
		PubSub: PubSubSection{
			SubscriberBuffer: DefaultSubscriberBuffer,
		},
		Metrics: MetricsSection{
			AccessLog: true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
