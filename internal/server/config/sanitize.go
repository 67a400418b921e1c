// Package config defines the server configuration structure.
package config

// Summary returns the configuration as flat key/value pairs, suitable for
// a startup log line or /admin/v1/config. There are no secrets
// in the server configuration, so nothing is masked.
func Summary(cfg *ServerConfig) map[string]any {
	return map[string]any{
		"server.addr":               cfg.Server.Addr,
		"server.max_connections":    cfg.Server.MaxConnections,
		"server.read_timeout":       cfg.Server.ReadTimeout.String(),
		"server.write_timeout":      cfg.Server.WriteTimeout.String(),
		"server.idle_timeout":       cfg.Server.IdleTimeout.String(),
		"server.rate_limit":         cfg.Server.RateLimit,
		"server.accept_backoff":     cfg.Server.AcceptBackoff.String(),
		"server.accept_backoff_max": cfg.Server.AcceptBackoffMax.String(),
		"server.shutdown_timeout":   cfg.Server.ShutdownTimeout.String(),
		"server.socket":             cfg.Server.Socket,
		"storage.shards":            cfg.Storage.Shards,
		"storage.sweep_interval":    cfg.Storage.SweepInterval.String(),
		"pubsub.subscriber_buffer":  cfg.PubSub.SubscriberBuffer,
		"metrics.addr":              cfg.Metrics.Addr,
		"metrics.rate_limit":        cfg.Metrics.RateLimit,
		"metrics.access_log":        cfg.Metrics.AccessLog,
		"log.level":                 cfg.Log.Level,
		"log.format":                cfg.Log.Format,
	}
}
