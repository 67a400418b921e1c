package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/minikv/internal/infra/buildinfo"
	"github.com/yndnr/minikv/internal/infra/confloader"
	"github.com/yndnr/minikv/internal/infra/shutdown"
	"github.com/yndnr/minikv/internal/server/config"
	"github.com/yndnr/minikv/internal/server/httpserver"
	"github.com/yndnr/minikv/internal/server/localserver"
	"github.com/yndnr/minikv/internal/server/redisserver"
	"github.com/yndnr/minikv/internal/storage/memory"
	"github.com/yndnr/minikv/internal/telemetry/logger"
	"github.com/yndnr/minikv/internal/telemetry/metric"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "minikv-server",
		Usage:   "in-memory key-value and pub/sub server speaking RESP2",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{"MINIKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "RESP listen address (default " + config.DefaultAddr + ")",
			},
			&cli.IntFlag{
				Name:  "max-connections",
				Usage: "maximum concurrently served connections",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "admin HTTP listen address, empty disables it",
			},
			&cli.StringFlag{
				Name:  "socket",
				Usage: "local management Unix socket, empty disables it",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "json or text",
			},
		},
		Action: run,
	}
}

// flagKeys maps flags onto config keys.
var flagKeys = map[string]string{
	"addr":            "server.addr",
	"max-connections": "server.max_connections",
	"metrics-addr":    "metrics.addr",
	"socket":          "server.socket",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

// loadConfig resolves the configuration from defaults, the config file,
// the environment and the flags that were set, in that order.
func loadConfig(c *cli.Context) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			overrides[key] = c.Value(flag)
		}
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal flags: %w", err)
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting minikv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", c.String("config"))
	log.Debug("effective configuration", "settings", config.Summary(cfg))

	store := memory.New(
		memory.WithShards(cfg.Storage.Shards),
		memory.WithSubscriberBuffer(cfg.PubSub.SubscriberBuffer),
		memory.WithLogger(log),
	)

	reg := metric.NewRegistry()
	reg.MustRegister(metric.NewCollector(store))

	srv := redisserver.New(&redisserver.Config{
		Addr:             cfg.Server.Addr,
		MaxConnections:   cfg.Server.MaxConnections,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		RateLimit:        cfg.Server.RateLimit,
		AcceptBackoff:    cfg.Server.AcceptBackoff,
		AcceptBackoffMax: cfg.Server.AcceptBackoffMax,
	}, store, log, redisserver.WithMetrics(reg))

	// Bind before anything starts so a taken port fails the process at once.
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("RESP server listening", "addr", ln.Addr().String())
		return srv.Run(gctx, ln)
	})

	g.Go(func() error {
		store.RunSweeper(gctx, cfg.Storage.SweepInterval)
		return nil
	})

	if cfg.Metrics.Addr != "" {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Store:    store,
			Metrics:  reg,
			Settings: config.Summary(cfg),
			Ready: func() bool {
				select {
				case <-srv.Ready():
					return true
				default:
					return false
				}
			},
			Logger:    log,
			RateLimit: cfg.Metrics.RateLimit,
			AccessLog: cfg.Metrics.AccessLog,
		})
		admin := httpserver.New(cfg.Metrics.Addr, router)
		g.Go(func() error {
			log.Info("admin HTTP server listening", "addr", cfg.Metrics.Addr)
			return admin.Run(gctx, cfg.Server.ShutdownTimeout)
		})
	}

	if cfg.Server.Socket != "" {
		started := time.Now()
		local := localserver.New(cfg.Server.Socket, localserver.NewHandler(localserver.Controls{
			Status: func() map[string]any {
				st := store.Stats()
				return map[string]any{
					"version":        info.Version,
					"uptime_seconds": int64(time.Since(started).Seconds()),
					"keys":           st.Keys,
					"channels":       st.Channels,
					"subscriptions":  st.Subscriptions,
					"log_level":      logger.GetLevel(),
				}
			},
			Reload: func() error {
				return reloadLogLevel(c, log)
			},
			Shutdown: cancel,
		}), log)
		g.Go(func() error {
			log.Info("local management socket listening", "path", cfg.Server.Socket)
			return local.Run(gctx)
		})
	}

	if path := c.String("config"); path != "" {
		w, err := watchConfig(c, path, log)
		if err != nil {
			log.Warn("config file not watched", "path", path, "error", err)
		} else {
			defer w.Stop()
		}
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var runErr error
	sh := shutdown.NewHandler(cfg.Server.ShutdownTimeout)
	sh.OnShutdown(func(hctx context.Context) error {
		log.Info("draining connections")
		cancel()
		select {
		case runErr = <-done:
			return nil
		case <-hctx.Done():
			return fmt.Errorf("drain: %w", hctx.Err())
		}
	})

	log.Info("server started, press Ctrl+C to stop")
	if err := sh.Wait(gctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("server stopped", "error", runErr)
		return runErr
	}

	log.Info("server stopped gracefully")
	return nil
}

// watchConfig reapplies log.level whenever the config file changes.
func watchConfig(c *cli.Context, path string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	w.OnChange(func(string) {
		if err := reloadLogLevel(c, log); err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
		}
	})
	w.Start()
	return w, nil
}

// reloadLogLevel resolves the configuration again and applies its log
// level. Other settings keep their startup values.
func reloadLogLevel(c *cli.Context, log *slog.Logger) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	log.Info("config reloaded", "log.level", cfg.Log.Level)
	return nil
}
