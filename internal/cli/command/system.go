package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/cli/connection"
	"github.com/yndnr/minikv/internal/infra/buildinfo"
)

// StatsCommand returns the stats command.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show keyspace and pub/sub counters from the admin endpoint",
		Action: adminGet("/admin/v1/stats"),
	}
}

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check the server is ready to accept connections",
		Action: adminGet("/ready"),
	}
}

// GCCommand returns the gc command.
func GCCommand() *cli.Command {
	return &cli.Command{
		Name:  "gc",
		Usage: "Purge expired keys now",
		Action: func(c *cli.Context) error {
			p, flags, err := newPrinter(c)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(c, flags)
			defer cancel()

			var result map[string]any
			if err := connection.NewHTTPClient(flags.Admin).Post(ctx, "/admin/v1/gc/trigger", &result); err != nil {
				return err
			}
			return p.print(numbers(result))
		},
	}
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show client and server versions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "client-only",
				Usage: "skip asking the server",
			},
		},
		Action: func(c *cli.Context) error {
			p, flags, err := newPrinter(c)
			if err != nil {
				return err
			}
			info := buildinfo.Get()
			result := map[string]any{
				"client.version":    info.Version,
				"client.commit":     info.Commit,
				"client.go_version": info.GoVersion,
			}
			if !c.Bool("client-only") {
				ctx, cancel := requestContext(c, flags)
				defer cancel()
				var srv buildinfo.Info
				if err := connection.NewHTTPClient(flags.Admin).Get(ctx, "/version", &srv); err != nil {
					return err
				}
				result["server.version"] = srv.Version
				result["server.commit"] = srv.Commit
				result["server.go_version"] = srv.GoVersion
			}
			return p.print(result)
		},
	}
}

func adminGet(path string) cli.ActionFunc {
	return func(c *cli.Context) error {
		p, flags, err := newPrinter(c)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(c, flags)
		defer cancel()

		var result map[string]any
		if err := connection.NewHTTPClient(flags.Admin).Get(ctx, path, &result); err != nil {
			return err
		}
		return p.print(numbers(result))
	}
}

// numbers turns whole JSON numbers back into integers so text output can
// group their digits.
func numbers(m map[string]any) map[string]any {
	for k, v := range m {
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			m[k] = int64(f)
		}
	}
	return m
}
