package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/cli/config"
	"github.com/yndnr/minikv/internal/cli/connection"
	"github.com/yndnr/minikv/internal/cli/output"
	"github.com/yndnr/minikv/internal/infra/buildinfo"
)

const (
	metaManager = "connMgr"
	metaConfig  = "cliConfig"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "minikv-cli",
		Usage:   "command-line client for minikv",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			GetCommand(),
			SetCommand(),
			DelCommand(),
			TTLCommand(),
			PublishCommand(),
			SubscribeCommand(),
			StatsCommand(),
			GCCommand(),
			HealthCommand(),
			VersionCommand(),
			ReplCommand(),
		},
		Action: replAction,
		Before: before,
		After: func(c *cli.Context) error {
			if mgr := GetConnectionManager(c); mgr != nil {
				return mgr.Close()
			}
			return nil
		},
		Metadata: map[string]any{},
	}
}

// globalFlags returns the global CLI flags. Defaults come from the CLI
// config file, so none are set here.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "minikv server address (default " + config.DefaultServer + ")",
			EnvVars: []string{"MINIKV_SERVER"},
		},
		&cli.StringFlag{
			Name:    "admin",
			Usage:   "admin HTTP address (default " + config.DefaultAdmin + ")",
			EnvVars: []string{"MINIKV_ADMIN"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
			EnvVars: []string{"MINIKV_OUTPUT"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "named server profile from the config file",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			Value:   config.DefaultConfigPath(),
			EnvVars: []string{"MINIKV_CLI_CONFIG"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout",
			Value: 10 * time.Second,
		},
	}
}

// GlobalFlags are the resolved global settings.
type GlobalFlags struct {
	Server  string
	Admin   string
	Output  output.Format
	Timeout time.Duration
}

// before loads the config file, resolves flags against it and prepares
// the connection manager.
func before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	c.App.Metadata[metaConfig] = cfg

	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	c.App.Metadata[metaManager] = connection.NewManager(flags.Server)
	return nil
}

// ParseGlobalFlags resolves the global flags. Precedence: flag or
// environment, then --profile, then the config file.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := loadedConfig(c)

	server, admin := cfg.Server, cfg.Admin
	if name := c.String("profile"); name != "" {
		p, err := cfg.Profile(name)
		if err != nil {
			return nil, err
		}
		server, admin = p.Server, p.Admin
	}
	if c.IsSet("server") {
		server = c.String("server")
	}
	if c.IsSet("admin") {
		admin = c.String("admin")
	}

	outName := cfg.Output
	if c.IsSet("output") {
		outName = c.String("output")
	}
	format, err := output.ParseFormat(outName)
	if err != nil {
		return nil, err
	}

	return &GlobalFlags{
		Server:  server,
		Admin:   admin,
		Output:  format,
		Timeout: c.Duration("timeout"),
	}, nil
}

func loadedConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// GetConnectionManager retrieves the connection manager from context.
func GetConnectionManager(c *cli.Context) *connection.Manager {
	if mgr, ok := c.App.Metadata[metaManager].(*connection.Manager); ok {
		return mgr
	}
	return nil
}

// printer writes values in the selected format to the app writer.
type printer struct {
	w io.Writer
	f output.Formatter
}

func newPrinter(c *cli.Context) (*printer, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	w := c.App.Writer
	if w == nil {
		w = os.Stdout
	}
	return &printer{w: w, f: output.NewFormatter(flags.Output)}, flags, nil
}

func (p *printer) print(v any) error {
	return p.f.Format(p.w, v)
}

// requestContext bounds one request by --timeout.
func requestContext(c *cli.Context, flags *GlobalFlags) (context.Context, context.CancelFunc) {
	if flags.Timeout <= 0 {
		return context.WithCancel(c.Context)
	}
	return context.WithTimeout(c.Context, flags.Timeout)
}

// exactArgs fails unless the command got n arguments.
func exactArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return cli.Exit(fmt.Sprintf("%s: expected %d argument(s), got %d\nUsage: %s %s",
			c.Command.Name, n, c.NArg(), c.Command.Name, c.Command.ArgsUsage), 2)
	}
	return nil
}

// minArgs fails unless the command got at least n arguments.
func minArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return cli.Exit(fmt.Sprintf("%s: expected at least %d argument(s), got %d\nUsage: %s %s",
			c.Command.Name, n, c.NArg(), c.Command.Name, c.Command.ArgsUsage), 2)
	}
	return nil
}
