package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/urfave/cli/v2"
)

// Load runs the full config file/env/CLI-flag merge and returns validated
// Options. An environment or validation failure is returned as a
// *ConfigError; a config-file decode or flag-parsing error is returned as
// a plain error.
// args is the process argv, e.g. os.Args.
func Load(args []string) (*Options, error) {
	var result *Options
	var resultErr error

	app := &cli.App{
		Name:  "pori",
		Usage: "reverse HTTP tunnel client",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"yml"}, Usage: "path to a YAML/TOML/JSON config file"},
			&cli.StringFlag{Name: "url", Usage: "websocket tunnel endpoint"},
			&cli.StringFlag{Name: "token", Usage: "auth token"},
			&cli.StringFlag{Name: "protocol", Usage: "local origin scheme (http|https)"},
			&cli.IntFlag{Name: "port", Usage: "local origin TCP port"},
			&cli.IntFlag{Name: "dashboardPort", Usage: "dashboard HTTP listen port"},
			&cli.IntFlag{Name: "timeout", Usage: "seconds; applies to WS connect and local HTTP deadline"},
			&cli.IntFlag{Name: "maxReconnects", Usage: "0 = unbounded"},
			&cli.BoolFlag{Name: "verifySsl", Usage: "TLS peer verification for local origin"},
			&cli.IntFlag{Name: "maxConnections", Usage: "per-host pool cap for local HTTP client"},
			&cli.StringFlag{Name: "httpVersion", Usage: "auto|http1|http2"},
			&cli.BoolFlag{Name: "noDashboard", Usage: "suppress dashboard server"},
			&cli.StringFlag{Name: "logLevel", Usage: "error|warn|info|debug|trace"},
		},
		Action: func(ctx *cli.Context) error {
			o := Default()

			configPath := ctx.String("config")
			if configPath == "" {
				configPath = findDefaultConfigFile()
			}
			if configPath != "" {
				if err := loadFile(configPath, &o); err != nil {
					resultErr = err
					return nil
				}
			}
			// cleanenv.ReadConfig already applied the env overlay for
			// yaml/yml/json files; re-running it is a no-op for those and
			// is the only env pass for the toml branch and the no-file case.
			if err := cleanenv.ReadEnv(&o); err != nil {
				resultErr = &ConfigError{Reason: "reading environment: " + err.Error()}
				return nil
			}

			applyCLIOverrides(ctx, &o)

			if err := o.Validate(); err != nil {
				resultErr = err
				return nil
			}
			result = &o
			return nil
		},
	}

	if err := app.Run(args); err != nil {
		return nil, err
	}
	if resultErr != nil {
		return nil, resultErr
	}
	return result, nil
}

// applyCLIOverrides copies every explicitly-set CLI flag onto o, which is
// the highest layer of the config<env<CLI precedence chain.
func applyCLIOverrides(ctx *cli.Context, o *Options) {
	if ctx.IsSet("url") {
		o.URL = ctx.String("url")
	}
	if ctx.IsSet("token") {
		o.Token = ctx.String("token")
	}
	if ctx.IsSet("protocol") {
		o.Protocol = ctx.String("protocol")
	}
	if ctx.IsSet("port") {
		o.Port = ctx.Int("port")
	}
	if ctx.IsSet("dashboardPort") {
		o.DashboardPort = ctx.Int("dashboardPort")
	}
	if ctx.IsSet("timeout") {
		o.Timeout = ctx.Int("timeout")
	}
	if ctx.IsSet("maxReconnects") {
		o.MaxReconnects = ctx.Int("maxReconnects")
	}
	if ctx.IsSet("verifySsl") {
		o.VerifySSL = ctx.Bool("verifySsl")
	}
	if ctx.IsSet("maxConnections") {
		o.MaxConnections = ctx.Int("maxConnections")
	}
	if ctx.IsSet("httpVersion") {
		o.HTTPVersion = ctx.String("httpVersion")
	}
	if ctx.IsSet("noDashboard") {
		o.NoDashboard = ctx.Bool("noDashboard")
	}
	if ctx.IsSet("logLevel") {
		o.LogLevel = ctx.String("logLevel")
	}
}
