package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlosnayan/sqlpp"
	"github.com/carlosnayan/sqlpp/cli"
	"github.com/carlosnayan/sqlpp/internal/config"
	"github.com/carlosnayan/sqlpp/internal/logger"
)

var (
	configFile string
	verbose    bool
)

var app *cli.App

// openConnection connects as cfg says. Tests replace it to reach a fake
// server.
var openConnection = func(ctx context.Context, cfg *config.Config) (*sqlpp.Connection, error) {
	return sqlpp.OpenConfig(ctx, cfg,
		sqlpp.WithErrorMode(sqlpp.ReturnErrors),
		sqlpp.WithLogger(logger.GetDefaultLogger()),
	)
}

// commandContext is cancelled on interrupt. Tests replace it.
var commandContext = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Execute runs the CLI application
func Execute() error {
	return newApp(os.Stdout, os.Stderr).Execute()
}

func newApp(out, errOut io.Writer) *cli.App {
	configFile, verbose = "", false

	app = cli.NewApp(
		"sqlpp",
		sqlpp.Version,
		"Run statements and administer a database through sqlpp",
	)
	app.Out, app.Err = out, errOut

	app.AddGlobalFlag(&cli.Flag{
		Name:  "config",
		Short: "c",
		Usage: "Path to configuration file (default: sqlpp.toml or sqlpp.yaml)",
		Value: &configFile,
	})
	app.AddGlobalFlag(&cli.Flag{
		Name:  "verbose",
		Short: "v",
		Usage: "Verbose mode (log every statement)",
		Value: &verbose,
	})

	app.AddCommand(execCmd)
	app.AddCommand(fieldinfoCmd)
	app.AddCommand(resetdbCmd)
	app.AddCommand(pingCmd)
	app.AddCommand(statusCmd)
	app.AddCommand(killCmd)
	app.AddCommand(shutdownCmd)
	return app
}

// loadConfig loads the configuration file named by --config, or the first
// one found walking up from the working directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log = []string{"query", "info", "warn", "error"}
	}
	if len(cfg.Log) > 0 {
		logger.SetLogLevels(cfg.Log)
		logger.SetLogWriter(app.Err)
	}
	return cfg, nil
}

// connect loads the configuration and opens a connection.
func connect(ctx context.Context) (*config.Config, *sqlpp.Connection, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	conn, err := openConnection(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}
	return cfg, conn, nil
}
