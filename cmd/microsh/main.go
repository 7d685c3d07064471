package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/marcelocantos/microsh/internal/audit"
	"github.com/marcelocantos/microsh/internal/builtin"
	"github.com/marcelocantos/microsh/internal/cli"
	"github.com/marcelocantos/microsh/internal/config"
	"github.com/marcelocantos/microsh/internal/logging"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "microsh: config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "microsh: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	fs := afero.NewOsFs()
	app := &cli.App{
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Environ:  os.Environ(),
		Config:   cfg,
		Logger:   logger,
		Builtins: builtin.NewRegistry(),
		AuditFs:  fs,
		Version:  version,
	}

	if cfg.Audit.Enabled {
		al, err := audit.NewLogger(fs, cfg.Audit.Path)
		if err != nil {
			// Continue without audit logging.
			logger.Warn("audit disabled", zap.Error(err))
		} else {
			app.Audit = al
		}
	}

	return cli.Execute(app, os.Args[1:])
}
