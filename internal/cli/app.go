package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marcelocantos/microsh/internal/audit"
	"github.com/marcelocantos/microsh/internal/builtin"
	"github.com/marcelocantos/microsh/internal/config"
)

// App carries everything one invocation needs. The zero values of Logger,
// Audit and Builtins are usable.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Environ is passed unchanged to every child process.
	Environ []string

	Config   *config.Config
	Logger   *zap.Logger
	Builtins *builtin.Registry

	// Audit records each engine run when non-nil. AuditFs is where
	// --audit reads the log from.
	Audit   *audit.Logger
	AuditFs afero.Fs

	Version string
}

// Execute runs one invocation with args (the tokens after the program name)
// and returns the process exit code.
func Execute(app *App, args []string) int {
	code := 0
	root := &cobra.Command{
		Use:   "microsh [tokens...]",
		Short: "run pre-tokenized pipelines and sequences",
		// Tokens such as -l or --color belong to the programs being run.
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code = app.dispatch(args)
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(app.Stdin)
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	root.SetArgs(args)

	// cobra answers __complete requests itself, even with no completion
	// command, so those tokens go straight to the engine.
	if len(args) > 0 && strings.HasPrefix(args[0], cobra.ShellCompRequestCmd) {
		return app.dispatch(args)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(app.Stderr, "microsh: %v\n", err)
		return 1
	}
	return code
}

func (app *App) dispatch(args []string) int {
	if len(args) == 1 {
		switch args[0] {
		case "--help":
			printUsage(app.Stdout)
			return 0
		case "--version":
			fmt.Fprintf(app.Stdout, "microsh %s\n", app.Version)
			return 0
		case "--list":
			return RunList(app.builtins(), app.Stdout)
		}
	}

	switch {
	case len(args) == 0:
		// Nothing to run; the driver reports success.
	case args[0] == "--audit":
		return RunAudit(app.Stdout, app.auditFs(), app.Config.Audit.Path, args[1:])
	case args[0] == "--command" && len(args) == 2:
		tokens, err := shlex.Split(args[1], true)
		if err != nil {
			fmt.Fprintf(app.Stderr, "microsh: --command: %v\n", err)
			return 1
		}
		return RunTokens(app, tokens)
	}
	return RunTokens(app, args)
}

func (app *App) builtins() *builtin.Registry {
	if app.Builtins == nil {
		app.Builtins = builtin.NewRegistry()
	}
	return app.Builtins
}

func (app *App) auditFs() afero.Fs {
	if app.AuditFs == nil {
		return afero.NewOsFs()
	}
	return app.AuditFs
}

func (app *App) log() *zap.Logger {
	if app.Logger == nil {
		return zap.NewNop()
	}
	return app.Logger
}
