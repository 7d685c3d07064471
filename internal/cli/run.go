package cli

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/marcelocantos/microsh/internal/audit"
	"github.com/marcelocantos/microsh/internal/pipeline"
)

// RunTokens executes tokens through the driver and returns the exit code.
// The invocation is written to the audit log when one is configured.
func RunTokens(app *App, tokens []string) int {
	cfg := app.Config
	log := app.log()

	e := pipeline.NewExecutor(app.Environ, app.builtins(), log)
	e.Stdin = app.Stdin
	e.Stdout = app.Stdout
	e.Stderr = app.Stderr
	e.PathLookup = cfg.PathLookup

	d := pipeline.NewDriver(e, log)
	d.MaxCommands = cfg.MaxCommands
	d.PropagateStatus = cfg.PropagateStatus

	var blocks int
	programs := []string{}
	d.Observer = func(b pipeline.Block, _ *pipeline.BlockResult) {
		blocks++
		programs = append(programs, b.Names()...)
	}

	cwd, _ := os.Getwd()
	start := time.Now()
	code, err := d.Run(tokens)

	logAudit(app, audit.Record{
		Input:    tokens,
		Blocks:   blocks,
		Programs: programs,
		ExitCode: code,
		Err:      err,
		Duration: time.Since(start),
		Cwd:      cwd,
	})
	return code
}

// logAudit is best-effort: a failed write never changes the exit code.
func logAudit(app *App, r audit.Record) {
	if app.Audit == nil {
		return
	}
	if err := app.Audit.Log(r); err != nil {
		app.log().Warn("audit", zap.Error(err))
	}
}
