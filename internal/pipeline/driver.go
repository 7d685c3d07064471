package pipeline

import (
	"fmt"

	"go.uber.org/zap"
)

// Driver runs a whole token list: it splits it into blocks and executes
// them strictly in order.
type Driver struct {
	Executor *Executor

	// MaxCommands bounds the commands in one block; <= 0 means unbounded.
	MaxCommands int

	// PropagateStatus makes Run return the status of the last command of
	// the last block instead of ExitSuccess.
	PropagateStatus bool

	// Observer, if set, is called after each executed block.
	Observer func(Block, *BlockResult)

	Logger *zap.Logger
}

// NewDriver returns a driver with the default command bound.
func NewDriver(e *Executor, logger *zap.Logger) *Driver {
	return &Driver{
		Executor:    e,
		MaxCommands: DefaultMaxCommands,
		Logger:      logger,
	}
}

// Run executes tokens and returns the invocation's exit code. Empty blocks
// are skipped and a failing command never stops the sequence. A fatal
// condition writes "error: fatal" to stderr, stops immediately and returns
// ExitFailure together with the *FatalError.
func (d *Driver) Run(tokens []string) (int, error) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Blocks preceding an oversized one are still run, as the bound is
	// only hit once splitting reaches it.
	blocks, splitErr := Split(tokens, d.MaxCommands)

	code := ExitSuccess
	for i, b := range blocks {
		if len(b) == 0 {
			continue
		}
		log.Debug("block", zap.Int("index", i))
		res, err := d.Executor.RunBlock(b)
		if d.Observer != nil {
			d.Observer(b, res)
		}
		if err != nil {
			return d.fail(log, err)
		}
		if d.PropagateStatus {
			code = res.Last()
		}
	}
	if splitErr != nil {
		return d.fail(log, splitErr)
	}
	return code, nil
}

func (d *Driver) fail(log *zap.Logger, err error) (int, error) {
	fmt.Fprintln(d.Executor.stderr(), "error: fatal")
	log.Error("fatal", zap.Error(err))
	return ExitFailure, err
}
