package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/marcelocantos/microsh/internal/builtin"
)

// Executor runs one block at a time as a chain of OS processes.
type Executor struct {
	// Env is passed unchanged to every child. nil inherits the interpreter's
	// environment, as with exec.Cmd.
	Env []string

	// Stdin feeds the first command, Stdout receives the last command's
	// output and Stderr is shared by every command. A nil Stdin or Stdout
	// is connected to the null device.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Builtins is consulted for single-command blocks. May be nil.
	Builtins *builtin.Registry

	// PathLookup resolves names without a slash through the PATH in Env.
	// When false the first token is executed literally.
	PathLookup bool

	Logger *zap.Logger

	// Process hooks; nil means os.Pipe, (*exec.Cmd).Start and
	// (*exec.Cmd).Wait.
	newPipe   func() (*os.File, *os.File, error)
	startProc func(*exec.Cmd) error
	waitProc  func(*exec.Cmd) error
}

// NewExecutor returns an executor wired to the process's standard streams.
func NewExecutor(env []string, builtins *builtin.Registry, logger *zap.Logger) *Executor {
	return &Executor{
		Env:        env,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Builtins:   builtins,
		PathLookup: true,
		Logger:     logger,
		newPipe:    os.Pipe,
	}
}

func (e *Executor) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Executor) stderr() io.Writer {
	if e.Stderr == nil {
		return io.Discard
	}
	return e.Stderr
}

// RunBlock executes block and waits for every process it started.
//
// A single command naming a builtin runs in-process. Otherwise one child is
// started per command, stdout of command k connected to stdin of command k+1.
// A pipe is created just before its producer starts, and the parent drops its
// copies of both ends as soon as the children that need them exist, so EOF
// reaches each reader when its writer exits.
//
// A command that cannot be started is reported on stderr and recorded with
// status 1; the rest of the block still runs. The returned error is always a
// *FatalError (pipe, spawn or wait failure); in that case every child already
// started has been killed and reaped.
func (e *Executor) RunBlock(block Block) (*BlockResult, error) {
	log := e.log()
	n := len(block)
	if n == 0 {
		return &BlockResult{}, nil
	}

	if handled, err := e.Builtins.Dispatch(block.Argv(), e.Stdout, e.stderr()); handled {
		status := 0
		if err != nil {
			status = 1
		}
		log.Debug("builtin", zap.String("name", block[0].Name()), zap.Error(err))
		return &BlockResult{Statuses: []int{status}}, nil
	}

	log.Debug("run block", zap.Int("commands", n), zap.Strings("programs", block.Names()))

	result := &BlockResult{Statuses: make([]int, n)}
	procs := make([]*exec.Cmd, n)
	var prev, cur *pipeEnds

	abort := func(err *FatalError) (*BlockResult, error) {
		prev.close()
		cur.close()
		for _, c := range procs {
			if c != nil {
				_ = c.Process.Kill()
				_ = e.wait(c)
			}
		}
		log.Warn("block aborted", zap.Error(err))
		return result, err
	}

	for i, cmd := range block {
		cur = nil
		if i < n-1 {
			p, err := newPipeEnds(e.pipeFunc())
			if err != nil {
				return abort(fatal(ErrPipe, err))
			}
			cur = p
		}

		c, err := e.start(cmd, prev, cur)

		// The child now holds its own duplicates.
		prev.closeRead()
		cur.closeWrite()

		var fe *FatalError
		switch {
		case errors.As(err, &fe):
			return abort(fe)
		case err != nil:
			fmt.Fprintf(e.stderr(), "error: %v\n", err)
			log.Debug("cannot execute", zap.Int("stage", i), zap.Error(errors.Unwrap(err)))
			result.Statuses[i] = 1
		default:
			procs[i] = c
			log.Debug("started", zap.Int("stage", i), zap.String("path", c.Path), zap.Int("pid", c.Process.Pid))
		}
		prev = cur
	}

	var waitErr error
	for i, c := range procs {
		if c == nil {
			continue
		}
		err := e.wait(c)
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			result.Statuses[i] = 0
		case errors.As(err, &exitErr):
			result.Statuses[i] = exitStatus(exitErr.ProcessState)
		default:
			result.Statuses[i] = 1
			if waitErr == nil {
				waitErr = fmt.Errorf("stage %d (%s): %w", i, block[i].Name(), err)
			}
		}
	}
	log.Debug("block done", zap.Ints("statuses", result.Statuses))

	if waitErr != nil {
		err := fatal(ErrWait, waitErr)
		log.Warn("wait failed", zap.Error(err))
		return result, err
	}
	return result, nil
}

func (e *Executor) pipeFunc() func() (*os.File, *os.File, error) {
	if e.newPipe == nil {
		return os.Pipe
	}
	return e.newPipe
}

func (e *Executor) wait(c *exec.Cmd) error {
	if e.waitProc == nil {
		return c.Wait()
	}
	return e.waitProc(c)
}

// start launches one command. in and out are the boundaries on either side;
// nil means the executor's own stream.
func (e *Executor) start(cmd Command, in, out *pipeEnds) (*exec.Cmd, error) {
	name := cmd.Name()
	path := name
	if e.PathLookup {
		p, err := lookPath(name, e.Env)
		if err != nil {
			return nil, &CannotExecuteError{Program: name, Err: err}
		}
		path = p
	}

	c := &exec.Cmd{
		Path:   path,
		Args:   cmd,
		Env:    e.Env,
		Stdin:  e.Stdin,
		Stdout: e.Stdout,
		Stderr: e.Stderr,
	}
	if in != nil {
		c.Stdin = in.r
	}
	if out != nil {
		c.Stdout = out.w
	}

	startProc := e.startProc
	if startProc == nil {
		startProc = (*exec.Cmd).Start
	}
	if err := startProc(c); err != nil {
		if isResourceError(err) {
			return nil, fatal(ErrSpawn, err)
		}
		return nil, &CannotExecuteError{Program: name, Err: err}
	}
	return c, nil
}
