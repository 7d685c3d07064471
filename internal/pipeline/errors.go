package pipeline

import (
	"errors"
	"fmt"
)

// Fatal error kinds. Any of these aborts the whole invocation.
var (
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrPipe              = errors.New("pipe creation failed")
	ErrSpawn             = errors.New("spawn failed")
	ErrWait              = errors.New("wait failed")
)

// FatalError is an engine-level failure after which no further block runs.
type FatalError struct {
	Kind error // one of the Err* kinds above
	Err  error // underlying cause, may be nil
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *FatalError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fatal(kind, err error) *FatalError {
	return &FatalError{Kind: kind, Err: err}
}

// IsFatal reports whether err carries a *FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// CannotExecuteError reports a program that could not be started. It only
// affects its own stage.
type CannotExecuteError struct {
	Program string
	Err     error
}

func (e *CannotExecuteError) Error() string {
	return "cannot execute " + e.Program
}

func (e *CannotExecuteError) Unwrap() error { return e.Err }
