package builtin

import (
	"errors"
	"io"
	"os"
)

// ErrBadArguments is returned when cd is not given exactly one path.
var ErrBadArguments = errors.New("cd: bad arguments")

// DirectoryChangeError reports a path cd could not change to.
type DirectoryChangeError struct {
	Path string
	Err  error
}

func (e *DirectoryChangeError) Error() string {
	return "cd: cannot change directory to " + e.Path
}

func (e *DirectoryChangeError) Unwrap() error { return e.Err }

// Cd changes the interpreter's working directory.
type Cd struct{}

var _ Builtin = (*Cd)(nil)

func (c *Cd) Name() string        { return "cd" }
func (c *Cd) Description() string { return "change the working directory" }

func (c *Cd) Validate(args []string) error {
	if len(args) != 1 {
		return ErrBadArguments
	}
	return nil
}

func (c *Cd) Run(args []string, _, _ io.Writer) error {
	if err := c.Validate(args); err != nil {
		return err
	}
	if err := os.Chdir(args[0]); err != nil {
		return &DirectoryChangeError{Path: args[0], Err: err}
	}
	return nil
}
