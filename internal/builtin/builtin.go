package builtin

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Builtin is a command implemented inside the interpreter process rather than
// by spawning a program. Builtins exist for effects a child process cannot
// have on its parent, such as changing the working directory.
type Builtin interface {
	// Name returns the token that invokes the builtin.
	Name() string

	// Description returns a one-line summary for help output.
	Description() string

	// Validate checks the arguments (excluding the name) before Run.
	Validate(args []string) error

	// Run executes the builtin synchronously in the calling process.
	Run(args []string, stdout, stderr io.Writer) error
}

// Registry maps builtin names to implementations.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry returns a registry holding the standard builtins.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	r.Register(&Cd{})
	return r
}

// NewEmptyRegistry returns a registry with no builtins.
func NewEmptyRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds a builtin, replacing any with the same name.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name()] = b
}

// Lookup returns a builtin by name.
func (r *Registry) Lookup(name string) (Builtin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin: %q", name)
	}
	return b, nil
}

// All returns all registered builtins sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Dispatch runs block as a builtin if it consists of exactly one command
// whose first token names a registered builtin. It reports whether the block
// was handled. Builtins are not recognised inside multi-command blocks; such
// commands fall through to program lookup.
//
// A builtin failure is written to stderr as "error: <msg>" and returned; it
// never aborts the caller.
func (r *Registry) Dispatch(block [][]string, stdout, stderr io.Writer) (bool, error) {
	if r == nil || len(block) != 1 || len(block[0]) == 0 {
		return false, nil
	}
	b, err := r.Lookup(block[0][0])
	if err != nil {
		return false, nil
	}

	args := block[0][1:]
	err = b.Validate(args)
	if err == nil {
		err = b.Run(args, stdout, stderr)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return true, err
}
