package pipeline

// Control tokens recognised by the splitter. Every other token is a program
// name or an argument.
const (
	OpPipe       = "|" // stdout of the left command feeds stdin of the right
	OpSequential = ";" // run the next block after this one finishes
)

// DefaultMaxCommands bounds the number of commands in one block.
const DefaultMaxCommands = 1024

// Exit codes reported by the driver.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Command is one program invocation: the program (or builtin) name followed
// by its arguments, in token order.
type Command []string

// Name returns the program or builtin name.
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Block is a sequence of commands joined by pipes. It may be empty when
// separators are adjacent.
type Block []Command

// Argv returns the block as plain string slices.
func (b Block) Argv() [][]string {
	out := make([][]string, len(b))
	for i, c := range b {
		out[i] = c
	}
	return out
}

// Names returns the program name of each command.
func (b Block) Names() []string {
	names := make([]string, len(b))
	for i, c := range b {
		names[i] = c.Name()
	}
	return names
}

// BlockResult holds the exit status of each stage of a block, indexed like
// the block's commands. A builtin block has a single entry.
type BlockResult struct {
	Statuses []int
}

// Last returns the status of the final stage, or 0 for an empty result.
func (r *BlockResult) Last() int {
	if r == nil || len(r.Statuses) == 0 {
		return 0
	}
	return r.Statuses[len(r.Statuses)-1]
}
