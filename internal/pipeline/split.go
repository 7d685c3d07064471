package pipeline

import "fmt"

// Split turns a flat token list into blocks of piped commands.
//
// A ";" ends the current block, even an empty one, so adjacent, leading or
// trailing separators yield empty blocks. There is always one more block than
// there are ";" tokens. A "|" ends the current command.
// Empty commands (leading "|", "| |", "|" before ";" or at end of input) are
// dropped rather than returned with zero tokens.
//
// When a block would exceed maxCommands commands, Split returns the blocks
// completed before it together with a *FatalError wrapping
// ErrResourceExhausted. A maxCommands of zero or less disables the bound.
// Commands share backing storage with tokens.
func Split(tokens []string, maxCommands int) ([]Block, error) {
	var (
		blocks []Block
		block  Block
		start  = 0
	)

	endCommand := func(end int) error {
		if end > start {
			if maxCommands > 0 && len(block) >= maxCommands {
				return fatal(ErrResourceExhausted,
					fmt.Errorf("block %d has more than %d commands", len(blocks), maxCommands))
			}
			block = append(block, Command(tokens[start:end:end]))
		}
		start = end + 1
		return nil
	}

	for i, tok := range tokens {
		switch tok {
		case OpPipe:
			if err := endCommand(i); err != nil {
				return blocks, err
			}
		case OpSequential:
			if err := endCommand(i); err != nil {
				return blocks, err
			}
			blocks = append(blocks, block)
			block = nil
		}
	}
	if err := endCommand(len(tokens)); err != nil {
		return blocks, err
	}
	return append(blocks, block), nil
}
