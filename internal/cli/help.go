package cli

import (
	"fmt"
	"io"

	"github.com/marcelocantos/microsh/internal/pipeline"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "microsh: run pre-tokenized pipelines and command sequences")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "usage:")
	fmt.Fprintf(w, "  microsh <cmd> [args...] [%s <cmd> ...] [%s ...]   run blocks in order\n", pipeline.OpPipe, pipeline.OpSequential)
	fmt.Fprintln(w, "  microsh --command <line>                 split <line> like sh, then run it")
	fmt.Fprintln(w, "  microsh --audit <verify|show|tail [n]>   audit log operations")
	fmt.Fprintln(w, "  microsh --list                           list builtins")
	fmt.Fprintln(w, "  microsh --help                           show this help")
	fmt.Fprintln(w, "  microsh --version                        show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "operators (each a separate token):")
	fmt.Fprintf(w, "  %s  pipe (stdout -> stdin)\n", pipeline.OpPipe)
	fmt.Fprintf(w, "  %s  sequential (run next block after this one exits)\n", pipeline.OpSequential)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Program names without a slash are looked up in PATH. A program named")
	fmt.Fprintln(w, "like one of the switches above runs when given a path, e.g. ./--audit.")
}
