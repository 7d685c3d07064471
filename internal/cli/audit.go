package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/marcelocantos/microsh/internal/audit"
)

const defaultTail = 20

var (
	colorOK   = color.New(color.FgGreen, color.Bold)
	colorFail = color.New(color.FgRed, color.Bold)
)

// RunAudit handles microsh --audit.
func RunAudit(w io.Writer, fs afero.Fs, logPath string, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(w, "usage: microsh --audit <verify|show|tail [n]>")
		return 1
	}

	switch args[0] {
	case "verify":
		if err := audit.Verify(fs, logPath); err != nil {
			colorFail.Fprintf(w, "audit verification FAILED: %v\n", err)
			return 1
		}
		colorOK.Fprintln(w, "audit log integrity verified")
		return 0

	case "show":
		entries, err := audit.Tail(fs, logPath, defaultTail)
		if err != nil {
			fmt.Fprintf(w, "microsh audit: %v\n", err)
			return 1
		}
		if len(entries) == 0 {
			fmt.Fprintln(w, "no audit entries")
			return 0
		}
		for _, e := range entries {
			data, _ := json.MarshalIndent(e, "", "  ")
			fmt.Fprintf(w, "%s\n", data)
		}
		return 0

	case "tail":
		n := defaultTail
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v < 0 {
				fmt.Fprintf(w, "microsh audit: bad count %q\n", args[1])
				return 1
			}
			n = v
		}
		entries, err := audit.Tail(fs, logPath, n)
		if err != nil {
			fmt.Fprintf(w, "microsh audit: %v\n", err)
			return 1
		}
		for _, e := range entries {
			printEntry(w, e)
		}
		return 0

	default:
		fmt.Fprintf(w, "microsh audit: unknown subcommand %q\n", args[0])
		return 1
	}
}

// printEntry writes one entry on a single line: sequence, time, exit code
// and the input tokens.
func printEntry(w io.Writer, e audit.Entry) {
	status := colorOK.Sprintf("%3d", e.ExitCode)
	if e.ExitCode != 0 || e.Error != "" {
		status = colorFail.Sprintf("%3d", e.ExitCode)
	}
	fmt.Fprintf(w, "%6d  %s  %s  %s", e.Seq, e.Time.Format("2006-01-02T15:04:05Z"), status, strings.Join(e.Input, " "))
	if e.Error != "" {
		fmt.Fprintf(w, "  (%s)", e.Error)
	}
	fmt.Fprintln(w)
}
