//go:build !unix

package pipeline

import "os"

func isResourceError(error) bool { return false }

func exitStatus(state *os.ProcessState) int {
	if state == nil || state.ExitCode() < 0 {
		return 1
	}
	return state.ExitCode()
}
