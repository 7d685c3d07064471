package audit

import "time"

// Entry is one line of the audit log, written once per invocation.
type Entry struct {
	Seq      uint64    `json:"seq"`
	ID       string    `json:"id"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Input    []string  `json:"input"`           // tokens as received
	Blocks   int       `json:"blocks"`          // non-empty blocks executed
	Programs []string  `json:"programs"`        // first token of each command run
	ExitCode int       `json:"exit_code"`
	Error    string    `json:"error,omitempty"` // fatal error, if any
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"` // working directory at start
	Hash     string    `json:"hash"`
}

// Record is what the caller knows about a finished invocation.
type Record struct {
	Input    []string
	Blocks   int
	Programs []string
	ExitCode int
	Err      error
	Duration time.Duration
	Cwd      string
}
