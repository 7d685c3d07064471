package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/marcelocantos/microsh/internal/audit"
	"github.com/marcelocantos/microsh/internal/config"
)

const helperEnv = "MICROSH_TEST_HELPER"

func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		os.Exit(runHelper(os.Args[1:]))
	}
	color.NoColor = true
	goleak.VerifyTestMain(m)
}

// runHelper implements two helper programs: "echo ARGS..." and "upper",
// which copies stdin to stdout in upper case. With no arguments it prints
// "helper" and exits 3.
func runHelper(args []string) int {
	if len(args) == 0 {
		fmt.Println("helper")
		return 3
	}
	switch args[0] {
	case "echo":
		fmt.Println(strings.Join(args[1:], " "))
	case "upper":
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			fmt.Println(strings.ToUpper(sc.Text()))
		}
	default:
		return 2
	}
	return 0
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func helperExe(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	return exe
}

// newTestApp returns an app that runs children in helper mode and keeps
// its audit log in memory.
func newTestApp(t *testing.T) (*App, *syncBuffer, *syncBuffer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	cfg := config.DefaultConfig()
	cfg.Audit.Path = "/audit.jsonl"

	al, err := audit.NewLogger(fs, cfg.Audit.Path)
	require.NoError(t, err)

	var stdout, stderr syncBuffer
	return &App{
		Stdin:   strings.NewReader(""),
		Stdout:  &stdout,
		Stderr:  &stderr,
		Environ: append(os.Environ(), helperEnv+"=1"),
		Config:  cfg,
		Audit:   al,
		AuditFs: fs,
		Version: "1.2.3",
	}, &stdout, &stderr
}

func TestExecuteNoTokensSucceeds(t *testing.T) {
	for _, args := range [][]string{nil, {}} {
		app, stdout, stderr := newTestApp(t)
		assert.Equal(t, 0, Execute(app, args))
		assert.Empty(t, stdout.String())
		assert.Empty(t, stderr.String())
	}
}

// Completion request names are ordinary program names to the engine.
func TestExecuteCompletionTokensAreInput(t *testing.T) {
	for _, name := range []string{"__complete", "__completeNoDesc"} {
		app, stdout, stderr := newTestApp(t)
		assert.Equal(t, 0, Execute(app, []string{name, "x"}))
		assert.Empty(t, stdout.String())
		assert.Equal(t, "error: cannot execute "+name+"\n", stderr.String())
	}
}

// A program named like a switch is reachable through a path.
func TestExecuteSwitchNamedProgramByPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Symlink(helperExe(t), filepath.Join(dir, "--version")))
	testChdir(t, dir)

	app, stdout, stderr := newTestApp(t)
	app.Config.PropagateStatus = true
	assert.Equal(t, 3, Execute(app, []string{"./--version"}))
	assert.Equal(t, "helper\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestExecuteHelp(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	require.Equal(t, 0, Execute(app, []string{"--help"}))

	g := goldie.New(t)
	g.Assert(t, "usage", []byte(stdout.String()))
}

func TestExecuteVersion(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	assert.Equal(t, 0, Execute(app, []string{"--version"}))
	assert.Equal(t, "microsh 1.2.3\n", stdout.String())
}

func TestExecuteList(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	assert.Equal(t, 0, Execute(app, []string{"--list"}))
	assert.Equal(t, "cd       change the working directory\n", stdout.String())
}

// A switch that is not the only token is ordinary engine input.
func TestExecuteSwitchWithOtherTokensIsInput(t *testing.T) {
	app, _, stderr := newTestApp(t)
	assert.Equal(t, 0, Execute(app, []string{"--help", "me"}))
	assert.Equal(t, "error: cannot execute --help\n", stderr.String())
}

func TestExecutePipeline(t *testing.T) {
	app, stdout, stderr := newTestApp(t)
	exe := helperExe(t)

	code := Execute(app, []string{exe, "echo", "hello", "-n", "|", exe, "upper", ";", "cd"})
	assert.Equal(t, 0, code)
	assert.Equal(t, "HELLO -N\n", stdout.String())
	assert.Equal(t, "error: cd: bad arguments\n", stderr.String())

	entries, err := audit.Tail(app.AuditFs, app.Config.Audit.Path, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, 2, e.Blocks)
	assert.Equal(t, []string{exe, exe, "cd"}, e.Programs)
	assert.Equal(t, 0, e.ExitCode)
	assert.Empty(t, e.Error)
	assert.NoError(t, audit.Verify(app.AuditFs, app.Config.Audit.Path))
}

func TestExecuteCommandString(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	exe := helperExe(t)

	line := fmt.Sprintf("'%s' echo 'two words' | '%s' upper", exe, exe)
	assert.Equal(t, 0, Execute(app, []string{"--command", line}))
	assert.Equal(t, "TWO WORDS\n", stdout.String())
}

func TestExecuteCommandStringUnterminatedQuote(t *testing.T) {
	app, stdout, stderr := newTestApp(t)
	assert.Equal(t, 1, Execute(app, []string{"--command", "echo 'oops"}))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "microsh: --command:")
}

func TestExecuteFatalIsAudited(t *testing.T) {
	app, _, stderr := newTestApp(t)
	app.Config.MaxCommands = 1
	exe := helperExe(t)

	code := Execute(app, []string{exe, "echo", "a", "|", exe, "upper"})
	assert.Equal(t, 1, code)
	assert.Equal(t, "error: fatal\n", stderr.String())

	entries, err := audit.Tail(app.AuditFs, app.Config.Audit.Path, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].ExitCode)
	assert.Contains(t, entries[0].Error, "resource exhausted")
}

func TestExecutePropagateStatus(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Config.PropagateStatus = true
	assert.Equal(t, 2, Execute(app, []string{helperExe(t), "bogus-mode"}))
}

func TestExecuteWithoutAudit(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	app.Audit = nil
	assert.Equal(t, 0, Execute(app, []string{helperExe(t), "echo", "ok"}))
	assert.Equal(t, "ok\n", stdout.String())
}

func TestAuditCommands(t *testing.T) {
	app, _, _ := newTestApp(t)
	exe := helperExe(t)
	Execute(app, []string{exe, "echo", "one"})
	Execute(app, []string{exe, "echo", "two"})

	var out bytes.Buffer
	assert.Equal(t, 0, RunAudit(&out, app.AuditFs, app.Config.Audit.Path, []string{"verify"}))
	assert.Equal(t, "audit log integrity verified\n", out.String())

	out.Reset()
	assert.Equal(t, 0, RunAudit(&out, app.AuditFs, app.Config.Audit.Path, []string{"tail", "1"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], exe+" echo two")

	out.Reset()
	assert.Equal(t, 0, RunAudit(&out, app.AuditFs, app.Config.Audit.Path, []string{"show"}))
	assert.Contains(t, out.String(), `"seq": 2`)

	out.Reset()
	assert.Equal(t, 1, RunAudit(&out, app.AuditFs, app.Config.Audit.Path, []string{"tail", "x"}))
	out.Reset()
	assert.Equal(t, 1, RunAudit(&out, app.AuditFs, app.Config.Audit.Path, []string{"rotate"}))
	out.Reset()
	assert.Equal(t, 1, RunAudit(&out, app.AuditFs, app.Config.Audit.Path, nil))
}

func TestAuditVerifyReportsTampering(t *testing.T) {
	app, _, _ := newTestApp(t)
	Execute(app, []string{helperExe(t), "echo", "draft"})

	data, err := afero.ReadFile(app.AuditFs, app.Config.Audit.Path)
	require.NoError(t, err)
	data = bytes.Replace(data, []byte("draft"), []byte("modified"), 1)
	require.NoError(t, afero.WriteFile(app.AuditFs, app.Config.Audit.Path, data, 0o600))

	var out bytes.Buffer
	assert.Equal(t, 1, Execute(&App{
		Stdout:  &out,
		Stderr:  &out,
		Config:  app.Config,
		AuditFs: app.AuditFs,
	}, []string{"--audit", "verify"}))
	assert.Contains(t, out.String(), "audit verification FAILED")
}
