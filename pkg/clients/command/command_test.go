package command

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command/types"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupExecute(t *testing.T) Runner {
	return NewRunner(3*time.Second, logger.NewTestLogger(t))
}

func skipWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on sh")
	}
}

func TestExecuteCapturesOutput(t *testing.T) {
	skipWindows(t)
	e := setupExecute(t)

	r, err := e.Execute(types.RunOptions{
		Command: "sh",
		Args:    []string{"-c", "echo out; echo err 1>&2"},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, r.ExitCode)
	assert.True(t, r.Success())
	assert.Contains(t, r.Stdout, "out")
	assert.Contains(t, r.Stderr, "err")
}

func TestExecuteReturnsExitCodeWithoutCheck(t *testing.T) {
	skipWindows(t)
	e := setupExecute(t)

	r, err := e.Execute(types.RunOptions{
		Command: "sh",
		Args:    []string{"-c", "exit 3"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, r.ExitCode)
	assert.False(t, r.Success())
}

func TestExecuteReturnsCommandErrorWithCheck(t *testing.T) {
	skipWindows(t)
	e := setupExecute(t)

	_, err := e.Execute(types.RunOptions{
		Command: "sh",
		Args:    []string{"-c", "echo broken 1>&2; exit 1"},
		Check:   true,
	})

	require.Error(t, err)

	ce, ok := err.(*CommandError)
	require.True(t, ok)
	assert.Equal(t, 1, ce.Result.ExitCode)
	assert.Contains(t, ce.Result.Stderr, "broken")
}

func TestExecuteSetsEnvironment(t *testing.T) {
	skipWindows(t)
	e := setupExecute(t)

	r, err := e.Execute(types.RunOptions{
		Command: "sh",
		Args:    []string{"-c", "echo $TEST_VALUE"},
		Env:     []string{"TEST_VALUE=abc"},
	})

	require.NoError(t, err)
	assert.Contains(t, r.Stdout, "abc")
}

func TestExecuteLongRunningTimesOut(t *testing.T) {
	skipWindows(t)
	e := setupExecute(t)

	r, err := e.Execute(types.RunOptions{
		Command: "sh",
		Args:    []string{"-c", "sleep 10"},
		Timeout: 100 * time.Millisecond,
	})

	require.NoError(t, err)
	assert.Equal(t, -1, r.ExitCode)
	assert.Contains(t, r.Stderr, "timed out")
}

func TestExecuteTimeoutWithCheckReturnsError(t *testing.T) {
	skipWindows(t)
	e := setupExecute(t)

	_, err := e.Execute(types.RunOptions{
		Command: "sh",
		Args:    []string{"-c", "sleep 10"},
		Timeout: 100 * time.Millisecond,
		Check:   true,
	})

	require.Error(t, err)

	ce, ok := err.(*CommandError)
	require.True(t, ok)
	assert.Equal(t, -1, ce.Result.ExitCode)
}

func TestExecuteInvalidCommandReturnsError(t *testing.T) {
	e := setupExecute(t)

	_, err := e.Execute(types.RunOptions{Command: "nocommand"})
	assert.Error(t, err)
}

func TestExecuteBackgroundReturnsPid(t *testing.T) {
	skipWindows(t)
	e := setupExecute(t)

	lf := filepath.Join(t.TempDir(), "bg.log")
	pid, err := e.ExecuteBackground(types.RunOptions{
		Command:     "sh",
		Args:        []string{"-c", "sleep 10"},
		LogFilePath: lf,
	})

	require.NoError(t, err)
	assert.Greater(t, pid, 1)

	t.Cleanup(func() { e.Kill(pid) })

	s, err := e.Status(pid)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, s)
}

func TestKillRemovesProcessWhenRunning(t *testing.T) {
	skipWindows(t)
	e := setupExecute(t)

	lf := filepath.Join(t.TempDir(), "bg.log")
	pid, err := e.ExecuteBackground(types.RunOptions{
		Command:     "sh",
		Args:        []string{"-c", "sleep 10"},
		LogFilePath: lf,
	})

	require.NoError(t, err)

	err = e.Kill(pid)
	require.NoError(t, err)

	// killing an already stopped process is a no-op
	err = e.Kill(pid)
	require.NoError(t, err)
}
