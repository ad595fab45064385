package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/jumppad-labs/gohup"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/command/types"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
)

var ErrorCommandTimeout = fmt.Errorf("Command timed out before completing")

// Process states returned by Status
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

//go:generate mockery --name Runner --filename command.go
type Runner interface {
	// Execute runs a command to completion and captures its output
	Execute(config types.RunOptions) (types.CommandResult, error)

	// ExecuteBackground starts a long running command and returns its pid,
	// output is written to the logfile given in the options
	ExecuteBackground(config types.RunOptions) (int, error)

	// Status reports whether the process with the given pid is still running
	Status(pid int) (string, error)

	// Kill a process with the given pid
	Kill(pid int) error
}

// RunnerImpl executes local commands
type RunnerImpl struct {
	timeout time.Duration
	log     logger.Logger
}

// NewRunner creates a new command runner with the given logger and maximum
// command time, the timeout is used when the options do not set one
func NewRunner(maxCommandTime time.Duration, l logger.Logger) Runner {
	return &RunnerImpl{maxCommandTime, l}
}

// Execute the given command and wait for completion
func (c *RunnerImpl) Execute(config types.RunOptions) (types.CommandResult, error) {
	timeout := c.timeout
	if config.Timeout != (0 * time.Millisecond) {
		timeout = config.Timeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, config.Command, config.Args...)

	if config.WorkingDirectory != "" {
		cmd.Dir = config.WorkingDirectory
	}

	// add any environment variable overrides to the ambient environment
	if len(config.Env) > 0 {
		cmd.Env = append(os.Environ(), config.Env...)
	}

	stdout := bytes.NewBufferString("")
	stderr := bytes.NewBufferString("")
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	c.log.Debug(
		"Running command",
		"cmd", config.Command,
		"args", config.Args,
		"dir", config.WorkingDirectory,
		"env", config.Env,
	)

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		// the process was killed by the timeout, return a synthetic result
		r := types.CommandResult{
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   fmt.Sprintf("command timed out after %s", timeout),
		}

		if config.Check {
			return r, NewCommandError(config, r)
		}

		return r, nil
	}

	if err != nil {
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			// the command could not be started at all
			return types.CommandResult{ExitCode: -1, Stderr: err.Error()}, err
		}
	}

	r := types.CommandResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if config.Check && !r.Success() {
		return r, NewCommandError(config, r)
	}

	return r, nil
}

// ExecuteBackground starts the given command detached from the current
// process, output is streamed to the logfile set in the options
func (c *RunnerImpl) ExecuteBackground(config types.RunOptions) (int, error) {
	lp := &gohup.LocalProcess{}
	o := gohup.Options{
		Path:    config.Command,
		Args:    config.Args,
		Env:     config.Env,
		Logfile: config.LogFilePath,
	}

	if config.WorkingDirectory != "" {
		o.Dir = config.WorkingDirectory
	}

	c.log.Debug(
		"Running background command",
		"cmd", config.Command,
		"args", config.Args,
		"log_file", config.LogFilePath,
	)

	pid, _, err := lp.Start(o)
	return pid, err
}

// Status returns the state of the process with the given pid
func (c *RunnerImpl) Status(pid int) (string, error) {
	lp := gohup.LocalProcess{}

	s, err := lp.QueryStatus(pidFilePath(pid))
	if err != nil {
		return "", err
	}

	if s == gohup.StatusRunning {
		return StatusRunning, nil
	}

	return StatusStopped, nil
}

// Kill a process with the given pid
func (c *RunnerImpl) Kill(pid int) error {
	lp := gohup.LocalProcess{}
	pidPath := pidFilePath(pid)

	if s, _ := lp.QueryStatus(pidPath); s == gohup.StatusRunning {
		return lp.Stop(pidPath)
	}

	return nil
}

func pidFilePath(pid int) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("%d.pid", pid))
}
