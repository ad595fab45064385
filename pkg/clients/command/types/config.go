package types

import (
	"strings"
	"time"
)

// RunOptions configures a single command invocation
type RunOptions struct {
	Command          string
	Args             []string
	Env              []string
	WorkingDirectory string
	LogFilePath      string
	Timeout          time.Duration

	// Check causes a non zero exit code to be returned as a
	// CommandError rather than a plain result
	Check bool
}

// String returns the full command line for the invocation
func (o RunOptions) String() string {
	return strings.Join(append([]string{o.Command}, o.Args...), " ")
}

// CommandResult is the captured outcome of a completed invocation
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true when the command exited cleanly
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}
