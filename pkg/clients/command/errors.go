package command

import (
	"fmt"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command/types"
)

// CommandError is returned when an invocation with Check set exits with a
// non zero code, it carries the full command line and the captured result
type CommandError struct {
	Command string
	Args    []string
	Result  types.CommandResult
}

func NewCommandError(config types.RunOptions, result types.CommandResult) *CommandError {
	return &CommandError{
		Command: config.Command,
		Args:    config.Args,
		Result:  result,
	}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf(
		"command '%s' failed with exit code %d, stdout: %s, stderr: %s",
		types.RunOptions{Command: e.Command, Args: e.Args}.String(),
		e.Result.ExitCode,
		e.Result.Stdout,
		e.Result.Stderr,
	)
}
