package command

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command/types"
)

// MockRunner is a deterministic Runner for tests, it replays canned results
// keyed on the command line and records every invocation for assertions
type MockRunner struct {
	mu            sync.Mutex
	results       map[string]types.CommandResult
	defaultResult *types.CommandResult

	// Calls holds every invocation passed to Execute or ExecuteBackground
	Calls []types.RunOptions

	nextPid  int
	statuses map[int]string
	Killed   []int
}

func NewMockRunner() *MockRunner {
	return &MockRunner{
		results:  map[string]types.CommandResult{},
		nextPid:  1000,
		statuses: map[int]string{},
	}
}

// AddResult registers a result for a command line, the key is matched
// exactly first, then as a substring of the executed command line
func (m *MockRunner) AddResult(commandLine string, result types.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results[commandLine] = result
}

// AddDefaultResult registers a fallback result used when no key matches
func (m *MockRunner) AddDefaultResult(result types.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defaultResult = &result
}

// CommandLines returns the executed command lines in invocation order
func (m *MockRunner) CommandLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		lines = append(lines, c.String())
	}

	return lines
}

// InvocationCount returns the number of executed command lines containing
// the given substring
func (m *MockRunner) InvocationCount(substring string) int {
	count := 0
	for _, l := range m.CommandLines() {
		if strings.Contains(l, substring) {
			count++
		}
	}

	return count
}

func (m *MockRunner) lookup(commandLine string) (types.CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.results[commandLine]; ok {
		return r, nil
	}

	for key, r := range m.results {
		if strings.Contains(commandLine, key) {
			return r, nil
		}
	}

	if m.defaultResult != nil {
		return *m.defaultResult, nil
	}

	return types.CommandResult{}, fmt.Errorf("no mock result defined for command: %s", commandLine)
}

func (m *MockRunner) Execute(config types.RunOptions) (types.CommandResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, config)
	m.mu.Unlock()

	r, err := m.lookup(config.String())
	if err != nil {
		return r, err
	}

	if config.Check && !r.Success() {
		return r, NewCommandError(config, r)
	}

	return r, nil
}

func (m *MockRunner) ExecuteBackground(config types.RunOptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, config)

	m.nextPid++
	m.statuses[m.nextPid] = StatusRunning

	return m.nextPid, nil
}

// SetStatus overrides the reported state for a pid returned by
// ExecuteBackground
func (m *MockRunner) SetStatus(pid int, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statuses[pid] = status
}

func (m *MockRunner) Status(pid int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.statuses[pid]
	if !ok {
		return "", fmt.Errorf("unknown pid: %d", pid)
	}

	return s, nil
}

func (m *MockRunner) Kill(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Killed = append(m.Killed, pid)
	m.statuses[pid] = StatusStopped

	return nil
}
