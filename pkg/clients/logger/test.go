package logger

import (
	"os"
	"testing"
)

// NewTestLogger creates a debug level logger writing to stdout, output is
// only shown when a test fails or -v is set
func NewTestLogger(t *testing.T) Logger {
	t.Helper()

	l := NewLogger(os.Stdout, LogLevelDebug)
	if lev := os.Getenv("LOG_LEVEL"); lev != "" {
		l.SetLevel(lev)
	}

	return l
}
