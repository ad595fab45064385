package providers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClusterNotReady is returned when a cluster was created but its nodes
// did not become ready within the readiness timeout, the cluster is left in
// place and the error is not retried
var ErrClusterNotReady = errors.New("cluster was created but is not ready")

// ErrorKind classifies a cluster error so callers and the retry policies
// can match on it without string comparison
type ErrorKind string

const (
	// ErrorKindDockerNotRunning indicates the container runtime daemon is
	// not reachable
	ErrorKindDockerNotRunning ErrorKind = "docker_not_running"

	// ErrorKindToolNotInstalled indicates the kind binary is missing
	ErrorKindToolNotInstalled ErrorKind = "tool_not_installed"

	// ErrorKindClusterOperation indicates a transient operation failure
	ErrorKindClusterOperation ErrorKind = "cluster_operation"

	// ErrorKindValidation indicates invalid input, never retried
	ErrorKindValidation ErrorKind = "validation"
)

// ClusterError is the error type returned by cluster operations
type ClusterError struct {
	Kind    ErrorKind
	Message string

	// Remediation holds an optional user facing hint derived from the
	// underlying failure
	Remediation string

	cause error
}

func (e *ClusterError) Error() string {
	msg := e.Message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.cause)
	}

	if e.Remediation != "" {
		msg = fmt.Sprintf("%s\n%s", msg, e.Remediation)
	}

	return msg
}

func (e *ClusterError) Unwrap() error {
	return e.cause
}

// KindOf returns the ErrorKind of err, or an empty string when err is not a
// ClusterError
func KindOf(err error) ErrorKind {
	var ce *ClusterError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	return ""
}

func dockerNotRunningError() *ClusterError {
	return &ClusterError{
		Kind:        ErrorKindDockerNotRunning,
		Message:     "Docker is not running or not accessible",
		Remediation: "Please start the Docker daemon or Docker Desktop.",
	}
}

func toolNotInstalledError(tool string) *ClusterError {
	return &ClusterError{
		Kind:    ErrorKindToolNotInstalled,
		Message: fmt.Sprintf("%s is not installed or not in PATH", tool),
	}
}

func operationError(format string, args ...interface{}) *ClusterError {
	return &ClusterError{
		Kind:    ErrorKindClusterOperation,
		Message: fmt.Sprintf(format, args...),
	}
}

func operationErrorFrom(message string, cause error) *ClusterError {
	return &ClusterError{
		Kind:        ErrorKindClusterOperation,
		Message:     message,
		Remediation: remediationHint(cause),
		cause:       cause,
	}
}

func validationError(format string, args ...interface{}) *ClusterError {
	return &ClusterError{
		Kind:    ErrorKindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// remediationHint matches well known failure modes in the low level error
// text and returns a user facing hint, the technical message is preserved
// by the caller
func remediationHint(cause error) string {
	if cause == nil {
		return ""
	}

	msg := strings.ToLower(cause.Error())

	switch {
	case strings.Contains(msg, "no space left on device"):
		return "Docker has run out of disk space. Free up space with 'docker system prune -a -f --volumes' " +
			"or increase Docker's disk allocation."
	case strings.Contains(msg, "failed to copy files") && strings.Contains(msg, "write"):
		return "Docker storage is full. Clean up with 'docker system prune -a -f --volumes' " +
			"or increase Docker's storage limit."
	case strings.Contains(msg, "port") && strings.Contains(msg, "already in use"):
		return "Required host ports are already in use. Stop the services using ports 80, 443 or 30080, " +
			"or rely on the automatic fallback ports."
	}

	return ""
}

// createRetryable matches the error kinds retried during cluster creation
func createRetryable(err error) bool {
	switch KindOf(err) {
	case ErrorKindDockerNotRunning, ErrorKindToolNotInstalled, ErrorKindClusterOperation:
		return true
	}

	return false
}

// operationRetryable matches only transient cluster operation failures
func operationRetryable(err error) bool {
	return KindOf(err) == ErrorKindClusterOperation
}
