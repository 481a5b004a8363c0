package runner

import (
	"fmt"
	"strings"
)

// maxErrorOutput bounds how much captured output is quoted in a CommandFailedError.
const maxErrorOutput = 2048

// Result captures the outcome of a single external invocation. Every caller must
// either Check it or explicitly Discard it.
type Result struct {
	Cmd      string
	Output   []byte
	ExitCode int
	Err      error // set when the process could not be started or was cancelled
}

// OK reports whether the command ran and exited with status 0.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Check converts a failed Result into a *CommandFailedError.
func (r Result) Check() error {
	if r.OK() {
		return nil
	}
	return &CommandFailedError{
		Cmd:      r.Cmd,
		ExitCode: r.ExitCode,
		Output:   tail(strings.TrimSpace(string(r.Output)), maxErrorOutput),
		Wrapped:  r.Err,
	}
}

// Discard marks the result as deliberately ignored.
func (r Result) Discard() {}

// String returns the captured output with surrounding whitespace removed.
func (r Result) String() string {
	return strings.TrimSpace(string(r.Output))
}

type CommandFailedError struct {
	Wrapped  error
	Cmd      string
	Output   string
	ExitCode int
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Cmd)
	if e.Wrapped != nil {
		msg += fmt.Sprintf(": %v", e.Wrapped)
	} else {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if e.Output != "" {
		msg += fmt.Sprintf(" (output: %s)", e.Output)
	}
	return msg
}

func (e *CommandFailedError) Unwrap() error {
	return e.Wrapped
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
