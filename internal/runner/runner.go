// Package runner executes external tools and captures their results.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Cmd describes a single external invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string

	// Privileged commands are run behind the configured privilege prefix (sudo by default).
	Privileged bool

	// Redact lists values which must not appear when the command is logged.
	Redact []string

	// Progress, when set, is shown next to a spinner while the command runs.
	Progress string
}

// String renders the command for logs with redacted values masked, in their raw and
// URL-escaped forms.
func (c Cmd) String() string {
	s := strings.Join(append([]string{c.Name}, c.Args...), " ")
	for _, r := range c.Redact {
		if r == "" {
			continue
		}
		for _, form := range []string{r, url.QueryEscape(r), url.PathEscape(r)} {
			s = strings.ReplaceAll(s, form, "***")
		}
	}
	return s
}

// Runner runs external commands.
type Runner interface {
	Run(ctx context.Context, c Cmd) Result
}

// Option customises a CLIRunner.
type Option func(*CLIRunner)

// WithProgress shows a spinner on w for commands which request one.
func WithProgress(w io.Writer) Option {
	return func(r *CLIRunner) {
		r.progress = w
	}
}

// CLIRunner runs commands with os/exec, capturing combined output.
type CLIRunner struct {
	logger          *slog.Logger
	privilegePrefix []string
	progress        io.Writer
}

// NewCLIRunner creates a CLIRunner. privilegePrefix is split on whitespace and
// prepended to privileged commands; an empty prefix runs them unchanged.
func NewCLIRunner(logger *slog.Logger, privilegePrefix string, opts ...Option) *CLIRunner {
	r := &CLIRunner{
		logger:          logger,
		privilegePrefix: strings.Fields(privilegePrefix),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// argv returns the program and arguments to execute for c.
func (r *CLIRunner) argv(c Cmd) (string, []string) {
	if c.Privileged && len(r.privilegePrefix) > 0 {
		args := append([]string{}, r.privilegePrefix[1:]...)
		args = append(args, c.Name)
		args = append(args, c.Args...)
		return r.privilegePrefix[0], args
	}
	return c.Name, c.Args
}

// Run executes c and blocks until it exits or ctx is cancelled.
func (r *CLIRunner) Run(ctx context.Context, c Cmd) Result {
	name, args := r.argv(c)
	display := c.String()
	if c.Privileged && len(r.privilegePrefix) > 0 {
		display = strings.Join(r.privilegePrefix, " ") + " " + display
	}
	r.logger.Debug("running command", "cmd", display, "dir", c.Dir)

	//nolint:gosec // commands are built internally from configuration
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stop := r.spin(c.Progress)
	err := cmd.Run()
	stop()

	res := Result{Cmd: display, Output: out.Bytes()}
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Err = ctx.Err()
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case err != nil:
		res.ExitCode = -1
		res.Err = err
	}

	r.logger.Debug("command finished", "cmd", display, "exitCode", res.ExitCode)
	return res
}

// spin starts a spinner for long-running commands and returns a function which stops it.
func (r *CLIRunner) spin(desc string) func() {
	if r.progress == nil || desc == "" {
		return func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}
