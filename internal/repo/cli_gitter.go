package repo

import (
	"context"
	"strconv"

	"github.com/andyballingall/portpub/internal/runner"
)

// CLIGitter is the concrete implementation of Gitter using the git CLI.
type CLIGitter struct {
	runner     runner.Runner
	privileged bool
}

// NewCLIGitter creates a new CLIGitter instance.
func NewCLIGitter(r runner.Runner) *CLIGitter {
	return &CLIGitter{runner: r}
}

func (g *CLIGitter) git(ctx context.Context, dir string, args ...string) runner.Result {
	return g.runner.Run(ctx, runner.Cmd{
		Name:       "git",
		Args:       args,
		Dir:        dir,
		Privileged: g.privileged,
	})
}

// Elevated returns a copy of g whose commands run behind the privilege prefix.
func (g *CLIGitter) Elevated() Gitter {
	return &CLIGitter{runner: g.runner, privileged: true}
}

// LatestTag finds the tag on the most recently tagged commit, as
// git describe --tags $(git rev-list --tags --max-count=1) does.
func (g *CLIGitter) LatestTag(ctx context.Context, dir string) (string, error) {
	rev := g.git(ctx, dir, "rev-list", "--tags", "--max-count=1")
	if err := rev.Check(); err != nil {
		return "", &NoTagsError{Dir: dir, Wrapped: err}
	}
	if rev.String() == "" {
		return "", &NoTagsError{Dir: dir}
	}

	desc := g.git(ctx, dir, "describe", "--tags", rev.String())
	if err := desc.Check(); err != nil {
		return "", &NoTagsError{Dir: dir, Wrapped: err}
	}
	return desc.String(), nil
}

func (g *CLIGitter) SetGlobalIdentity(ctx context.Context, name, email string) runner.Result {
	res := g.git(ctx, "", "config", "--global", "user.email", email)
	if !res.OK() {
		return res
	}
	return g.git(ctx, "", "config", "--global", "user.name", name)
}

func (g *CLIGitter) SetConfig(ctx context.Context, dir, key, value string) runner.Result {
	return g.git(ctx, dir, "config", key, value)
}

// Clone clones cloneURL into dir. Values in redact are masked when the command is logged.
func (g *CLIGitter) Clone(ctx context.Context, cloneURL, dir string, depth int, redact ...string) runner.Result {
	args := []string{"clone", cloneURL, dir}
	if depth > 0 {
		args = append(args, "--depth="+strconv.Itoa(depth))
	}
	return g.runner.Run(ctx, runner.Cmd{
		Name:       "git",
		Args:       args,
		Privileged: g.privileged,
		Redact:     redact,
	})
}

func (g *CLIGitter) FetchTags(ctx context.Context, dir string) runner.Result {
	return g.git(ctx, dir, "fetch", "-at")
}

func (g *CLIGitter) Checkout(ctx context.Context, dir, ref string) runner.Result {
	return g.git(ctx, dir, "checkout", ref)
}

func (g *CLIGitter) AddAll(ctx context.Context, dir string) runner.Result {
	return g.git(ctx, dir, "add", ".")
}

func (g *CLIGitter) Commit(ctx context.Context, dir, message string) runner.Result {
	return g.git(ctx, dir, "commit", "-m", message)
}

func (g *CLIGitter) Pull(ctx context.Context, dir string) runner.Result {
	return g.git(ctx, dir, "pull")
}

func (g *CLIGitter) Push(ctx context.Context, dir, remote, branch string) runner.Result {
	return g.git(ctx, dir, "push", remote, branch)
}
