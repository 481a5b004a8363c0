package repo

import (
	"context"
	"net/url"

	"github.com/andyballingall/portpub/internal/runner"
)

// Credentials authenticate clone and push against the source host.
type Credentials struct {
	User  string
	Token string
}

// CloneURL builds an https URL embedding percent-encoded credentials.
func CloneURL(host, slug string, creds Credentials) string {
	return "https://" + url.QueryEscape(creds.User) + ":" + url.QueryEscape(creds.Token) + "@" + host + "/" + slug
}

// Gitter defines the interface for git repository operations.
//
// Apart from LatestTag, every operation returns the runner.Result of the git
// invocation; callers decide whether a failure matters.
type Gitter interface {
	// LatestTag returns the most recently created tag reachable in dir.
	LatestTag(ctx context.Context, dir string) (string, error)

	// Elevated returns a Gitter which runs git behind the privilege prefix.
	Elevated() Gitter

	SetGlobalIdentity(ctx context.Context, name, email string) runner.Result
	SetConfig(ctx context.Context, dir, key, value string) runner.Result
	Clone(ctx context.Context, cloneURL, dir string, depth int, redact ...string) runner.Result
	FetchTags(ctx context.Context, dir string) runner.Result
	Checkout(ctx context.Context, dir, ref string) runner.Result
	AddAll(ctx context.Context, dir string) runner.Result
	Commit(ctx context.Context, dir, message string) runner.Result
	Pull(ctx context.Context, dir string) runner.Result
	Push(ctx context.Context, dir, remote, branch string) runner.Result
}
