// Package publish regenerates a vcpkg port for the latest release of a library and
// pushes it back to the library's repository.
//
// A publication moves through three states, each represented by a type so that the
// steps cannot be called out of order:
//
//	Unbuilt --FirstBuild--> ChecksumKnown --SecondBuild--> Published
//
// FirstBuild installs the port with a placeholder checksum. vcpkg rejects the
// downloaded archive and reports its real SHA512, which SecondBuild then uses to
// register the version and verify the install.
package publish

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/andyballingall/portpub/internal/config"
	"github.com/andyballingall/portpub/internal/fs"
	"github.com/andyballingall/portpub/internal/port"
	"github.com/andyballingall/portpub/internal/repo"
	"github.com/andyballingall/portpub/internal/runner"
)

const (
	globalCommitMessage = "[bot] VCPKG info update"
	localCommitMessage  = "[bot] VCPKG info update [skip ci]"
	cloneDepth          = 1
)

// PackageManager is the system-wide vcpkg checkout the builds run against.
type PackageManager interface {
	Root() string
	Layout(pkg string) port.Layout
	Install(ctx context.Context, pkg string) runner.Result
	FormatManifest(ctx context.Context, pkg string) runner.Result
	AddVersion(ctx context.Context, pkg string) runner.Result
	EnsurePortDir(ctx context.Context, pkg string) runner.Result
	CopyIn(ctx context.Context, src, dst string) runner.Result
	CopyPortsIn(ctx context.Context, portsDir string) runner.Result
	BuildLogPath(pkg string) string
}

// Deps are the collaborators of a Publisher.
type Deps struct {
	Config *config.Config
	Git    repo.Gitter
	Vcpkg  PackageManager
	Env    fs.EnvProvider
	Logger *slog.Logger

	// TagDir is the repository whose latest tag is published. Empty means the current directory.
	TagDir string

	// BuildLog receives the vcpkg build log when the verification install fails.
	BuildLog io.Writer
}

// Release identifies the version being published.
type Release struct {
	Tag     string
	Version string
}

// VersionFromTag strips a single leading "v" from tag.
func VersionFromTag(tag string) string {
	return strings.TrimPrefix(tag, "v")
}

// Unbuilt is the state before the discovery build.
type Unbuilt struct{}

// ChecksumKnown is the state after a discovery build found the archive checksum.
type ChecksumKnown struct {
	Checksum port.Checksum
}

// Published is the state after the port files were registered and pushed.
type Published struct {
	Checksum port.Checksum
	Baseline string
}

// Publisher coordinates one publication. It is not safe for concurrent use and
// assumes it is the only process touching the working copy and the vcpkg checkout.
type Publisher struct {
	cfg      *config.Config
	git      repo.Gitter
	vcpkg    PackageManager
	logger   *slog.Logger
	buildLog io.Writer
	creds    repo.Credentials
	release  Release
	workDir  string
	local    port.Layout
}

// New validates the credentials and resolves the release to publish.
func New(ctx context.Context, d Deps, creds repo.Credentials) (*Publisher, error) {
	if creds.User == "" || creds.Token == "" {
		return nil, &MissingCredentialsError{}
	}

	home, err := fs.HomeDir(d.Env)
	if err != nil {
		return nil, err
	}

	d.Logger.Info("Starting vcpkg updater...")

	tag, err := d.Git.LatestTag(ctx, d.TagDir)
	if err != nil {
		return nil, err
	}
	release := Release{Tag: tag, Version: VersionFromTag(tag)}
	d.Logger.Info("Latest tag: "+release.Tag+" version: "+release.Version, "tag", release.Tag)

	buildLog := d.BuildLog
	if buildLog == nil {
		buildLog = io.Discard
	}

	workDir := filepath.Join(home, d.Config.Repository.Name)
	return &Publisher{
		cfg:      d.Config,
		git:      d.Git,
		vcpkg:    d.Vcpkg,
		logger:   d.Logger,
		buildLog: buildLog,
		creds:    creds,
		release:  release,
		workDir:  workDir,
		local: port.Layout{
			Root:    filepath.Join(workDir, d.Config.PortTree),
			Package: d.Config.Package.Name,
		},
	}, nil
}

// Release returns the release resolved when the Publisher was created.
func (p *Publisher) Release() Release {
	return p.release
}

// WorkDir returns the directory the repository is cloned into.
func (p *Publisher) WorkDir() string {
	return p.workDir
}

// Run performs a complete publication of the latest release.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.CheckoutRelease(ctx, ""); err != nil {
		return err
	}

	recipe, err := p.ConstructPort(port.PlaceholderChecksum)
	if err != nil {
		return err
	}

	known, ok, err := p.FirstBuild(ctx, Unbuilt{}, recipe)
	if err != nil {
		return err
	}
	if !ok {
		return &ChecksumNotFoundError{Package: p.cfg.PackageSpec()}
	}

	if recipe, err = p.ConstructPort(known.Checksum); err != nil {
		return err
	}

	published, err := p.SecondBuild(ctx, known, recipe)
	if err != nil {
		return err
	}

	p.logger.Info("Published "+p.cfg.Package.Name+" "+p.release.Version, "sha512", published.Checksum)
	return nil
}

// CheckoutRelease replaces the working copy with a fresh clone checked out at ref.
// An empty ref checks out the configured branch.
//
// A ref which does not exist is not detected: the failed checkout is logged and the
// clone stays on the default branch.
func (p *Publisher) CheckoutRelease(ctx context.Context, ref string) error {
	if ref == "" {
		ref = p.cfg.Repository.Branch
	}
	p.logger.Info("Check out repository: "+ref, "user", p.creds.User, "dir", p.workDir)

	if err := os.RemoveAll(p.workDir); err != nil {
		return &WorkDirError{Path: p.workDir, Wrapped: err}
	}

	if err := p.git.SetGlobalIdentity(ctx, p.cfg.Bot.Name, p.cfg.Bot.Email).Check(); err != nil {
		return err
	}

	cloneURL := repo.CloneURL(p.cfg.Repository.Host, p.cfg.Repository.Slug(), p.creds)
	if err := p.git.Clone(ctx, cloneURL, p.workDir, cloneDepth, p.creds.Token).Check(); err != nil {
		return err
	}

	if res := p.git.FetchTags(ctx, p.workDir); !res.OK() {
		p.logger.Warn("fetching tags failed", "exitCode", res.ExitCode)
	}
	if res := p.git.Checkout(ctx, p.workDir, ref); !res.OK() {
		p.logger.Warn("checkout failed, continuing on the cloned branch", "ref", ref, "exitCode", res.ExitCode)
	}
	return nil
}

// RenderPort builds the manifest and recipe of the configured package at version.
func RenderPort(cfg *config.Config, version string, checksum port.Checksum) ([]byte, port.Recipe, error) {
	manifest, err := port.NewManifest(cfg.Package, version).Encode()
	if err != nil {
		return nil, "", err
	}

	recipe, err := port.RenderRecipe(port.RecipeParams{
		Repo:     cfg.Repository.Slug(),
		Package:  cfg.Package.Name,
		Version:  version,
		Checksum: checksum,
	})
	if err != nil {
		return nil, "", err
	}
	return manifest, recipe, nil
}

// ConstructPort writes the manifest into the working copy and returns the recipe.
// The recipe is only written by SecondBuild, once it carries the real checksum.
func (p *Publisher) ConstructPort(checksum port.Checksum) (port.Recipe, error) {
	if checksum == "" {
		checksum = port.PlaceholderChecksum
	}
	p.logger.Info("Construct portfile for "+p.release.Version+", sha512: "+checksum.String())

	manifest, recipe, err := RenderPort(p.cfg, p.release.Version, checksum)
	if err != nil {
		return "", err
	}

	p.logger.Info("Writing portfile...", "path", p.local.ManifestPath())
	if err = fs.WriteFile(p.local.ManifestPath(), manifest); err != nil {
		return "", &WorkDirError{Path: p.local.ManifestPath(), Wrapped: err}
	}
	return recipe, nil
}
