package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/andyballingall/portpub/internal/fs"
	"github.com/andyballingall/portpub/internal/port"
)

// FirstBuild installs the port with the recipe rendered by ConstructPort and looks
// for the archive checksum vcpkg reports when the recipe's checksum is wrong.
//
// A build that reports no checksum is not an error: ok is false and the caller
// decides how to proceed.
func (p *Publisher) FirstBuild(ctx context.Context, _ Unbuilt, recipe port.Recipe) (ChecksumKnown, bool, error) {
	pkg := p.cfg.Package.Name
	global := p.vcpkg.Layout(pkg)

	p.logger.Info("Starting first build")

	if err := p.vcpkg.EnsurePortDir(ctx, pkg).Check(); err != nil {
		return ChecksumKnown{}, false, err
	}
	if err := p.vcpkg.CopyIn(ctx, p.local.ManifestPath(), global.ManifestPath()).Check(); err != nil {
		return ChecksumKnown{}, false, err
	}
	if err := p.installRecipe(ctx, recipe, global.RecipePath()); err != nil {
		return ChecksumKnown{}, false, err
	}

	p.logger.Info("Running first build of " + p.cfg.PackageSpec())
	res := p.vcpkg.Install(ctx, pkg)
	if err := ctx.Err(); err != nil {
		return ChecksumKnown{}, false, err
	}

	checksum, ok := port.ExtractChecksum(string(res.Output))
	if !ok {
		p.logger.Warn("No SHA512 found during first build", "exitCode", res.ExitCode)
		return ChecksumKnown{}, false, nil
	}

	p.logger.Info("Obtained SHA512 for first build: " + checksum.String())
	return ChecksumKnown{Checksum: checksum}, true, nil
}

// installRecipe stages recipe in a temporary file and copies it to dst with elevated privileges.
func (p *Publisher) installRecipe(ctx context.Context, recipe port.Recipe, dst string) error {
	tmp, err := os.CreateTemp("", "portfile-*.cmake")
	if err != nil {
		return &WorkDirError{Path: os.TempDir(), Wrapped: err}
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.WriteString(recipe.String()); err != nil {
		tmp.Close()
		return &WorkDirError{Path: tmp.Name(), Wrapped: err}
	}
	if err = tmp.Close(); err != nil {
		return &WorkDirError{Path: tmp.Name(), Wrapped: err}
	}

	return p.vcpkg.CopyIn(ctx, tmp.Name(), dst).Check()
}

// SecondBuild registers the port with the discovered checksum, pushes the port files
// to the repository and verifies that the port now installs.
//
// If the push succeeded but the verification install failed, the Published state is
// returned together with a *VerificationFailedError.
func (p *Publisher) SecondBuild(ctx context.Context, state ChecksumKnown, recipe port.Recipe) (Published, error) {
	if state.Checksum.IsPlaceholder() {
		return Published{}, &ChecksumNotDiscoveredError{}
	}
	if !strings.Contains(recipe.String(), "SHA512 "+state.Checksum.String()) {
		return Published{}, &RecipeMismatchError{Checksum: state.Checksum}
	}

	pkg := p.cfg.Package.Name
	global := p.vcpkg.Layout(pkg)

	p.logger.Info("Executing second build")

	if err := fs.WriteFile(p.local.RecipePath(), []byte(recipe)); err != nil {
		return Published{}, &WorkDirError{Path: p.local.RecipePath(), Wrapped: err}
	}

	p.logger.Info("Copy local port files to vcpkg...")
	if err := p.stagePort(ctx, global); err != nil {
		return Published{}, err
	}

	p.logger.Info("Commit to local vcpkg...")
	if err := p.registerVersion(ctx); err != nil {
		return Published{}, err
	}

	p.logger.Info("Copy back port files from vcpkg...")
	if err := p.copyBack(ctx, global); err != nil {
		return Published{}, err
	}

	published := Published{Checksum: state.Checksum, Baseline: p.checkBaseline()}

	p.logger.Info("Commit and push changes to " + p.cfg.Repository.Branch + " branch")
	if err := p.pushPort(ctx); err != nil {
		return published, err
	}

	p.logger.Info("Running verification build of " + p.cfg.PackageSpec())
	if res := p.vcpkg.Install(ctx, pkg); !res.OK() {
		p.logger.Error("There were build errors", "exitCode", res.ExitCode)
		p.dumpBuildLog(pkg)
		return published, &VerificationFailedError{Package: p.cfg.PackageSpec(), ExitCode: res.ExitCode}
	}

	p.logger.Info("Build succeeded")
	return published, nil
}

func (p *Publisher) stagePort(ctx context.Context, global port.Layout) error {
	pkg := p.cfg.Package.Name
	if err := p.vcpkg.EnsurePortDir(ctx, pkg).Check(); err != nil {
		return err
	}
	if err := p.vcpkg.CopyIn(ctx, p.local.ManifestPath(), global.ManifestPath()).Check(); err != nil {
		return err
	}
	if err := p.vcpkg.CopyIn(ctx, p.local.RecipePath(), global.RecipePath()).Check(); err != nil {
		return err
	}
	return p.vcpkg.CopyPortsIn(ctx, p.local.PortsDir()).Check()
}

// registerVersion commits the port to the global tree, which x-add-version requires,
// and records the new version in its version index.
func (p *Publisher) registerVersion(ctx context.Context) error {
	pkg := p.cfg.Package.Name
	root := p.vcpkg.Root()

	if err := p.vcpkg.FormatManifest(ctx, pkg).Check(); err != nil {
		return err
	}

	elevated := p.git.Elevated()
	if err := elevated.AddAll(ctx, root).Check(); err != nil {
		return err
	}
	if res := elevated.Commit(ctx, root, globalCommitMessage); !res.OK() {
		p.logger.Warn("nothing committed to the vcpkg tree", "exitCode", res.ExitCode)
	}

	return p.vcpkg.AddVersion(ctx, pkg).Check()
}

// copyBack copies the files x-add-version maintains from the global tree into the working copy.
func (p *Publisher) copyBack(ctx context.Context, global port.Layout) error {
	g, _ := errgroup.WithContext(ctx)
	for _, rel := range global.IndexFiles() {
		src := filepath.Join(global.Root, rel)
		dst := filepath.Join(p.local.Root, rel)
		g.Go(func() error {
			p.logger.Debug("copy back", "src", src, "dst", dst)
			return fs.CopyFile(src, dst)
		})
	}
	if err := g.Wait(); err != nil {
		return &CopyBackError{Wrapped: err}
	}
	return nil
}

// checkBaseline reports what the copied-back index registered for the package.
func (p *Publisher) checkBaseline() string {
	pkg := p.cfg.Package.Name
	entry, err := port.ReadBaseline(p.local.BaselinePath(), pkg)
	if err != nil {
		p.logger.Warn("could not read registered baseline", "error", err)
		return ""
	}
	if entry.Baseline != p.release.Version {
		p.logger.Warn("registered baseline does not match the release",
			"baseline", entry.Baseline, "version", p.release.Version)
		return entry.Baseline
	}

	tree, ok, err := port.VersionGitTree(p.local.VersionFilePath(), p.release.Version)
	switch {
	case err != nil:
		p.logger.Warn("could not read version file", "error", err)
	case !ok:
		p.logger.Warn("version missing from version file", "version", p.release.Version)
	default:
		p.logger.Debug("registered version", "version", p.release.Version, "gitTree", tree)
	}
	return entry.Baseline
}

func (p *Publisher) pushPort(ctx context.Context) error {
	if err := p.git.AddAll(ctx, p.workDir).Check(); err != nil {
		return err
	}
	if res := p.git.Commit(ctx, p.workDir, localCommitMessage); !res.OK() {
		p.logger.Warn("nothing committed to the repository", "exitCode", res.ExitCode)
	}
	if err := p.git.SetConfig(ctx, p.workDir, "pull.rebase", "false").Check(); err != nil {
		return err
	}
	if err := p.git.Pull(ctx, p.workDir).Check(); err != nil {
		return err
	}
	if err := p.git.Push(ctx, p.workDir, "origin", p.cfg.Repository.Branch).Check(); err != nil {
		return &PushFailedError{Branch: p.cfg.Repository.Branch, Wrapped: err}
	}
	return nil
}

func (p *Publisher) dumpBuildLog(pkg string) {
	path := p.vcpkg.BuildLogPath(pkg)
	f, err := os.Open(path)
	if err != nil {
		p.logger.Warn("build log not available", "path", path, "error", err)
		return
	}
	defer f.Close()

	fmt.Fprintf(p.buildLog, "==> %s\n", path)
	if _, err = io.Copy(p.buildLog, f); err != nil {
		p.logger.Warn("could not print build log", "path", path, "error", err)
	}
}
