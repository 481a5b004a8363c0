// Package vcpkg drives a system-wide vcpkg checkout.
package vcpkg

import (
	"context"
	"path/filepath"

	"github.com/andyballingall/portpub/internal/config"
	"github.com/andyballingall/portpub/internal/port"
	"github.com/andyballingall/portpub/internal/runner"
)

// Tool runs vcpkg and the privileged file operations on its checkout.
type Tool struct {
	runner  runner.Runner
	root    string
	triplet string
}

// NewTool creates a Tool for the vcpkg checkout described by cfg.
func NewTool(r runner.Runner, cfg config.Vcpkg) *Tool {
	return &Tool{
		runner:  r,
		root:    cfg.Root,
		triplet: cfg.Triplet,
	}
}

// Root returns the vcpkg checkout directory.
func (t *Tool) Root() string {
	return t.root
}

// Layout returns the port layout of pkg inside the vcpkg checkout.
func (t *Tool) Layout(pkg string) port.Layout {
	return port.Layout{Root: t.root, Package: pkg}
}

func (t *Tool) executable() string {
	return filepath.Join(t.root, "vcpkg")
}

func (t *Tool) spec(pkg string) string {
	return pkg + ":" + t.triplet
}

// Install runs vcpkg install for pkg on the configured triplet.
func (t *Tool) Install(ctx context.Context, pkg string) runner.Result {
	return t.runner.Run(ctx, runner.Cmd{
		Name:       t.executable(),
		Args:       []string{"install", t.spec(pkg)},
		Dir:        t.root,
		Privileged: true,
		Progress:   "vcpkg install " + t.spec(pkg),
	})
}

// FormatManifest canonicalises the formatting of the port's vcpkg.json in place.
func (t *Tool) FormatManifest(ctx context.Context, pkg string) runner.Result {
	return t.runner.Run(ctx, runner.Cmd{
		Name:       t.executable(),
		Args:       []string{"format-manifest", filepath.Join(".", port.PortsDir, pkg, port.ManifestFile)},
		Dir:        t.root,
		Privileged: true,
	})
}

// AddVersion registers the port's current version and git-tree in the version index.
// vcpkg reads the git-tree from the checkout's HEAD, so the port must be committed first.
func (t *Tool) AddVersion(ctx context.Context, pkg string) runner.Result {
	return t.runner.Run(ctx, runner.Cmd{
		Name:       t.executable(),
		Args:       []string{"x-add-version", pkg},
		Dir:        t.root,
		Privileged: true,
	})
}

// EnsurePortDir creates ports/<pkg> in the checkout.
func (t *Tool) EnsurePortDir(ctx context.Context, pkg string) runner.Result {
	return t.runner.Run(ctx, runner.Cmd{
		Name:       "mkdir",
		Args:       []string{"-p", t.Layout(pkg).PortDir()},
		Privileged: true,
	})
}

// CopyIn copies src to dst, where dst is inside the checkout.
func (t *Tool) CopyIn(ctx context.Context, src, dst string) runner.Result {
	return t.runner.Run(ctx, runner.Cmd{
		Name:       "cp",
		Args:       []string{"-v", "-R", src, dst},
		Privileged: true,
	})
}

// CopyPortsIn copies every port below portsDir into the checkout's ports directory.
func (t *Tool) CopyPortsIn(ctx context.Context, portsDir string) runner.Result {
	return t.runner.Run(ctx, runner.Cmd{
		Name:       "cp",
		Args:       []string{"-v", "-R", portsDir + string(filepath.Separator) + ".", filepath.Join(t.root, port.PortsDir)},
		Privileged: true,
	})
}

// BuildLogPath returns the debug install log vcpkg writes for pkg.
func (t *Tool) BuildLogPath(pkg string) string {
	return filepath.Join(t.root, "buildtrees", pkg, "install-"+t.triplet+"-dbg-out.log")
}
