package publish

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andyballingall/portpub/internal/config"
	pfs "github.com/andyballingall/portpub/internal/fs"
	"github.com/andyballingall/portpub/internal/port"
	"github.com/andyballingall/portpub/internal/repo"
	"github.com/andyballingall/portpub/internal/runner"
)

const (
	testChecksum = "ABCDEF0123456789"
	testTag      = "v10.0.29"
	testVersion  = "10.0.29"
)

var testCreds = repo.Credentials{User: "octo", Token: "s3cr3t"}

// recorder collects the calls made on the fakes, in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type mockEnvProvider struct {
	values map[string]string
}

func (m *mockEnvProvider) Get(key string) string {
	return m.values[key]
}

type fakeGitter struct {
	rec      *recorder
	elevated bool
	tag      string
	tagErr   error
	results  map[string]runner.Result
}

func (g *fakeGitter) call(name string, args ...string) runner.Result {
	prefix := ""
	if g.elevated {
		prefix = "sudo "
	}
	g.rec.add(prefix + "git " + strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return g.results[name]
}

func (g *fakeGitter) LatestTag(_ context.Context, _ string) (string, error) {
	return g.tag, g.tagErr
}

func (g *fakeGitter) Elevated() repo.Gitter {
	e := *g
	e.elevated = true
	return &e
}

func (g *fakeGitter) SetGlobalIdentity(_ context.Context, name, email string) runner.Result {
	return g.call("identity", name, email)
}

func (g *fakeGitter) SetConfig(_ context.Context, _, key, value string) runner.Result {
	return g.call("config", key, value)
}

func (g *fakeGitter) Clone(_ context.Context, cloneURL, dir string, depth int, _ ...string) runner.Result {
	res := g.call("clone", cloneURL, dir, "--depth="+strconv.Itoa(depth))
	if res.OK() {
		_ = os.MkdirAll(dir, 0o755)
	}
	return res
}

func (g *fakeGitter) FetchTags(_ context.Context, _ string) runner.Result {
	return g.call("fetch")
}

func (g *fakeGitter) Checkout(_ context.Context, _, ref string) runner.Result {
	return g.call("checkout", ref)
}

func (g *fakeGitter) AddAll(_ context.Context, dir string) runner.Result {
	return g.call("add", dir)
}

func (g *fakeGitter) Commit(_ context.Context, _, message string) runner.Result {
	return g.call("commit", message)
}

func (g *fakeGitter) Pull(_ context.Context, _ string) runner.Result {
	return g.call("pull")
}

func (g *fakeGitter) Push(_ context.Context, _, remote, branch string) runner.Result {
	return g.call("push", remote, branch)
}

// fakeVcpkg performs the file operations of a vcpkg tree under root and scripts the
// outcome of each install.
type fakeVcpkg struct {
	rec      *recorder
	root     string
	installs []runner.Result
	results  map[string]runner.Result
}

func (v *fakeVcpkg) Root() string {
	return v.root
}

func (v *fakeVcpkg) Layout(pkg string) port.Layout {
	return port.Layout{Root: v.root, Package: pkg}
}

func (v *fakeVcpkg) Install(_ context.Context, pkg string) runner.Result {
	v.rec.add("vcpkg install " + pkg)
	if len(v.installs) == 0 {
		return runner.Result{}
	}
	res := v.installs[0]
	v.installs = v.installs[1:]
	return res
}

func (v *fakeVcpkg) FormatManifest(_ context.Context, pkg string) runner.Result {
	v.rec.add("vcpkg format-manifest " + pkg)
	return v.results["format-manifest"]
}

// AddVersion registers the version found in the staged manifest.
func (v *fakeVcpkg) AddVersion(_ context.Context, pkg string) runner.Result {
	v.rec.add("vcpkg x-add-version " + pkg)
	if res, ok := v.results["x-add-version"]; ok {
		return res
	}

	layout := v.Layout(pkg)
	data, err := os.ReadFile(layout.ManifestPath())
	if err != nil {
		return runner.Result{ExitCode: 1, Err: err}
	}
	m, err := port.DecodeManifest(data)
	if err != nil {
		return runner.Result{ExitCode: 1, Err: err}
	}

	baseline := fmt.Sprintf(`{"default": {%q: {"baseline": %q, "port-version": 0}}}`, pkg, m.Version)
	versions := fmt.Sprintf(`{"versions": [{"git-tree": "4b7a0b7c", "version": %q, "port-version": 0}]}`, m.Version)
	if err = pfs.WriteFile(layout.BaselinePath(), []byte(baseline)); err != nil {
		return runner.Result{ExitCode: 1, Err: err}
	}
	if err = pfs.WriteFile(layout.VersionFilePath(), []byte(versions)); err != nil {
		return runner.Result{ExitCode: 1, Err: err}
	}
	return runner.Result{}
}

func (v *fakeVcpkg) EnsurePortDir(_ context.Context, pkg string) runner.Result {
	v.rec.add("vcpkg mkdir " + pkg)
	if res, ok := v.results["mkdir"]; ok {
		return res
	}
	if err := os.MkdirAll(v.Layout(pkg).PortDir(), 0o755); err != nil {
		return runner.Result{ExitCode: 1, Err: err}
	}
	return runner.Result{}
}

func (v *fakeVcpkg) CopyIn(_ context.Context, src, dst string) runner.Result {
	v.rec.add("vcpkg cp " + filepath.Base(dst))
	if res, ok := v.results["cp"]; ok {
		return res
	}
	if err := pfs.CopyFile(src, dst); err != nil {
		return runner.Result{ExitCode: 1, Err: err}
	}
	return runner.Result{}
}

func (v *fakeVcpkg) CopyPortsIn(_ context.Context, portsDir string) runner.Result {
	v.rec.add("vcpkg cp ports")
	err := filepath.WalkDir(portsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(portsDir, path)
		if err != nil {
			return err
		}
		return pfs.CopyFile(path, filepath.Join(v.root, port.PortsDir, rel))
	})
	if err != nil {
		return runner.Result{ExitCode: 1, Err: err}
	}
	return runner.Result{}
}

func (v *fakeVcpkg) BuildLogPath(pkg string) string {
	return filepath.Join(v.root, "buildtrees", pkg, "install-x64-linux-dbg-out.log")
}

type fixture struct {
	rec      *recorder
	git      *fakeGitter
	vcpkg    *fakeVcpkg
	home     string
	logs     *bytes.Buffer
	buildLog *bytes.Buffer
	deps     Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rec := &recorder{}
	home := t.TempDir()
	logs := &bytes.Buffer{}
	buildLog := &bytes.Buffer{}

	f := &fixture{
		rec:      rec,
		git:      &fakeGitter{rec: rec, tag: testTag, results: map[string]runner.Result{}},
		vcpkg:    &fakeVcpkg{rec: rec, root: t.TempDir(), results: map[string]runner.Result{}},
		home:     home,
		logs:     logs,
		buildLog: buildLog,
	}
	f.deps = Deps{
		Config:   config.Default(),
		Git:      f.git,
		Vcpkg:    f.vcpkg,
		Env:      &mockEnvProvider{values: map[string]string{pfs.HomeEnvVar: home}},
		Logger:   slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		BuildLog: buildLog,
	}
	return f
}

func (f *fixture) publisher(t *testing.T) *Publisher {
	t.Helper()
	p, err := New(context.Background(), f.deps, testCreds)
	require.NoError(t, err)
	return p
}

func hashOutput(checksum string) []byte {
	return []byte("Downloading https://github.com/brainboxdotcc/DPP/archive/v10.0.29.tar.gz\n" +
		"error: Failed to download from mirror set\n" +
		"File does not have the expected hash:\n" +
		"Expected hash: 0\n" +
		"Actual hash:   " + checksum + "\n")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
