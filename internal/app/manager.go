package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/andyballingall/portpub/internal/config"
	"github.com/andyballingall/portpub/internal/fs"
	"github.com/andyballingall/portpub/internal/port"
	"github.com/andyballingall/portpub/internal/publish"
	"github.com/andyballingall/portpub/internal/repo"
)

// Manager defines the business logic behind the CLI commands.
type Manager interface {
	Publish(ctx context.Context, creds repo.Credentials) error
	Render(ctx context.Context, checksum port.Checksum, write bool) (Rendered, error)
}

// Rendered holds the port files generated for a release.
type Rendered struct {
	Release  publish.Release
	Layout   port.Layout
	Manifest []byte
	Recipe   port.Recipe
}

// Ensure the interface is satisfied.
var _ Manager = (*LazyManager)(nil)

// LazyManager acts as a placeholder for a real Manager implementation, allowing
// for deferred initialization of dependencies.
type LazyManager struct {
	inner Manager
}

func (l *LazyManager) SetInner(m Manager) {
	l.inner = m
}

// HasInner returns true if the inner manager has been set.
// This is used by PersistentPreRunE to skip initialization if already configured (e.g., in tests).
func (l *LazyManager) HasInner() bool {
	return l.inner != nil
}

func (l *LazyManager) check() Manager {
	if l.inner == nil {
		panic("LazyManager accessed before initialization; check command wiring.")
	}
	return l.inner
}

func (l *LazyManager) Publish(ctx context.Context, creds repo.Credentials) error {
	return l.check().Publish(ctx, creds)
}

func (l *LazyManager) Render(ctx context.Context, checksum port.Checksum, write bool) (Rendered, error) {
	return l.check().Render(ctx, checksum, write)
}

// Ensure the interface is satisfied.
var _ Manager = (*CLIManager)(nil)

// CLIManager is the concrete implementation of the Manager interface.
type CLIManager struct {
	logger   *slog.Logger
	cfg      *config.Config
	gitter   repo.Gitter
	vcpkg    publish.PackageManager
	env      fs.EnvProvider
	dir      string
	buildLog io.Writer
}

// NewCLIManager creates a CLIManager. dir is the checkout of the library whose latest
// tag is published; buildLog receives the vcpkg build log when verification fails.
func NewCLIManager(
	l *slog.Logger,
	cfg *config.Config,
	g repo.Gitter,
	pm publish.PackageManager,
	env fs.EnvProvider,
	dir string,
	buildLog io.Writer,
) *CLIManager {
	return &CLIManager{
		logger:   l,
		cfg:      cfg,
		gitter:   g,
		vcpkg:    pm,
		env:      env,
		dir:      dir,
		buildLog: buildLog,
	}
}

func (m *CLIManager) Publish(ctx context.Context, creds repo.Credentials) error {
	m.logger.Debug("publishing port", "package", m.cfg.Package.Name, "user", creds.User)

	p, err := publish.New(ctx, publish.Deps{
		Config:   m.cfg,
		Git:      m.gitter,
		Vcpkg:    m.vcpkg,
		Env:      m.env,
		Logger:   m.logger,
		TagDir:   m.dir,
		BuildLog: m.buildLog,
	}, creds)
	if err != nil {
		return err
	}
	return p.Run(ctx)
}

// Render generates the port files for the latest tag in the working directory. With
// write set, they are also written to the port tree under that directory.
func (m *CLIManager) Render(ctx context.Context, checksum port.Checksum, write bool) (Rendered, error) {
	m.logger.Debug("rendering port", "checksum", checksum, "write", write)

	tag, err := m.gitter.LatestTag(ctx, m.dir)
	if err != nil {
		return Rendered{}, err
	}
	release := publish.Release{Tag: tag, Version: publish.VersionFromTag(tag)}

	manifest, recipe, err := publish.RenderPort(m.cfg, release.Version, checksum)
	if err != nil {
		return Rendered{}, err
	}

	layout := port.Layout{Root: filepath.Join(m.dir, m.cfg.PortTree), Package: m.cfg.Package.Name}
	if write {
		if err = fs.WriteFile(layout.ManifestPath(), manifest); err != nil {
			return Rendered{}, err
		}
		if err = fs.WriteFile(layout.RecipePath(), []byte(recipe)); err != nil {
			return Rendered{}, err
		}
		m.logger.Info("Wrote port files to " + layout.PortDir())
	}

	return Rendered{Release: release, Layout: layout, Manifest: manifest, Recipe: recipe}, nil
}
