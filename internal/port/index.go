package port

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

const (
	// PortsDir holds one directory per port inside a port tree.
	PortsDir = "ports"
	// VersionsDir holds the version index inside a port tree.
	VersionsDir = "versions"
	// BaselineFile is the version index baseline inside VersionsDir.
	BaselineFile = "baseline.json"
	// ManifestFile is the manifest inside a port directory.
	ManifestFile = "vcpkg.json"
	// RecipeFile is the recipe inside a port directory.
	RecipeFile = "portfile.cmake"
)

// Layout locates files of one port within a port tree rooted at Root.
type Layout struct {
	Root    string
	Package string
}

func (l Layout) PortsDir() string {
	return filepath.Join(l.Root, PortsDir)
}

func (l Layout) PortDir() string {
	return filepath.Join(l.Root, PortsDir, l.Package)
}

func (l Layout) ManifestPath() string {
	return filepath.Join(l.PortDir(), ManifestFile)
}

func (l Layout) RecipePath() string {
	return filepath.Join(l.PortDir(), RecipeFile)
}

func (l Layout) BaselinePath() string {
	return filepath.Join(l.Root, VersionsDir, BaselineFile)
}

// VersionFilePath returns versions/<first letter>-/<pkg>.json.
func (l Layout) VersionFilePath() string {
	return filepath.Join(l.Root, VersionsDir, Shard(l.Package), l.Package+".json")
}

// IndexFiles lists the files x-add-version maintains for the port, relative to Root.
func (l Layout) IndexFiles() []string {
	return []string{
		filepath.Join(PortsDir, l.Package, ManifestFile),
		filepath.Join(VersionsDir, BaselineFile),
		filepath.Join(VersionsDir, Shard(l.Package), l.Package+".json"),
	}
}

// Shard returns the version index directory for pkg, e.g. "d-" for "dpp".
func Shard(pkg string) string {
	if pkg == "" {
		return "-"
	}
	return pkg[:1] + "-"
}

// BaselineEntry is a port's entry in versions/baseline.json.
type BaselineEntry struct {
	Baseline    string
	PortVersion int64
}

// ReadBaseline returns the baseline registered for pkg.
func ReadBaseline(path, pkg string) (BaselineEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BaselineEntry{}, err
	}
	if !gjson.ValidBytes(data) {
		return BaselineEntry{}, &InvalidIndexError{Path: path}
	}

	entry := gjson.GetBytes(data, "default."+gjson.Escape(pkg))
	if !entry.Exists() {
		return BaselineEntry{}, &BaselineNotFoundError{Package: pkg, Path: path}
	}
	return BaselineEntry{
		Baseline:    entry.Get("baseline").String(),
		PortVersion: entry.Get("port-version").Int(),
	}, nil
}

// VersionGitTree returns the git-tree recorded for version in a port's version file.
func VersionGitTree(path, version string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	if !gjson.ValidBytes(data) {
		return "", false, &InvalidIndexError{Path: path}
	}

	res := gjson.GetBytes(data, fmt.Sprintf(`versions.#(version==%q).git-tree`, version))
	if !res.Exists() {
		return "", false, nil
	}
	return res.String(), true, nil
}
