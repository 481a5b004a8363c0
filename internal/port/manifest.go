package port

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/andyballingall/portpub/internal/config"
)

// Dependency is an entry of the manifest's dependencies array. Plain dependencies
// serialise as a bare name, host tools as {"name": ..., "host": true}.
type Dependency struct {
	Name string
	Host bool
}

type hostDependency struct {
	Name string `json:"name"`
	Host bool   `json:"host,omitempty"`
}

func (d Dependency) MarshalJSON() ([]byte, error) {
	if !d.Host {
		return json.Marshal(d.Name)
	}
	return json.Marshal(hostDependency(d))
}

func (d *Dependency) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*d = Dependency{}
		return json.Unmarshal(data, &d.Name)
	}
	var hd hostDependency
	if err := json.Unmarshal(data, &hd); err != nil {
		return err
	}
	*d = Dependency(hd)
	return nil
}

// Manifest is the vcpkg.json of a port.
type Manifest struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Description  string       `json:"description"`
	Homepage     string       `json:"homepage,omitempty"`
	License      string       `json:"license"`
	Supports     string       `json:"supports,omitempty"`
	Dependencies []Dependency `json:"dependencies"`
}

// NewManifest builds the manifest of pkg at version.
func NewManifest(pkg config.Package, version string) Manifest {
	deps := make([]Dependency, 0, len(pkg.Dependencies)+len(pkg.HostDependencies))
	for _, d := range pkg.Dependencies {
		deps = append(deps, Dependency{Name: d})
	}
	for _, d := range pkg.HostDependencies {
		deps = append(deps, Dependency{Name: d, Host: true})
	}

	return Manifest{
		Name:         pkg.Name,
		Version:      version,
		Description:  pkg.Description,
		Homepage:     pkg.Homepage,
		License:      pkg.License,
		Supports:     pkg.Supports,
		Dependencies: deps,
	}
}

// Encode serialises the manifest with two-space indentation, as vcpkg format-manifest
// writes it, and validates the result. Platform expressions keep a literal '&'.
func (m Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	data := buf.Bytes()

	if vErr := ValidateManifest(data); vErr != nil {
		return nil, vErr
	}
	return data, nil
}

// DecodeManifest parses a vcpkg.json document.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, &InvalidManifestError{Wrapped: err}
	}
	return m, nil
}
