package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the file name looked for in the current directory when no path is given.
const ConfigFile = "portpub.yml"

// ConfigEnvVar may hold the path of the configuration file.
const ConfigEnvVar = "PORTPUB_CONFIG"

const DefaultConfigContent = `# vcpkg port publisher configuration
#
# Every value below is the built-in default. Delete anything you do not need to change.

# REPOSITORY
#
# The upstream repository which is tagged on release and which carries the vcpkg port
# tree. The publisher clones it over https using the credentials given on the command
# line, and pushes the regenerated port files back to the branch below.
repository:
  host: "github.com"
  owner: "brainboxdotcc"
  name: "DPP"
  branch: "master"

# PORT TREE
#
# Directory inside the repository holding ports/ and versions/ in vcpkg registry layout.
portTree: "vcpkg"

# PACKAGE
#
# The content of the generated ports/<name>/vcpkg.json. The version is always taken
# from the latest release tag. hostDependencies are emitted as {"name": ..., "host": true}.
package:
  name: "dpp"
  description: "D++ Extremely Lightweight C++ Discord Library."
  homepage: "https://dpp.dev/"
  license: "Apache-2.0"
  supports: "((windows & !static & !uwp) | linux | osx)"
  dependencies:
    - libsodium
    - nlohmann-json
    - openssl
    - opus
    - zlib
  hostDependencies:
    - vcpkg-cmake
    - vcpkg-cmake-config

# VCPKG
#
# The system-wide vcpkg checkout used for the discovery and confirming builds. It is a
# git checkout without a usable remote: commits made there are never pushed.
# privilegePrefix is prepended to commands which write to the vcpkg root. Set it to ""
# when the publisher already runs with sufficient rights.
vcpkg:
  root: "/usr/local/share/vcpkg"
  triplet: "x64-linux"
  privilegePrefix: "sudo"

# BOT
#
# The git identity used for commits made by the publisher.
bot:
  name: "DPP VCPKG Bot"
  email: "noreply@dpp.dev"
`

var portNamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type Repository struct {
	Host   string `yaml:"host"`
	Owner  string `yaml:"owner"`
	Name   string `yaml:"name"`
	Branch string `yaml:"branch"`
}

// Slug returns the owner/name form used by vcpkg_from_github.
func (r Repository) Slug() string {
	return r.Owner + "/" + r.Name
}

type Package struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	Homepage         string   `yaml:"homepage"`
	License          string   `yaml:"license"`
	Supports         string   `yaml:"supports"`
	Dependencies     []string `yaml:"dependencies"`
	HostDependencies []string `yaml:"hostDependencies"`
}

type Vcpkg struct {
	Root            string `yaml:"root"`
	Triplet         string `yaml:"triplet"`
	PrivilegePrefix string `yaml:"privilegePrefix"`
}

type Bot struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type Config struct {
	Repository Repository `yaml:"repository"`
	PortTree   string     `yaml:"portTree"`
	Package    Package    `yaml:"package"`
	Vcpkg      Vcpkg      `yaml:"vcpkg"`
	Bot        Bot        `yaml:"bot"`
}

// Default returns the built-in configuration, which publishes the D++ port.
func Default() *Config {
	return &Config{
		Repository: Repository{
			Host:   "github.com",
			Owner:  "brainboxdotcc",
			Name:   "DPP",
			Branch: "master",
		},
		PortTree: "vcpkg",
		Package: Package{
			Name:        "dpp",
			Description: "D++ Extremely Lightweight C++ Discord Library.",
			Homepage:    "https://dpp.dev/",
			License:     "Apache-2.0",
			Supports:    "((windows & !static & !uwp) | linux | osx)",
			Dependencies: []string{
				"libsodium",
				"nlohmann-json",
				"openssl",
				"opus",
				"zlib",
			},
			HostDependencies: []string{
				"vcpkg-cmake",
				"vcpkg-cmake-config",
			},
		},
		Vcpkg: Vcpkg{
			Root:            "/usr/local/share/vcpkg",
			Triplet:         "x64-linux",
			PrivilegePrefix: "sudo",
		},
		Bot: Bot{
			Name:  "DPP VCPKG Bot",
			Email: "noreply@dpp.dev",
		},
	}
}

// Load reads the configuration at path over the built-in defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &MissingConfigError{Path: path}
	}
	if err != nil {
		return nil, err
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, &InvalidYAMLError{Path: path, Wrapped: err}
	}

	if vErr := cfg.Validate(); vErr != nil {
		return nil, vErr
	}
	return cfg, nil
}

// Discover returns the configuration file to use: the explicit path if given, then
// the path in PORTPUB_CONFIG, then ./portpub.yml if it exists. An empty result means
// the defaults apply.
func Discover(explicit, fromEnv, dir string) string {
	if explicit != "" {
		return explicit
	}
	if fromEnv != "" {
		return fromEnv
	}
	candidate := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func (c *Config) Validate() error {
	required := []struct {
		property string
		value    string
	}{
		{"repository.host", c.Repository.Host},
		{"repository.owner", c.Repository.Owner},
		{"repository.name", c.Repository.Name},
		{"repository.branch", c.Repository.Branch},
		{"portTree", c.PortTree},
		{"package.name", c.Package.Name},
		{"package.description", c.Package.Description},
		{"package.license", c.Package.License},
		{"vcpkg.root", c.Vcpkg.Root},
		{"vcpkg.triplet", c.Vcpkg.Triplet},
		{"bot.name", c.Bot.Name},
		{"bot.email", c.Bot.Email},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingPropertyError{Property: r.property}
		}
	}

	if !portNamePattern.MatchString(c.Package.Name) {
		return &InvalidPropertyError{
			Property: "package.name",
			Value:    c.Package.Name,
			Reason:   "must contain only [a-z], [0-9] and single '-' separators",
		}
	}

	for i, d := range append(append([]string{}, c.Package.Dependencies...), c.Package.HostDependencies...) {
		if !portNamePattern.MatchString(d) {
			return &InvalidPropertyError{
				Property: fmt.Sprintf("package dependency %d", i),
				Value:    d,
				Reason:   "is not a valid port name",
			}
		}
	}

	for _, d := range []struct{ property, value string }{
		{"repository.name", c.Repository.Name},
		{"portTree", c.PortTree},
	} {
		if d.value == "." || d.value == ".." || filepath.Base(d.value) != d.value || strings.ContainsAny(d.value, `/\`) {
			return &InvalidPropertyError{Property: d.property, Value: d.value, Reason: "must be a single directory name"}
		}
	}

	if !filepath.IsAbs(c.Vcpkg.Root) {
		return &InvalidPropertyError{Property: "vcpkg.root", Value: c.Vcpkg.Root, Reason: "must be an absolute path"}
	}
	return nil
}

// PackageSpec returns the name:triplet form passed to vcpkg install.
func (c *Config) PackageSpec() string {
	return c.Package.Name + ":" + c.Vcpkg.Triplet
}
