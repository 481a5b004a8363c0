package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/andyballingall/portpub/internal/config"
	"github.com/andyballingall/portpub/internal/fs"
	"github.com/andyballingall/portpub/internal/repo"
	"github.com/andyballingall/portpub/internal/runner"
	"github.com/andyballingall/portpub/internal/vcpkg"
)

// Version is the current version of portpub, set at build time.
var Version = "dev"

var LongDescription = `
portpub publishes a vcpkg port for the latest release of a C++ library into the
port tree carried by the library's own repository. It generates the port's
vcpkg.json and portfile.cmake, discovers the SHA512 of the release archive with a
first build, registers the version, pushes the result and verifies it with a
second build.
`

// NewRootCmd creates the root command and wires up dependencies.
func NewRootCmd(lazy *LazyManager, ll *slog.LevelVar, stderr io.Writer, envProvider fs.EnvProvider) *cobra.Command {
	var debug bool
	var noColour bool
	var configPath pathValue
	var logCloser io.Closer

	pathResolver := fs.NewPathResolver()

	rootCmd := &cobra.Command{
		Use:           "portpub",
		Short:         "Publish a vcpkg port for the latest release of a library",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Long:          LongDescription,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// 1. Setup Logging
			if debug {
				ll.Set(slog.LevelDebug)
			}

			// Skip initialization for commands which need no configuration
			if skipsInitialisation(cmd) {
				return nil
			}
			// Skip if already initialised (e.g., in tests)
			if lazy.HasInner() {
				return nil
			}

			// 2. Load configuration
			dir, err := pathResolver.CanonicalPath(".")
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}

			cfg, err := config.Load(config.Discover(string(configPath), envProvider.Get(config.ConfigEnvVar), dir))
			if err != nil {
				return err
			}

			logger, closer, err := setupLogger(stderr, ll, envProvider, dir, !noColour)
			if err != nil {
				logger.Warn("logging to file disabled", "error", err)
			}
			logCloser = closer

			// 3. Build Dependencies
			r := runner.NewCLIRunner(logger, cfg.Vcpkg.PrivilegePrefix, runner.WithProgress(stderr))
			gitter := repo.NewCLIGitter(r)
			tool := vcpkg.NewTool(r, cfg.Vcpkg)

			// 4. Hydrate the Lazy Wrapper
			realMgr := NewCLIManager(logger, cfg, gitter, tool, envProvider, dir, stderr)
			lazy.SetInner(realMgr)

			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().VarP(&configPath, "config", "f", "path to "+config.ConfigFile+" (overrides "+
		config.ConfigEnvVar+")")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	rootCmd.PersistentFlags().BoolVarP(&noColour, "nocolour", "c", false, "Disable colour in output")
	// Support alternate spellings
	rootCmd.PersistentFlags().BoolVar(&noColour, "nocolor", false, "")
	rootCmd.PersistentFlags().BoolVar(&noColour, "noColor", false, "")
	rootCmd.PersistentFlags().BoolVar(&noColour, "noColour", false, "")
	_ = rootCmd.PersistentFlags().MarkHidden("nocolor")
	_ = rootCmd.PersistentFlags().MarkHidden("noColor")
	_ = rootCmd.PersistentFlags().MarkHidden("noColour")

	// Subcommands
	rootCmd.AddCommand(NewInitCmd(pathResolver))
	rootCmd.AddCommand(NewChecksumCmd())
	rootCmd.AddCommand(NewPublishCmd(lazy))
	rootCmd.AddCommand(NewRenderCmd(lazy))

	return rootCmd
}

// skipsInitialisation reports whether cmd runs without configuration or a Manager.
func skipsInitialisation(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", InitCmdName, ChecksumCmdName:
		return true
	}
	return isCompletionCommand(cmd)
}

// isCompletionCommand returns true if the command or any of its parents is the "completion" command.
func isCompletionCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "completion" {
			return true
		}
	}
	return false
}
