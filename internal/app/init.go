package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/andyballingall/portpub/internal/config"
	"github.com/andyballingall/portpub/internal/fs"
)

const InitCmdName = "init"

// NewInitCmd returns a new cobra command for writing a default configuration file.
func NewInitCmd(pathResolver fs.PathResolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   InitCmdName + " [dirpath]",
		Short: "Create a configuration file",
		Long: `Write a ` + config.ConfigFile + ` holding the built-in defaults, ready to be edited
for another library.`,
		Args: cobra.MaximumNArgs(1),
		Example: `
  portpub init
  portpub init ./ci
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirpath := "."
			if len(args) > 0 {
				dirpath = args[0]
			}

			// 1. Create directory if it doesn't exist
			if err := os.MkdirAll(dirpath, 0o750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

			configPath := filepath.Join(dirpath, config.ConfigFile)

			// 2. Check if config file already exists
			if _, err := os.Stat(configPath); err == nil {
				return &config.ConfigExistsError{Path: configPath}
			}

			// 3. Write default config
			if err := os.WriteFile(configPath, []byte(config.DefaultConfigContent), 0o600); err != nil {
				return fmt.Errorf("failed to write configuration file: %w", err)
			}

			cmd.Printf("Successfully created configuration at: %s\n", configPath)
			cmd.Printf("%s", addEnvironmentVariableInstructions(pathResolver, configPath))
			cmd.Println("\nTo check the generated port files, use the render command. For details:")
			cmd.Printf("  portpub render -h\n")

			return nil
		},
	}

	return cmd
}

func addEnvironmentVariableInstructions(pathResolver fs.PathResolver, configPath string) string {
	return addEnvironmentVariableInstructionsForOS(pathResolver, configPath, runtime.GOOS)
}

func addEnvironmentVariableInstructionsForOS(pathResolver fs.PathResolver, configPath, goos string) string {
	abs, err := pathResolver.Abs(configPath)
	if err != nil {
		abs = configPath
	}

	envVar := config.ConfigEnvVar
	instructions := "To use this configuration from any directory, set an environment variable. Run:\n"

	switch goos {
	case "windows":
		instructions += fmt.Sprintf("\n  setx %s %q && set %q\n", envVar, abs, envVar+"="+abs)
	case "darwin":
		instructions += fmt.Sprintf("\n  echo 'export %s=%q' >> ~/.zshrc && source ~/.zshrc\n", envVar, abs)
	default:
		instructions += fmt.Sprintf("\n  echo 'export %s=%q' >> ~/.bashrc && source ~/.bashrc\n", envVar, abs)
	}

	return instructions
}
