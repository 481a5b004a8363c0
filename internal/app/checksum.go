package app

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/andyballingall/portpub/internal/port"
)

const ChecksumCmdName = "checksum"

func NewChecksumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   ChecksumCmdName + " [file|-]",
		Short: "Extract the archive checksum from vcpkg build output",
		Long: `Find the "Actual hash" vcpkg reports when a downloaded archive does not match the
SHA512 in a portfile. Reads standard input when no file or "-" is given.`,
		Args: cobra.MaximumNArgs(1),
		Example: `
  vcpkg install dpp:x64-linux 2>&1 | portpub checksum
  portpub checksum buildtrees/dpp/install-x64-linux-dbg-out.log
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "standard input"
			var r io.Reader = cmd.InOrStdin()
			if len(args) > 0 && args[0] != "-" {
				source = args[0]
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to read build output: %w", err)
				}
				defer f.Close()
				r = f
			}

			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read build output: %w", err)
			}

			checksum, ok := port.ExtractChecksum(string(data))
			if !ok {
				return &NoChecksumInOutputError{Source: source}
			}

			fmt.Fprintln(cmd.OutOrStdout(), checksum)
			return nil
		},
	}

	return cmd
}
