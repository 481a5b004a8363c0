package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andyballingall/portpub/internal/port"
)

const RenderCmdName = "render"

func NewRenderCmd(mgr Manager) *cobra.Command {
	var checksum checksumValue
	var write bool

	cmd := &cobra.Command{
		Use:   RenderCmdName,
		Short: "Output the port files for the latest release tag",
		Long: `Output the vcpkg.json and portfile.cmake which would be generated for the latest
tag in the current directory. Nothing is built or pushed.`,
		Args: cobra.NoArgs,
		Example: `
  portpub render
  portpub render --checksum 7f1a...e2 --write
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rendered, err := mgr.Render(cmd.Context(), port.Checksum(checksum), write)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", filepath.Join(port.PortsDir, rendered.Layout.Package, port.ManifestFile))
			fmt.Fprint(out, string(rendered.Manifest))
			fmt.Fprintf(out, "\n# %s\n", filepath.Join(port.PortsDir, rendered.Layout.Package, port.RecipeFile))
			fmt.Fprint(out, rendered.Recipe.String())
			return nil
		},
	}

	cmd.Flags().VarP(&checksum, "checksum", "s", "SHA512 of the release archive (defaults to the placeholder 0)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Also write the files to the port tree")

	return cmd
}
