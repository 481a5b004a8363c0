package app

import (
	"github.com/spf13/cobra"

	"github.com/andyballingall/portpub/internal/repo"
)

const PublishCmdName = "publish"

func NewPublishCmd(mgr Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   PublishCmdName + " <user> <token>",
		Short: "Publish the vcpkg port for the latest release tag",
		Long: `Clone the repository, discover the checksum of the latest release archive with a
first vcpkg build, register the new version in the port tree, push it and verify the
port with a second build.

Run it from a checkout of the library: its most recent tag is the release published.`,
		Args: cobra.MaximumNArgs(2),
		Example: `
  portpub publish "$GITHUB_ACTOR" "$GITHUB_TOKEN"
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var creds repo.Credentials
			if len(args) > 0 {
				creds.User = args[0]
			}
			if len(args) > 1 {
				creds.Token = args[1]
			}
			return mgr.Publish(cmd.Context(), creds)
		},
	}

	return cmd
}
