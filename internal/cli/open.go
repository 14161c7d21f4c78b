package cli

import (
	"github.com/spf13/cobra"
)

func newOpenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the downloads folder in the file manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.manager.OpenDownloadsFolder(cmd.Context()); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Opened %s\n", a.settings.GetDownloadDirectory())
			return nil
		},
	}
}
