package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// listTimeLayout is how date_added is shown
const listTimeLayout = "2006-01-02 15:04"

func newLibraryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Inspect or clear the download library",
	}
	cmd.AddCommand(newLibraryListCmd(opts))
	cmd.AddCommand(newLibraryClearCmd(opts))
	return cmd
}

func newLibraryListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List finished downloads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()

			return a.run(cmd.Context(), func(ctx context.Context) error {
				if err := a.manager.Init(ctx); err != nil {
					return err
				}
				history := a.manager.Snapshot().History
				out := cmd.OutOrStdout()
				if len(history) == 0 {
					printf(out, "Library is empty\n")
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				printf(tw, "ADDED\tTITLE\tURL\n")
				for _, job := range history {
					printf(tw, "%s\t%s\t%s\n", job.CreatedAt.Local().Format(listTimeLayout), job.Title, job.URL)
				}
				return tw.Flush()
			})
		},
	}
}

func newLibraryClearCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every library record (downloaded files are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()

			return a.run(cmd.Context(), func(ctx context.Context) error {
				if err := a.manager.Init(ctx); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				count := len(a.manager.Snapshot().History)

				a.manager.RequestClear()
				if !yes {
					ok, err := newPrompter(cmd.InOrStdin(), out).confirm(fmt.Sprintf("Delete all %d records?", count))
					if err != nil {
						a.manager.CancelClear()
						return err
					}
					if !ok {
						a.manager.CancelClear()
						printf(out, "Cancelled\n")
						return nil
					}
				}

				if err := a.manager.ConfirmClear(ctx); err != nil {
					return err
				}
				printf(out, "Cleared %d records\n", count)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
