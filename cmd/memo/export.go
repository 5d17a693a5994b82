package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewExportCmd(workspaces *internal.WorkspacePool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memos as markdown files",
		Long: `Write every memo to <scope>/export/<id>.md and commit the result to the git
repository in that directory. With --log the export history is shown instead.`,
		Args: cobra.NoArgs,
		RunE: makeExportRunner(workspaces),
	}

	cmd.Flags().Bool("log", false, "Show export history")
	cmd.Flags().IntP("number", "n", 10, "Limit number of history entries")
	return cmd
}

func makeExportRunner(workspaces *internal.WorkspacePool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		showLog, _ := cmd.Flags().GetBool("log")
		limit, _ := cmd.Flags().GetInt("number")
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()

		return withWorkspace(cmd, workspaces, func(w *internal.Workspace) error {
			if showLog {
				snapshots, err := w.Export.Log(ctx, limit)
				if err != nil {
					return fmt.Errorf("export log: %w", err)
				}
				if asJSON {
					if snapshots == nil {
						snapshots = []internal.Snapshot{}
					}
					return writeJSON(cmd, snapshots)
				}
				for _, s := range snapshots {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", s.Hash[:7], s.Timestamp.Local().Format("2006-01-02 15:04"), s.Message)
				}
				return nil
			}

			snap, err := w.Export.Export(ctx)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, snap)
			}
			if snap.Hash == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "No changes in %s\n", w.Export.Dir())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s in %s\n", snap.Hash[:7], snap.Message, w.Export.Dir())
			return nil
		})
	}
}
