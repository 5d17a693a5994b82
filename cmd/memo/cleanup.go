package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewCleanupCmd(workspaces *internal.WorkspacePool) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Purge deleted memos",
		Long:  `Purge memos flagged deleted and drop unsynced changelog entries of memos that no longer exist.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return withWorkspace(cmd, workspaces, func(w *internal.Workspace) error {
				res, err := w.Cleanup.Run(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]int{
						"orphaned_entries": res.OrphanedEntries,
						"purged_memos":     res.PurgedMemos,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d memos, removed %d orphaned changelog entries\n",
					res.PurgedMemos, res.OrphanedEntries)
				return nil
			})
		},
	}
}
