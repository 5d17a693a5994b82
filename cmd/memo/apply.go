package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewApplyCmd(workspaces *internal.WorkspacePool) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply imported changelog entries",
		Long:  `Apply every unapplied changelog entry, oldest first, rebuilding changed memos from their changelog.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withWorkspace(cmd, workspaces, func(w *internal.Workspace) error {
				n, err := w.Sync.Run(cmd.Context())
				if err != nil {
					return fmt.Errorf("apply changelog: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d entries\n", n)
				return nil
			})
		},
	}
}
