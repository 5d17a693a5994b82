package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewReplayCmd(workspaces *internal.WorkspacePool) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <id>",
		Short: "Print a memo rebuilt from its changelog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd, workspaces, func(w *internal.Workspace) error {
				content, err := w.Memos.Replay(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("replay memo: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			})
		},
	}
}
