package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewArchiveCmd(archiveUC *internal.ArchiveMemoUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a memo",
		Args:  cobra.ExactArgs(1),
		RunE:  makeArchiveRunner(archiveUC),
	}

	cmd.Flags().Bool("undo", false, "Unarchive the memo")
	return cmd
}

func makeArchiveRunner(archiveUC *internal.ArchiveMemoUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id := args[0]
		scopeHint, _ := cmd.Flags().GetString("scope")
		undo, _ := cmd.Flags().GetBool("undo")

		if err := archiveUC.Execute(cmd.Context(), internal.ArchiveMemoInput{
			ID: id, Archived: !undo, Scope: scopeHint,
		}); err != nil {
			return fmt.Errorf("archive memo: %w", err)
		}

		if undo {
			fmt.Fprintf(cmd.OutOrStdout(), "Unarchived %s\n", id)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %s\n", id)
		}
		return nil
	}
}
