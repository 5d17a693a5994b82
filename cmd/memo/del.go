package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewDelCmd(delUC *internal.DeleteMemoUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "del <id>",
		Aliases: []string{"delete", "rm"},
		Short:   "Delete a memo",
		Long:    `Flag a memo as deleted. It is purged by "memo cleanup" and can be restored until then with --undelete.`,
		Args:    cobra.ExactArgs(1),
		RunE:    makeDelRunner(delUC),
	}

	cmd.Flags().Bool("undelete", false, "Restore a deleted memo")
	return cmd
}

func makeDelRunner(delUC *internal.DeleteMemoUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id := args[0]
		scopeHint, _ := cmd.Flags().GetString("scope")
		undelete, _ := cmd.Flags().GetBool("undelete")

		if err := delUC.Execute(cmd.Context(), internal.DeleteMemoInput{
			ID: id, Scope: scopeHint, Undelete: undelete,
		}); err != nil {
			return fmt.Errorf("delete memo: %w", err)
		}

		if undelete {
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", id)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		}
		return nil
	}
}
