package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewImportCmd(workspaces *internal.WorkspacePool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import changelog entries from another device",
		Long: `Read a JSON array of changelog entries, as printed by "memo log --json",
from a file or stdin. Entries already known are skipped. Imported entries are
applied with --apply or later by "memo apply".`,
		Args: cobra.MaximumNArgs(1),
		RunE: makeImportRunner(workspaces, os.Stdin),
	}

	cmd.Flags().Bool("apply", false, "Apply the imported entries")
	return cmd
}

func makeImportRunner(workspaces *internal.WorkspacePool, stdin io.Reader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		apply, _ := cmd.Flags().GetBool("apply")
		ctx := cmd.Context()

		r := stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		return withWorkspace(cmd, workspaces, func(w *internal.Workspace) error {
			n, err := w.Changelog.ImportJSON(ctx, r)
			if err != nil {
				return fmt.Errorf("import changelog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries\n", n)

			if !apply {
				return nil
			}
			applied, err := w.Sync.Run(ctx)
			if err != nil {
				return fmt.Errorf("apply changelog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d entries\n", applied)
			return nil
		})
	}
}
