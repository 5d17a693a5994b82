package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewAttachCmd(workspaces *internal.WorkspacePool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach <file>",
		Short: "Store a file as an attachment",
		Long: `Store a file in the attachment store and print its id. With --memo the
attachment link is appended to that memo. With --get the attachment with the
given id is written to <file> instead.`,
		Args: cobra.ExactArgs(1),
		RunE: makeAttachRunner(workspaces),
	}

	cmd.Flags().String("memo", "", "Append the attachment link to this memo")
	cmd.Flags().String("get", "", "Write the attachment with this id to <file>")
	return cmd
}

func makeAttachRunner(workspaces *internal.WorkspacePool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path := args[0]
		memoID, _ := cmd.Flags().GetString("memo")
		getID, _ := cmd.Flags().GetString("get")
		ctx := cmd.Context()

		if getID != "" {
			return withWorkspace(cmd, workspaces, func(w *internal.Workspace) error {
				a, data, err := w.Attachments.Data(ctx, getID)
				if err != nil {
					return fmt.Errorf("read attachment: %w", err)
				}
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %d bytes)\n", path, a.OriginalFilename, a.SizeBytes)
				return nil
			})
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		return withWorkspace(cmd, workspaces, func(w *internal.Workspace) error {
			a, err := w.Attachments.Create(ctx, path, data)
			if err != nil {
				return fmt.Errorf("create attachment: %w", err)
			}

			if memoID != "" {
				memo, err := w.Memos.Get(ctx, memoID)
				if err != nil {
					return fmt.Errorf("get memo: %w", err)
				}
				content := strings.TrimRight(memo.Content, "\n") + "\n\n" + attachmentLink(a) + "\n"
				if err := w.Memos.UpdateContent(ctx, memoID, content); err != nil {
					return fmt.Errorf("link attachment: %w", err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), a.ID)
			return nil
		})
	}
}

func attachmentLink(a internal.Attachment) string {
	return fmt.Sprintf("[%s](attachment://%s)", a.OriginalFilename, a.ID)
}
