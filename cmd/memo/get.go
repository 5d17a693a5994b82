package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewGetCmd(getUC *internal.GetMemoUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a memo",
		Long:  `Print the content of a memo.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeGetRunner(getUC),
	}

	return cmd
}

func makeGetRunner(getUC *internal.GetMemoUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := getUC.Execute(cmd.Context(), internal.GetMemoInput{
			ID: args[0], Scope: scopeHint,
		})
		if err != nil {
			return fmt.Errorf("get memo: %w", err)
		}

		if asJSON {
			return writeJSON(cmd, memoJSON(out))
		}

		fmt.Fprint(cmd.OutOrStdout(), out.Content)
		return nil
	}
}

func memoJSON(m *internal.MemoOutput) map[string]any {
	data := map[string]any{
		"id":          m.ID,
		"content":     m.Content,
		"is_archived": m.IsArchived,
		"is_deleted":  m.IsDeleted,
		"created_at":  m.CreatedAt,
		"updated_at":  m.UpdatedAt,
	}
	if len(m.Attachments) > 0 {
		attachments := make([]map[string]any, 0, len(m.Attachments))
		for _, a := range m.Attachments {
			attachments = append(attachments, map[string]any{
				"id":           a.ID,
				"filename":     a.Filename,
				"content_type": a.ContentType,
				"size_bytes":   a.SizeBytes,
			})
		}
		data["attachments"] = attachments
	}
	return data
}
