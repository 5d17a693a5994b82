package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

const previewWidth = 60

func NewListCmd(listUC *internal.ListMemosUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [search]",
		Aliases: []string{"ls"},
		Short:   "List memos",
		Long:    `List memos newest first, optionally filtered by a search string.`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    makeListRunner(listUC),
	}

	cmd.Flags().Bool("archived", false, "Only archived memos")
	cmd.Flags().Bool("hide-archived", false, "Hide archived memos")
	cmd.Flags().Bool("deleted", false, "Show deleted memos instead")
	cmd.Flags().IntP("number", "n", 0, "Limit number of memos (0 lists all)")
	return cmd
}

func makeListRunner(listUC *internal.ListMemosUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		input := internal.ListMemosInput{}
		if len(args) > 0 {
			input.Search = args[0]
		}
		input.Scope, _ = cmd.Flags().GetString("scope")
		input.OnlyArchived, _ = cmd.Flags().GetBool("archived")
		input.HideArchived, _ = cmd.Flags().GetBool("hide-archived")
		input.Deleted, _ = cmd.Flags().GetBool("deleted")
		input.Limit, _ = cmd.Flags().GetInt("number")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := listUC.Execute(cmd.Context(), input)
		if err != nil {
			return fmt.Errorf("list memos: %w", err)
		}

		if asJSON {
			data := make([]map[string]any, 0, len(out.Memos))
			for i := range out.Memos {
				data = append(data, memoJSON(&out.Memos[i]))
			}
			return writeJSON(cmd, data)
		}

		if len(out.Memos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No memos.")
			return nil
		}

		rows := pterm.TableData{{"ID", "UPDATED", "FLAGS", "CONTENT"}}
		for _, m := range out.Memos {
			rows = append(rows, []string{
				m.ID,
				m.UpdatedAt.Local().Format("2006-01-02 15:04"),
				memoFlags(m),
				preview(m.Content),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).WithWriter(cmd.OutOrStdout()).Render(); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
		if out.HasMore {
			fmt.Fprintln(cmd.OutOrStdout(), "(more memos not shown)")
		}
		return nil
	}
}

func memoFlags(m internal.MemoOutput) string {
	var flags []string
	if m.IsArchived {
		flags = append(flags, "archived")
	}
	if m.IsDeleted {
		flags = append(flags, "deleted")
	}
	return strings.Join(flags, ",")
}

// preview returns the first line of content cut to previewWidth runes.
func preview(content string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	runes := []rune(line)
	if len(runes) > previewWidth {
		return string(runes[:previewWidth-1]) + "…"
	}
	return line
}
