package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewEditCmd(getUC *internal.GetMemoUseCase, createUC *internal.CreateMemoUseCase, updateUC *internal.UpdateMemoUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a memo in $EDITOR",
		Long:  `Open a memo in your editor. Without an id a new memo is written. The change is recorded on save.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeEditRunner(getUC, createUC, updateUC),
	}

	return cmd
}

func makeEditRunner(getUC *internal.GetMemoUseCase, createUC *internal.CreateMemoUseCase, updateUC *internal.UpdateMemoUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")

		var existing *internal.MemoOutput
		if len(args) == 1 {
			out, err := getUC.Execute(cmd.Context(), internal.GetMemoInput{ID: args[0], Scope: scopeHint})
			if err != nil {
				return fmt.Errorf("get memo: %w", err)
			}
			existing = out
		}

		tmpFile, err := os.CreateTemp("", "memo-edit-*.md")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		defer os.Remove(tmpFile.Name())

		if existing != nil {
			if _, err := tmpFile.WriteString(existing.Content); err != nil {
				tmpFile.Close()
				return fmt.Errorf("write temp file: %w", err)
			}
		}
		tmpFile.Close()

		if err := runEditor(cmd, tmpFile.Name()); err != nil {
			return err
		}

		data, err := os.ReadFile(tmpFile.Name())
		if err != nil {
			return fmt.Errorf("read edited file: %w", err)
		}
		content := string(data)

		switch {
		case existing == nil && strings.TrimSpace(content) == "":
			fmt.Fprintln(cmd.OutOrStdout(), "Empty memo, nothing saved.")
			return nil
		case existing == nil:
			out, err := createUC.Execute(cmd.Context(), internal.CreateMemoInput{Content: content, Scope: scopeHint})
			if err != nil {
				return fmt.Errorf("create memo: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", out.ID)
		case content == existing.Content:
			fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
		default:
			if err := updateUC.Execute(cmd.Context(), internal.UpdateMemoInput{
				ID: existing.ID, Content: content, Scope: scopeHint,
			}); err != nil {
				return fmt.Errorf("update memo: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", existing.ID)
		}
		return nil
	}
}

func runEditor(cmd *cobra.Command, path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fields := strings.Fields(editor)
	c := exec.CommandContext(cmd.Context(), fields[0], append(fields[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Run(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}
