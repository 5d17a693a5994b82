package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewNewCmd(createUC *internal.CreateMemoUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "new [content...]",
		Aliases: []string{"add"},
		Short:   "Create a memo",
		Long:    `Create a memo from the arguments, or from stdin when none are given.`,
		RunE:    makeNewRunner(createUC, os.Stdin),
	}

	return cmd
}

func makeNewRunner(createUC *internal.CreateMemoUseCase, stdin io.Reader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		content, err := resolveContent(args, stdin)
		if err != nil {
			return err
		}
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("empty memo")
		}

		scopeHint, _ := cmd.Flags().GetString("scope")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := createUC.Execute(cmd.Context(), internal.CreateMemoInput{
			Content: content, Scope: scopeHint,
		})
		if err != nil {
			return fmt.Errorf("create memo: %w", err)
		}

		if asJSON {
			return writeJSON(cmd, memoJSON(out))
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.ID)
		return nil
	}
}

func resolveContent(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
