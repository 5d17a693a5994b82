package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewInitCmd(resolver *internal.ScopeResolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a memo store",
		Long:  `Create a .memos directory with a default config in the working directory, or in the home directory with --global.`,
		RunE:  makeInitRunner(resolver),
	}

	cmd.Flags().Bool("global", false, "Initialize global scope (~/.memos)")
	return cmd
}

func makeInitRunner(resolver *internal.ScopeResolver) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		if global, _ := cmd.Flags().GetBool("global"); global {
			scopeHint = string(internal.ScopeGlobal)
		}

		scope, err := resolver.ForInit(scopeHint)
		if err != nil {
			return fmt.Errorf("resolve scope: %w", err)
		}

		created, err := internal.InitWorkspace(scope)
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		if !created {
			return fmt.Errorf("already initialized at %s", scope.MemoPath)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized memo store at %s\n", scope.MemoPath)
		return nil
	}
}
