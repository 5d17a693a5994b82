package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewSettingsCmd(workspaces *internal.WorkspacePool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write encrypted settings",
		Long:  `Settings are encrypted with the configured password (MEMO_PASSWORD).`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print one setting, or all of them",
			Args:  cobra.MaximumNArgs(1),
			RunE:  makeSettingsGetRunner(workspaces),
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a setting",
			Args:  cobra.ExactArgs(2),
			RunE:  makeSettingsSetRunner(workspaces),
		},
	)
	return cmd
}

func withSettings(cmd *cobra.Command, workspaces *internal.WorkspacePool, fn func(*internal.Settings) error) error {
	return withWorkspace(cmd, workspaces, func(w *internal.Workspace) error {
		if w.Settings == nil {
			return internal.ErrNoPassword
		}
		return fn(w.Settings)
	})
}

func makeSettingsGetRunner(workspaces *internal.WorkspacePool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()

		return withSettings(cmd, workspaces, func(s *internal.Settings) error {
			if len(args) == 1 {
				v, err := s.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("get setting %s: %w", args[0], err)
				}
				if asJSON {
					return writeJSON(cmd, map[string]string{args[0]: v})
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}

			all, err := s.All(ctx)
			if err != nil {
				return fmt.Errorf("get settings: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, all)
			}
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, all[k])
			}
			return nil
		})
	}
}

func makeSettingsSetRunner(workspaces *internal.WorkspacePool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withSettings(cmd, workspaces, func(s *internal.Settings) error {
			if err := s.Set(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("set setting %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		})
	}
}
