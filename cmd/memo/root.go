package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "memo",
		Short: "Offline-first memos with a mergeable changelog",
		Long: `Memos stored in a local SQLite database. Every change is recorded in a
changelog that other devices can import and replay.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	setHelpWithExternals(rootCmd)

	if a != nil {
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("scope", "", "Target scope (global|project)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	root.AddCommand(
		NewInitCmd(a.workspaces.Resolver()),
		NewNewCmd(a.createUC),
		NewGetCmd(a.getUC),
		NewEditCmd(a.getUC, a.createUC, a.updateUC),
		NewListCmd(a.listUC),
		NewDelCmd(a.deleteUC),
		NewArchiveCmd(a.archiveUC),
		NewAttachCmd(a.workspaces),
		NewLogCmd(a.workspaces),
		NewImportCmd(a.workspaces),
		NewApplyCmd(a.workspaces),
		NewReplayCmd(a.workspaces),
		NewExportCmd(a.workspaces),
		NewWatchCmd(a.workspaces),
		NewCleanupCmd(a.workspaces),
		NewSettingsCmd(a.workspaces),
	)
}

func setHelpWithExternals(cmd *cobra.Command) {
	defaultHelp := cmd.HelpFunc()

	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		defaultHelp(c, args)
		printExternalCommands(c)
	})
}

func printExternalCommands(cmd *cobra.Command) {
	externals := listExternalCommands()
	if len(externals) == 0 {
		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nExternal commands (memo-*):")
	for _, name := range externals {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
}

// withWorkspace runs fn with the workspace selected by --scope.
func withWorkspace(cmd *cobra.Command, workspaces *internal.WorkspacePool, fn func(*internal.Workspace) error) error {
	scopeHint, _ := cmd.Flags().GetString("scope")
	return workspaces.Do(cmd.Context(), scopeHint, fn)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
