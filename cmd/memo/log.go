package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewLogCmd(workspaces *internal.WorkspacePool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log [memo-id]",
		Short: "Show the changelog",
		Long: `Show changelog entries oldest first, for one memo or for the whole store.
With --json the entries are printed in the format "memo import" reads.`,
		Args: cobra.MaximumNArgs(1),
		RunE: makeLogRunner(workspaces),
	}

	cmd.Flags().IntP("number", "n", 0, "Limit number of entries (0 shows all)")
	cmd.Flags().Bool("unsynced", false, "Only entries not yet synced")
	cmd.Flags().Bool("unapplied", false, "Only entries not yet applied")
	return cmd
}

func makeLogRunner(workspaces *internal.WorkspacePool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("number")
		unsynced, _ := cmd.Flags().GetBool("unsynced")
		unapplied, _ := cmd.Flags().GetBool("unapplied")
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()

		var entries []internal.ChangelogEntry
		err := withWorkspace(cmd, workspaces, func(w *internal.Workspace) error {
			if len(args) == 1 {
				if err := internal.ValidateID(args[0]); err != nil {
					return err
				}
				all, err := w.Changelog.ListForTarget(ctx, internal.TargetMemos, args[0])
				entries = all
				return err
			}

			list := w.Changelog.List
			switch {
			case unsynced:
				list = w.Changelog.ListUnsynced
			case unapplied:
				list = w.Changelog.ListUnapplied
			}
			var err error
			entries, err = collectEntries(ctx, list, limit)
			return err
		})
		if err != nil {
			return fmt.Errorf("get changelog: %w", err)
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}

		if asJSON {
			if entries == nil {
				entries = []internal.ChangelogEntry{}
			}
			return writeJSON(cmd, entries)
		}

		for _, e := range entries {
			state := ""
			if !e.IsApplied {
				state = " (unapplied)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %-11s %s %s%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				shortID(e.ID),
				e.TargetType,
				shortID(e.TargetID),
				describeChange(e.Value),
				state,
			)
		}
		return nil
	}
}

type listFunc func(context.Context, internal.Pagination) (internal.Page[internal.ChangelogEntry], error)

func collectEntries(ctx context.Context, list listFunc, limit int) ([]internal.ChangelogEntry, error) {
	var entries []internal.ChangelogEntry
	page := internal.Pagination{PageSize: 200}
	for {
		res, err := list(ctx, page)
		if err != nil {
			return nil, err
		}
		entries = append(entries, res.Items...)
		if res.Next == nil || (limit > 0 && len(entries) >= limit) {
			return entries, nil
		}
		page.After = res.Next
	}
}

func describeChange(v internal.ChangelogValue) string {
	switch v := v.(type) {
	case internal.MemoCreated:
		return "created"
	case internal.AttachmentCreated:
		return "created " + v.Attachment.OriginalFilename
	case internal.MemoContentChanged:
		return fmt.Sprintf("content %d→%d", v.Changes.BaseLength(), v.Changes.TargetLength())
	case internal.MemoArchived:
		if v.IsArchived {
			return "archived"
		}
		return "unarchived"
	case internal.MemoDeleted:
		if v.IsDeleted {
			return "deleted"
		}
		return "undeleted"
	default:
		return fmt.Sprintf("%T", v)
	}
}
