package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/4thel00z/memos/internal"
)

func NewWatchCmd(workspaces *internal.WorkspacePool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync edits of exported memo files back into memos",
		Long: `Export the memos, then watch the export directory. Saved <id>.md files are
diffed against their memo and recorded as changes. Paths matching .memoignore
patterns are skipped.`,
		Args: cobra.NoArgs,
		RunE: makeWatchRunner(workspaces),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	return cmd
}

func makeWatchRunner(workspaces *internal.WorkspacePool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		ctx := cmd.Context()

		h, err := workspaces.Acquire(ctx, scopeHint)
		if err != nil {
			return err
		}
		defer h.Release()
		w := h.Value()

		if _, err := w.Export.Export(ctx); err != nil {
			return fmt.Errorf("export: %w", err)
		}

		ignore, err := internal.NewIgnoreMatcher(w.Export.Dir())
		if err != nil {
			return fmt.Errorf("load ignore patterns: %w", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(w.Export.Dir()); err != nil {
			return fmt.Errorf("watch %s: %w", w.Export.Dir(), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", w.Export.Dir())
		return watchLoop(ctx, cmd, watcher, ignore, debounce, func(path string) (bool, error) {
			return w.Export.ImportFile(ctx, path)
		})
	}
}

func watchLoop(
	ctx context.Context,
	cmd *cobra.Command,
	watcher *fsnotify.Watcher,
	ignore *internal.IgnoreMatcher,
	debounce time.Duration,
	importFile func(string) (bool, error),
) error {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(event, ignore) {
				continue
			}
			if len(pending) == 0 {
				timer.Reset(debounce)
			}
			pending[event.Name] = true
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case <-timer.C:
			for path := range pending {
				delete(pending, path)
				if _, err := os.Stat(path); err != nil {
					continue
				}
				changed, err := importFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "import %s: %v\n", filepath.Base(path), err)
					continue
				}
				if changed {
					fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", filepath.Base(path))
				}
			}
		}
	}
}

// shouldIgnoreEvent drops events that cannot carry a memo edit.
func shouldIgnoreEvent(event fsnotify.Event, ignore *internal.IgnoreMatcher) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return true
	}
	if filepath.Ext(event.Name) != ".md" {
		return true
	}
	return ignore != nil && ignore.Match(event.Name, false)
}
