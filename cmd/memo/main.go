package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/fang"

	"github.com/4thel00z/memos/internal"
	"github.com/4thel00z/memos/internal/logger"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	if tryExternalCommand(ctx) {
		return
	}

	resolver := internal.NewScopeResolver()
	initLogger(resolver)
	defer func() { _ = logger.Logger.Sync() }()

	workspaces := internal.NewWorkspacePool(resolver,
		internal.WithIdleTimeout(time.Minute),
		internal.WithPoolLogger(logger.Named("workspace")),
	)

	rootCmd := NewRootCmd(version, newApp(workspaces))
	err := fang.Execute(ctx, rootCmd)
	if closeErr := workspaces.Close(); closeErr != nil {
		logger.Logger.Warnw("close workspaces", "error", closeErr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// initLogger configures logging from the nearest scope's config. Flags are
// not parsed yet, so --scope does not apply here.
func initLogger(resolver *internal.ScopeResolver) {
	cfg, err := internal.LoadConfig(resolver.Resolve(""))
	if err != nil {
		cfg = internal.DefaultConfig()
	}
	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "memo: %v\n", err)
	}
}

func tryExternalCommand(ctx context.Context) bool {
	if len(os.Args) < 2 {
		return false
	}

	cmd := os.Args[1]
	if cmd == "" || cmd[0] == '-' {
		return false
	}

	if _, err := findExternal(cmd); err != nil {
		return false
	}

	if err := executeExternal(ctx, cmd, os.Args[2:], version); err != nil {
		fmt.Fprintf(os.Stderr, "memo %s: %v\n", cmd, err)
		os.Exit(1)
	}

	return true
}

type app struct {
	workspaces *internal.WorkspacePool

	createUC  *internal.CreateMemoUseCase
	getUC     *internal.GetMemoUseCase
	updateUC  *internal.UpdateMemoUseCase
	deleteUC  *internal.DeleteMemoUseCase
	archiveUC *internal.ArchiveMemoUseCase
	listUC    *internal.ListMemosUseCase
}

func newApp(workspaces *internal.WorkspacePool) *app {
	return &app{
		workspaces: workspaces,
		createUC:   internal.NewCreateMemoUseCase(workspaces),
		getUC:      internal.NewGetMemoUseCase(workspaces),
		updateUC:   internal.NewUpdateMemoUseCase(workspaces),
		deleteUC:   internal.NewDeleteMemoUseCase(workspaces),
		archiveUC:  internal.NewArchiveMemoUseCase(workspaces),
		listUC:     internal.NewListMemosUseCase(workspaces),
	}
}
