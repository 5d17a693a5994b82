package database

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

type debugExecutor struct {
	exec Executor
	log  *zap.SugaredLogger
}

func (d *debugExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	d.log.Debugw("executing query", "query", query, "args", args)
	return d.exec.ExecContext(ctx, query, args...)
}

func (d *debugExecutor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	d.log.Debugw("executing query", "query", query, "args", args)
	return d.exec.QueryContext(ctx, query, args...)
}

func (d *debugExecutor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	d.log.Debugw("executing query", "query", query, "args", args)
	return d.exec.QueryRowContext(ctx, query, args...)
}
