package database

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/cockroachdb/errors"
)

type ctxTxKeyType string

const ctxTxKey = ctxTxKeyType("ctxTxKey")

func txFromCtx(ctx context.Context) (*sql.Conn, bool) {
	conn, ok := ctx.Value(ctxTxKey).(*sql.Conn)
	return conn, ok
}

func ctxWithTx(parent context.Context, conn *sql.Conn) context.Context {
	return context.WithValue(parent, ctxTxKey, conn)
}

// InTransaction runs fn inside a transaction. A ctx that already carries a
// transaction runs fn directly. An error from fn is returned unchanged after
// rollback; a ctx cancelled during fn rolls back and returns the cause. A
// panic in fn rolls back before it is re-raised.
func (d *DB) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromCtx(ctx); ok {
		return fn(ctx)
	}

	if err := d.lock.Acquire(ctx); err != nil {
		return err
	}
	defer d.lock.Release()

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire connection")
	}
	defer conn.Close()

	txCtx := ctxWithTx(ctx, conn)
	exec := d.Conn(txCtx)

	if _, err := exec.ExecContext(ctx, "BEGIN DEFERRED TRANSACTION"); err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			d.rollback(ctx, conn, exec)
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		d.rollback(ctx, conn, exec)
		return err
	}

	if ctx.Err() != nil {
		d.rollback(ctx, conn, exec)
		return context.Cause(ctx)
	}

	if _, err := exec.ExecContext(context.WithoutCancel(ctx), "COMMIT TRANSACTION"); err != nil {
		d.rollback(ctx, conn, exec)
		return errors.Wrap(err, "commit transaction")
	}

	return nil
}

// rollback runs on a context detached from cancellation. A connection whose
// rollback fails is discarded rather than returned to the pool with an open
// transaction.
func (d *DB) rollback(ctx context.Context, conn *sql.Conn, exec Executor) {
	_, err := exec.ExecContext(context.WithoutCancel(ctx), "ROLLBACK TRANSACTION")
	if err == nil {
		return
	}
	d.log.Errorw("rollback failed, discarding connection", "error", err)
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := txFromCtx(ctx)
	return ok
}
