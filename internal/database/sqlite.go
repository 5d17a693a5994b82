// Package database wraps the single-connection SQLite database every memo
// store writes to.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/4thel00z/memos/internal/lock"
)

// Executor is the statement surface shared by the pool and a transaction's
// connection.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Config struct {
	File        string        `yaml:"file" mapstructure:"file"`
	BusyTimeout time.Duration `yaml:"busy_timeout" mapstructure:"busy_timeout"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
}

type DB struct {
	db    *sql.DB
	lock  *lock.Lock
	log   *zap.SugaredLogger
	debug bool
}

type Option func(*DB)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(d *DB) { d.log = log }
}

// WithDebug logs every statement at debug level.
func WithDebug(enabled bool) Option {
	return func(d *DB) { d.debug = enabled }
}

// Open opens the SQLite file with foreign keys enabled and WAL journaling.
func Open(cfg Config, log *zap.SugaredLogger) (*DB, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log.Debugw("opening database", "path", cfg.File)

	timeout := cfg.BusyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL",
		cfg.File, timeout.Milliseconds())

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrapf(err, "connect to %s", cfg.File)
	}

	log.Infow("database opened", "path", cfg.File, "wal_mode", true, "foreign_keys", true)
	return New(sqlDB, WithLogger(log), WithDebug(cfg.Debug)), nil
}

// New wraps an open handle. The pool is limited to one connection, which a
// transaction owns for its whole duration.
func New(sqlDB *sql.DB, opts ...Option) *DB {
	sqlDB.SetMaxOpenConns(1)
	d := &DB{
		db:   sqlDB,
		lock: lock.New("database"),
		log:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Conn returns the transaction bound to ctx, or the pool.
func (d *DB) Conn(ctx context.Context) Executor {
	var exec Executor = d.db
	if tx, ok := txFromCtx(ctx); ok {
		exec = tx
	}
	if d.debug {
		return &debugExecutor{exec: exec, log: d.log}
	}
	return exec
}

func (d *DB) Close() error {
	return d.db.Close()
}
