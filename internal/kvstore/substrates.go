package kvstore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/4thel00z/memos/internal/database"
)

// Memory is an in-process substrate whose contents die with the process.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// SQLite stores values in the kv table.
type SQLite struct {
	db *database.DB
}

func NewSQLite(db *database.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.Conn(ctx).QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %q", key)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Conn(ctx).ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, value)
	return errors.Wrapf(err, "set %q", key)
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	_, err := s.db.Conn(ctx).ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return errors.Wrapf(err, "remove %q", key)
}

func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Conn(ctx).QueryContext(ctx,
		"SELECT key FROM kv WHERE substr(key, 1, length(?1)) = ?1 ORDER BY key", prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "list keys %q", prefix)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "scan key")
		}
		keys = append(keys, k)
	}
	return keys, errors.Wrap(rows.Err(), "list keys")
}

func (s *SQLite) RemovePrefix(ctx context.Context, prefix string) error {
	_, err := s.db.Conn(ctx).ExecContext(ctx,
		"DELETE FROM kv WHERE substr(key, 1, length(?1)) = ?1", prefix)
	return errors.Wrapf(err, "remove prefix %q", prefix)
}

// Files keeps one file per key in a directory; file names are the
// hex-encoded keys.
type Files struct {
	fs  billy.Filesystem
	dir string
}

func NewFiles(fs billy.Filesystem, dir string) *Files {
	return &Files{fs: fs, dir: dir}
}

// MaxFileKeyLen is the longest namespaced key Files can store: the hex
// encoded key has to fit a 255 byte file name.
const MaxFileKeyLen = 127

func (f *Files) filename(key string) (string, error) {
	if len(key) > MaxFileKeyLen {
		return "", errors.Wrapf(ErrKeyTooLong, "%d bytes, limit %d", len(key), MaxFileKeyLen)
	}
	return path.Join(f.dir, hex.EncodeToString([]byte(key))), nil
}

func (f *Files) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	name, err := f.filename(key)
	if err != nil {
		return nil, false, err
	}
	data, err := util.ReadFile(f.fs, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %q", key)
	}
	return data, true, nil
}

func (f *Files) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := f.filename(key)
	if err != nil {
		return err
	}
	if err := f.fs.MkdirAll(f.dir, 0o700); err != nil {
		return errors.Wrapf(err, "create %s", f.dir)
	}
	return errors.Wrapf(util.WriteFile(f.fs, name, value, 0o600), "set %q", key)
}

func (f *Files) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := f.filename(key)
	if err != nil {
		return err
	}
	err = f.fs.Remove(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "remove %q", key)
	}
	return nil
}

func (f *Files) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := f.fs.ReadDir(f.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", f.dir)
	}

	var keys []string
	for _, entry := range entries {
		raw, err := hex.DecodeString(entry.Name())
		if err != nil || entry.IsDir() {
			continue
		}
		if k := string(raw); strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
