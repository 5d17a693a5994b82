package internal

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/4thel00z/memos/internal/database"
)

// ChangelogRepo persists changelog entries in the changelog table.
type ChangelogRepo struct {
	db *database.DB
}

func NewChangelogRepo(db *database.DB) *ChangelogRepo {
	return &ChangelogRepo{db: db}
}

const changelogColumns = `id, public_id, source, revision, timestamp, target_type, target_id, value,
	is_synced, synced_at, is_applied, applied_at`

// Insert stores e. With skipExisting an entry whose id is already present is
// left untouched and Insert reports false.
func (r *ChangelogRepo) Insert(ctx context.Context, e ChangelogEntry, skipExisting bool) (bool, error) {
	value, err := encodeValue(e.Value)
	if err != nil {
		return false, err
	}

	query := `INSERT INTO changelog (public_id, source, revision, timestamp, target_type, target_id, value,
		is_synced, synced_at, is_applied, applied_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if skipExisting {
		query += " ON CONFLICT (public_id) DO NOTHING"
	}

	var inserted bool
	err = r.db.InTransaction(ctx, func(ctx context.Context) error {
		res, err := r.db.Conn(ctx).ExecContext(ctx, query,
			e.ID, e.Source, e.Revision, formatTime(e.Timestamp), string(e.TargetType), e.TargetID, string(value),
			e.IsSynced, nullTime(e.SyncedAt), e.IsApplied, nullTime(e.AppliedAt))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		inserted = n > 0
		return err
	})
	if err != nil {
		return false, errors.Wrapf(err, "insert changelog entry %s", e.ID)
	}
	return inserted, nil
}

func (r *ChangelogRepo) Get(ctx context.Context, id string) (ChangelogEntry, error) {
	var e ChangelogEntry
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		row := r.db.Conn(ctx).QueryRowContext(ctx,
			"SELECT "+changelogColumns+" FROM changelog WHERE public_id = ?", id)
		var err error
		e, err = scanChangelogEntry(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return ChangelogEntry{}, errors.Wrapf(ErrNotFound, "changelog entry %s", id)
	}
	if err != nil {
		return ChangelogEntry{}, errors.Wrapf(err, "get changelog entry %s", id)
	}
	return e, nil
}

func (r *ChangelogRepo) ListUnsynced(ctx context.Context, page Pagination) (Page[ChangelogEntry], error) {
	return r.list(ctx, "is_synced = 0", nil, page)
}

func (r *ChangelogRepo) ListUnapplied(ctx context.Context, page Pagination) (Page[ChangelogEntry], error) {
	return r.list(ctx, "is_applied = 0", nil, page)
}

func (r *ChangelogRepo) ListAll(ctx context.Context, page Pagination) (Page[ChangelogEntry], error) {
	return r.list(ctx, "1 = 1", nil, page)
}

// ListForTarget returns every entry of one target in the order they were
// recorded.
func (r *ChangelogRepo) ListForTarget(ctx context.Context, target TargetType, id string) ([]ChangelogEntry, error) {
	var entries []ChangelogEntry
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		rows, err := r.db.Conn(ctx).QueryContext(ctx,
			"SELECT "+changelogColumns+` FROM changelog WHERE target_type = ? AND target_id = ?
			ORDER BY timestamp, id`, string(target), id)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanChangelogEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list changelog for %s/%s", target, id)
	}
	return entries, nil
}

func (r *ChangelogRepo) list(ctx context.Context, cond string, args []any, page Pagination) (Page[ChangelogEntry], error) {
	where := []string{cond}
	if page.After != nil {
		where = append(where, "(timestamp > ? OR (timestamp = ? AND id > ?))")
		args = append(args, page.After.at, page.After.at, page.After.seq)
	}
	args = append(args, page.size()+1)

	query := "SELECT " + changelogColumns + " FROM changelog WHERE " + strings.Join(where, " AND ") +
		" ORDER BY timestamp, id LIMIT ?"

	var result Page[ChangelogEntry]
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanChangelogEntry(rows)
			if err != nil {
				return err
			}
			result.Items = append(result.Items, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if len(result.Items) > page.size() {
			result.Items = result.Items[:page.size()]
			last := result.Items[len(result.Items)-1]
			result.Next = &Cursor{at: formatTime(last.Timestamp), seq: last.seq}
		}
		return nil
	})
	if err != nil {
		return Page[ChangelogEntry]{}, errors.Wrap(err, "list changelog")
	}
	return result, nil
}

func (r *ChangelogRepo) MarkSynced(ctx context.Context, ids []string, at time.Time) error {
	return r.mark(ctx, "is_synced = 1, synced_at = ?", ids, at)
}

func (r *ChangelogRepo) MarkApplied(ctx context.Context, ids []string, at time.Time) error {
	return r.mark(ctx, "is_applied = 1, applied_at = ?", ids, at)
}

func (r *ChangelogRepo) mark(ctx context.Context, set string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			if _, err := r.db.Conn(ctx).ExecContext(ctx,
				"UPDATE changelog SET "+set+" WHERE public_id = ?", formatTime(at), id); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "mark changelog entries")
}

func (r *ChangelogRepo) Delete(ctx context.Context, id string) error {
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		_, err := r.db.Conn(ctx).ExecContext(ctx, "DELETE FROM changelog WHERE public_id = ?", id)
		return err
	})
	return errors.Wrapf(err, "delete changelog entry %s", id)
}

func scanChangelogEntry(row rowScanner) (ChangelogEntry, error) {
	var (
		e                   ChangelogEntry
		timestamp, target   string
		value               string
		syncedAt, appliedAt sql.NullString
	)
	if err := row.Scan(&e.seq, &e.ID, &e.Source, &e.Revision, &timestamp, &target, &e.TargetID, &value,
		&e.IsSynced, &syncedAt, &e.IsApplied, &appliedAt); err != nil {
		return ChangelogEntry{}, err
	}

	var err error
	e.TargetType = TargetType(target)
	if e.Timestamp, err = parseTime(timestamp); err != nil {
		return ChangelogEntry{}, err
	}
	if e.SyncedAt, err = parseNullTime(syncedAt); err != nil {
		return ChangelogEntry{}, err
	}
	if e.AppliedAt, err = parseNullTime(appliedAt); err != nil {
		return ChangelogEntry{}, err
	}
	if e.Value, err = decodeValue(e.TargetType, []byte(value)); err != nil {
		return ChangelogEntry{}, errors.Wrapf(err, "changelog entry %s", e.ID)
	}
	return e, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
