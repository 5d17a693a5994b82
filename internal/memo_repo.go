package internal

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/4thel00z/memos/internal/database"
)

// MemoRepo persists memos in the memos table.
type MemoRepo struct {
	db *database.DB
}

func NewMemoRepo(db *database.DB) *MemoRepo {
	return &MemoRepo{db: db}
}

const memoColumns = "id, public_id, content, is_archived, is_deleted, created_at, updated_at"

func (r *MemoRepo) Create(ctx context.Context, m Memo) (Memo, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()

	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		_, err := r.db.Conn(ctx).ExecContext(ctx,
			`INSERT INTO memos (public_id, content, is_archived, is_deleted, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.Content, m.IsArchived, m.IsDeleted, formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
		return err
	})
	if err != nil {
		return Memo{}, errors.Wrapf(err, "create memo %s", m.ID)
	}
	return m, nil
}

func (r *MemoRepo) Get(ctx context.Context, id string) (Memo, error) {
	var m Memo
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		row := r.db.Conn(ctx).QueryRowContext(ctx,
			"SELECT "+memoColumns+" FROM memos WHERE public_id = ?", id)
		var err error
		m, _, err = scanMemo(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Memo{}, errors.Wrapf(ErrMemoNotFound, "%s", id)
	}
	if err != nil {
		return Memo{}, errors.Wrapf(err, "get memo %s", id)
	}
	return m, nil
}

// List returns memos newest first.
func (r *MemoRepo) List(ctx context.Context, filter MemoFilter, page Pagination) (Page[Memo], error) {
	var (
		where = []string{"is_deleted = ?"}
		args  = []any{filter.IsDeleted}
	)
	if filter.IsArchived != nil {
		where = append(where, "is_archived = ?")
		args = append(args, *filter.IsArchived)
	}
	if filter.Search != "" {
		where = append(where, `content LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}
	if page.After != nil {
		where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, page.After.at, page.After.at, page.After.seq)
	}
	args = append(args, page.size()+1)

	query := "SELECT " + memoColumns + " FROM memos WHERE " + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC, id DESC LIMIT ?"

	var result Page[Memo]
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		var cursors []Cursor
		for rows.Next() {
			m, seq, err := scanMemo(rows)
			if err != nil {
				return err
			}
			result.Items = append(result.Items, m)
			cursors = append(cursors, Cursor{at: formatTime(m.CreatedAt), seq: seq})
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if len(result.Items) > page.size() {
			result.Items = result.Items[:page.size()]
			next := cursors[page.size()-1]
			result.Next = &next
		}
		return nil
	})
	if err != nil {
		return Page[Memo]{}, errors.Wrap(err, "list memos")
	}
	return result, nil
}

func (r *MemoRepo) UpdateContent(ctx context.Context, id, content string) error {
	return r.update(ctx, id, "content = ?", content)
}

func (r *MemoRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	return r.update(ctx, id, "is_archived = ?", archived)
}

func (r *MemoRepo) SetDeleted(ctx context.Context, id string, deleted bool) error {
	return r.update(ctx, id, "is_deleted = ?", deleted)
}

func (r *MemoRepo) update(ctx context.Context, id, set string, value any) error {
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		res, err := r.db.Conn(ctx).ExecContext(ctx,
			"UPDATE memos SET "+set+", updated_at = ? WHERE public_id = ?",
			value, formatTime(time.Now()), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.Wrapf(ErrMemoNotFound, "%s", id)
		}
		return nil
	})
	return errors.Wrapf(err, "update memo %s", id)
}

// PurgeDeleted removes memos flagged deleted and returns their ids.
func (r *MemoRepo) PurgeDeleted(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		rows, err := r.db.Conn(ctx).QueryContext(ctx, "SELECT public_id FROM memos WHERE is_deleted = 1")
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		_, err = r.db.Conn(ctx).ExecContext(ctx, "DELETE FROM memos WHERE is_deleted = 1")
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "purge deleted memos")
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemo(row rowScanner) (Memo, int64, error) {
	var (
		m                    Memo
		seq                  int64
		createdAt, updatedAt string
	)
	if err := row.Scan(&seq, &m.ID, &m.Content, &m.IsArchived, &m.IsDeleted, &createdAt, &updatedAt); err != nil {
		return Memo{}, 0, err
	}

	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return Memo{}, 0, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Memo{}, 0, err
	}
	return m, seq, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
