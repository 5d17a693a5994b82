package internal

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/4thel00z/memos/internal/database"
)

// AttachmentRepo persists attachment metadata and memo links. Attachment
// bytes live in the object store.
type AttachmentRepo struct {
	db *database.DB
}

func NewAttachmentRepo(db *database.DB) *AttachmentRepo {
	return &AttachmentRepo{db: db}
}

const attachmentColumns = "public_id, original_filename, content_type, size_bytes, sha256, filepath, created_at"

func (r *AttachmentRepo) Create(ctx context.Context, a Attachment) (Attachment, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()

	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		_, err := r.db.Conn(ctx).ExecContext(ctx,
			`INSERT INTO attachments (public_id, original_filename, content_type, size_bytes, sha256, filepath, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.OriginalFilename, a.ContentType, a.SizeBytes, a.SHA256, a.Filepath, formatTime(a.CreatedAt))
		return err
	})
	if err != nil {
		return Attachment{}, errors.Wrapf(err, "create attachment %s", a.ID)
	}
	return a, nil
}

func (r *AttachmentRepo) Get(ctx context.Context, id string) (Attachment, error) {
	var a Attachment
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		row := r.db.Conn(ctx).QueryRowContext(ctx,
			"SELECT "+attachmentColumns+" FROM attachments WHERE public_id = ?", id)
		var err error
		a, err = scanAttachment(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Attachment{}, errors.Wrapf(ErrAttachmentNotFound, "%s", id)
	}
	if err != nil {
		return Attachment{}, errors.Wrapf(err, "get attachment %s", id)
	}
	return a, nil
}

// ListForMemo returns the attachments linked to a memo.
func (r *AttachmentRepo) ListForMemo(ctx context.Context, memoID string) ([]Attachment, error) {
	var attachments []Attachment
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		rows, err := r.db.Conn(ctx).QueryContext(ctx,
			`SELECT a.public_id, a.original_filename, a.content_type, a.size_bytes, a.sha256, a.filepath, a.created_at
			FROM attachments a
			JOIN memo_attachments ma ON ma.attachment_id = a.id
			JOIN memos m ON m.id = ma.memo_id
			WHERE m.public_id = ?
			ORDER BY a.created_at, a.id`, memoID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			a, err := scanAttachment(rows)
			if err != nil {
				return err
			}
			attachments = append(attachments, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list attachments of memo %s", memoID)
	}
	return attachments, nil
}

// SetMemoLinks replaces the memo's links with links to attachmentIDs. Ids
// without a stored attachment are skipped.
func (r *AttachmentRepo) SetMemoLinks(ctx context.Context, memoID string, attachmentIDs []string) error {
	err := r.db.InTransaction(ctx, func(ctx context.Context) error {
		_, err := r.db.Conn(ctx).ExecContext(ctx,
			"DELETE FROM memo_attachments WHERE memo_id = (SELECT id FROM memos WHERE public_id = ?)", memoID)
		if err != nil {
			return err
		}
		for _, id := range attachmentIDs {
			_, err := r.db.Conn(ctx).ExecContext(ctx,
				`INSERT OR IGNORE INTO memo_attachments (memo_id, attachment_id)
				SELECT m.id, a.id FROM memos m, attachments a WHERE m.public_id = ? AND a.public_id = ?`,
				memoID, id)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrapf(err, "link attachments to memo %s", memoID)
}

func scanAttachment(row rowScanner) (Attachment, error) {
	var (
		a         Attachment
		createdAt string
	)
	if err := row.Scan(&a.ID, &a.OriginalFilename, &a.ContentType, &a.SizeBytes, &a.SHA256, &a.Filepath, &createdAt); err != nil {
		return Attachment{}, err
	}
	var err error
	a.CreatedAt, err = parseTime(createdAt)
	return a, err
}
