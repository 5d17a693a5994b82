package internal

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/4thel00z/memos/internal/database"
)

// SyncApplier applies changelog entries that arrived from other sources.
type SyncApplier struct {
	db          *database.DB
	changelog   *ChangelogService
	memos       *MemoService
	attachments *AttachmentService
	pageSize    int
	log         *zap.SugaredLogger
}

func NewSyncApplier(
	db *database.DB,
	changelog *ChangelogService,
	memos *MemoService,
	attachments *AttachmentService,
	log *zap.SugaredLogger,
) *SyncApplier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SyncApplier{
		db:          db,
		changelog:   changelog,
		memos:       memos,
		attachments: attachments,
		pageSize:    defaultPageSize,
		log:         log,
	}
}

// Run applies unapplied entries page by page, oldest first, and returns how
// many were applied. A page is applied and marked in one transaction.
func (a *SyncApplier) Run(ctx context.Context) (int, error) {
	total := 0
	for {
		var applied int
		err := a.db.InTransaction(ctx, func(ctx context.Context) error {
			page, err := a.changelog.ListUnapplied(ctx, Pagination{PageSize: a.pageSize})
			if err != nil {
				return err
			}
			if err := a.applyPage(ctx, page.Items); err != nil {
				return err
			}
			applied = len(page.Items)
			return nil
		})
		if err != nil {
			return total, errors.Wrap(err, "apply changelog")
		}
		if applied == 0 {
			break
		}
		total += applied
	}

	if total > 0 {
		a.log.Infow("changelog applied", "entries", total)
	}
	return total, nil
}

func (a *SyncApplier) applyPage(ctx context.Context, entries []ChangelogEntry) error {
	var (
		memoEntries []ChangelogEntry
		ids         = make([]string, 0, len(entries))
	)

	// Attachments go first so memos created in the same page can link them.
	for _, e := range entries {
		ids = append(ids, e.ID)
		switch e.TargetType {
		case TargetAttachments:
			if err := a.attachments.ApplyChangelogEntry(ctx, e); err != nil {
				return err
			}
		case TargetMemos:
			memoEntries = append(memoEntries, e)
		default:
			return errors.Wrapf(ErrUnknownChange, "entry %s: target type %q", e.ID, e.TargetType)
		}
	}

	if err := a.memos.ApplyChangelogEntries(ctx, memoEntries); err != nil {
		return err
	}
	return a.changelog.MarkApplied(ctx, ids)
}
