package internal

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/4thel00z/memos/internal/database"
	"github.com/4thel00z/memos/internal/delta"
)

// MemoService changes memos and records every change in the changelog.
type MemoService struct {
	db          *database.DB
	repo        *MemoRepo
	attachments *AttachmentService
	changelog   *ChangelogService
	log         *zap.SugaredLogger
}

func NewMemoService(
	db *database.DB,
	repo *MemoRepo,
	attachments *AttachmentService,
	changelog *ChangelogService,
	log *zap.SugaredLogger,
) *MemoService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MemoService{
		db:          db,
		repo:        repo,
		attachments: attachments,
		changelog:   changelog,
		log:         log,
	}
}

func (s *MemoService) Create(ctx context.Context, content string) (Memo, error) {
	if err := delta.ValidateText(content); err != nil {
		return Memo{}, errors.Wrap(err, "memo content")
	}
	var memo Memo
	err := s.db.InTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		created, err := s.repo.Create(ctx, Memo{ID: newID(), Content: content, CreatedAt: now, UpdatedAt: now})
		if err != nil {
			return err
		}
		memo = created

		if err := s.attachments.UpdateMemoAttachments(ctx, memo.ID, memo.Content); err != nil {
			return err
		}

		_, err = s.changelog.Create(ctx, ChangelogEntry{
			Revision:   1,
			TargetType: TargetMemos,
			TargetID:   memo.ID,
			Value:      MemoCreated{Memo: memo},
		})
		return err
	})
	if err != nil {
		return Memo{}, err
	}

	s.log.Infow("memo created", "id", memo.ID)
	return memo, nil
}

func (s *MemoService) Get(ctx context.Context, id string) (Memo, error) {
	if err := ValidateID(id); err != nil {
		return Memo{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *MemoService) List(ctx context.Context, filter MemoFilter, page Pagination) (Page[Memo], error) {
	return s.repo.List(ctx, filter, page)
}

// UpdateContent replaces the memo's content and records the difference to
// the previous content as a change set. Unchanged content records nothing.
func (s *MemoService) UpdateContent(ctx context.Context, id, content string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := delta.ValidateText(content); err != nil {
		return errors.Wrap(err, "memo content")
	}

	return s.db.InTransaction(ctx, func(ctx context.Context) error {
		memo, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if memo.Content == content {
			return nil
		}

		changes := delta.DiffChangeSet(memo.Content, content)
		if err := s.repo.UpdateContent(ctx, id, content); err != nil {
			return err
		}
		if err := s.attachments.UpdateMemoAttachments(ctx, id, content); err != nil {
			return err
		}

		_, err = s.changelog.Create(ctx, ChangelogEntry{
			TargetType: TargetMemos,
			TargetID:   id,
			Value:      MemoContentChanged{Changes: changes},
		})
		if err == nil {
			s.log.Debugw("memo content updated", "id", id, "ops", len(changes.Ops))
		}
		return err
	})
}

func (s *MemoService) Delete(ctx context.Context, id string) error {
	return s.setFlag(ctx, id, MemoDeleted{IsDeleted: true})
}

func (s *MemoService) Undelete(ctx context.Context, id string) error {
	return s.setFlag(ctx, id, MemoDeleted{IsDeleted: false})
}

func (s *MemoService) SetArchived(ctx context.Context, id string, archived bool) error {
	return s.setFlag(ctx, id, MemoArchived{IsArchived: archived})
}

func (s *MemoService) setFlag(ctx context.Context, id string, value ChangelogValue) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	return s.db.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.applyFlag(ctx, id, value); err != nil {
			return err
		}
		_, err := s.changelog.Create(ctx, ChangelogEntry{
			TargetType: TargetMemos,
			TargetID:   id,
			Value:      value,
		})
		return err
	})
}

func (s *MemoService) applyFlag(ctx context.Context, id string, value ChangelogValue) error {
	switch v := value.(type) {
	case MemoDeleted:
		return s.repo.SetDeleted(ctx, id, v.IsDeleted)
	case MemoArchived:
		return s.repo.SetArchived(ctx, id, v.IsArchived)
	default:
		return errors.Wrapf(ErrUnknownChange, "%T", value)
	}
}

// ApplyChangelogEntries brings memos up to date with entries recorded
// elsewhere. Content changes rebuild the memo from its whole changelog, so a
// target is rebuilt at most once per call.
func (s *MemoService) ApplyChangelogEntries(ctx context.Context, entries []ChangelogEntry) error {
	rebuilt := make(map[string]bool)

	for _, e := range entries {
		if _, ok := e.Value.(MemoContentChanged); ok {
			if rebuilt[e.TargetID] {
				continue
			}
			rebuilt[e.TargetID] = true
		}

		if err := s.applyChangelogEntry(ctx, e); err != nil {
			return errors.Wrapf(err, "apply changelog entry %s", e.ID)
		}
	}
	return nil
}

func (s *MemoService) applyChangelogEntry(ctx context.Context, e ChangelogEntry) error {
	return s.db.InTransaction(ctx, func(ctx context.Context) error {
		switch v := e.Value.(type) {
		case MemoCreated:
			if _, err := s.repo.Get(ctx, e.TargetID); err == nil {
				return nil
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}

			memo := v.Memo
			memo.ID = e.TargetID
			created, err := s.repo.Create(ctx, memo)
			if err != nil {
				return err
			}
			return s.attachments.UpdateMemoAttachments(ctx, created.ID, created.Content)

		case MemoArchived, MemoDeleted:
			return s.applyFlag(ctx, e.TargetID, v)

		case MemoContentChanged:
			return s.rebuildContent(ctx, e.TargetID)

		default:
			return errors.Wrapf(ErrUnknownChange, "%T", e.Value)
		}
	})
}

func (s *MemoService) rebuildContent(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	content, err := s.Replay(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateContent(ctx, id, content); err != nil {
		return err
	}
	return s.attachments.UpdateMemoAttachments(ctx, id, content)
}

// Replay computes a memo's content from its changelog alone.
func (s *MemoService) Replay(ctx context.Context, id string) (string, error) {
	entries, err := s.changelog.ListForTarget(ctx, TargetMemos, id)
	if err != nil {
		return "", err
	}

	var merge []delta.Entry
	for _, e := range entries {
		if d, ok := deltaEntry(e.Value); ok {
			merge = append(merge, d)
		}
	}
	if len(merge) == 0 {
		return "", errors.Wrapf(ErrMemoNotFound, "no changelog for %s", id)
	}

	content, err := delta.Replay(merge)
	if err != nil {
		return "", errors.Wrapf(err, "replay memo %s", id)
	}
	return content, nil
}

// CleanupDeleted purges memos flagged deleted.
func (s *MemoService) CleanupDeleted(ctx context.Context) (int, error) {
	ids, err := s.repo.PurgeDeleted(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		s.log.Infow("deleted memos purged", "count", len(ids))
	}
	return len(ids), nil
}
