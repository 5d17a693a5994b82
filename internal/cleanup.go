package internal

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type CleanupResult struct {
	OrphanedEntries int
	PurgedMemos     int
}

// CleanupJob drops unsynced memo changelog entries whose memo is gone and
// purges memos flagged deleted.
type CleanupJob struct {
	changelog *ChangelogService
	memos     *MemoService
	log       *zap.SugaredLogger
}

func NewCleanupJob(changelog *ChangelogService, memos *MemoService, log *zap.SugaredLogger) *CleanupJob {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CleanupJob{changelog: changelog, memos: memos, log: log}
}

func (j *CleanupJob) Run(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult

	orphaned, err := j.removeOrphanedEntries(ctx)
	if err != nil {
		return result, errors.Wrap(err, "cleanup")
	}
	result.OrphanedEntries = orphaned

	purged, err := j.memos.CleanupDeleted(ctx)
	if err != nil {
		return result, errors.Wrap(err, "cleanup")
	}
	result.PurgedMemos = purged

	j.log.Infow("cleanup finished", "orphaned_entries", result.OrphanedEntries, "purged_memos", result.PurgedMemos)
	return result, nil
}

func (j *CleanupJob) removeOrphanedEntries(ctx context.Context) (int, error) {
	removed := 0
	page := Pagination{PageSize: defaultPageSize}

	for {
		entries, err := j.changelog.ListUnsynced(ctx, page)
		if err != nil {
			return removed, errors.Wrap(err, "list unsynced changelog entries")
		}

		for _, e := range entries.Items {
			if e.TargetType != TargetMemos {
				continue
			}
			_, err := j.memos.repo.Get(ctx, e.TargetID)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return removed, err
			}
			if err := j.changelog.Delete(ctx, e.ID); err != nil {
				return removed, errors.Wrap(err, "delete changelog entry")
			}
			removed++
		}

		if entries.Next == nil {
			return removed, nil
		}
		page.After = entries.Next
	}
}
