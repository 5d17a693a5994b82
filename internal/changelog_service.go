package internal

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

//go:embed schema/changelog.schema.json
var changelogSchemaJSON []byte

const changelogSchemaURL = "https://memos.local/schema/changelog.schema.json"

var ErrInvalidChangelog = errors.New("invalid changelog document")

var compileChangelogSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(changelogSchemaURL, bytes.NewReader(changelogSchemaJSON)); err != nil {
		return nil, errors.Wrap(err, "add changelog schema")
	}
	schema, err := compiler.Compile(changelogSchemaURL)
	return schema, errors.Wrap(err, "compile changelog schema")
})

// ChangelogService records changes made locally and accepts changes made
// elsewhere.
type ChangelogService struct {
	repo   *ChangelogRepo
	source string
	now    func() time.Time
	log    *zap.SugaredLogger
}

func NewChangelogService(repo *ChangelogRepo, source string, log *zap.SugaredLogger) *ChangelogService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ChangelogService{
		repo:   repo,
		source: source,
		now:    time.Now,
		log:    log,
	}
}

// Create stamps e with a fresh id, this device's source name and the
// current time and stores it as already applied.
func (s *ChangelogService) Create(ctx context.Context, e ChangelogEntry) (ChangelogEntry, error) {
	now := s.now().UTC()
	e.ID = newID()
	e.Source = s.source
	e.Timestamp = now
	e.IsApplied = true
	e.AppliedAt = &now

	if _, err := s.repo.Insert(ctx, e, false); err != nil {
		return ChangelogEntry{}, err
	}
	s.log.Debugw("changelog entry created", "id", e.ID, "target_type", e.TargetType, "target_id", e.TargetID)
	return e, nil
}

// InsertExternal stores entries produced by another source as unapplied.
// Entries already present are skipped. It returns how many were stored.
func (s *ChangelogService) InsertExternal(ctx context.Context, entries []ChangelogEntry) (int, error) {
	for _, e := range entries {
		if err := ValidateID(e.ID); err != nil {
			return 0, errors.Wrap(err, "changelog entry id")
		}
		if err := ValidateID(e.TargetID); err != nil {
			return 0, errors.Wrapf(err, "target of changelog entry %s", e.ID)
		}
	}

	inserted := 0
	err := s.repo.db.InTransaction(ctx, func(ctx context.Context) error {
		for _, e := range entries {
			e.IsApplied = false
			e.AppliedAt = nil
			ok, err := s.repo.Insert(ctx, e, true)
			if err != nil {
				return err
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Infow("external changelog entries stored", "received", len(entries), "inserted", inserted)
	return inserted, nil
}

// ImportJSON validates a JSON array of changelog entries and stores it with
// InsertExternal.
func (s *ChangelogService) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "read changelog document")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, errors.Wrapf(ErrInvalidChangelog, "%v", err)
	}

	schema, err := compileChangelogSchema()
	if err != nil {
		return 0, err
	}
	if err := schema.Validate(doc); err != nil {
		return 0, errors.Wrapf(ErrInvalidChangelog, "%v", err)
	}

	var entries []ChangelogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, errors.Wrapf(ErrInvalidChangelog, "%v", err)
	}
	return s.InsertExternal(ctx, entries)
}

func (s *ChangelogService) Get(ctx context.Context, id string) (ChangelogEntry, error) {
	return s.repo.Get(ctx, id)
}

func (s *ChangelogService) List(ctx context.Context, page Pagination) (Page[ChangelogEntry], error) {
	return s.repo.ListAll(ctx, page)
}

func (s *ChangelogService) ListUnsynced(ctx context.Context, page Pagination) (Page[ChangelogEntry], error) {
	return s.repo.ListUnsynced(ctx, page)
}

func (s *ChangelogService) ListUnapplied(ctx context.Context, page Pagination) (Page[ChangelogEntry], error) {
	return s.repo.ListUnapplied(ctx, page)
}

func (s *ChangelogService) ListForTarget(ctx context.Context, target TargetType, id string) ([]ChangelogEntry, error) {
	return s.repo.ListForTarget(ctx, target, id)
}

func (s *ChangelogService) MarkSynced(ctx context.Context, ids []string) error {
	return s.repo.MarkSynced(ctx, ids, s.now())
}

func (s *ChangelogService) MarkApplied(ctx context.Context, ids []string) error {
	return s.repo.MarkApplied(ctx, ids, s.now())
}

func (s *ChangelogService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
