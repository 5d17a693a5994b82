package internal

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"go.uber.org/zap"
)

const (
	DefaultBranch = "main"
	DefaultAuthor = "memo"
	DefaultEmail  = "memo@local"

	memoFileExt = ".md"
)

type Snapshot struct {
	Hash      string
	Message   string
	Timestamp time.Time
	Files     int
}

// ExportService mirrors memos into a directory of markdown files, one
// <id>.md per memo, versioned in a git repository inside that directory.
type ExportService struct {
	memos *MemoService
	dir   string
	log   *zap.SugaredLogger
}

func NewExportService(memos *MemoService, dir string, log *zap.SugaredLogger) *ExportService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ExportService{memos: memos, dir: dir, log: log}
}

func (s *ExportService) Dir() string { return s.dir }

func (s *ExportService) open() (*git.Repository, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create export directory")
	}

	storage := filesystem.NewStorage(osfs.New(filepath.Join(s.dir, git.GitDirName)), cache.NewObjectLRUDefault())
	wt := osfs.New(s.dir)

	repo, err := git.Open(storage, wt)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, errors.Wrap(err, "open export repository")
	}

	repo, err = git.Init(storage, wt)
	if err != nil {
		return nil, errors.Wrap(err, "init export repository")
	}
	cfg, err := repo.Config()
	if err != nil {
		return nil, errors.Wrap(err, "get config")
	}
	cfg.Init.DefaultBranch = DefaultBranch
	if err := repo.SetConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "set config")
	}

	s.log.Infow("export repository initialized", "path", s.dir)
	return repo, nil
}

// Export writes every memo that is not deleted, removes files of memos that
// no longer exist, and commits the result. The returned snapshot has an
// empty Hash when nothing changed since the last export.
func (s *ExportService) Export(ctx context.Context) (*Snapshot, error) {
	repo, err := s.open()
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "get worktree")
	}

	memos, err := s.allMemos(ctx)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool, len(memos))
	for _, m := range memos {
		name := m.ID + memoFileExt
		keep[name] = true

		current, err := util.ReadFile(wt.Filesystem, name)
		if err == nil && bytes.Equal(current, []byte(m.Content)) {
			continue
		}
		if err := util.WriteFile(wt.Filesystem, name, []byte(m.Content), 0o644); err != nil {
			return nil, errors.Wrapf(err, "write %s", name)
		}
		if _, err := wt.Add(name); err != nil {
			return nil, errors.Wrapf(err, "stage %s", name)
		}
	}

	if err := s.removeStale(wt, keep); err != nil {
		return nil, err
	}

	snap := &Snapshot{Files: len(memos), Timestamp: time.Now()}

	status, err := wt.Status()
	if err != nil {
		return nil, errors.Wrap(err, "get status")
	}
	if !hasStagedChanges(status) {
		return snap, nil
	}

	snap.Message = "export: " + pluralize(len(memos), "memo")
	hash, err := wt.Commit(snap.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  DefaultAuthor,
			Email: DefaultEmail,
			When:  snap.Timestamp,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "commit export")
	}
	snap.Hash = hash.String()

	s.log.Infow("memos exported", "path", s.dir, "files", snap.Files, "commit", snap.Hash)
	return snap, nil
}

func (s *ExportService) removeStale(wt *git.Worktree, keep map[string]bool) error {
	entries, err := wt.Filesystem.ReadDir(".")
	if err != nil {
		return errors.Wrap(err, "read export directory")
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || keep[name] {
			continue
		}
		if _, ok := memoIDFromFilename(name); !ok {
			continue
		}
		if _, err := wt.Remove(name); err != nil {
			if err := wt.Filesystem.Remove(name); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, "remove %s", name)
			}
		}
	}
	return nil
}

func (s *ExportService) allMemos(ctx context.Context) ([]Memo, error) {
	var all []Memo
	page := Pagination{PageSize: 200}
	for {
		res, err := s.memos.List(ctx, MemoFilter{}, page)
		if err != nil {
			return nil, err
		}
		all = append(all, res.Items...)
		if res.Next == nil {
			return all, nil
		}
		page.After = res.Next
	}
}

// ImportFile copies an edited <id>.md file from the export directory back
// into its memo. It reports whether the memo changed.
func (s *ExportService) ImportFile(ctx context.Context, path string) (bool, error) {
	id, ok := memoIDFromFilename(filepath.Base(path))
	if !ok {
		return false, errors.Wrapf(ErrInvalidID, "%s is not a memo file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrapf(err, "read %s", path)
	}

	memo, err := s.memos.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if memo.Content == string(data) {
		return false, nil
	}

	if err := s.memos.UpdateContent(ctx, id, string(data)); err != nil {
		return false, err
	}
	s.log.Infow("memo updated from export", "id", id, "path", path)
	return true, nil
}

// Log lists export commits, newest first.
func (s *ExportService) Log(ctx context.Context, limit int) ([]Snapshot, error) {
	repo, err := s.open()
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get log")
	}
	defer iter.Close()

	var snapshots []Snapshot
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(snapshots) >= limit {
			return io.EOF
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		snapshots = append(snapshots, Snapshot{
			Hash:      c.Hash.String(),
			Message:   strings.TrimSpace(c.Message),
			Timestamp: c.Author.When,
		})
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}
	return snapshots, nil
}

func hasStagedChanges(status git.Status) bool {
	for _, st := range status {
		if st.Staging != git.Unmodified && st.Staging != git.Untracked {
			return true
		}
	}
	return false
}

func memoIDFromFilename(name string) (string, bool) {
	id, ok := strings.CutSuffix(name, memoFileExt)
	if !ok || ValidateID(id) != nil {
		return "", false
	}
	return id, true
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
