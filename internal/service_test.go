package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4thel00z/memos/internal/delta"
)

const (
	conflictBase   = "Line 1 to change\n\nLine 2 will be shortened\n\nLine 3 unchanged\n\nLine 4 unchanged"
	conflictMerged = "Line 1 changed\n\nLine 2 shortened\n\nLine 3 unchanged\n\nLine 3.5 added\n\nLine 4 unchanged"
)

func mustChangeSet(t *testing.T, raw string) delta.ChangeSet {
	t.Helper()
	var cs delta.ChangeSet
	require.NoError(t, json.Unmarshal([]byte(raw), &cs))
	return cs
}

// exportChangelog renders every changelog entry of w the way another device
// would receive it.
func exportChangelog(t *testing.T, w *Workspace) []byte {
	t.Helper()
	ctx := context.Background()

	var entries []ChangelogEntry
	page := Pagination{PageSize: 2}
	for {
		res, err := w.Changelog.List(ctx, page)
		require.NoError(t, err)
		entries = append(entries, res.Items...)
		if res.Next == nil {
			break
		}
		page.After = res.Next
	}

	data, err := json.Marshal(entries)
	require.NoError(t, err)
	return data
}

func TestMemoLifecycle(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	memo, err := w.Memos.Create(ctx, "first draft")
	require.NoError(t, err)
	require.NoError(t, ValidateID(memo.ID))
	assert.False(t, memo.CreatedAt.IsZero())

	require.NoError(t, w.Memos.UpdateContent(ctx, memo.ID, "second draft"))
	require.NoError(t, w.Memos.UpdateContent(ctx, memo.ID, "second draft"), "unchanged content")
	require.NoError(t, w.Memos.UpdateContent(ctx, memo.ID, "second draft, revised 🎉"))

	got, err := w.Memos.Get(ctx, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, "second draft, revised 🎉", got.Content)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	replayed, err := w.Memos.Replay(ctx, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Content, replayed)

	entries, err := w.Changelog.ListForTarget(ctx, TargetMemos, memo.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3, "unchanged content records nothing")
	assert.IsType(t, MemoCreated{}, entries[0].Value)
	assert.Equal(t, 1, entries[0].Revision)
	for _, e := range entries {
		assert.Equal(t, "test", e.Source)
		assert.True(t, e.IsApplied)
		assert.False(t, e.IsSynced)
	}
}

func TestMemoFlags(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	memo, err := w.Memos.Create(ctx, "flagged")
	require.NoError(t, err)

	require.NoError(t, w.Memos.SetArchived(ctx, memo.ID, true))
	got, err := w.Memos.Get(ctx, memo.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)

	require.NoError(t, w.Memos.Delete(ctx, memo.ID))
	got, err = w.Memos.Get(ctx, memo.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	page, err := w.Memos.List(ctx, MemoFilter{}, Pagination{})
	require.NoError(t, err)
	assert.Empty(t, page.Items, "deleted memos are hidden")

	require.NoError(t, w.Memos.Undelete(ctx, memo.ID))
	page, err = w.Memos.List(ctx, MemoFilter{}, Pagination{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	entries, err := w.Changelog.ListForTarget(ctx, TargetMemos, memo.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, MemoArchived{IsArchived: true}, entries[1].Value)
	assert.Equal(t, MemoDeleted{IsDeleted: true}, entries[2].Value)
	assert.Equal(t, MemoDeleted{IsDeleted: false}, entries[3].Value)
}

func TestMemoNotFoundAndInvalidID(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()
	missing := newID()

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"get missing", func() error { _, err := w.Memos.Get(ctx, missing); return err }, ErrMemoNotFound},
		{"update missing", func() error { return w.Memos.UpdateContent(ctx, missing, "x") }, ErrMemoNotFound},
		{"archive missing", func() error { return w.Memos.SetArchived(ctx, missing, true) }, ErrMemoNotFound},
		{"replay missing", func() error { _, err := w.Memos.Replay(ctx, missing); return err }, ErrMemoNotFound},
		{"get invalid", func() error { _, err := w.Memos.Get(ctx, "not-an-id"); return err }, ErrInvalidID},
		{"delete invalid", func() error { return w.Memos.Delete(ctx, "1234") }, ErrInvalidID},
		{"uppercase id", func() error { _, err := w.Memos.Get(ctx, strings.ToUpper(missing)); return err }, ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := w.Memos.Get(ctx, missing)
	assert.True(t, errors.Is(err, ErrNotFound), "memo not found is a not found error")
}

func TestMemoRejectsInvalidUTF8(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	_, err := w.Memos.Create(ctx, "abc\xffdef")
	assert.True(t, errors.Is(err, delta.ErrInvalidText), "got %v", err)

	memo, err := w.Memos.Create(ctx, "abcdef")
	require.NoError(t, err)

	err = w.Memos.UpdateContent(ctx, memo.ID, "abc\xffdef")
	assert.True(t, errors.Is(err, delta.ErrInvalidText), "got %v", err)

	got, err := w.Memos.Get(ctx, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", got.Content)

	replayed, err := w.Memos.Replay(ctx, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Content, replayed)
}

func TestMemoListPaginationAndSearch(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	var ids []string
	for _, content := range []string{"alpha", "beta", "gamma 100%", "delta_x", "alphabet"} {
		m, err := w.Memos.Create(ctx, content)
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	require.NoError(t, w.Memos.SetArchived(ctx, ids[1], true))

	var listed []string
	page := Pagination{PageSize: 2}
	for {
		res, err := w.Memos.List(ctx, MemoFilter{}, page)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res.Items), 2)
		for _, m := range res.Items {
			listed = append(listed, m.ID)
		}
		if res.Next == nil {
			break
		}
		page.After = res.Next
	}
	assert.Equal(t, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}, listed, "newest first")

	archived := true
	notArchived := false
	tests := []struct {
		name   string
		filter MemoFilter
		want   []string
	}{
		{"search", MemoFilter{Search: "alpha"}, []string{ids[4], ids[0]}},
		{"percent is literal", MemoFilter{Search: "%"}, []string{ids[2]}},
		{"underscore is literal", MemoFilter{Search: "_"}, []string{ids[3]}},
		{"archived", MemoFilter{IsArchived: &archived}, []string{ids[1]}},
		{"not archived", MemoFilter{IsArchived: &notArchived, Search: "a"}, []string{ids[4], ids[3], ids[2], ids[0]}},
		{"deleted", MemoFilter{IsDeleted: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := w.Memos.List(ctx, tt.filter, Pagination{})
			require.NoError(t, err)
			var got []string
			for _, m := range res.Items {
				got = append(got, m.ID)
			}
			assert.Equal(t, tt.want, got)
			assert.Nil(t, res.Next)
		})
	}
}

func TestSyncBetweenWorkspaces(t *testing.T) {
	a := newTestWorkspace(t)
	b := newTestWorkspace(t)
	ctx := context.Background()

	memo, err := a.Memos.Create(ctx, "hello")
	require.NoError(t, err)
	require.NoError(t, a.Memos.UpdateContent(ctx, memo.ID, "hello world"))
	require.NoError(t, a.Memos.SetArchived(ctx, memo.ID, true))

	doc := exportChangelog(t, a)
	n, err := b.Changelog.ImportJSON(ctx, bytes.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = b.Changelog.ImportJSON(ctx, bytes.NewReader(doc))
	require.NoError(t, err)
	assert.Zero(t, n, "known entries are skipped")

	unapplied, err := b.Changelog.ListUnapplied(ctx, Pagination{})
	require.NoError(t, err)
	assert.Len(t, unapplied.Items, 3)

	applied, err := b.Sync.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	got, err := b.Memos.Get(ctx, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Content)
	assert.True(t, got.IsArchived)

	applied, err = b.Sync.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestSyncConcurrentEditsConverge(t *testing.T) {
	a := newTestWorkspace(t)
	b := newTestWorkspace(t)
	ctx := context.Background()

	memo, err := a.Memos.Create(ctx, "hello world")
	require.NoError(t, err)
	_, err = b.Changelog.ImportJSON(ctx, bytes.NewReader(exportChangelog(t, a)))
	require.NoError(t, err)
	_, err = b.Sync.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Memos.UpdateContent(ctx, memo.ID, "hello world!"))
	require.NoError(t, b.Memos.UpdateContent(ctx, memo.ID, "Say: hello world"))

	fromA := exportChangelog(t, a)
	fromB := exportChangelog(t, b)
	_, err = a.Changelog.ImportJSON(ctx, bytes.NewReader(fromB))
	require.NoError(t, err)
	_, err = b.Changelog.ImportJSON(ctx, bytes.NewReader(fromA))
	require.NoError(t, err)

	_, err = a.Sync.Run(ctx)
	require.NoError(t, err)
	_, err = b.Sync.Run(ctx)
	require.NoError(t, err)

	gotA, err := a.Memos.Get(ctx, memo.ID)
	require.NoError(t, err)
	gotB, err := b.Memos.Get(ctx, memo.ID)
	require.NoError(t, err)

	assert.Equal(t, gotA.Content, gotB.Content)
	assert.Contains(t, gotA.Content, "Say: ")
	assert.Contains(t, gotA.Content, "!")
}

func TestSyncAppliesConflictingEditsInOrder(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	memoID := newID()
	entry := func(offset int, v ChangelogValue) ChangelogEntry {
		return ChangelogEntry{
			ID:         newID(),
			Source:     "phone",
			Revision:   1,
			Timestamp:  base.Add(time.Duration(offset) * time.Second),
			TargetType: TargetMemos,
			TargetID:   memoID,
			Value:      v,
		}
	}

	entries := []ChangelogEntry{
		entry(0, MemoCreated{Memo: Memo{ID: memoID, Content: conflictBase, CreatedAt: base, UpdatedAt: base}}),
		entry(1, MemoContentChanged{Changes: mustChangeSet(t,
			`{"version":"1","changes":[{"retain":25},{"delete":17},{"insert":"shortened"}]}`)}),
		entry(2, MemoContentChanged{Changes: mustChangeSet(t,
			`{"version":"1","changes":[{"retain":52},{"insert":"\n\nLine 3.5 added"}]}`)}),
		entry(3, MemoContentChanged{Changes: mustChangeSet(t,
			`{"version":"1","changes":[{"retain":7},{"delete":9},{"insert":"changed"}]}`)}),
	}

	// Delivered out of order; application follows the timestamps.
	doc, err := json.Marshal([]ChangelogEntry{entries[2], entries[0], entries[3], entries[1]})
	require.NoError(t, err)
	n, err := w.Changelog.ImportJSON(ctx, bytes.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	applied, err := w.Sync.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, applied)

	got, err := w.Memos.Get(ctx, memoID)
	require.NoError(t, err)
	assert.Equal(t, conflictMerged, got.Content)
	assert.Equal(t, base, got.CreatedAt)
}

func TestSyncRunPagesThroughEntries(t *testing.T) {
	a := newTestWorkspace(t)
	b := newTestWorkspace(t)
	b.Sync.pageSize = 2
	ctx := context.Background()

	for i := range 5 {
		m, err := a.Memos.Create(ctx, strings.Repeat("x", i+1))
		require.NoError(t, err)
		require.NoError(t, a.Memos.UpdateContent(ctx, m.ID, m.Content+"!"))
	}

	_, err := b.Changelog.ImportJSON(ctx, bytes.NewReader(exportChangelog(t, a)))
	require.NoError(t, err)
	applied, err := b.Sync.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, applied)

	page, err := b.Memos.List(ctx, MemoFilter{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	for _, m := range page.Items {
		assert.True(t, strings.HasSuffix(m.Content, "!"), m.Content)
	}
}

func TestImportJSONRejectsInvalidDocuments(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()
	id, target := newID(), newID()

	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"not an array", `{}`},
		{"missing value", `[{"id":"` + id + `","source":"x","timestamp":"2024-03-01T12:00:00Z","targetType":"memos","targetID":"` + target + `"}]`},
		{"unknown target", `[{"id":"` + id + `","source":"x","timestamp":"2024-03-01T12:00:00Z","targetType":"notes","targetID":"` + target + `","value":{"isDeleted":true}}]`},
		{"two values", `[{"id":"` + id + `","source":"x","timestamp":"2024-03-01T12:00:00Z","targetType":"memos","targetID":"` + target + `","value":{"isDeleted":true,"isArchived":true}}]`},
		{"bad id", `[{"id":"nope","source":"x","timestamp":"2024-03-01T12:00:00Z","targetType":"memos","targetID":"` + target + `","value":{"isDeleted":true}}]`},
		{"negative retain", `[{"id":"` + id + `","source":"x","timestamp":"2024-03-01T12:00:00Z","targetType":"memos","targetID":"` + target + `","value":{"content":{"version":"1","changes":[{"retain":-1}]}}}]`},
		{"wrong version", `[{"id":"` + id + `","source":"x","timestamp":"2024-03-01T12:00:00Z","targetType":"memos","targetID":"` + target + `","value":{"content":{"version":"2","changes":[]}}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Changelog.ImportJSON(ctx, strings.NewReader(tt.doc))
			assert.True(t, errors.Is(err, ErrInvalidChangelog), "got %v", err)
		})
	}

	page, err := w.Changelog.List(ctx, Pagination{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestChangelogMarkSynced(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	_, err := w.Memos.Create(ctx, "one")
	require.NoError(t, err)
	_, err = w.Memos.Create(ctx, "two")
	require.NoError(t, err)

	unsynced, err := w.Changelog.ListUnsynced(ctx, Pagination{})
	require.NoError(t, err)
	require.Len(t, unsynced.Items, 2)

	require.NoError(t, w.Changelog.MarkSynced(ctx, []string{unsynced.Items[0].ID}))

	unsynced, err = w.Changelog.ListUnsynced(ctx, Pagination{})
	require.NoError(t, err)
	require.Len(t, unsynced.Items, 1)

	all, err := w.Changelog.List(ctx, Pagination{})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.True(t, all.Items[0].IsSynced)
	require.NotNil(t, all.Items[0].SyncedAt)

	_, err = w.Changelog.Get(ctx, newID())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAttachments(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	a, err := w.Attachments.Create(ctx, "/tmp/notes/hello.txt", []byte("hello attachment"))
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", a.OriginalFilename)
	assert.Equal(t, "text/plain; charset=utf-8", a.ContentType)
	assert.EqualValues(t, len("hello attachment"), a.SizeBytes)
	assert.Len(t, a.SHA256, 32)

	got, data, err := w.Attachments.Data(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "hello attachment", string(data))

	memo, err := w.Memos.Create(ctx, "see attachment://"+a.ID+" and attachment://"+a.ID)
	require.NoError(t, err)
	linked, err := w.Attachments.ListForMemo(ctx, memo.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, a.ID, linked[0].ID)

	require.NoError(t, w.Memos.UpdateContent(ctx, memo.ID, "no more links"))
	linked, err = w.Attachments.ListForMemo(ctx, memo.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)

	_, err = w.Attachments.Get(ctx, newID())
	assert.True(t, errors.Is(err, ErrAttachmentNotFound))
	assert.True(t, errors.Is(err, ErrNotFound))

	entries, err := w.Changelog.ListForTarget(ctx, TargetAttachments, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	created, ok := entries[0].Value.(AttachmentCreated)
	require.True(t, ok)
	assert.Equal(t, a.Filepath, created.Attachment.Filepath)
}

func TestAttachmentLinks(t *testing.T) {
	a, b := newID(), newID()
	content := "![x](attachment://" + a + ") attachment://" + b + " attachment://" + a + " attachment://not-a-uuid"
	assert.Equal(t, []string{a, b}, AttachmentLinks(content))
	assert.Empty(t, AttachmentLinks("nothing here"))
}

func TestAttachmentSyncLinksMemo(t *testing.T) {
	a := newTestWorkspace(t)
	b := newTestWorkspace(t)
	ctx := context.Background()

	att, err := a.Attachments.Create(ctx, "photo.png", []byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	memo, err := a.Memos.Create(ctx, "attachment://"+att.ID)
	require.NoError(t, err)

	_, err = b.Changelog.ImportJSON(ctx, bytes.NewReader(exportChangelog(t, a)))
	require.NoError(t, err)
	_, err = b.Sync.Run(ctx)
	require.NoError(t, err)

	linked, err := b.Attachments.ListForMemo(ctx, memo.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, att.ID, linked[0].ID)
	assert.Equal(t, "image/png", linked[0].ContentType)

	_, _, err = b.Attachments.Data(ctx, att.ID)
	assert.True(t, errors.Is(err, ErrAttachmentNotFound), "bytes were never copied: %v", err)
}

func TestEncryptedAttachments(t *testing.T) {
	cfg := testConfig()
	cfg.Attachments.Encrypt = true
	w := openTestWorkspace(t, cfg)
	ctx := context.Background()

	plain := []byte("top secret attachment")
	a, err := w.Attachments.Create(ctx, "secret.txt", plain)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(w.Scope.AttachmentsPath(cfg), a.Filepath))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, plain), "stored bytes must be encrypted")

	_, data, err := w.Attachments.Data(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, plain, data)
}

func TestCleanupJob(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	keep, err := w.Memos.Create(ctx, "keep me")
	require.NoError(t, err)
	gone, err := w.Memos.Create(ctx, "delete me")
	require.NoError(t, err)
	require.NoError(t, w.Memos.Delete(ctx, gone.ID))

	res, err := w.Cleanup.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, CleanupResult{OrphanedEntries: 0, PurgedMemos: 1}, res)

	_, err = w.Memos.Get(ctx, gone.ID)
	assert.True(t, errors.Is(err, ErrMemoNotFound))

	res, err = w.Cleanup.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, CleanupResult{OrphanedEntries: 2, PurgedMemos: 0}, res)

	entries, err := w.Changelog.ListForTarget(ctx, TargetMemos, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	entries, err = w.Changelog.ListForTarget(ctx, TargetMemos, keep.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCleanupKeepsSyncedEntries(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()

	memo, err := w.Memos.Create(ctx, "synced")
	require.NoError(t, err)
	entries, err := w.Changelog.ListForTarget(ctx, TargetMemos, memo.ID)
	require.NoError(t, err)
	require.NoError(t, w.Changelog.MarkSynced(ctx, []string{entries[0].ID}))

	require.NoError(t, w.Memos.Delete(ctx, memo.ID))
	_, err = w.Cleanup.Run(ctx)
	require.NoError(t, err)

	res, err := w.Cleanup.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.OrphanedEntries, "only the unsynced delete entry is removed")

	entries, err = w.Changelog.ListForTarget(ctx, TargetMemos, memo.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSettings(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()
	require.NotNil(t, w.Settings)

	require.NoError(t, w.Settings.Set(ctx, "server", "https://memos.example.com"))
	require.NoError(t, w.Settings.Set(ctx, "theme", "dark"))

	v, err := w.Settings.Get(ctx, "server")
	require.NoError(t, err)
	assert.Equal(t, "https://memos.example.com", v)

	all, err := w.Settings.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"server": "https://memos.example.com", "theme": "dark"}, all)

	require.NoError(t, w.Settings.Remove(ctx, "theme"))
	all, err = w.Settings.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAuthTokens(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()
	require.NotNil(t, w.Auth)

	_, err := w.Auth.Get(ctx, "memos.example.com")
	assert.True(t, errors.Is(err, ErrNoAuthToken), "got %v", err)

	require.NoError(t, w.Auth.Set(ctx, "memos.example.com", AuthToken{Value: "abc", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, w.Auth.Set(ctx, "old.example.com", AuthToken{Value: "old", ExpiresAt: time.Now().Add(-time.Hour)}))

	tok, err := w.Auth.Get(ctx, "memos.example.com")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.Value)

	_, err = w.Auth.Get(ctx, "old.example.com")
	assert.True(t, errors.Is(err, ErrNoAuthToken), "expired token: %v", err)

	require.NoError(t, w.Auth.Clear(ctx))
	_, err = w.Auth.Get(ctx, "memos.example.com")
	assert.True(t, errors.Is(err, ErrNoAuthToken))

	v, err := w.Settings.Get(ctx, "missing")
	assert.Error(t, err)
	assert.Empty(t, v)
}
