package internal

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestPool(t *testing.T) *WorkspacePool {
	t.Helper()
	scope := testScope(t)
	resolver := &ScopeResolver{homeDir: t.TempDir(), workDir: func() (string, error) { return scope.Path, nil }}
	p := NewWorkspacePool(resolver,
		WithPoolLogger(zaptest.NewLogger(t).Sugar()),
		WithConfigLoader(func(Scope) (*Config, error) { return testConfig(), nil }),
	)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestMemoUseCases(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()

	created, err := NewCreateMemoUseCase(p).Execute(ctx, CreateMemoInput{Content: "buy milk"})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", created.Content)

	require.NoError(t, NewUpdateMemoUseCase(p).Execute(ctx, UpdateMemoInput{ID: created.ID, Content: "buy oat milk"}))

	got, err := NewGetMemoUseCase(p).Execute(ctx, GetMemoInput{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", got.Content)
	assert.Empty(t, got.Attachments)

	require.NoError(t, NewArchiveMemoUseCase(p).Execute(ctx, ArchiveMemoInput{ID: created.ID, Archived: true}))
	got, err = NewGetMemoUseCase(p).Execute(ctx, GetMemoInput{ID: created.ID})
	require.NoError(t, err)
	assert.True(t, got.IsArchived)

	require.NoError(t, NewDeleteMemoUseCase(p).Execute(ctx, DeleteMemoInput{ID: created.ID}))
	list, err := NewListMemosUseCase(p).Execute(ctx, ListMemosInput{})
	require.NoError(t, err)
	assert.Empty(t, list.Memos)

	list, err = NewListMemosUseCase(p).Execute(ctx, ListMemosInput{Deleted: true})
	require.NoError(t, err)
	assert.Len(t, list.Memos, 1)

	require.NoError(t, NewDeleteMemoUseCase(p).Execute(ctx, DeleteMemoInput{ID: created.ID, Undelete: true}))
	got, err = NewGetMemoUseCase(p).Execute(ctx, GetMemoInput{ID: created.ID})
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
}

func TestGetMemoUseCaseAttachments(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()

	var attachmentID string
	require.NoError(t, p.Do(ctx, "", func(w *Workspace) error {
		a, err := w.Attachments.Create(ctx, "receipt.txt", []byte("total: 4.20"))
		attachmentID = a.ID
		return err
	}))

	created, err := NewCreateMemoUseCase(p).Execute(ctx, CreateMemoInput{Content: "see attachment://" + attachmentID})
	require.NoError(t, err)

	got, err := NewGetMemoUseCase(p).Execute(ctx, GetMemoInput{ID: created.ID})
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, AttachmentOutput{
		ID:          attachmentID,
		Filename:    "receipt.txt",
		ContentType: "text/plain; charset=utf-8",
		SizeBytes:   11,
	}, got.Attachments[0])
}

func TestListMemosUseCase(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()

	create := NewCreateMemoUseCase(p)
	var ids []string
	for _, content := range []string{"one", "two", "three"} {
		m, err := create.Execute(ctx, CreateMemoInput{Content: content})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	require.NoError(t, NewArchiveMemoUseCase(p).Execute(ctx, ArchiveMemoInput{ID: ids[0], Archived: true}))

	list := NewListMemosUseCase(p)
	tests := []struct {
		name     string
		input    ListMemosInput
		want     []string
		wantMore bool
	}{
		{"all", ListMemosInput{}, []string{ids[2], ids[1], ids[0]}, false},
		{"limit", ListMemosInput{Limit: 2}, []string{ids[2], ids[1]}, true},
		{"limit exact", ListMemosInput{Limit: 3}, []string{ids[2], ids[1], ids[0]}, false},
		{"only archived", ListMemosInput{OnlyArchived: true}, []string{ids[0]}, false},
		{"hide archived", ListMemosInput{HideArchived: true}, []string{ids[2], ids[1]}, false},
		{"search", ListMemosInput{Search: "t"}, []string{ids[2], ids[1]}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := list.Execute(ctx, tt.input)
			require.NoError(t, err)
			var got []string
			for _, m := range out.Memos {
				got = append(got, m.ID)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantMore, out.HasMore)
		})
	}
}

func TestUseCaseErrors(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()

	_, err := NewGetMemoUseCase(p).Execute(ctx, GetMemoInput{ID: newID()})
	assert.True(t, errors.Is(err, ErrMemoNotFound), "got %v", err)

	err = NewUpdateMemoUseCase(p).Execute(ctx, UpdateMemoInput{ID: "bogus", Content: "x"})
	assert.True(t, errors.Is(err, ErrInvalidID), "got %v", err)

	err = NewArchiveMemoUseCase(p).Execute(ctx, ArchiveMemoInput{ID: newID(), Archived: true})
	assert.True(t, errors.Is(err, ErrMemoNotFound), "got %v", err)
}
