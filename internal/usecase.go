package internal

import (
	"context"
	"time"
)

// Use case input/output DTOs

type CreateMemoInput struct {
	Content string
	Scope   string
}

type GetMemoInput struct {
	ID    string
	Scope string
}

type MemoOutput struct {
	ID          string
	Content     string
	IsArchived  bool
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Attachments []AttachmentOutput
}

type AttachmentOutput struct {
	ID          string
	Filename    string
	ContentType string
	SizeBytes   int64
}

type UpdateMemoInput struct {
	ID      string
	Content string
	Scope   string
}

type DeleteMemoInput struct {
	ID       string
	Scope    string
	Undelete bool
}

type ArchiveMemoInput struct {
	ID       string
	Archived bool
	Scope    string
}

type ListMemosInput struct {
	Search       string
	OnlyArchived bool
	HideArchived bool
	Deleted      bool
	Limit        int
	Scope        string
}

type ListMemosOutput struct {
	Memos   []MemoOutput
	HasMore bool
}

func toMemoOutput(m Memo) MemoOutput {
	return MemoOutput{
		ID:         m.ID,
		Content:    m.Content,
		IsArchived: m.IsArchived,
		IsDeleted:  m.IsDeleted,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// Use cases

type CreateMemoUseCase struct {
	workspaces *WorkspacePool
}

func NewCreateMemoUseCase(workspaces *WorkspacePool) *CreateMemoUseCase {
	return &CreateMemoUseCase{workspaces: workspaces}
}

func (uc *CreateMemoUseCase) Execute(ctx context.Context, input CreateMemoInput) (*MemoOutput, error) {
	var out MemoOutput
	err := uc.workspaces.Do(ctx, input.Scope, func(w *Workspace) error {
		memo, err := w.Memos.Create(ctx, input.Content)
		if err != nil {
			return err
		}
		out = toMemoOutput(memo)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type GetMemoUseCase struct {
	workspaces *WorkspacePool
}

func NewGetMemoUseCase(workspaces *WorkspacePool) *GetMemoUseCase {
	return &GetMemoUseCase{workspaces: workspaces}
}

func (uc *GetMemoUseCase) Execute(ctx context.Context, input GetMemoInput) (*MemoOutput, error) {
	var out MemoOutput
	err := uc.workspaces.Do(ctx, input.Scope, func(w *Workspace) error {
		memo, err := w.Memos.Get(ctx, input.ID)
		if err != nil {
			return err
		}
		attachments, err := w.Attachments.ListForMemo(ctx, memo.ID)
		if err != nil {
			return err
		}

		out = toMemoOutput(memo)
		for _, a := range attachments {
			out.Attachments = append(out.Attachments, AttachmentOutput{
				ID:          a.ID,
				Filename:    a.OriginalFilename,
				ContentType: a.ContentType,
				SizeBytes:   a.SizeBytes,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type UpdateMemoUseCase struct {
	workspaces *WorkspacePool
}

func NewUpdateMemoUseCase(workspaces *WorkspacePool) *UpdateMemoUseCase {
	return &UpdateMemoUseCase{workspaces: workspaces}
}

func (uc *UpdateMemoUseCase) Execute(ctx context.Context, input UpdateMemoInput) error {
	return uc.workspaces.Do(ctx, input.Scope, func(w *Workspace) error {
		return w.Memos.UpdateContent(ctx, input.ID, input.Content)
	})
}

type DeleteMemoUseCase struct {
	workspaces *WorkspacePool
}

func NewDeleteMemoUseCase(workspaces *WorkspacePool) *DeleteMemoUseCase {
	return &DeleteMemoUseCase{workspaces: workspaces}
}

func (uc *DeleteMemoUseCase) Execute(ctx context.Context, input DeleteMemoInput) error {
	return uc.workspaces.Do(ctx, input.Scope, func(w *Workspace) error {
		if input.Undelete {
			return w.Memos.Undelete(ctx, input.ID)
		}
		return w.Memos.Delete(ctx, input.ID)
	})
}

type ArchiveMemoUseCase struct {
	workspaces *WorkspacePool
}

func NewArchiveMemoUseCase(workspaces *WorkspacePool) *ArchiveMemoUseCase {
	return &ArchiveMemoUseCase{workspaces: workspaces}
}

func (uc *ArchiveMemoUseCase) Execute(ctx context.Context, input ArchiveMemoInput) error {
	return uc.workspaces.Do(ctx, input.Scope, func(w *Workspace) error {
		return w.Memos.SetArchived(ctx, input.ID, input.Archived)
	})
}

type ListMemosUseCase struct {
	workspaces *WorkspacePool
}

func NewListMemosUseCase(workspaces *WorkspacePool) *ListMemosUseCase {
	return &ListMemosUseCase{workspaces: workspaces}
}

// Execute lists memos newest first. A Limit of zero lists everything.
func (uc *ListMemosUseCase) Execute(ctx context.Context, input ListMemosInput) (*ListMemosOutput, error) {
	filter := MemoFilter{Search: input.Search, IsDeleted: input.Deleted}
	switch {
	case input.OnlyArchived:
		archived := true
		filter.IsArchived = &archived
	case input.HideArchived:
		archived := false
		filter.IsArchived = &archived
	}

	out := &ListMemosOutput{}
	err := uc.workspaces.Do(ctx, input.Scope, func(w *Workspace) error {
		page := Pagination{PageSize: input.Limit}
		for {
			res, err := w.Memos.List(ctx, filter, page)
			if err != nil {
				return err
			}
			for _, m := range res.Items {
				out.Memos = append(out.Memos, toMemoOutput(m))
			}
			if res.Next == nil {
				return nil
			}
			if input.Limit > 0 {
				out.HasMore = true
				return nil
			}
			page.After = res.Next
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
