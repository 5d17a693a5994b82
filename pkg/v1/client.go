package v1

import (
	"context"
	"errors"
	"fmt"
	"time"

	cerrors "github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/4thel00z/memos/internal"
)

var (
	ErrNotFound       = internal.ErrNotFound
	ErrInvalidID      = internal.ErrInvalidID
	ErrNotInitialized = internal.ErrNotInitialized
)

// Client provides programmatic access to a memo store.
type Client struct {
	workspaces *internal.WorkspacePool
	scope      string

	create  *internal.CreateMemoUseCase
	get     *internal.GetMemoUseCase
	update  *internal.UpdateMemoUseCase
	delete  *internal.DeleteMemoUseCase
	archive *internal.ArchiveMemoUseCase
	list    *internal.ListMemosUseCase
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		idle: 30 * time.Second,
		log:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch cfg.scope {
	case "", string(internal.ScopeGlobal), string(internal.ScopeProject):
	default:
		return nil, fmt.Errorf("unknown scope %q", cfg.scope)
	}

	loadConfig := func(scope internal.Scope) (*internal.Config, error) {
		c, err := internal.LoadConfig(scope)
		if err != nil {
			return nil, err
		}
		if cfg.password != "" {
			c.Password = cfg.password
		}
		return c, nil
	}

	workspaces := internal.NewWorkspacePool(internal.NewScopeResolver(),
		internal.WithIdleTimeout(cfg.idle),
		internal.WithPoolLogger(cfg.log),
		internal.WithConfigLoader(loadConfig),
	)

	return &Client{
		workspaces: workspaces,
		scope:      cfg.scope,
		create:     internal.NewCreateMemoUseCase(workspaces),
		get:        internal.NewGetMemoUseCase(workspaces),
		update:     internal.NewUpdateMemoUseCase(workspaces),
		delete:     internal.NewDeleteMemoUseCase(workspaces),
		archive:    internal.NewArchiveMemoUseCase(workspaces),
		list:       internal.NewListMemosUseCase(workspaces),
	}, nil
}

// Create stores a new memo.
func (c *Client) Create(ctx context.Context, content string) (Memo, error) {
	out, err := c.create.Execute(ctx, internal.CreateMemoInput{Content: content, Scope: c.scope})
	if err != nil {
		return Memo{}, fmt.Errorf("create: %w", err)
	}
	return toMemo(*out), nil
}

// Get returns a memo by id, including memos flagged deleted.
func (c *Client) Get(ctx context.Context, id string) (Memo, error) {
	out, err := c.get.Execute(ctx, internal.GetMemoInput{ID: id, Scope: c.scope})
	if err != nil {
		return Memo{}, translate(err)
	}
	return toMemo(*out), nil
}

// Update replaces a memo's content. The difference is recorded in the
// changelog.
func (c *Client) Update(ctx context.Context, id, content string) error {
	if err := c.update.Execute(ctx, internal.UpdateMemoInput{ID: id, Content: content, Scope: c.scope}); err != nil {
		return fmt.Errorf("update: %w", translate(err))
	}
	return nil
}

// Delete flags a memo deleted.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.delete.Execute(ctx, internal.DeleteMemoInput{ID: id, Scope: c.scope}); err != nil {
		return fmt.Errorf("delete: %w", translate(err))
	}
	return nil
}

// Archive sets or clears a memo's archived flag.
func (c *Client) Archive(ctx context.Context, id string, archived bool) error {
	if err := c.archive.Execute(ctx, internal.ArchiveMemoInput{ID: id, Archived: archived, Scope: c.scope}); err != nil {
		return fmt.Errorf("archive: %w", translate(err))
	}
	return nil
}

// List returns memos newest first.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]Memo, error) {
	out, err := c.list.Execute(ctx, internal.ListMemosInput{
		Search:       opts.Search,
		OnlyArchived: opts.OnlyArchived,
		HideArchived: opts.HideArchived,
		Deleted:      opts.Deleted,
		Limit:        opts.Limit,
		Scope:        c.scope,
	})
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	memos := make([]Memo, 0, len(out.Memos))
	for _, m := range out.Memos {
		memos = append(memos, toMemo(m))
	}
	return memos, nil
}

// Close closes the underlying stores.
func (c *Client) Close() error {
	return c.workspaces.Close()
}

// translate exposes not-found errors to the standard library's errors.Is.
func translate(err error) error {
	if cerrors.Is(err, internal.ErrNotFound) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func toMemo(m internal.MemoOutput) Memo {
	return Memo{
		ID:         m.ID,
		Content:    m.Content,
		IsArchived: m.IsArchived,
		IsDeleted:  m.IsDeleted,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
