package internal

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"github.com/4thel00z/memos/internal/crypt"
	"github.com/4thel00z/memos/internal/database"
	"github.com/4thel00z/memos/internal/kvstore"
	"github.com/4thel00z/memos/internal/objstore"
	"github.com/4thel00z/memos/internal/pool"
)

var ErrNotInitialized = errors.New("not initialized, run 'memo init'")

// Workspace is one opened scope: its database, stores and the services
// built on them.
type Workspace struct {
	Scope  Scope
	Config *Config
	DB     *database.DB

	Memos       *MemoService
	Changelog   *ChangelogService
	Attachments *AttachmentService
	Sync        *SyncApplier
	Cleanup     *CleanupJob
	Export      *ExportService

	// Settings and Auth are nil when no password is configured.
	Settings *Settings
	Auth     *AuthTokens
}

// OpenWorkspace opens the scope's database, applies migrations and wires
// the services.
func OpenWorkspace(ctx context.Context, scope Scope, cfg *Config, log *zap.SugaredLogger) (*Workspace, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if !scope.Initialized() {
		return nil, errors.Wrapf(ErrNotInitialized, "%s", scope.MemoPath)
	}

	var cipher *crypt.Cipher
	if cfg.Password != "" {
		var err error
		cipher, err = crypt.NewCipher([]byte(cfg.Password), crypt.WithIterations(cfg.Crypto.Iterations))
		if err != nil {
			return nil, err
		}
	} else if cfg.Attachments.Encrypt {
		return nil, errors.Wrap(ErrNoPassword, "attachments.encrypt is set")
	}

	dbCfg := cfg.Database
	dbCfg.File = scope.DatabasePath(cfg)
	db, err := database.Open(dbCfg, log.Named("db"))
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	attachmentsDir := scope.AttachmentsPath(cfg)
	if err := os.MkdirAll(attachmentsDir, 0o700); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create attachments directory")
	}
	var objectFS objstore.FS = objstore.NewBillyFS(osfs.New(attachmentsDir))
	if cfg.Attachments.Encrypt {
		objectFS = objstore.NewEncryptedFS(objectFS, cipher)
	}
	objects := objstore.New(objectFS, objstore.WithLogger(log.Named("objects")))

	changelog := NewChangelogService(NewChangelogRepo(db), cfg.SourceName, log.Named("changelog"))
	attachments := NewAttachmentService(NewAttachmentRepo(db), objects, changelog, log.Named("attachments"))
	memos := NewMemoService(db, NewMemoRepo(db), attachments, changelog, log.Named("memos"))

	w := &Workspace{
		Scope:       scope,
		Config:      cfg,
		DB:          db,
		Memos:       memos,
		Changelog:   changelog,
		Attachments: attachments,
		Sync:        NewSyncApplier(db, changelog, memos, attachments, log.Named("sync")),
		Cleanup:     NewCleanupJob(changelog, memos, log.Named("cleanup")),
		Export:      NewExportService(memos, scope.ExportPath(), log.Named("export")),
	}

	if cipher != nil {
		substrate := kvstore.NewSQLite(db)
		w.Settings = NewSettings(substrate, cipher)
		w.Auth = NewAuthTokens(substrate, cipher)
	}

	log.Debugw("workspace opened", "scope", scope.Type, "path", scope.MemoPath)
	return w, nil
}

func (w *Workspace) Close() error {
	return w.DB.Close()
}

// InitWorkspace creates the scope directory and a default config. Existing
// configs are kept.
func InitWorkspace(scope Scope) (bool, error) {
	if err := os.MkdirAll(scope.MemoPath, 0o700); err != nil {
		return false, errors.Wrapf(err, "create %s", scope.MemoPath)
	}
	if _, err := os.Stat(scope.ConfigPath()); err == nil {
		return false, nil
	}
	if err := SaveConfig(scope, DefaultConfig()); err != nil {
		return false, err
	}
	return true, nil
}

// WorkspacePool shares one opened Workspace per scope between concurrent
// callers and closes it after it has been idle.
type WorkspacePool struct {
	resolver *ScopeResolver
	idle     time.Duration
	log      *zap.SugaredLogger
	loadCfg  func(Scope) (*Config, error)

	mu    sync.Mutex
	pools map[string]*pool.Pool[*Workspace]
}

type WorkspacePoolOption func(*WorkspacePool)

func WithIdleTimeout(d time.Duration) WorkspacePoolOption {
	return func(p *WorkspacePool) { p.idle = d }
}

func WithPoolLogger(log *zap.SugaredLogger) WorkspacePoolOption {
	return func(p *WorkspacePool) { p.log = log }
}

// WithConfigLoader replaces LoadConfig, e.g. to inject a password.
func WithConfigLoader(load func(Scope) (*Config, error)) WorkspacePoolOption {
	return func(p *WorkspacePool) { p.loadCfg = load }
}

func NewWorkspacePool(resolver *ScopeResolver, opts ...WorkspacePoolOption) *WorkspacePool {
	p := &WorkspacePool{
		resolver: resolver,
		log:      zap.NewNop().Sugar(),
		loadCfg:  LoadConfig,
		pools:    make(map[string]*pool.Pool[*Workspace]),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *WorkspacePool) Resolver() *ScopeResolver { return p.resolver }

// Acquire returns the workspace of the scope selected by scopeHint. The
// caller must Release the handle.
func (p *WorkspacePool) Acquire(ctx context.Context, scopeHint string) (*pool.Handle[*Workspace], error) {
	scope := p.resolver.Resolve(scopeHint)

	p.mu.Lock()
	wp, ok := p.pools[scope.MemoPath]
	if !ok {
		wp = pool.New(
			func(ctx context.Context) (*Workspace, error) {
				cfg, err := p.loadCfg(scope)
				if err != nil {
					return nil, err
				}
				return OpenWorkspace(ctx, scope, cfg, p.log)
			},
			func(w *Workspace) error { return w.Close() },
			p.idle,
			pool.WithLogger(p.log.With("scope", scope.MemoPath)),
		)
		p.pools[scope.MemoPath] = wp
	}
	p.mu.Unlock()

	return wp.Acquire(ctx)
}

// Do runs fn with the workspace of scopeHint.
func (p *WorkspacePool) Do(ctx context.Context, scopeHint string, fn func(*Workspace) error) error {
	h, err := p.Acquire(ctx, scopeHint)
	if err != nil {
		return err
	}
	defer h.Release()
	return fn(h.Value())
}

func (p *WorkspacePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	for path, wp := range p.pools {
		err = errors.CombineErrors(err, wp.Close())
		delete(p.pools, path)
	}
	return err
}
