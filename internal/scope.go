package internal

import (
	"os"
	"path/filepath"
)

const ScopeDirName = ".memos"

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

type Scope struct {
	Type     ScopeType
	Path     string // working directory root
	MemoPath string // .memos directory path
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.MemoPath, "config.yaml")
}

// resolve makes p absolute relative to the scope's .memos directory.
func (s Scope) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.MemoPath, p)
}

func (s Scope) DatabasePath(cfg *Config) string {
	return s.resolve(cfg.Database.File)
}

func (s Scope) AttachmentsPath(cfg *Config) string {
	return s.resolve(cfg.Attachments.Dir)
}

// ExportPath is where memos are written as markdown files.
func (s Scope) ExportPath() string {
	return filepath.Join(s.MemoPath, "export")
}

func (s Scope) Initialized() bool {
	info, err := os.Stat(s.MemoPath)
	return err == nil && info.IsDir()
}

type ScopeResolver struct {
	homeDir string
	workDir func() (string, error)
}

func NewScopeResolver() *ScopeResolver {
	home, _ := os.UserHomeDir()
	return &ScopeResolver{homeDir: home, workDir: os.Getwd}
}

func (r *ScopeResolver) Global() Scope {
	return Scope{
		Type:     ScopeGlobal,
		Path:     r.homeDir,
		MemoPath: filepath.Join(r.homeDir, ScopeDirName),
	}
}

// Project finds the nearest .memos directory above the working directory.
func (r *ScopeResolver) Project() (Scope, bool) {
	cwd, err := r.workDir()
	if err != nil {
		return Scope{}, false
	}
	return r.findProjectScope(cwd)
}

func (r *ScopeResolver) findProjectScope(dir string) (Scope, bool) {
	for {
		memoPath := filepath.Join(dir, ScopeDirName)
		info, err := os.Stat(memoPath)
		if err == nil && info.IsDir() && memoPath != r.Global().MemoPath {
			return Scope{Type: ScopeProject, Path: dir, MemoPath: memoPath}, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

// Resolve picks the scope for a --scope flag value: "global", "project", or
// empty for the nearest project falling back to global.
func (r *ScopeResolver) Resolve(explicit string) Scope {
	if explicit == string(ScopeGlobal) {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}

// ForInit returns the scope "memo init" creates: the working directory for
// project scopes, the home directory otherwise.
func (r *ScopeResolver) ForInit(explicit string) (Scope, error) {
	if explicit == string(ScopeGlobal) {
		return r.Global(), nil
	}
	cwd, err := r.workDir()
	if err != nil {
		return Scope{}, err
	}
	return Scope{Type: ScopeProject, Path: cwd, MemoPath: filepath.Join(cwd, ScopeDirName)}, nil
}

