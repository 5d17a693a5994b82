package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreMatcherDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	m, err := NewIgnoreMatcher(tmpDir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	ignored := []string{".git", "note.md.swp", "note.md~", ".#note.md"}
	for _, p := range ignored {
		if !m.Match(filepath.Join(tmpDir, p), false) {
			t.Errorf("expected %q to be ignored", p)
		}
	}
	if !m.Match(filepath.Join(tmpDir, ".git", "HEAD"), false) {
		t.Error("expected files under .git to be ignored")
	}
	if m.Match(filepath.Join(tmpDir, "8c4f3b4e-5b1a-4c1e-9f3a-1d2e3f4a5b6c.md"), false) {
		t.Error("memo files must not be ignored")
	}
}

func TestIgnoreMatcherFilePatterns(t *testing.T) {
	tmpDir := t.TempDir()
	content := "# drafts stay local\n\n*.tmp\ndrafts/\n"
	if err := os.WriteFile(filepath.Join(tmpDir, IgnoreFilename), []byte(content), 0o644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}

	m, err := NewIgnoreMatcher(tmpDir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"scratch.tmp", false, true},
		{"notes.md", false, false},
		{"drafts", true, true},
		{"drafts/a.md", false, true},
		{"drafts", false, false},
	}
	for _, tt := range tests {
		if got := m.Match(filepath.Join(tmpDir, tt.path), tt.isDir); got != tt.want {
			t.Errorf("Match(%q, %v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
		}
	}
}

func TestIgnoreMatcherOutsideBase(t *testing.T) {
	tmpDir := t.TempDir()
	m, err := NewIgnoreMatcher(tmpDir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	if m.Match(filepath.Join(filepath.Dir(tmpDir), "x.swp"), false) {
		t.Error("paths outside the base are never matched")
	}
}
