package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4thel00z/memos/internal"
)

func writeScript(t *testing.T, dir, name string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\necho ok"), mode))
}

func TestFindExternal(t *testing.T) {
	tmp := t.TempDir()
	writeScript(t, tmp, "memo-sync", 0o755)
	t.Setenv("PATH", tmp+string(os.PathListSeparator)+os.Getenv("PATH"))

	path, err := findExternal("sync")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "memo-sync"), path)

	_, err = findExternal("nonexistent-command-12345")
	assert.Error(t, err)
}

func TestListExternalCommands(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeScript(t, first, "memo-foo", 0o755)
	writeScript(t, first, "memo-bar", 0o755)
	writeScript(t, second, "memo-foo", 0o755)
	writeScript(t, second, "memo-noexec", 0o644)
	writeScript(t, second, "other-script", 0o755)
	require.NoError(t, os.Mkdir(filepath.Join(second, "memo-dir"), 0o755))

	t.Setenv("PATH", first+string(os.PathListSeparator)+second)

	assert.Equal(t, []string{"bar", "foo"}, listExternalCommands())
}

func TestExternalEnv(t *testing.T) {
	scope := internal.Scope{Type: internal.ScopeProject, Path: "/work", MemoPath: "/work/.memos"}
	env := externalEnv("1.0.0", scope)

	for _, want := range []string{"MEMO_VERSION=1.0.0", "MEMO_SCOPE=project", "MEMO_SCOPE_DIR=/work/.memos"} {
		assert.True(t, slices.Contains(env, want), "missing %s", want)
	}
	assert.True(t, slices.ContainsFunc(env, func(e string) bool { return len(e) > 9 && e[:9] == "MEMO_BIN=" }))
}
