package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/4thel00z/memos/internal"
)

// Executables named memo-<name> on PATH extend the CLI as "memo <name>".
const externalPrefix = "memo-"

func findExternal(name string) (string, error) {
	path, err := exec.LookPath(externalPrefix + name)
	if err != nil {
		return "", fmt.Errorf("unknown command %q: %s%s not found in PATH", name, externalPrefix, name)
	}
	return path, nil
}

// listExternalCommands returns the sorted names of external commands, the
// first match on PATH winning.
func listExternalCommands() []string {
	seen := make(map[string]bool)
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if name, ok := externalName(dir, entry); ok {
				seen[name] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func externalName(dir string, entry os.DirEntry) (string, bool) {
	name, ok := strings.CutPrefix(entry.Name(), externalPrefix)
	if !ok || name == "" || entry.IsDir() {
		return "", false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	if err != nil || info.Mode()&0o111 == 0 {
		return "", false
	}
	return name, true
}

func executeExternal(ctx context.Context, name string, args []string, version string) error {
	binaryPath, err := findExternal(name)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Env = externalEnv(version, internal.NewScopeResolver().Resolve(""))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// externalEnv passes the binary, version and resolved scope to external
// commands. MEMO_PASSWORD is inherited from the environment when set.
func externalEnv(version string, scope internal.Scope) []string {
	bin, _ := os.Executable()
	return append(os.Environ(),
		"MEMO_VERSION="+version,
		"MEMO_BIN="+bin,
		"MEMO_SCOPE="+string(scope.Type),
		"MEMO_SCOPE_DIR="+scope.MemoPath,
	)
}
