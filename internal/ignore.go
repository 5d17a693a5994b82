package internal

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const IgnoreFilename = ".memoignore"

// editor droppings and git internals are never synced back into memos
var defaultIgnorePatterns = []string{".git", "*.swp", "*.swx", "*~", ".#*", "4913"}

// IgnoreMatcher decides which files in an export directory are skipped when
// watching for edits.
type IgnoreMatcher struct {
	matcher  gitignore.Matcher
	basePath string
}

func NewIgnoreMatcher(basePath string) (*IgnoreMatcher, error) {
	var patterns []gitignore.Pattern
	for _, p := range defaultIgnorePatterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	custom, err := parseIgnoreFile(filepath.Join(basePath, IgnoreFilename))
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "read %s", IgnoreFilename)
	}
	patterns = append(patterns, custom...)

	return &IgnoreMatcher{
		matcher:  gitignore.NewMatcher(patterns),
		basePath: basePath,
	}, nil
}

// Match reports whether path, absolute or relative to the base, is ignored.
func (m *IgnoreMatcher) Match(path string, isDir bool) bool {
	rel := path
	if filepath.IsAbs(path) {
		var err error
		if rel, err = filepath.Rel(m.basePath, path); err != nil {
			return false
		}
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return m.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}

func parseIgnoreFile(path string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, scanner.Err()
}
