package delta

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conflictBase = "Line 1 to change\n\nLine 2 will be shortened\n\nLine 3 unchanged\n\nLine 4 unchanged"

const conflictMerged = "Line 1 changed\n\nLine 2 shortened\n\nLine 3 unchanged\n\nLine 3.5 added\n\nLine 4 unchanged"

func mustChangeSet(t *testing.T, raw string) ChangeSet {
	t.Helper()
	var cs ChangeSet
	require.NoError(t, json.Unmarshal([]byte(raw), &cs))
	return cs
}

func TestMergeConflictingChanges(t *testing.T) {
	shorten := mustChangeSet(t, `{"version":"1","changes":[{"retain":25},{"delete":17},{"insert":"shortened"}]}`)
	addParagraph := mustChangeSet(t, `{"version":"1","changes":[{"retain":60},{"insert":"\n\nLine 3.5 added"}]}`)
	reword := mustChangeSet(t, `{"version":"1","changes":[{"retain":7},{"delete":9},{"insert":"changed"}]}`)

	merged, err := Merge([]Entry{
		Created{Content: conflictBase},
		ContentChange{Changes: addParagraph},
		ContentChange{Changes: shorten},
		ContentChange{Changes: reword},
	})
	require.NoError(t, err)

	got, err := ResolveOps(merged.Ops)
	require.NoError(t, err)
	assert.Equal(t, conflictMerged, got)
}

func TestMergeConflictingChangesInEditOrder(t *testing.T) {
	shorten := mustChangeSet(t, `{"version":"1","changes":[{"retain":25},{"delete":17},{"insert":"shortened"}]}`)
	addParagraph := mustChangeSet(t, `{"version":"1","changes":[{"retain":52},{"insert":"\n\nLine 3.5 added"}]}`)
	reword := mustChangeSet(t, `{"version":"1","changes":[{"retain":7},{"delete":9},{"insert":"changed"}]}`)

	got, err := Replay([]Entry{
		Created{Content: conflictBase},
		ContentChange{Changes: shorten},
		ContentChange{Changes: addParagraph},
		ContentChange{Changes: reword},
	})
	require.NoError(t, err)
	assert.Equal(t, conflictMerged, got)
}

func TestMergeIdempotent(t *testing.T) {
	entries := []Entry{
		Created{Content: "first draft"},
		ContentChange{Changes: DiffChangeSet("first draft", "second draft")},
		ContentChange{Changes: DiffChangeSet("second draft", "second draft, revised")},
	}

	a, err := Merge(entries)
	require.NoError(t, err)
	b, err := Merge(entries)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	encodedA, err := json.Marshal(a)
	require.NoError(t, err)
	encodedB, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, encodedA, encodedB)
}

func TestMergeAppendExtends(t *testing.T) {
	entries := []Entry{
		Created{Content: "hello"},
		ContentChange{Changes: DiffChangeSet("hello", "hello world")},
	}

	before, err := Replay(entries)
	require.NoError(t, err)
	require.Equal(t, "hello world", before)

	edit := DiffChangeSet(before, "hello, wide world!")
	entries = append(entries, ContentChange{Changes: edit})

	after, err := Replay(entries)
	require.NoError(t, err)

	expected, err := Apply(before, edit)
	require.NoError(t, err)
	assert.Equal(t, expected, after)
	assert.Equal(t, "hello, wide world!", after)
}

func TestMergeWithoutCreated(t *testing.T) {
	first := NewChangeSet([]Op{Retain(3), Insert("!")})
	second := NewChangeSet([]Op{Insert(">"), Retain(4), Insert("?")})

	merged, err := Merge([]Entry{ContentChange{Changes: first}, ContentChange{Changes: second}})
	require.NoError(t, err)

	step, err := Apply("abc", first)
	require.NoError(t, err)
	sequential, err := Apply(step, second)
	require.NoError(t, err)

	got, err := Apply("abc", merged)
	require.NoError(t, err)
	assert.Equal(t, sequential, got)
	assert.Equal(t, ">abc!?", got)
}

func TestMergeCreatedMustBeFirst(t *testing.T) {
	_, err := Merge([]Entry{
		ContentChange{Changes: NewChangeSet([]Op{Insert("x")})},
		Created{Content: "late"},
	})
	assert.True(t, errors.Is(err, ErrCreatedNotFirst), "got %v", err)

	_, err = Merge([]Entry{Created{Content: "a"}, Created{Content: "b"}})
	assert.True(t, errors.Is(err, ErrCreatedNotFirst), "got %v", err)
}

func TestMergeRejectsOutOfBoundsChange(t *testing.T) {
	_, err := Merge([]Entry{
		Created{Content: "abc"},
		ContentChange{Changes: NewChangeSet([]Op{Retain(3), Delete(1)})},
	})
	assert.True(t, errors.Is(err, ErrMalformedChangeSet), "got %v", err)

	_, err = Merge([]Entry{
		Created{Content: "abc"},
		ContentChange{Changes: NewChangeSet([]Op{Retain(3), Insert("d")})},
	})
	assert.NoError(t, err)
}

func TestMergeRejectsVersion(t *testing.T) {
	_, err := Merge([]Entry{Created{Content: "abc"}, ContentChange{Changes: ChangeSet{Version: "0"}}})
	assert.True(t, errors.Is(err, ErrUnsupportedVersion), "got %v", err)
}

func TestMergeEmpty(t *testing.T) {
	merged, err := Merge(nil)
	require.NoError(t, err)
	assert.Equal(t, NewChangeSet(nil), merged)
}
