package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
	}{
		{"both empty", "", ""},
		{"from empty", "", "added"},
		{"to empty", "removed", ""},
		{"identical", "same text", "same text"},
		{"insert in middle", "hello world", "hello brave new world"},
		{"replace word", "the quick brown fox", "the slow brown fox"},
		{"multiline", "# Title\n\n- one\n- two\n", "# Title\n\n- one\n- 1.5\n- two\n\nfooter"},
		{"astral characters", "a😀b", "a😀😀c"},
		{"accents", "café", "café au lait"},
		{"full rewrite", "abc", "xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := Diff(tt.old, tt.new)
			got, err := Apply(tt.old, NewChangeSet(ops))
			require.NoError(t, err)
			assert.Equal(t, tt.new, got)
		})
	}
}

func TestDiffOps(t *testing.T) {
	assert.Equal(t, []Op{}, Diff("", ""))
	assert.Equal(t, []Op{Insert("added")}, Diff("", "added"))
	assert.Equal(t, []Op{Delete(7)}, Diff("removed", ""))
	assert.Equal(t, []Op{Retain(2), Insert("d"), Delete(1)}, Diff("abc", "abd"))
	assert.Equal(t, []Op{Retain(2), Insert("x")}, Diff("😀", "😀x"))
}

func TestDiffChangeSet(t *testing.T) {
	cs := DiffChangeSet("abc", "abcd")
	assert.Equal(t, Version, cs.Version)
	assert.Equal(t, 3, cs.BaseLength())
	assert.Equal(t, 4, cs.TargetLength())
}
