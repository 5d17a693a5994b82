package delta

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff returns the ops that turn oldText into newText. Both texts must be
// valid UTF-8; callers check with ValidateText.
func Diff(oldText, newText string) []Op {
	if oldText == newText {
		return []Op{}
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)

	var b builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.push(Retain(utf16Len(d.Text)))
		case diffmatchpatch.DiffInsert:
			b.push(Insert(d.Text))
		case diffmatchpatch.DiffDelete:
			b.push(Delete(utf16Len(d.Text)))
		}
	}
	return b.chop()
}

// DiffChangeSet wraps Diff in a versioned change set.
func DiffChangeSet(oldText, newText string) ChangeSet {
	return NewChangeSet(Diff(oldText, newText))
}
