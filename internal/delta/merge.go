package delta

import (
	"github.com/cockroachdb/errors"
)

// Entry is one changelog record of a document: Created or ContentChange.
type Entry interface {
	isEntry()
}

// Created carries the initial full content of a document.
type Created struct {
	Content string
}

// ContentChange carries one incremental edit.
type ContentChange struct {
	Changes ChangeSet
}

func (Created) isEntry()       {}
func (ContentChange) isEntry() {}

// Merge folds entries, in the order given, into one change set. A Created
// entry may only appear first; its content becomes the base that later
// changes are composed onto.
func Merge(entries []Entry) (ChangeSet, error) {
	acc := []Op{}
	document := false

	for i, entry := range entries {
		switch e := entry.(type) {
		case Created:
			if i != 0 {
				return ChangeSet{}, errors.Wrapf(ErrCreatedNotFirst, "entry %d", i)
			}
			if err := ValidateText(e.Content); err != nil {
				return ChangeSet{}, errors.Wrapf(err, "entry %d", i)
			}
			acc = Compose(insertOnly(e.Content), acc)
			document = true
		case ContentChange:
			if err := e.Changes.validate(); err != nil {
				return ChangeSet{}, errors.Wrapf(err, "entry %d", i)
			}
			if document {
				if n, size := e.Changes.BaseLength(), targetLength(acc); n > size {
					return ChangeSet{}, errors.Wrapf(ErrMalformedChangeSet,
						"entry %d spans %d units but document has %d", i, n, size)
				}
			}
			acc = Compose(acc, e.Changes.Ops)
		default:
			return ChangeSet{}, errors.Wrapf(ErrUnknownEntry, "entry %d: %T", i, entry)
		}
	}

	return NewChangeSet(acc), nil
}

// Replay merges entries and renders the result.
func Replay(entries []Entry) (string, error) {
	cs, err := Merge(entries)
	if err != nil {
		return "", err
	}
	return ResolveOps(cs.Ops)
}
