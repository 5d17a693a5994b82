// Package delta implements the text change model used by memo changelogs:
// retain/insert/delete operation sequences, their composition, and the
// replay of a changelog into a single change set.
//
// Lengths are counted in UTF-16 code units so that change sets recorded by
// JavaScript editors replay to the same text.
package delta

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

var (
	ErrMalformedChangeSet = errors.New("malformed change set")
	ErrMalformedOp        = errors.New("malformed change op")
	ErrUnsupportedVersion = errors.New("unsupported change set version")
	ErrCreatedNotFirst    = errors.New("created entry must be the first changelog entry")
	ErrUnknownEntry       = errors.New("unknown changelog entry")
	ErrInvalidText        = errors.New("text is not valid UTF-8")
)

type OpKind uint8

const (
	OpRetain OpKind = iota + 1
	OpInsert
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpRetain:
		return "retain"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// Op is a single change instruction. The zero value is not a valid op; use
// Retain, Insert or Delete.
type Op struct {
	kind OpKind
	n    int
	text string
}

func Retain(n int) Op { return Op{kind: OpRetain, n: n} }

func Insert(text string) Op { return Op{kind: OpInsert, text: text} }

func Delete(n int) Op { return Op{kind: OpDelete, n: n} }

func (o Op) Kind() OpKind { return o.kind }

// Text returns the inserted text, or "" for retain and delete ops.
func (o Op) Text() string { return o.text }

// Len returns the number of UTF-16 code units the op covers.
func (o Op) Len() int {
	if o.kind == OpInsert {
		return utf16Len(o.text)
	}
	return o.n
}

func (o Op) String() string {
	if o.kind == OpInsert {
		return fmt.Sprintf("insert(%q)", o.text)
	}
	return fmt.Sprintf("%s(%d)", o.kind, o.n)
}

func (o Op) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case OpRetain:
		return json.Marshal(struct {
			Retain int `json:"retain"`
		}{o.n})
	case OpInsert:
		return json.Marshal(struct {
			Insert string `json:"insert"`
		}{o.text})
	case OpDelete:
		return json.Marshal(struct {
			Delete int `json:"delete"`
		}{o.n})
	default:
		return nil, errors.Wrapf(ErrMalformedOp, "cannot encode %s", o.kind)
	}
}

// UnmarshalJSON accepts exactly one of the "retain", "insert" or "delete"
// keys.
func (o *Op) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrMalformedOp, err.Error())
	}
	if len(raw) != 1 {
		return errors.Wrapf(ErrMalformedOp, "expected exactly one of retain, insert, delete; got %d keys", len(raw))
	}

	for key, value := range raw {
		switch key {
		case "insert":
			var text string
			if err := json.Unmarshal(value, &text); err != nil {
				return errors.Wrapf(ErrMalformedOp, "insert: %v", err)
			}
			*o = Insert(text)
		case "retain", "delete":
			var n int
			if err := json.Unmarshal(value, &n); err != nil {
				return errors.Wrapf(ErrMalformedOp, "%s: %v", key, err)
			}
			if n < 0 {
				return errors.Wrapf(ErrMalformedOp, "%s: negative length %d", key, n)
			}
			if key == "retain" {
				*o = Retain(n)
			} else {
				*o = Delete(n)
			}
		default:
			return errors.Wrapf(ErrMalformedOp, "unknown key %q", key)
		}
	}
	return nil
}

// Version is the only change set format version in use.
const Version = "1"

// ChangeSet is a versioned op sequence. Treat it as immutable once built.
type ChangeSet struct {
	Version string `json:"version"`
	Ops     []Op   `json:"changes"`
}

func NewChangeSet(ops []Op) ChangeSet {
	if ops == nil {
		ops = []Op{}
	}
	return ChangeSet{Version: Version, Ops: ops}
}

// BaseLength is the length of the text the change set applies to.
func (cs ChangeSet) BaseLength() int { return baseLength(cs.Ops) }

// TargetLength is the length of the text the change set produces.
func (cs ChangeSet) TargetLength() int { return targetLength(cs.Ops) }

// ValidateText rejects strings that cannot be counted in UTF-16 units
// without loss.
func ValidateText(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidText
	}
	return nil
}

func (cs ChangeSet) validate() error {
	if cs.Version != Version {
		return errors.Wrapf(ErrUnsupportedVersion, "version %q", cs.Version)
	}
	for i, op := range cs.Ops {
		if op.kind < OpRetain || op.kind > OpDelete || op.n < 0 {
			return errors.Wrapf(ErrMalformedOp, "op %d", i)
		}
		if op.kind == OpInsert && !utf8.ValidString(op.text) {
			return errors.Wrapf(ErrInvalidText, "op %d", i)
		}
	}
	return nil
}

func (cs ChangeSet) MarshalJSON() ([]byte, error) {
	type changeSet ChangeSet
	out := changeSet(cs)
	if out.Ops == nil {
		out.Ops = []Op{}
	}
	return json.Marshal(out)
}

func (cs *ChangeSet) UnmarshalJSON(data []byte) error {
	type changeSet ChangeSet
	var in changeSet
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Version != Version {
		return errors.Wrapf(ErrUnsupportedVersion, "version %q", in.Version)
	}
	if in.Ops == nil {
		in.Ops = []Op{}
	}
	*cs = ChangeSet(in)
	return nil
}

func baseLength(ops []Op) int {
	n := 0
	for _, op := range ops {
		if op.kind != OpInsert {
			n += op.n
		}
	}
	return n
}

func targetLength(ops []Op) int {
	n := 0
	for _, op := range ops {
		switch op.kind {
		case OpRetain:
			n += op.n
		case OpInsert:
			n += utf16Len(op.text)
		}
	}
	return n
}
