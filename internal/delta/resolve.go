package delta

import (
	"github.com/cockroachdb/errors"
)

// Apply applies cs to base. The change set is composed onto the insert-only
// document of base and the composed document is rendered.
func Apply(base string, cs ChangeSet) (string, error) {
	if err := cs.validate(); err != nil {
		return "", err
	}
	if err := ValidateText(base); err != nil {
		return "", errors.Wrap(err, "base")
	}
	if n, size := cs.BaseLength(), utf16Len(base); n > size {
		return "", errors.Wrapf(ErrMalformedChangeSet, "change set spans %d units but base has %d", n, size)
	}
	return ResolveOps(Compose(insertOnly(base), cs.Ops))
}

// ResolveOps renders ops starting from an empty buffer.
func ResolveOps(ops []Op) (string, error) {
	switch {
	case len(ops) == 0:
		return "", nil
	case len(ops) == 1 && ops[0].kind == OpInsert:
		if err := ValidateText(ops[0].text); err != nil {
			return "", errors.Wrap(err, "op 0")
		}
		return ops[0].text, nil
	}
	return ResolveOn("", ops)
}

// ResolveOn renders ops over base: Retain advances the cursor, Insert splices
// at the cursor and moves past the new text, Delete removes at the cursor
// without moving it.
func ResolveOn(base string, ops []Op) (string, error) {
	if err := ValidateText(base); err != nil {
		return "", errors.Wrap(err, "base")
	}
	buf := encodeUTF16(base)
	cursor := 0

	for i, op := range ops {
		switch op.kind {
		case OpRetain:
			if cursor+op.n > len(buf) {
				return "", errors.Wrapf(ErrMalformedChangeSet,
					"op %d: retain %d at %d exceeds length %d", i, op.n, cursor, len(buf))
			}
			cursor += op.n
		case OpInsert:
			if err := ValidateText(op.text); err != nil {
				return "", errors.Wrapf(err, "op %d", i)
			}
			units := encodeUTF16(op.text)
			buf = append(buf[:cursor], append(units, buf[cursor:]...)...)
			cursor += len(units)
		case OpDelete:
			if cursor+op.n > len(buf) {
				return "", errors.Wrapf(ErrMalformedChangeSet,
					"op %d: delete %d at %d exceeds length %d", i, op.n, cursor, len(buf))
			}
			buf = append(buf[:cursor], buf[cursor+op.n:]...)
		default:
			return "", errors.Wrapf(ErrMalformedOp, "op %d", i)
		}
	}

	return decodeUTF16(buf), nil
}
