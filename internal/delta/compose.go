package delta

import "math"

const infinity = math.MaxInt

type iterator struct {
	ops    []Op
	index  int
	offset int
}

func newIterator(ops []Op) *iterator {
	filtered := make([]Op, 0, len(ops))
	for _, op := range ops {
		if op.Len() > 0 {
			filtered = append(filtered, op)
		}
	}
	return &iterator{ops: filtered}
}

func (it *iterator) hasNext() bool {
	return it.peekLength() < infinity
}

func (it *iterator) peekLength() int {
	if it.index >= len(it.ops) {
		return infinity
	}
	return it.ops[it.index].Len() - it.offset
}

// peekKind reports OpRetain once the iterator is exhausted: the remainder of
// any document is implicitly retained.
func (it *iterator) peekKind() OpKind {
	if it.index >= len(it.ops) {
		return OpRetain
	}
	return it.ops[it.index].kind
}

func (it *iterator) next(length int) Op {
	if it.index >= len(it.ops) {
		return Retain(infinity)
	}

	op := it.ops[it.index]
	offset := it.offset
	remaining := op.Len() - offset
	if length >= remaining {
		length = remaining
		it.index++
		it.offset = 0
	} else {
		it.offset += length
	}

	switch op.kind {
	case OpInsert:
		return Insert(utf16Slice(op.text, offset, offset+length))
	case OpDelete:
		return Delete(length)
	default:
		return Retain(length)
	}
}

func (it *iterator) rest() []Op {
	if !it.hasNext() {
		return nil
	}
	if it.offset == 0 {
		return it.ops[it.index:]
	}
	index, offset := it.index, it.offset
	head := it.next(infinity)
	out := append([]Op{head}, it.ops[it.index:]...)
	it.index, it.offset = index, offset
	return out
}

// builder accumulates ops in normal form: adjacent ops of the same kind are
// merged and an insert is always placed before a delete at the same position.
type builder struct {
	ops []Op
}

func (b *builder) push(op Op) {
	if op.Len() == 0 {
		return
	}

	index := len(b.ops)
	if index > 0 {
		last := b.ops[index-1]
		if op.kind == OpDelete && last.kind == OpDelete {
			b.ops[index-1] = Delete(last.n + op.n)
			return
		}
		if last.kind == OpDelete && op.kind == OpInsert {
			index--
			if index == 0 {
				b.ops = append([]Op{op}, b.ops...)
				return
			}
			last = b.ops[index-1]
		}
		switch {
		case op.kind == OpInsert && last.kind == OpInsert:
			b.ops[index-1] = Insert(last.text + op.text)
			return
		case op.kind == OpRetain && last.kind == OpRetain:
			b.ops[index-1] = Retain(last.n + op.n)
			return
		}
	}

	if index == len(b.ops) {
		b.ops = append(b.ops, op)
		return
	}
	b.ops = append(b.ops, Op{})
	copy(b.ops[index+1:], b.ops[index:])
	b.ops[index] = op
}

// chop drops a trailing retain, which carries no information.
func (b *builder) chop() []Op {
	if n := len(b.ops); n > 0 && b.ops[n-1].kind == OpRetain {
		b.ops = b.ops[:n-1]
	}
	if b.ops == nil {
		return []Op{}
	}
	return b.ops
}

// Normalize returns ops in normal form.
func Normalize(ops []Op) []Op {
	var b builder
	for _, op := range ops {
		b.push(op)
	}
	return b.chop()
}

// Compose returns a single op sequence equivalent to applying a and then b.
func Compose(a, b []Op) []Op {
	this := newIterator(a)
	other := newIterator(b)
	var out builder

	if other.peekKind() == OpRetain && other.hasNext() {
		first := other.peekLength()
		left := first
		for this.peekKind() == OpInsert && this.peekLength() <= left {
			left -= this.peekLength()
			out.push(this.next(infinity))
		}
		if first-left > 0 {
			other.next(first - left)
		}
	}

	for this.hasNext() || other.hasNext() {
		switch {
		case other.peekKind() == OpInsert:
			out.push(other.next(infinity))
		case this.peekKind() == OpDelete:
			out.push(this.next(infinity))
		default:
			length := min(this.peekLength(), other.peekLength())
			thisOp := this.next(length)
			otherOp := other.next(length)

			switch otherOp.kind {
			case OpRetain:
				var op Op
				if thisOp.kind == OpRetain {
					op = Retain(length)
				} else {
					op = Insert(thisOp.text)
				}
				out.push(op)

				if !other.hasNext() && out.ops[len(out.ops)-1] == op {
					for _, rest := range this.rest() {
						out.push(rest)
					}
					return out.chop()
				}
			case OpDelete:
				if thisOp.kind == OpRetain {
					out.push(otherOp)
				}
			}
		}
	}

	return out.chop()
}

func insertOnly(text string) []Op {
	if text == "" {
		return []Op{}
	}
	return []Op{Insert(text)}
}
