package vm

import "github.com/chbinousamy/octave/object"

// elemTag discriminates what an operand stack cell holds. Raw doubles and
// integers avoid boxing on the hot arithmetic and loop paths; every cell is
// boxed on demand when a generic operation needs a value.
type elemTag uint8

const (
	elemBoxed elemTag = iota
	elemDouble
	elemInt
)

// element is one operand stack cell. The tag and payload always travel
// together: a cell is only ever read through the accessors below, which
// check the tag before touching a payload.
type element struct {
	tag elemTag
	num float64
	i   int
	val object.Value
}

func boxedElem(v object.Value) element { return element{tag: elemBoxed, val: v} }

func doubleElem(x float64) element { return element{tag: elemDouble, num: x} }

func intElem(i int) element { return element{tag: elemInt, i: i} }

// value boxes the cell as a language value. Raw integers surface as doubles,
// matching the language's single numeric type.
func (e element) value() object.Value {
	switch e.tag {
	case elemDouble:
		return object.NewDouble(e.num)
	case elemInt:
		return object.NewDouble(float64(e.i))
	default:
		return e.val
	}
}

// double extracts a raw double when the cell holds one, either unboxed or as
// a boxed double scalar. This is the guard the specialized opcodes run.
func (e element) double() (float64, bool) {
	switch e.tag {
	case elemDouble:
		return e.num, true
	case elemInt:
		return float64(e.i), true
	default:
		if d, ok := e.val.(*object.Double); ok {
			return d.Value(), true
		}
		return 0, false
	}
}
