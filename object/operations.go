package object

import (
	"fmt"
	"math"

	"github.com/chbinousamy/octave/op"
)

// scalar extracts a numeric scalar from a value, accepting doubles, logicals,
// and 1x1 matrices.
func scalar(v Value) (float64, bool) {
	switch v := v.(type) {
	case *Double:
		return v.value, true
	case *Bool:
		if v.value {
			return 1, true
		}
		return 0, true
	case *Matrix:
		if v.rows == 1 && v.cols == 1 {
			return v.data[0], true
		}
	}
	return 0, false
}

// array extracts a matrix view of a value, materializing ranges.
func array(v Value) (*Matrix, bool) {
	switch v := v.(type) {
	case *Matrix:
		return v, true
	case *Range:
		return v.ToMatrix(), true
	}
	return nil, false
}

func binaryScalar(typ op.BinaryOpType, a, b float64) (float64, error) {
	switch typ {
	case op.BinaryAdd:
		return a + b, nil
	case op.BinarySub:
		return a - b, nil
	case op.BinaryMul, op.BinaryElemMul:
		return a * b, nil
	case op.BinaryDiv, op.BinaryElemDiv:
		return a / b, nil
	case op.BinaryPow:
		return math.Pow(a, b), nil
	default:
		return 0, fmt.Errorf("unsupported binary operator")
	}
}

// BinaryOp applies a binary arithmetic operator with dynamic dispatch:
// scalar/scalar arithmetic, scalar broadcasting over arrays, elementwise
// array arithmetic, and true matrix multiplication for "*".
func BinaryOp(typ op.BinaryOpType, a, b Value) (Value, error) {
	if af, ok := scalar(a); ok {
		if bf, ok := scalar(b); ok {
			r, err := binaryScalar(typ, af, bf)
			if err != nil {
				return nil, err
			}
			return NewDouble(r), nil
		}
		if bm, ok := array(b); ok {
			return broadcast(typ, af, bm, true)
		}
	} else if am, ok := array(a); ok {
		if bf, ok := scalar(b); ok {
			return broadcast(typ, bf, am, false)
		}
		if bm, ok := array(b); ok {
			if typ == op.BinaryMul {
				return matMul(am, bm)
			}
			return elementwise(typ, am, bm)
		}
	}
	return nil, fmt.Errorf("binary operator %q not implemented for %s by %s",
		typ.String(), a.Type(), b.Type())
}

// broadcast applies a scalar against every element of a matrix. The
// scalarLeft flag preserves operand order for non-commutative operators.
func broadcast(typ op.BinaryOpType, s float64, m *Matrix, scalarLeft bool) (Value, error) {
	if typ == op.BinaryPow && !scalarLeft {
		// Matrix power needs a square matrix; only the elementwise form is
		// supported here.
		return nil, fmt.Errorf("operator ^ not implemented for %s arguments", MATRIX)
	}
	data := make([]float64, len(m.data))
	for i, e := range m.data {
		var r float64
		var err error
		if scalarLeft {
			r, err = binaryScalar(typ, s, e)
		} else {
			r, err = binaryScalar(typ, e, s)
		}
		if err != nil {
			return nil, err
		}
		data[i] = r
	}
	return NewMatrix(m.rows, m.cols, data), nil
}

func elementwise(typ op.BinaryOpType, a, b *Matrix) (Value, error) {
	if a.rows != b.rows || a.cols != b.cols {
		return nil, fmt.Errorf("nonconformant arguments (op1 is %dx%d, op2 is %dx%d)",
			a.rows, a.cols, b.rows, b.cols)
	}
	data := make([]float64, len(a.data))
	for i := range a.data {
		r, err := binaryScalar(typ, a.data[i], b.data[i])
		if err != nil {
			return nil, err
		}
		data[i] = r
	}
	return NewMatrix(a.rows, a.cols, data), nil
}

func matMul(a, b *Matrix) (Value, error) {
	if a.cols != b.rows {
		return nil, fmt.Errorf("nonconformant arguments (op1 is %dx%d, op2 is %dx%d)",
			a.rows, a.cols, b.rows, b.cols)
	}
	data := make([]float64, a.rows*b.cols)
	for r := 0; r < a.rows; r++ {
		for c := 0; c < b.cols; c++ {
			var sum float64
			for k := 0; k < a.cols; k++ {
				sum += a.data[r*a.cols+k] * b.data[k*b.cols+c]
			}
			data[r*b.cols+c] = sum
		}
	}
	if a.rows == 1 && b.cols == 1 {
		return NewDouble(data[0]), nil
	}
	return NewMatrix(a.rows, b.cols, data), nil
}

func compareScalar(typ op.CompareOpType, a, b float64) bool {
	switch typ {
	case op.CompareLt:
		return a < b
	case op.CompareLe:
		return a <= b
	case op.CompareEq:
		return a == b
	case op.CompareNe:
		return a != b
	case op.CompareGt:
		return a > b
	case op.CompareGe:
		return a >= b
	default:
		return false
	}
}

// Compare applies a comparison operator. Scalar comparisons yield a logical
// scalar; array comparisons yield a 0/1 matrix with scalar broadcasting.
func Compare(typ op.CompareOpType, a, b Value) (Value, error) {
	if as, ok := a.(*String); ok {
		if bs, ok := b.(*String); ok {
			switch typ {
			case op.CompareEq:
				return NewBool(as.value == bs.value), nil
			case op.CompareNe:
				return NewBool(as.value != bs.value), nil
			}
		}
	}
	if af, ok := scalar(a); ok {
		if bf, ok := scalar(b); ok {
			return NewBool(compareScalar(typ, af, bf)), nil
		}
		if bm, ok := array(b); ok {
			data := make([]float64, len(bm.data))
			for i, e := range bm.data {
				if compareScalar(typ, af, e) {
					data[i] = 1
				}
			}
			return NewMatrix(bm.rows, bm.cols, data), nil
		}
	} else if am, ok := array(a); ok {
		if bf, ok := scalar(b); ok {
			data := make([]float64, len(am.data))
			for i, e := range am.data {
				if compareScalar(typ, e, bf) {
					data[i] = 1
				}
			}
			return NewMatrix(am.rows, am.cols, data), nil
		}
		if bm, ok := array(b); ok {
			if am.rows != bm.rows || am.cols != bm.cols {
				return nil, fmt.Errorf("nonconformant arguments (op1 is %dx%d, op2 is %dx%d)",
					am.rows, am.cols, bm.rows, bm.cols)
			}
			data := make([]float64, len(am.data))
			for i := range am.data {
				if compareScalar(typ, am.data[i], bm.data[i]) {
					data[i] = 1
				}
			}
			return NewMatrix(am.rows, am.cols, data), nil
		}
	}
	return nil, fmt.Errorf("comparison %q not implemented for %s by %s",
		typ.String(), a.Type(), b.Type())
}

// Negate returns the arithmetic negation of a value.
func Negate(v Value) (Value, error) {
	if f, ok := scalar(v); ok {
		return NewDouble(-f), nil
	}
	if m, ok := array(v); ok {
		data := make([]float64, len(m.data))
		for i, e := range m.data {
			data[i] = -e
		}
		return NewMatrix(m.rows, m.cols, data), nil
	}
	return nil, fmt.Errorf("unary operator - not implemented for %s", v.Type())
}

// Not returns the logical negation of a value.
func Not(v Value) (Value, error) {
	if f, ok := scalar(v); ok {
		return NewBool(f == 0), nil
	}
	if m, ok := array(v); ok {
		data := make([]float64, len(m.data))
		for i, e := range m.data {
			if e == 0 {
				data[i] = 1
			}
		}
		return NewMatrix(m.rows, m.cols, data), nil
	}
	return nil, fmt.Errorf("unary operator ! not implemented for %s", v.Type())
}

// Truthy reports whether a value is true in a conditional context: a nonzero
// scalar, a nonempty string, or a nonempty array with all elements nonzero.
func Truthy(v Value) (bool, error) {
	switch v := v.(type) {
	case *Bool:
		return v.value, nil
	case *Double:
		return v.value != 0, nil
	case *String:
		return len(v.value) > 0, nil
	case *Matrix:
		if len(v.data) == 0 {
			return false, nil
		}
		for _, e := range v.data {
			if e == 0 {
				return false, nil
			}
		}
		return true, nil
	case *Range:
		m := v.ToMatrix()
		return Truthy(m)
	}
	return false, fmt.Errorf("wrong type argument %s used in conditional context", v.Type())
}

// CaseMatch reports whether a switch case label matches the subject. A cell
// label matches if any of its elements match.
func CaseMatch(subject, label Value) bool {
	if cell, ok := label.(*Cell); ok {
		for _, e := range cell.elements {
			if CaseMatch(subject, e) {
				return true
			}
		}
		return false
	}
	if ss, ok := subject.(*String); ok {
		if ls, ok := label.(*String); ok {
			return ss.value == ls.value
		}
		return false
	}
	sf, ok1 := scalar(subject)
	lf, ok2 := scalar(label)
	return ok1 && ok2 && sf == lf
}
