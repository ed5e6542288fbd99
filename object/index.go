package object

import "fmt"

// MagicColon is the ":" subscript, selecting every position along a
// dimension.
type MagicColon struct{}

var Colon = &MagicColon{}

func (c *MagicColon) Type() Type { return "magic-colon" }

func (c *MagicColon) Inspect() string { return ":" }

// subscript converts one index argument to a list of zero-based offsets into
// a dimension of the given extent. Subscripts are 1-based in the language.
func subscript(arg Value, extent int) ([]int, error) {
	switch arg := arg.(type) {
	case *MagicColon:
		out := make([]int, extent)
		for i := range out {
			out[i] = i
		}
		return out, nil
	case *Range:
		m := arg.ToMatrix()
		return subscript(m, extent)
	case *Matrix:
		out := make([]int, len(arg.data))
		for i, e := range arg.data {
			idx := int(e)
			if float64(idx) != e || idx < 1 {
				return nil, fmt.Errorf("subscripts must be positive integers (found %g)", e)
			}
			out[i] = idx - 1
		}
		return out, nil
	default:
		f, ok := scalar(arg)
		if !ok {
			return nil, fmt.Errorf("wrong type %s used as index", arg.Type())
		}
		idx := int(f)
		if float64(idx) != f || idx < 1 {
			return nil, fmt.Errorf("subscripts must be positive integers (found %g)", f)
		}
		return []int{idx - 1}, nil
	}
}

// Index performs paren indexing: matrices and ranges by one linear or two
// row/column subscripts, strings by character position, and cells yielding a
// sub-cell. Out-of-bound subscripts are an error on read.
func Index(v Value, args []Value) (Value, error) {
	switch v := v.(type) {
	case *Range:
		return Index(v.ToMatrix(), args)
	case *Matrix:
		return indexMatrix(v, args)
	case *String:
		if len(args) != 1 {
			return nil, fmt.Errorf("string index requires one subscript")
		}
		offs, err := subscript(args[0], len(v.value))
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(offs))
		for i, o := range offs {
			if o >= len(v.value) {
				return nil, fmt.Errorf("index (%d): out of bound %d", o+1, len(v.value))
			}
			out[i] = v.value[o]
		}
		return NewString(string(out)), nil
	case *Cell:
		if len(args) != 1 {
			return nil, fmt.Errorf("cell index requires one subscript")
		}
		offs, err := subscript(args[0], v.Len())
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(offs))
		for i, o := range offs {
			if o >= v.Len() {
				return nil, fmt.Errorf("index (%d): out of bound %d", o+1, v.Len())
			}
			out[i] = v.elements[o]
		}
		return NewCell(out), nil
	case *Double:
		// A scalar behaves as a 1x1 matrix under indexing.
		return indexMatrix(NewMatrix(1, 1, []float64{v.value}), args)
	}
	return nil, fmt.Errorf("%s cannot be indexed with ()", v.Type())
}

func indexMatrix(m *Matrix, args []Value) (Value, error) {
	switch len(args) {
	case 1:
		offs, err := subscript(args[0], len(m.data))
		if err != nil {
			return nil, err
		}
		data := make([]float64, len(offs))
		for i, o := range offs {
			if o >= len(m.data) {
				return nil, fmt.Errorf("index (%d): out of bound %d", o+1, len(m.data))
			}
			data[i] = m.data[o]
		}
		if len(data) == 1 {
			return NewDouble(data[0]), nil
		}
		return NewRowVector(data), nil
	case 2:
		rowOffs, err := subscript(args[0], m.rows)
		if err != nil {
			return nil, err
		}
		colOffs, err := subscript(args[1], m.cols)
		if err != nil {
			return nil, err
		}
		data := make([]float64, 0, len(rowOffs)*len(colOffs))
		for _, r := range rowOffs {
			if r >= m.rows {
				return nil, fmt.Errorf("out of bound; value %d out of bound %d", r+1, m.rows)
			}
			for _, c := range colOffs {
				if c >= m.cols {
					return nil, fmt.Errorf("out of bound; value %d out of bound %d", c+1, m.cols)
				}
				data = append(data, m.data[r*m.cols+c])
			}
		}
		if len(data) == 1 {
			return NewDouble(data[0]), nil
		}
		return NewMatrix(len(rowOffs), len(colOffs), data), nil
	default:
		return nil, fmt.Errorf("matrix index requires one or two subscripts")
	}
}

// CellContent performs brace indexing, yielding the selected cell contents as
// independent values.
func CellContent(v Value, args []Value) ([]Value, error) {
	cell, ok := v.(*Cell)
	if !ok {
		return nil, fmt.Errorf("%s cannot be indexed with {}", v.Type())
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("cell index requires one subscript")
	}
	offs, err := subscript(args[0], cell.Len())
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(offs))
	for i, o := range offs {
		if o >= cell.Len() {
			return nil, fmt.Errorf("index (%d): out of bound %d", o+1, cell.Len())
		}
		out[i] = cell.elements[o]
	}
	return out, nil
}

// IndexAssign performs paren sub-assignment, returning the updated value.
// Assigning past the end of a matrix grows it with zero padding; assigning
// into an undefined target creates it.
func IndexAssign(target Value, args []Value, rhs Value) (Value, error) {
	if target == nil {
		target = NewMatrix(0, 0, nil)
	}
	switch t := target.(type) {
	case *Double:
		return IndexAssign(NewMatrix(1, 1, []float64{t.value}), args, rhs)
	case *Range:
		return IndexAssign(t.ToMatrix(), args, rhs)
	case *Matrix:
		return assignMatrix(t, args, rhs)
	case *Cell:
		if len(args) != 1 {
			return nil, fmt.Errorf("cell index requires one subscript")
		}
		rhsCell, ok := rhs.(*Cell)
		if !ok {
			return nil, fmt.Errorf("conversion to cell array failed for %s", rhs.Type())
		}
		return assignCell(t, args[0], rhsCell.elements)
	}
	return nil, fmt.Errorf("%s cannot be indexed with ()", target.Type())
}

func assignMatrix(m *Matrix, args []Value, rhs Value) (Value, error) {
	rf, scalarRHS := scalar(rhs)
	rm, _ := array(rhs)
	if !scalarRHS && rm == nil {
		return nil, fmt.Errorf("invalid %s in matrix assignment", rhs.Type())
	}
	switch len(args) {
	case 1:
		offs, err := subscript(args[0], len(m.data))
		if err != nil {
			return nil, err
		}
		if !scalarRHS && len(rm.data) != len(offs) {
			return nil, fmt.Errorf("=: nonconformant arguments (op1 is 1x%d, op2 is %dx%d)",
				len(offs), rm.rows, rm.cols)
		}
		max := len(m.data)
		for _, o := range offs {
			if o+1 > max {
				max = o + 1
			}
		}
		rows, cols, data := m.rows, m.cols, m.data
		if max > len(m.data) {
			// Linear growth keeps a vector shape.
			if m.rows > 1 && m.cols > 1 {
				return nil, fmt.Errorf("resizing is not possible with a 2-D matrix and a linear index")
			}
			data = make([]float64, max)
			copy(data, m.data)
			rows, cols = 1, max
		} else {
			data = append([]float64(nil), m.data...)
		}
		for i, o := range offs {
			if scalarRHS {
				data[o] = rf
			} else {
				data[o] = rm.data[i]
			}
		}
		if rows*cols == 1 {
			return NewDouble(data[0]), nil
		}
		return NewMatrix(rows, cols, data), nil
	case 2:
		rowOffs, err := subscript(args[0], m.rows)
		if err != nil {
			return nil, err
		}
		colOffs, err := subscript(args[1], m.cols)
		if err != nil {
			return nil, err
		}
		maxRow, maxCol := m.rows, m.cols
		for _, r := range rowOffs {
			if r+1 > maxRow {
				maxRow = r + 1
			}
		}
		for _, c := range colOffs {
			if c+1 > maxCol {
				maxCol = c + 1
			}
		}
		data := make([]float64, maxRow*maxCol)
		for r := 0; r < m.rows; r++ {
			copy(data[r*maxCol:r*maxCol+m.cols], m.data[r*m.cols:(r+1)*m.cols])
		}
		if !scalarRHS && len(rm.data) != len(rowOffs)*len(colOffs) {
			return nil, fmt.Errorf("=: nonconformant arguments (op1 is %dx%d, op2 is %dx%d)",
				len(rowOffs), len(colOffs), rm.rows, rm.cols)
		}
		i := 0
		for _, r := range rowOffs {
			for _, c := range colOffs {
				if scalarRHS {
					data[r*maxCol+c] = rf
				} else {
					data[r*maxCol+c] = rm.data[i]
				}
				i++
			}
		}
		if maxRow == 1 && maxCol == 1 {
			return NewDouble(data[0]), nil
		}
		return NewMatrix(maxRow, maxCol, data), nil
	default:
		return nil, fmt.Errorf("matrix index requires one or two subscripts")
	}
}

// CellAssign performs brace sub-assignment, returning the updated cell.
// Assigning past the end grows the cell with empty matrices.
func CellAssign(target Value, args []Value, rhs Value) (Value, error) {
	if target == nil {
		target = NewCell(nil)
	}
	cell, ok := target.(*Cell)
	if !ok {
		return nil, fmt.Errorf("%s cannot be indexed with {}", target.Type())
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("cell index requires one subscript")
	}
	return assignCell(cell, args[0], []Value{rhs})
}

func assignCell(cell *Cell, arg Value, rhs []Value) (Value, error) {
	offs, err := subscript(arg, cell.Len())
	if err != nil {
		return nil, err
	}
	if len(rhs) != len(offs) {
		return nil, fmt.Errorf("=: nonconformant arguments (op1 is 1x%d, op2 is 1x%d)",
			len(offs), len(rhs))
	}
	max := cell.Len()
	for _, o := range offs {
		if o+1 > max {
			max = o + 1
		}
	}
	elements := make([]Value, max)
	copy(elements, cell.elements)
	for i := cell.Len(); i < max; i++ {
		elements[i] = NewMatrix(0, 0, nil)
	}
	for i, o := range offs {
		elements[o] = rhs[i]
	}
	return NewCell(elements), nil
}

// IterLen returns the number of iterations a for loop performs over a value:
// range elements, matrix columns, or cell elements.
func IterLen(v Value) (int, error) {
	switch v := v.(type) {
	case *Range:
		return v.Len(), nil
	case *Matrix:
		if v.rows <= 1 {
			return len(v.data), nil
		}
		return v.cols, nil
	case *Cell:
		return v.Len(), nil
	case *Double, *Bool:
		return 1, nil
	case *String:
		return len(v.value), nil
	}
	return 0, fmt.Errorf("%s cannot be iterated", v.Type())
}

// IterAt returns the loop variable's value for the i-th iteration.
func IterAt(v Value, i int) (Value, error) {
	switch v := v.(type) {
	case *Range:
		return NewDouble(v.At(i)), nil
	case *Matrix:
		if v.rows <= 1 {
			return NewDouble(v.data[i]), nil
		}
		col := make([]float64, v.rows)
		for r := 0; r < v.rows; r++ {
			col[r] = v.data[r*v.cols+i]
		}
		return NewMatrix(v.rows, 1, col), nil
	case *Cell:
		return v.elements[i], nil
	case *Double, *Bool:
		return v, nil
	case *String:
		return NewString(string(v.value[i])), nil
	}
	return nil, fmt.Errorf("%s cannot be iterated", v.Type())
}
