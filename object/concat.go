package object

import "fmt"

// asMatrix views a numeric value as a matrix for concatenation. Booleans
// promote to 0/1 doubles.
func asMatrix(v Value) (*Matrix, bool) {
	switch v := v.(type) {
	case *Double:
		return NewMatrix(1, 1, []float64{v.Value()}), true
	case *Bool:
		x := 0.0
		if v.Value() {
			x = 1.0
		}
		return NewMatrix(1, 1, []float64{x}), true
	case *Matrix:
		return v, true
	case *Range:
		return v.ToMatrix(), true
	}
	return nil, false
}

// HorzCat concatenates row pieces side by side. When any piece is a string
// the whole row becomes a string, with numeric elements converted to their
// character codes. Empty pieces are skipped. A 1x1 numeric result collapses
// to a scalar.
func HorzCat(pieces []Value) (Value, error) {
	hasString := false
	for _, p := range pieces {
		if p.Type() == STRING {
			hasString = true
			break
		}
	}
	if hasString {
		return horzCatString(pieces)
	}
	mats := make([]*Matrix, 0, len(pieces))
	rows := -1
	width := 0
	for _, p := range pieces {
		m, ok := asMatrix(p)
		if !ok {
			return nil, fmt.Errorf("concatenation not supported for %s values", p.Type())
		}
		if m.Len() == 0 {
			continue
		}
		if rows == -1 {
			rows = m.Rows()
		} else if m.Rows() != rows {
			return nil, fmt.Errorf("horizontal dimensions mismatch (%dx%d vs %dx%d)",
				rows, width, m.Rows(), m.Cols())
		}
		width += m.Cols()
		mats = append(mats, m)
	}
	if rows == -1 {
		return NewMatrix(0, 0, nil), nil
	}
	if rows == 1 && width == 1 {
		return NewDouble(mats[0].At(0)), nil
	}
	data := make([]float64, 0, rows*width)
	for r := 0; r < rows; r++ {
		for _, m := range mats {
			data = append(data, m.Data()[r*m.Cols():(r+1)*m.Cols()]...)
		}
	}
	return NewMatrix(rows, width, data), nil
}

func horzCatString(pieces []Value) (Value, error) {
	out := make([]rune, 0, len(pieces))
	for _, p := range pieces {
		if s, ok := p.(*String); ok {
			out = append(out, []rune(s.Value())...)
			continue
		}
		m, ok := asMatrix(p)
		if !ok {
			return nil, fmt.Errorf("concatenation not supported for %s values", p.Type())
		}
		if m.Rows() > 1 {
			return nil, fmt.Errorf("horizontal dimensions mismatch (1xN vs %dx%d)", m.Rows(), m.Cols())
		}
		for _, x := range m.Data() {
			out = append(out, rune(int(x)))
		}
	}
	return NewString(string(out)), nil
}

// VertCat stacks row pieces on top of each other. Pieces must agree on
// column count; empty pieces are skipped.
func VertCat(pieces []Value) (Value, error) {
	mats := make([]*Matrix, 0, len(pieces))
	cols := -1
	height := 0
	for _, p := range pieces {
		if p.Type() == STRING {
			return nil, fmt.Errorf("vertical concatenation of strings is not supported")
		}
		m, ok := asMatrix(p)
		if !ok {
			return nil, fmt.Errorf("concatenation not supported for %s values", p.Type())
		}
		if m.Len() == 0 {
			continue
		}
		if cols == -1 {
			cols = m.Cols()
		} else if m.Cols() != cols {
			return nil, fmt.Errorf("vertical dimensions mismatch (%dx%d vs %dx%d)",
				height, cols, m.Rows(), m.Cols())
		}
		height += m.Rows()
		mats = append(mats, m)
	}
	if cols == -1 {
		return NewMatrix(0, 0, nil), nil
	}
	if cols == 1 && height == 1 {
		return NewDouble(mats[0].At(0)), nil
	}
	data := make([]float64, 0, height*cols)
	for _, m := range mats {
		data = append(data, m.Data()...)
	}
	return NewMatrix(height, cols, data), nil
}
