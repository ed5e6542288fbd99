package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexMatrixLinear(t *testing.T) {
	m := NewMatrix(2, 2, []float64{1, 2, 3, 4})

	got, err := Index(m, []Value{NewDouble(3)})
	require.NoError(t, err)
	require.Equal(t, 3.0, got.(*Double).Value())

	got, err = Index(m, []Value{NewRowVector([]float64{1, 4})})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 4}, got.(*Matrix).Data())

	_, err = Index(m, []Value{NewDouble(5)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of bound")
}

func TestIndexMatrixSubscripts(t *testing.T) {
	m := NewMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})

	got, err := Index(m, []Value{NewDouble(2), NewDouble(3)})
	require.NoError(t, err)
	require.Equal(t, 6.0, got.(*Double).Value())

	// m(:, 2) selects a column.
	got, err = Index(m, []Value{Colon, NewDouble(2)})
	require.NoError(t, err)
	col := got.(*Matrix)
	require.Equal(t, 2, col.Rows())
	require.Equal(t, 1, col.Cols())
	require.Equal(t, []float64{2, 5}, col.Data())
}

func TestIndexBadSubscript(t *testing.T) {
	m := NewRowVector([]float64{1, 2, 3})

	_, err := Index(m, []Value{NewDouble(0)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "subscripts must be positive integers")

	_, err = Index(m, []Value{NewDouble(1.5)})
	require.Error(t, err)
}

func TestIndexString(t *testing.T) {
	got, err := Index(NewString("hello"), []Value{NewDouble(2)})
	require.NoError(t, err)
	require.Equal(t, "e", got.(*String).Value())

	got, err = Index(NewString("hello"), []Value{NewRange(1, 1, 3).ToMatrix()})
	require.NoError(t, err)
	require.Equal(t, "hel", got.(*String).Value())
}

func TestIndexCellYieldsSubCell(t *testing.T) {
	c := NewCell([]Value{NewDouble(1), NewString("two"), NewDouble(3)})

	got, err := Index(c, []Value{NewDouble(2)})
	require.NoError(t, err)
	sub, ok := got.(*Cell)
	require.True(t, ok)
	require.Equal(t, 1, sub.Len())
}

func TestCellContent(t *testing.T) {
	c := NewCell([]Value{NewDouble(1), NewString("two")})

	got, err := CellContent(c, []Value{NewDouble(2)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "two", got[0].(*String).Value())

	got, err = CellContent(c, []Value{Colon})
	require.NoError(t, err)
	require.Len(t, got, 2)

	_, err = CellContent(NewDouble(1), []Value{NewDouble(1)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "indexed with {}")
}

func TestIndexAssignInPlace(t *testing.T) {
	m := NewMatrix(2, 2, []float64{1, 2, 3, 4})

	got, err := IndexAssign(m, []Value{NewDouble(1), NewDouble(2)}, NewDouble(9))
	require.NoError(t, err)
	require.Equal(t, []float64{1, 9, 3, 4}, got.(*Matrix).Data())
	// The original is untouched.
	require.Equal(t, []float64{1, 2, 3, 4}, m.Data())
}

func TestIndexAssignGrows(t *testing.T) {
	v := NewRowVector([]float64{1, 2})

	got, err := IndexAssign(v, []Value{NewDouble(5)}, NewDouble(7))
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 0, 0, 7}, got.(*Matrix).Data())

	m := NewMatrix(2, 2, []float64{1, 2, 3, 4})
	got, err = IndexAssign(m, []Value{NewDouble(3), NewDouble(3)}, NewDouble(9))
	require.NoError(t, err)
	grown := got.(*Matrix)
	require.Equal(t, 3, grown.Rows())
	require.Equal(t, 3, grown.Cols())
	require.Equal(t, []float64{1, 2, 0, 3, 4, 0, 0, 0, 9}, grown.Data())

	// Linear growth of a true 2-D matrix is rejected.
	_, err = IndexAssign(m, []Value{NewDouble(9)}, NewDouble(1))
	require.Error(t, err)
}

func TestIndexAssignUndefinedTarget(t *testing.T) {
	got, err := IndexAssign(nil, []Value{NewDouble(3)}, NewDouble(5))
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 5}, got.(*Matrix).Data())
}

func TestCellAssignGrows(t *testing.T) {
	c := NewCell([]Value{NewDouble(1)})

	got, err := CellAssign(c, []Value{NewDouble(3)}, NewString("x"))
	require.NoError(t, err)
	grown := got.(*Cell)
	require.Equal(t, 3, grown.Len())
	pad, err := CellContent(grown, []Value{NewDouble(2)})
	require.NoError(t, err)
	require.Equal(t, 0, pad[0].(*Matrix).Len())
}

func TestIterOverMatrixColumns(t *testing.T) {
	m := NewMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})

	n, err := IterLen(m)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	got, err := IterAt(m, 1)
	require.NoError(t, err)
	col := got.(*Matrix)
	require.Equal(t, []float64{2, 5}, col.Data())
}

func TestIterOverRowVectorAndRange(t *testing.T) {
	v := NewRowVector([]float64{7, 8, 9})
	n, err := IterLen(v)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	got, err := IterAt(v, 2)
	require.NoError(t, err)
	require.Equal(t, 9.0, got.(*Double).Value())

	r := NewRange(1, 2, 7)
	n, err = IterLen(r)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	got, err = IterAt(r, 3)
	require.NoError(t, err)
	require.Equal(t, 7.0, got.(*Double).Value())
}
