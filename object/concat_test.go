package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHorzCat(t *testing.T) {
	got, err := HorzCat([]Value{NewDouble(1), NewDouble(2), NewDouble(3)})
	require.NoError(t, err)
	m := got.(*Matrix)
	require.Equal(t, 1, m.Rows())
	require.Equal(t, []float64{1, 2, 3}, m.Data())

	got, err = HorzCat([]Value{NewRowVector([]float64{1, 2}), NewDouble(3)})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, got.(*Matrix).Data())
}

func TestHorzCatMultiRow(t *testing.T) {
	a := NewMatrix(2, 1, []float64{1, 3})
	b := NewMatrix(2, 2, []float64{2, 9, 4, 9})

	got, err := HorzCat([]Value{a, b})
	require.NoError(t, err)
	m := got.(*Matrix)
	require.Equal(t, 2, m.Rows())
	require.Equal(t, 3, m.Cols())
	require.Equal(t, []float64{1, 2, 9, 3, 4, 9}, m.Data())

	_, err = HorzCat([]Value{a, NewMatrix(3, 1, []float64{1, 2, 3})})
	require.Error(t, err)
	require.Contains(t, err.Error(), "horizontal dimensions mismatch")
}

func TestHorzCatSkipsEmptyAndCollapses(t *testing.T) {
	got, err := HorzCat([]Value{NewMatrix(0, 0, nil), NewDouble(5)})
	require.NoError(t, err)
	require.Equal(t, 5.0, got.(*Double).Value())

	got, err = HorzCat([]Value{NewMatrix(0, 0, nil)})
	require.NoError(t, err)
	require.Equal(t, 0, got.(*Matrix).Len())
}

func TestHorzCatStrings(t *testing.T) {
	got, err := HorzCat([]Value{NewString("ab"), NewString("cd")})
	require.NoError(t, err)
	require.Equal(t, "abcd", got.(*String).Value())

	// Numeric pieces convert to character codes.
	got, err = HorzCat([]Value{NewString("a"), NewDouble(98), NewString("c")})
	require.NoError(t, err)
	require.Equal(t, "abc", got.(*String).Value())
}

func TestVertCat(t *testing.T) {
	got, err := VertCat([]Value{
		NewRowVector([]float64{1, 2}),
		NewRowVector([]float64{3, 4}),
	})
	require.NoError(t, err)
	m := got.(*Matrix)
	require.Equal(t, 2, m.Rows())
	require.Equal(t, 2, m.Cols())
	require.Equal(t, []float64{1, 2, 3, 4}, m.Data())

	_, err = VertCat([]Value{
		NewRowVector([]float64{1, 2}),
		NewRowVector([]float64{3, 4, 5}),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "vertical dimensions mismatch")

	_, err = VertCat([]Value{NewString("a"), NewString("b")})
	require.Error(t, err)
}

func TestStructFieldNamesSorted(t *testing.T) {
	s := NewStruct(map[string]Value{
		"zeta":  NewDouble(1),
		"alpha": NewDouble(2),
		"mid":   NewDouble(3),
	})
	require.Equal(t, []string{"alpha", "mid", "zeta"}, s.FieldNames())
}
