// Package object provides the generic value types that flow through the
// executor: double scalars, matrices, strings, ranges, cell arrays, structs,
// compiled and builtin functions, and comma-separated lists. The full numeric
// library is an external collaborator; this package implements the subset of
// dynamic operations the generic opcodes dispatch through.
package object

import (
	"fmt"
	"sort"
	"strings"
)

// Type identifies a value's dynamic type.
type Type string

const (
	DOUBLE   Type = "double"
	BOOL     Type = "bool"
	STRING   Type = "string"
	MATRIX   Type = "matrix"
	RANGE    Type = "range"
	CELL     Type = "cell"
	STRUCT   Type = "struct"
	FUNCTION Type = "function"
	BUILTIN  Type = "builtin"
	CSLIST   Type = "cs-list"
)

// Value is the interface implemented by all runtime values.
type Value interface {
	// Type returns the dynamic type of the value.
	Type() Type

	// Inspect returns a display representation of the value.
	Inspect() string
}

// Double is a double-precision scalar, the dominant numeric type.
type Double struct {
	value float64
}

func NewDouble(value float64) *Double { return &Double{value: value} }

func (d *Double) Type() Type { return DOUBLE }

func (d *Double) Value() float64 { return d.value }

func (d *Double) Inspect() string {
	return fmt.Sprintf("%g", d.value)
}

// Bool is a logical scalar.
type Bool struct {
	value bool
}

var (
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

func NewBool(value bool) *Bool {
	if value {
		return True
	}
	return False
}

func (b *Bool) Type() Type { return BOOL }

func (b *Bool) Value() bool { return b.value }

func (b *Bool) Inspect() string {
	if b.value {
		return "1"
	}
	return "0"
}

// String is a character string.
type String struct {
	value string
}

func NewString(value string) *String { return &String{value: value} }

func (s *String) Type() Type { return STRING }

func (s *String) Value() string { return s.value }

func (s *String) Inspect() string { return fmt.Sprintf("%q", s.value) }

// Matrix is a two-dimensional numeric array stored in row-major order.
// Values are immutable: operations that modify a matrix return a new one.
type Matrix struct {
	rows, cols int
	data       []float64
}

func NewMatrix(rows, cols int, data []float64) *Matrix {
	if len(data) != rows*cols {
		panic(fmt.Sprintf("matrix data length %d does not match %dx%d", len(data), rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

// NewRowVector returns a 1xN matrix over the given data.
func NewRowVector(data []float64) *Matrix {
	return &Matrix{rows: 1, cols: len(data), data: data}
}

func (m *Matrix) Type() Type { return MATRIX }

func (m *Matrix) Rows() int { return m.rows }

func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) Len() int { return len(m.data) }

// At returns the element at the given zero-based linear offset.
func (m *Matrix) At(i int) float64 { return m.data[i] }

// Data returns the backing slice. Callers must not modify it.
func (m *Matrix) Data() []float64 { return m.data }

func (m *Matrix) Inspect() string {
	var sb strings.Builder
	sb.WriteString("[")
	for r := 0; r < m.rows; r++ {
		if r > 0 {
			sb.WriteString("; ")
		}
		for c := 0; c < m.cols; c++ {
			if c > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%g", m.data[r*m.cols+c])
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Range is a lazily-materialized arithmetic sequence base:step:limit.
type Range struct {
	base, step, limit float64
}

func NewRange(base, step, limit float64) *Range {
	return &Range{base: base, step: step, limit: limit}
}

func (r *Range) Type() Type { return RANGE }

func (r *Range) Base() float64 { return r.base }

func (r *Range) Step() float64 { return r.step }

func (r *Range) Limit() float64 { return r.limit }

// Len returns the number of elements in the range.
func (r *Range) Len() int {
	if r.step == 0 {
		return 0
	}
	n := int((r.limit-r.base)/r.step) + 1
	if n < 0 {
		return 0
	}
	return n
}

// At returns the element at the given zero-based offset.
func (r *Range) At(i int) float64 { return r.base + float64(i)*r.step }

// ToMatrix materializes the range as a row vector.
func (r *Range) ToMatrix() *Matrix {
	n := r.Len()
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = r.At(i)
	}
	return NewRowVector(data)
}

func (r *Range) Inspect() string {
	if r.step == 1 {
		return fmt.Sprintf("%g:%g", r.base, r.limit)
	}
	return fmt.Sprintf("%g:%g:%g", r.base, r.step, r.limit)
}

// Cell is a one-dimensional cell array.
type Cell struct {
	elements []Value
}

func NewCell(elements []Value) *Cell { return &Cell{elements: elements} }

func (c *Cell) Type() Type { return CELL }

func (c *Cell) Len() int { return len(c.elements) }

// At returns the element at the given zero-based offset.
func (c *Cell) At(i int) Value { return c.elements[i] }

// Elements returns the backing slice. Callers must not modify it.
func (c *Cell) Elements() []Value { return c.elements }

func (c *Cell) Inspect() string {
	parts := make([]string, len(c.elements))
	for i, e := range c.elements {
		parts[i] = e.Inspect()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Struct is a scalar structure mapping field names to values.
type Struct struct {
	fields map[string]Value
}

func NewStruct(fields map[string]Value) *Struct {
	if fields == nil {
		fields = map[string]Value{}
	}
	return &Struct{fields: fields}
}

func (s *Struct) Type() Type { return STRUCT }

// Field returns the named field value.
func (s *Struct) Field(name string) (Value, bool) {
	v, ok := s.fields[name]
	return v, ok
}

// WithField returns a copy of the struct with the named field set.
func (s *Struct) WithField(name string, value Value) *Struct {
	fields := make(map[string]Value, len(s.fields)+1)
	for k, v := range s.fields {
		fields[k] = v
	}
	fields[name] = value
	return &Struct{fields: fields}
}

// FieldNames returns the field names in sorted order.
func (s *Struct) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for k := range s.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (s *Struct) Inspect() string {
	parts := make([]string, 0, len(s.fields))
	for _, k := range s.FieldNames() {
		parts = append(parts, fmt.Sprintf("%s: %s", k, s.fields[k].Inspect()))
	}
	return "struct(" + strings.Join(parts, ", ") + ")"
}

// CsList is a comma-separated list: a sequence of independent values produced
// by cell-content indexing or multi-result calls. It is not a first-class
// value in the language; consumers splice its elements in place.
type CsList struct {
	elements []Value
}

func NewCsList(elements []Value) *CsList { return &CsList{elements: elements} }

func (l *CsList) Type() Type { return CSLIST }

func (l *CsList) Len() int { return len(l.elements) }

func (l *CsList) Elements() []Value { return l.elements }

func (l *CsList) Inspect() string {
	parts := make([]string, len(l.elements))
	for i, e := range l.elements {
		parts[i] = e.Inspect()
	}
	return strings.Join(parts, ", ")
}
