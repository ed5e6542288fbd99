package errz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMeta struct {
	name     string
	line     int
	column   int
	hasLoc   bool
	argNames []string
	objName  string
	hasArgs  bool
}

func (m *fakeMeta) FunctionName() string { return m.name }

func (m *fakeMeta) LocationAt(ip int) (int, int, bool) {
	return m.line, m.column, m.hasLoc
}

func (m *fakeMeta) ArgNamesAt(ip int) ([]string, string, bool) {
	return m.argNames, m.objName, m.hasArgs
}

func TestUndefinedIdentifierMessages(t *testing.T) {
	c := NewCondition(IDUndefined, 3).WithIdentifier("x")
	require.Equal(t, "'x' undefined", c.Error())

	c = NewCondition(IDUndefinedConditional, 3).WithIdentifier("flag")
	require.Equal(t, "'flag' undefined used in conditional context", c.Error())
}

func TestInvalidNumTargetsMessage(t *testing.T) {
	c := NewCondition(InvalidNumTargets, 0).WithIdentifier("2")
	require.Equal(t, "element number 2 undefined in return list", c.Error())
}

func TestIndexErrorUsesArgNames(t *testing.T) {
	meta := &fakeMeta{
		argNames: []string{"i", "j"},
		objName:  "m",
		hasArgs:  true,
	}
	c := NewCondition(IndexError, 12).
		WithCause(errors.New("out of bound; value 5 out of bound 4")).
		Attach(meta)
	require.Equal(t, "m(i, j): out of bound; value 5 out of bound 4", c.Error())
}

func TestIndexErrorWithoutMetadata(t *testing.T) {
	c := NewCondition(IndexError, 12).WithCause(errors.New("boom"))
	require.Equal(t, "boom", c.Error())

	c = NewCondition(IndexError, 12)
	require.Equal(t, "index out of bound", c.Error())
}

func TestExecutionError(t *testing.T) {
	c := NewExecutionError("pkg:bad-input", "bad input value")
	require.Equal(t, "bad input value", c.Error())
	require.Equal(t, "pkg:bad-input", c.Identifier())
	require.Equal(t, Execution, c.Type())
	require.Equal(t, -1, c.IP())
}

func TestCatchable(t *testing.T) {
	require.True(t, NewCondition(IDUndefined, 0).Catchable())
	require.True(t, NewExecutionError("", "oops").Catchable())
	require.False(t, NewCondition(Interrupt, 0).Catchable())
	require.False(t, NewCondition(ExitException, 0).Catchable())
}

func TestAttachFirstWins(t *testing.T) {
	first := &fakeMeta{name: "inner", line: 2, column: 5, hasLoc: true}
	second := &fakeMeta{name: "outer", line: 9, column: 1, hasLoc: true}

	c := NewCondition(IDUndefined, 0).WithIdentifier("y")
	c.Attach(first)
	c.Attach(second)
	require.Contains(t, c.Report(), "called from inner at line 2 column 5")
}

func TestReportUnknownLocation(t *testing.T) {
	c := NewExecutionError("", "something failed")
	require.Equal(t, "error: something failed (unknown location)", c.Report())

	c = NewExecutionError("", "something failed").Attach(&fakeMeta{hasLoc: false})
	require.Equal(t, "error: something failed (unknown location)", c.Report())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	c := NewCondition(InvalidError, 0).WithCause(cause)
	require.ErrorIs(t, c, cause)
	require.Equal(t, "root cause", c.Error())
}
