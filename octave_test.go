package octave

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chbinousamy/octave/ast"
	"github.com/chbinousamy/octave/object"
	"github.com/chbinousamy/octave/vm"
)

var nextLine int

func pos() ast.Pos {
	nextLine++
	return ast.Pos{Line: nextLine, Column: 1}
}

func num(v float64) *ast.Number { return ast.NewNumber(pos(), v) }

func id(name string) *ast.Ident { return ast.NewIdent(pos(), name) }

func bin(op string, x, y ast.Expression) *ast.Binary { return ast.NewBinary(pos(), op, x, y) }

func assign(name string, value ast.Expression) *ast.Assign {
	return ast.NewAssign(pos(), []ast.LValue{{Name: name}}, "=", value)
}

func block(stmts ...ast.Statement) *ast.Block { return ast.NewBlock(pos(), stmts) }

func fn(name string, params, outs []string, stmts ...ast.Statement) *ast.FuncDef {
	return ast.NewFuncDef(pos(), name, name+".m", params, outs, block(stmts...))
}

func asFloat(t *testing.T, v object.Value) float64 {
	t.Helper()
	d, ok := v.(*object.Double)
	require.True(t, ok, "expected double, got %s", v.Type())
	return d.Value()
}

func TestEvaluatorRunsFunction(t *testing.T) {
	add := fn("add", []string{"a", "b"}, []string{"s"},
		assign("s", bin("+", id("a"), id("b"))))

	e := NewEvaluator()
	got, err := e.Eval(context.Background(), add,
		[]object.Value{object.NewDouble(2), object.NewDouble(5)}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 7.0, asFloat(t, got[0]))
}

func TestCompileCachesPerFunction(t *testing.T) {
	f := fn("f", nil, []string{"r"}, assign("r", num(1)))

	e := NewEvaluator()
	first, err := e.Compile(f)
	require.NoError(t, err)
	second, err := e.Compile(f)
	require.NoError(t, err)
	require.Same(t, first, second)

	e.Invalidate(f)
	third, err := e.Compile(f)
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.NotEqual(t, first.ID(), third.ID())
}

func counterFunc() *ast.FuncDef {
	return fn("counter", nil, []string{"r"},
		ast.NewPersistent(pos(), []string{"n"}),
		ast.NewIf(pos(),
			[]ast.Expression{ast.NewIndex(pos(), id("isempty"), []ast.Expression{id("n")})},
			[]*ast.Block{block(assign("n", num(0)))}, nil),
		assign("n", bin("+", id("n"), num(1))),
		assign("r", id("n")))
}

func TestInvalidateReleasesPersistents(t *testing.T) {
	counter := counterFunc()
	e := NewEvaluator()
	ctx := context.Background()

	for want := 1.0; want <= 3; want++ {
		got, err := e.Eval(ctx, counter, nil, 1)
		require.NoError(t, err)
		require.Equal(t, want, asFloat(t, got[0]))
	}

	e.Invalidate(counter)
	got, err := e.Eval(ctx, counter, nil, 1)
	require.NoError(t, err)
	require.Equal(t, 1.0, asFloat(t, got[0]))
}

func TestSharedRegistryAcrossEvaluators(t *testing.T) {
	reg := vm.NewRegistry()
	setter := fn("setter", nil, nil,
		ast.NewGlobal(pos(), []string{"g"}),
		assign("g", num(42)))
	getter := fn("getter", nil, []string{"r"},
		ast.NewGlobal(pos(), []string{"g"}),
		assign("r", id("g")))

	a := NewEvaluator(WithRegistry(reg))
	b := NewEvaluator(WithRegistry(reg))
	ctx := context.Background()

	_, err := a.Eval(ctx, setter, nil, 0)
	require.NoError(t, err)
	got, err := b.Eval(ctx, getter, nil, 1)
	require.NoError(t, err)
	require.Equal(t, 42.0, asFloat(t, got[0]))
}

func TestWithDisplayEchoesResults(t *testing.T) {
	f := fn("f", nil, nil, assign("x", num(3)).MarkDisplayed())

	var buf bytes.Buffer
	e := NewEvaluator(WithDisplay())
	e.Registry().SetOutput(&buf)
	_, err := e.Eval(context.Background(), f, nil, 0)
	require.NoError(t, err)
	require.Equal(t, "x = 3\n", buf.String())
}

func TestInterpreterDefaultSelector(t *testing.T) {
	double := fn("double", []string{"x"}, []string{"y"},
		assign("y", bin("*", id("x"), num(2))))

	i := NewInterpreter(nil)
	got, err := i.Run(context.Background(), double,
		[]object.Value{object.NewDouble(21)}, 1)
	require.NoError(t, err)
	require.Equal(t, 42.0, asFloat(t, got[0]))
}

type countingSelector struct {
	ev    Evaluator
	calls int
}

func (s *countingSelector) Choose(fn *ast.FuncDef) Evaluator {
	s.calls++
	return s.ev
}

func TestInterpreterCustomSelector(t *testing.T) {
	one := fn("one", nil, []string{"r"}, assign("r", num(1)))

	sel := &countingSelector{ev: NewEvaluator()}
	i := NewInterpreter(sel)
	_, err := i.Run(context.Background(), one, nil, 1)
	require.NoError(t, err)
	require.Equal(t, 1, sel.calls)
}
