package compiler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chbinousamy/octave/ast"
	"github.com/chbinousamy/octave/bytecode"
	"github.com/chbinousamy/octave/op"
)

var nextLine int

func pos() ast.Pos {
	nextLine++
	return ast.Pos{Line: nextLine, Column: 1}
}

func num(v float64) *ast.Number { return ast.NewNumber(pos(), v) }

func id(name string) *ast.Ident { return ast.NewIdent(pos(), name) }

func assign(name string, value ast.Expression) *ast.Assign {
	return ast.NewAssign(pos(), []ast.LValue{{Name: name}}, "=", value)
}

func block(stmts ...ast.Statement) *ast.Block { return ast.NewBlock(pos(), stmts) }

func script(stmts ...ast.Statement) *ast.FuncDef {
	return ast.NewFuncDef(pos(), "", "test.m", nil, nil, block(stmts...))
}

func mustCompile(t *testing.T, fn *ast.FuncDef) *bytecode.Code {
	t.Helper()
	code, err := Compile(fn, Config{File: "test.m"})
	require.NoError(t, err)
	return code
}

func decode(t *testing.T, code *bytecode.Code) []bytecode.Instruction {
	t.Helper()
	var out []bytecode.Instruction
	it := bytecode.NewInstructionIter(code)
	for {
		ins, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, ins)
	}
}

func opcodes(t *testing.T, code *bytecode.Code) []op.Code {
	t.Helper()
	var out []op.Code
	for _, ins := range decode(t, code) {
		out = append(out, ins.Opcode)
	}
	return out
}

func containsOpcode(codes []op.Code, want op.Code) bool {
	for _, c := range codes {
		if c == want {
			return true
		}
	}
	return false
}

func TestCompileIsDeterministic(t *testing.T) {
	fn := script(
		assign("x", num(3)),
		assign("y", ast.NewBinary(pos(), "+", id("x"), num(4))),
		ast.NewIf(pos(),
			[]ast.Expression{ast.NewBinary(pos(), ">", id("y"), num(5))},
			[]*ast.Block{block(assign("y", num(0)))},
			nil),
	)
	a := mustCompile(t, fn)
	b := mustCompile(t, fn)
	require.Equal(t, a.Instructions(), b.Instructions())
	require.NotEqual(t, a.ID(), b.ID())
}

func TestFunctionParamsAndOuts(t *testing.T) {
	fn := ast.NewFuncDef(pos(), "add2", "add2.m",
		[]string{"a", "b"}, []string{"s"},
		block(assign("s", ast.NewBinary(pos(), "+", id("a"), id("b")))))
	code := mustCompile(t, fn)

	require.Equal(t, "add2", code.FunctionName())
	require.Equal(t, []int{0, 1}, code.Params())
	require.Equal(t, []int{2}, code.Outs())
	require.Equal(t, "a", code.Identifier(0))
	require.Equal(t, "s", code.Identifier(2))

	codes := opcodes(t, code)
	// Parameters are not provably scalar, so the addition stays generic.
	require.True(t, containsOpcode(codes, op.Add))
	require.False(t, containsOpcode(codes, op.AddDbl))
	require.Equal(t, op.Ret, codes[len(codes)-1])
}

func TestSpecializedArithmeticForProvenLocals(t *testing.T) {
	code := mustCompile(t, script(
		assign("x", num(5)),
		assign("y", ast.NewBinary(pos(), "+", id("x"), num(3))),
	))
	codes := opcodes(t, code)
	require.True(t, containsOpcode(codes, op.AddDbl))
	require.False(t, containsOpcode(codes, op.Add))
}

func TestProvenFactsDiscardedAtControlFlow(t *testing.T) {
	// x is provably scalar before the if but not after: the branch may or may
	// not have replaced it.
	code := mustCompile(t, script(
		assign("x", num(5)),
		ast.NewIf(pos(),
			[]ast.Expression{ast.NewBool(pos(), true)},
			[]*ast.Block{block(assign("x", ast.NewStr(pos(), "no")))},
			nil),
		assign("y", ast.NewBinary(pos(), "+", id("x"), num(1))),
	))
	codes := opcodes(t, code)
	require.True(t, containsOpcode(codes, op.Add))
}

func TestSmallNumbersUseDedicatedPushes(t *testing.T) {
	code := mustCompile(t, script(
		assign("a", num(0)),
		assign("b", num(1)),
		assign("c", num(2)),
		assign("d", num(7)),
	))
	codes := opcodes(t, code)
	require.True(t, containsOpcode(codes, op.PushDbl0))
	require.True(t, containsOpcode(codes, op.PushDbl1))
	require.True(t, containsOpcode(codes, op.PushDbl2))
	require.True(t, containsOpcode(codes, op.LoadConst))
	require.Equal(t, 1, code.ConstantCount())
}

func TestConstantInterning(t *testing.T) {
	code := mustCompile(t, script(
		assign("a", num(3.5)),
		assign("b", num(3.5)),
		assign("c", ast.NewStr(pos(), "hi")),
		assign("d", ast.NewStr(pos(), "hi")),
	))
	require.Equal(t, 2, code.ConstantCount())
}

func TestBareIdentifierConditionUsesLoadCond(t *testing.T) {
	code := mustCompile(t, script(
		ast.NewIf(pos(),
			[]ast.Expression{id("flag")},
			[]*ast.Block{block(assign("x", num(1)))},
			nil),
	))
	codes := opcodes(t, code)
	require.True(t, containsOpcode(codes, op.LoadCond))
	require.False(t, containsOpcode(codes, op.LoadSlot))
}

func TestComparisonConditionStaysGeneric(t *testing.T) {
	code := mustCompile(t, script(
		ast.NewWhile(pos(),
			ast.NewBinary(pos(), "<", id("i"), num(10)),
			block(assign("i", ast.NewBinary(pos(), "+", id("i"), num(1))))),
	))
	codes := opcodes(t, code)
	require.False(t, containsOpcode(codes, op.LoadCond))
	require.True(t, containsOpcode(codes, op.Le))
}

func TestAllJumpTargetsResolved(t *testing.T) {
	code := mustCompile(t, script(
		ast.NewIf(pos(),
			[]ast.Expression{ast.NewBinary(pos(), "==", id("x"), num(1)),
				ast.NewBinary(pos(), "==", id("x"), num(2))},
			[]*ast.Block{block(assign("y", num(1))), block(assign("y", num(2)))},
			block(assign("y", num(3)))),
		ast.NewWhile(pos(), ast.NewBool(pos(), true), block(ast.NewBreak(pos()))),
	))
	size := len(code.Instructions())
	for _, ins := range decode(t, code) {
		switch ins.Opcode {
		case op.Jmp, op.JmpIf, op.JmpIfN, op.JmpIfDef, op.JmpIfNCaseMatch:
			require.Less(t, ins.Operands[0], size,
				"unpatched jump at offset %d", ins.Offset)
		case op.ForCond:
			require.Less(t, ins.Operands[1], size)
		}
	}
}

func TestEmitJumpPlaceholderBytes(t *testing.T) {
	c := &Compiler{}
	jumpPos, site := c.emitJump(op.Jmp)
	require.Equal(t, 0, jumpPos)
	require.Equal(t, []byte{byte(op.Wide), byte(op.Jmp), 0xFF, 0xFF}, c.code)

	c.patchTo(site, 0x1234)
	require.Equal(t, []byte{byte(op.Wide), byte(op.Jmp), 0x12, 0x34}, c.code)
}

func TestWhileLoopUnwindEntry(t *testing.T) {
	code := mustCompile(t, script(
		ast.NewWhile(pos(),
			ast.NewBool(pos(), true),
			block(assign("x", num(1)), ast.NewBreak(pos()))),
	))
	entries := code.Unwind().Entries
	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, bytecode.KindLoop, e.Kind)
	require.Less(t, e.Start, e.End)
	require.Equal(t, e.End, e.Target)
	require.Equal(t, 0, e.Depth)
}

func TestForLoopCleanupPopsIterationState(t *testing.T) {
	code := mustCompile(t, script(
		ast.NewFor(pos(), "i",
			ast.NewColon(pos(), num(1), nil, num(10)),
			block(assign("s", id("i")))),
	))
	entries := code.Unwind().Entries
	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, bytecode.KindLoop, e.Kind)
	require.Equal(t, 3, e.Depth)

	// The loop's break/error target is the PopN that drops the iterand, the
	// count, and the counter.
	var atTarget *bytecode.Instruction
	for _, ins := range decode(t, code) {
		if ins.Offset == e.Target {
			ins := ins
			atTarget = &ins
			break
		}
	}
	require.NotNil(t, atTarget)
	require.Equal(t, op.PopN, atTarget.Opcode)
	require.Equal(t, []int{3}, atTarget.Operands)
}

func TestNestedEntriesOrderedOutermostFirst(t *testing.T) {
	code := mustCompile(t, script(
		ast.NewWhile(pos(),
			ast.NewBool(pos(), true),
			block(
				ast.NewTryCatch(pos(),
					block(assign("x", num(1))),
					"err",
					block(assign("x", num(0)))),
				ast.NewBreak(pos()))),
	))
	entries := code.Unwind().Entries
	require.Len(t, entries, 2)
	require.Equal(t, bytecode.KindLoop, entries[0].Kind)
	require.Equal(t, bytecode.KindTryCatch, entries[1].Kind)
	require.GreaterOrEqual(t, entries[1].Start, entries[0].Start)
	require.LessOrEqual(t, entries[1].End, entries[0].End)

	// An address inside the try body resolves to the try, not the loop.
	require.Equal(t, 1, code.Unwind().Innermost(entries[1].Start))
}

func TestUnwindProtectLayout(t *testing.T) {
	code := mustCompile(t, script(
		ast.NewUnwindProtect(pos(),
			block(assign("x", num(1))),
			block(assign("y", num(2)))),
	))
	entries := code.Unwind().Entries
	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, bytecode.KindUnwindProtect, e.Kind)
	require.Equal(t, e.End, e.Target)

	var protectEnd *bytecode.Instruction
	for _, ins := range decode(t, code) {
		if ins.Opcode == op.ProtectEnd {
			ins := ins
			protectEnd = &ins
		}
	}
	require.NotNil(t, protectEnd)
	require.Equal(t, []int{0}, protectEnd.Operands)
	require.GreaterOrEqual(t, protectEnd.Offset, e.Target)
}

func TestBreakThroughProtectCopiesCleanup(t *testing.T) {
	// The cleanup body is compiled twice: once at the canonical position and
	// once on the break path, placed after the protected range.
	code := mustCompile(t, script(
		ast.NewWhile(pos(),
			ast.NewBool(pos(), true),
			block(ast.NewUnwindProtect(pos(),
				block(ast.NewBreak(pos())),
				block(assign("cleaned", num(1)))))),
	))
	count := 0
	for _, ins := range decode(t, code) {
		if ins.Opcode == op.StoreSlot || ins.Opcode == op.ForceStore {
			count++
		}
	}
	require.Equal(t, 2, count)
}

func TestWideOperandsForLargeConstantPool(t *testing.T) {
	stmts := make([]ast.Statement, 0, 300)
	for i := 0; i < 300; i++ {
		stmts = append(stmts, assign("x", ast.NewStr(pos(), fmt.Sprintf("c%d", i))))
	}
	code := mustCompile(t, script(stmts...))
	require.Equal(t, 300, code.ConstantCount())

	sawWide := false
	for _, ins := range decode(t, code) {
		if ins.Opcode == op.LoadConst && ins.Wide {
			sawWide = true
			require.Greater(t, ins.Operands[0], 0xFF)
		}
	}
	require.True(t, sawWide)
}

func TestBreakOutsideLoopFails(t *testing.T) {
	_, err := Compile(script(ast.NewBreak(pos())), Config{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "break outside of a loop")
}

func TestErrorsAccumulate(t *testing.T) {
	_, err := Compile(script(
		ast.NewBreak(pos()),
		ast.NewContinue(pos()),
	), Config{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "break outside of a loop")
	require.Contains(t, err.Error(), "continue outside of a loop")
}

func TestLocationTableCoversAssignments(t *testing.T) {
	v := num(1)
	a := ast.NewAssign(pos(), []ast.LValue{{Name: "x"}}, "=", v)
	// The store carries the position of the expression just compiled.
	line := v.Pos().Line
	code := mustCompile(t, script(a))

	found := false
	for _, ins := range decode(t, code) {
		if ins.Opcode == op.StoreSlot {
			l, _, ok := code.LocationAt(ins.Offset)
			require.True(t, ok)
			require.Equal(t, line, l)
			found = true
		}
	}
	require.True(t, found)
}

func TestIndexCallRecordsArgNames(t *testing.T) {
	code := mustCompile(t, script(
		assign("v", ast.NewIndex(pos(), id("m"),
			[]ast.Expression{id("i"), id("j")})),
	))
	var site *bytecode.Instruction
	for _, ins := range decode(t, code) {
		if ins.Opcode == op.IndexSlot {
			ins := ins
			site = &ins
		}
	}
	require.NotNil(t, site)
	names, obj, ok := code.ArgNamesAt(site.Offset)
	require.True(t, ok)
	require.Equal(t, []string{"i", "j"}, names)
	require.Equal(t, "m", obj)
}
