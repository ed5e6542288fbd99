package dis

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chbinousamy/octave/ast"
	"github.com/chbinousamy/octave/bytecode"
	"github.com/chbinousamy/octave/compiler"
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

func compileScript(t *testing.T, stmts ...ast.Statement) *bytecode.Code {
	t.Helper()
	fn := ast.NewFuncDef(pos(), "", "test.m", nil, nil, block(stmts...))
	code, err := compiler.Compile(fn, compiler.Config{File: "test.m"})
	require.NoError(t, err)
	return code
}

func find(instructions []Instruction, opcode op.Code) (Instruction, bool) {
	for _, ins := range instructions {
		if ins.Opcode == opcode {
			return ins, true
		}
	}
	return Instruction{}, false
}

func TestDisassembleAnnotatesSlotsAndConstants(t *testing.T) {
	code := compileScript(t,
		assign("x", num(3)),
		assign("msg", ast.NewStr(pos(), "hello")),
	)
	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.NotEmpty(t, instructions)

	var stores, consts []Instruction
	for _, ins := range instructions {
		switch ins.Opcode {
		case op.StoreSlot:
			stores = append(stores, ins)
		case op.LoadConst:
			consts = append(consts, ins)
		}
	}
	require.Len(t, stores, 2)
	require.Equal(t, "STORE_SLOT", stores[0].Name)
	require.Equal(t, "x", stores[0].Annotation)
	require.Equal(t, "msg", stores[1].Annotation)

	require.Len(t, consts, 2)
	require.Equal(t, "3", consts[0].Annotation)
	require.Equal(t, `"hello"`, consts[1].Annotation)

	last := instructions[len(instructions)-1]
	require.Equal(t, op.Ret, last.Opcode)
	require.Equal(t, "", last.Annotation)
}

func TestDisassembleJumpAnnotationsMatchOperands(t *testing.T) {
	code := compileScript(t,
		ast.NewIf(pos(),
			[]ast.Expression{ast.NewBinary(pos(), ">", id("x"), num(2))},
			[]*ast.Block{block(assign("y", num(1)))},
			block(assign("y", num(0)))),
	)
	instructions, err := Disassemble(code)
	require.NoError(t, err)

	jmpIfN, ok := find(instructions, op.JmpIfN)
	require.True(t, ok)
	require.True(t, jmpIfN.Wide)
	require.Equal(t, fmt.Sprintf("-> %d", jmpIfN.Operands[0]), jmpIfN.Annotation)

	jmp, ok := find(instructions, op.Jmp)
	require.True(t, ok)
	require.Equal(t, fmt.Sprintf("-> %d", jmp.Operands[0]), jmp.Annotation)
}

func TestDisassembleForCondAnnotation(t *testing.T) {
	code := compileScript(t,
		ast.NewFor(pos(), "i", num(2), block(assign("s", id("i")))),
	)
	instructions, err := Disassemble(code)
	require.NoError(t, err)

	forCond, ok := find(instructions, op.ForCond)
	require.True(t, ok)
	require.Len(t, forCond.Operands, 2)
	require.Equal(t, fmt.Sprintf("i -> %d", forCond.Operands[1]), forCond.Annotation)
}

func TestDisassembleOffsetsAreMonotonic(t *testing.T) {
	code := compileScript(t,
		assign("a", num(5)),
		assign("b", ast.NewBinary(pos(), "*", id("a"), num(7))),
	)
	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.Equal(t, 0, instructions[0].Offset)
	for i := 1; i < len(instructions); i++ {
		require.Greater(t, instructions[i].Offset, instructions[i-1].Offset)
	}
}

func TestDisassembleRejectsUnknownOpcode(t *testing.T) {
	code := bytecode.New(bytecode.Spec{
		Name:         "bad",
		Instructions: []byte{250},
	})
	_, err := Disassemble(code)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown opcode 250")
}

func TestPrintWritesTable(t *testing.T) {
	code := compileScript(t, assign("total", num(9)))
	instructions, err := Disassemble(code)
	require.NoError(t, err)

	var buf bytes.Buffer
	Print(instructions, &buf)
	out := buf.String()

	require.Contains(t, out, "OFFSET")
	require.Contains(t, out, "OPCODE")
	require.Contains(t, out, "OPERANDS")
	require.Contains(t, out, "INFO")
	require.Contains(t, out, "LOAD_CONST")
	require.Contains(t, out, "STORE_SLOT")
	require.Contains(t, out, "total")
	require.Contains(t, out, "RET")
	// A plain buffer is not a terminal, so no color escapes appear.
	require.NotContains(t, out, "\x1b[")
}

func TestPrintMarksWideInstructions(t *testing.T) {
	code := compileScript(t,
		ast.NewWhile(pos(),
			ast.NewBinary(pos(), "<", id("i"), num(10)),
			block(assign("i", ast.NewBinary(pos(), "+", id("i"), num(1))))),
	)
	instructions, err := Disassemble(code)
	require.NoError(t, err)

	var buf bytes.Buffer
	Print(instructions, &buf)
	require.Contains(t, buf.String(), "WIDE JMP")
}
