package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	tests := []struct {
		code     Code
		name     string
		operands int
	}{
		{Nop, "NOP", 0},
		{LoadConst, "LOAD_CONST", 1},
		{Add, "ADD", 0},
		{AddDbl, "ADD_DBL", 0},
		{Jmp, "JMP", 1},
		{ForCond, "FOR_COND", 2},
		{LoadSlotN, "LOAD_SLOT_N", 2},
		{StoreCompound, "STORE_COMPOUND", 2},
		{IndexSlot, "INDEX_SLOT", 3},
		{IndexCell, "INDEX_CELL", 3},
		{LoadCond, "LOAD_COND", 1},
		{BuildMatrix, "BUILD_MATRIX", 2},
		{MakeAnon, "MAKE_ANON", 2},
		{ProtectEnd, "PROTECT_END", 1},
		{Wide, "WIDE", 0},
	}
	for _, tt := range tests {
		info := GetInfo(tt.code)
		require.Equal(t, tt.name, info.Name)
		require.Equal(t, tt.code, info.Code)
		require.Equal(t, tt.operands, info.OperandCount, tt.name)
	}
}

func TestEveryNamedOpcodeHasInfo(t *testing.T) {
	// Every opcode in the numbering gaps stays zero-valued; every defined one
	// carries its own code and a name.
	defined := []Code{
		Nop, Pop, PopN, Dup, Rot,
		LoadConst, PushNil, PushTrue, PushFalse, PushDbl0, PushDbl1, PushDbl2, PushInt,
		Add, Sub, Mul, Div, Pow, ElemMul, ElemDiv,
		Le, LeEq, Gr, GrEq, Eq, Neq,
		AddDbl, SubDbl, MulDbl, DivDbl, PowDbl,
		LeDbl, LeEqDbl, GrDbl, GrEqDbl, EqDbl, NeqDbl,
		Not, USub, USubDbl, UAdd,
		Jmp, JmpIf, JmpIfN, JmpIfDef, JmpIfNCaseMatch,
		ForSetup, ForCond,
		LoadSlot, LoadSlotN, StoreSlot, ForceStore, StoreCompound,
		IndexSlot, IndexValue, IndexCell, Ret, LoadCond,
		IncrPrefix, DecrPrefix, IncrPostfix, DecrPostfix,
		IncrPrefixDbl, DecrPrefixDbl, IncrPostfixDbl, DecrPostfixDbl,
		BuildMatrix, BuildMatrixUneven, BuildCell, Range2, Range3,
		LoadField, SubassignSlot, SubassignCell, SubassignFld,
		DeclareGlobal, DeclarePersistent, MakeAnon, ProtectEnd,
		Disp, Debug, Wide,
	}
	seen := map[Code]bool{}
	for _, c := range defined {
		info := GetInfo(c)
		require.Equal(t, c, info.Code)
		require.NotEmpty(t, info.Name)
		require.False(t, seen[c], "duplicate opcode %d", c)
		seen[c] = true
	}
}

func TestOperatorSpellings(t *testing.T) {
	require.Equal(t, "+", BinaryAdd.String())
	require.Equal(t, ".*", BinaryElemMul.String())
	require.Equal(t, "^", BinaryPow.String())
	require.Equal(t, "<=", CompareLe.String())
	require.Equal(t, "!=", CompareNe.String())
	require.Equal(t, "", BinaryOpType(99).String())
}
