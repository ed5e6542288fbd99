// Package op defines the opcodes used by the bytecode compiler and the
// stack-machine executor.
//
// Instructions are a one-byte opcode followed by narrow (one-byte) immediate
// operands. The Wide prefix reinterprets the operands of the following
// instruction as two-byte big-endian fields, which is how constant-pool
// indices and jump targets escape the narrow range.
package op

// Code is a one-byte opcode that indicates an operation to execute.
type Code uint8

const (
	Invalid Code = 0

	// Stack manipulation
	Nop     Code = 1
	Pop     Code = 2
	PopN    Code = 3 // Pop N cells, raw or boxed
	Dup     Code = 4
	Rot     Code = 5 // Swap the top two cells

	// Constants and immediates
	LoadConst Code = 10 // Push constant pool entry
	PushNil   Code = 11
	PushTrue  Code = 12
	PushFalse Code = 13
	PushDbl0  Code = 14 // Push raw double 0.0
	PushDbl1  Code = 15
	PushDbl2  Code = 16
	PushInt   Code = 17 // Push raw integer from operand

	// Generic binary operations (dynamic dispatch through the value library)
	Add     Code = 20
	Sub     Code = 21
	Mul     Code = 22
	Div     Code = 23
	Pow     Code = 24
	ElemMul Code = 25
	ElemDiv Code = 26
	Le      Code = 27
	LeEq    Code = 28
	Gr      Code = 29
	GrEq    Code = 30
	Eq      Code = 31
	Neq     Code = 32

	// Specialized binary operations for double scalars. Each verifies its
	// operands' actual representation and falls through to the generic
	// behavior in place when the guard fails.
	AddDbl  Code = 40
	SubDbl  Code = 41
	MulDbl  Code = 42
	DivDbl  Code = 43
	PowDbl  Code = 44
	LeDbl   Code = 45
	LeEqDbl Code = 46
	GrDbl   Code = 47
	GrEqDbl Code = 48
	EqDbl   Code = 49
	NeqDbl  Code = 50

	// Unary operations
	Not     Code = 55
	USub    Code = 56
	USubDbl Code = 57
	UAdd    Code = 58

	// Control transfer. Jump operands are absolute instruction addresses and
	// are always emitted in wide form, since targets are back-patched.
	Jmp             Code = 60
	JmpIf           Code = 61
	JmpIfN          Code = 62
	JmpIfDef        Code = 63 // Jump if TOS holds a defined value; executed but not emitted, kept for synthesized bytecode
	JmpIfNCaseMatch Code = 64 // Pop case label; jump if it does not match TOS

	// For-loop iteration state
	ForSetup Code = 70 // Validate iterand, push raw count and counter
	ForCond  Code = 71 // operand1=loop var slot, operand2=done target

	// Slot access and calls. The nargout operand is the requested result
	// count: 0 suppresses result construction, 1 requests the primary
	// result, N drives list expansion.
	LoadSlot      Code = 80 // Push slot value; calls a function value with nargout 1
	LoadSlotN     Code = 81 // operand1=slot, operand2=nargout
	StoreSlot     Code = 82
	ForceStore    Code = 83 // Store that accepts an undefined right-hand side
	StoreCompound Code = 84 // operand1=slot, operand2=BinaryOpType
	IndexSlot     Code = 85 // operand1=slot, operand2=nargs, operand3=nargout
	IndexValue    Code = 86 // Index TOS-nargs with nargs args, nargout 1
	IndexCell     Code = 87 // operand1=slot, operand2=nargs, operand3=nargout
	Ret           Code = 88
	LoadCond      Code = 89 // Like LoadSlot, but an undefined slot is a conditional-use error

	// Increment and decrement, generic and specialized
	IncrPrefix     Code = 90
	DecrPrefix     Code = 91
	IncrPostfix    Code = 92
	DecrPostfix    Code = 93
	IncrPrefixDbl  Code = 94
	DecrPrefixDbl  Code = 95
	IncrPostfixDbl Code = 96
	DecrPostfixDbl Code = 97

	// Structure, cell and matrix construction
	BuildMatrix       Code = 100 // operand1=rows, operand2=cols
	BuildMatrixUneven Code = 101 // operand1=rows; each row preceded by a raw count
	BuildCell         Code = 102 // operand1=element count
	Range2            Code = 103 // base:limit
	Range3            Code = 104 // base:step:limit

	// Field access and sub-assignment
	LoadField     Code = 110 // operand1=field name constant index
	SubassignSlot Code = 111 // operand1=slot, operand2=nargs
	SubassignCell Code = 112 // operand1=slot, operand2=nargs
	SubassignFld  Code = 113 // operand1=slot, operand2=field name constant index

	// Variable storage classes
	DeclareGlobal     Code = 120
	DeclarePersistent Code = 121

	// Closures
	MakeAnon Code = 125 // operand1=code constant index, operand2=capture count

	// Unwinding
	ProtectEnd Code = 130 // operand1=unwind entry index

	// Tracing and display, emitted only when the corresponding mode is active
	Disp  Code = 135 // operand1=identifier index of the displayed name
	Debug Code = 136

	// The wide escape
	Wide Code = 140
)

// NargoutAll is the nargout operand value requesting every produced value as
// a comma-separated list, used when brace-index results spread into an
// argument or element position.
const NargoutAll = 255

// BinaryOpType identifies the operator for StoreCompound instructions and for
// the generic binary dispatch helper.
type BinaryOpType uint8

const (
	BinaryAdd     BinaryOpType = 1
	BinarySub     BinaryOpType = 2
	BinaryMul     BinaryOpType = 3
	BinaryDiv     BinaryOpType = 4
	BinaryPow     BinaryOpType = 5
	BinaryElemMul BinaryOpType = 6
	BinaryElemDiv BinaryOpType = 7
)

// String returns the operator spelling, for example "+" for BinaryAdd.
func (b BinaryOpType) String() string {
	switch b {
	case BinaryAdd:
		return "+"
	case BinarySub:
		return "-"
	case BinaryMul:
		return "*"
	case BinaryDiv:
		return "/"
	case BinaryPow:
		return "^"
	case BinaryElemMul:
		return ".*"
	case BinaryElemDiv:
		return "./"
	default:
		return ""
	}
}

// CompareOpType identifies a comparison operator.
type CompareOpType uint8

const (
	CompareLt  CompareOpType = 1
	CompareLe  CompareOpType = 2
	CompareEq  CompareOpType = 3
	CompareNe  CompareOpType = 4
	CompareGt  CompareOpType = 5
	CompareGe  CompareOpType = 6
)

// String returns the operator spelling, for example "<" for CompareLt.
func (c CompareOpType) String() string {
	switch c {
	case CompareLt:
		return "<"
	case CompareLe:
		return "<="
	case CompareEq:
		return "=="
	case CompareNe:
		return "!="
	case CompareGt:
		return ">"
	case CompareGe:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{Nop, "NOP", 0},
		{Pop, "POP", 0},
		{PopN, "POP_N", 1},
		{Dup, "DUP", 0},
		{Rot, "ROT", 0},
		{LoadConst, "LOAD_CONST", 1},
		{PushNil, "PUSH_NIL", 0},
		{PushTrue, "PUSH_TRUE", 0},
		{PushFalse, "PUSH_FALSE", 0},
		{PushDbl0, "PUSH_DBL_0", 0},
		{PushDbl1, "PUSH_DBL_1", 0},
		{PushDbl2, "PUSH_DBL_2", 0},
		{PushInt, "PUSH_INT", 1},
		{Add, "ADD", 0},
		{Sub, "SUB", 0},
		{Mul, "MUL", 0},
		{Div, "DIV", 0},
		{Pow, "POW", 0},
		{ElemMul, "ELEM_MUL", 0},
		{ElemDiv, "ELEM_DIV", 0},
		{Le, "LE", 0},
		{LeEq, "LE_EQ", 0},
		{Gr, "GR", 0},
		{GrEq, "GR_EQ", 0},
		{Eq, "EQ", 0},
		{Neq, "NEQ", 0},
		{AddDbl, "ADD_DBL", 0},
		{SubDbl, "SUB_DBL", 0},
		{MulDbl, "MUL_DBL", 0},
		{DivDbl, "DIV_DBL", 0},
		{PowDbl, "POW_DBL", 0},
		{LeDbl, "LE_DBL", 0},
		{LeEqDbl, "LE_EQ_DBL", 0},
		{GrDbl, "GR_DBL", 0},
		{GrEqDbl, "GR_EQ_DBL", 0},
		{EqDbl, "EQ_DBL", 0},
		{NeqDbl, "NEQ_DBL", 0},
		{Not, "NOT", 0},
		{USub, "USUB", 0},
		{USubDbl, "USUB_DBL", 0},
		{UAdd, "UADD", 0},
		{Jmp, "JMP", 1},
		{JmpIf, "JMP_IF", 1},
		{JmpIfN, "JMP_IFN", 1},
		{JmpIfDef, "JMP_IFDEF", 1},
		{JmpIfNCaseMatch, "JMP_IFN_CASE_MATCH", 1},
		{ForSetup, "FOR_SETUP", 0},
		{ForCond, "FOR_COND", 2},
		{LoadSlot, "LOAD_SLOT", 1},
		{LoadSlotN, "LOAD_SLOT_N", 2},
		{StoreSlot, "STORE_SLOT", 1},
		{ForceStore, "FORCE_STORE", 1},
		{StoreCompound, "STORE_COMPOUND", 2},
		{IndexSlot, "INDEX_SLOT", 3},
		{IndexValue, "INDEX_VALUE", 1},
		{IndexCell, "INDEX_CELL", 3},
		{Ret, "RET", 0},
		{LoadCond, "LOAD_COND", 1},
		{IncrPrefix, "INCR_PREFIX", 1},
		{DecrPrefix, "DECR_PREFIX", 1},
		{IncrPostfix, "INCR_POSTFIX", 1},
		{DecrPostfix, "DECR_POSTFIX", 1},
		{IncrPrefixDbl, "INCR_PREFIX_DBL", 1},
		{DecrPrefixDbl, "DECR_PREFIX_DBL", 1},
		{IncrPostfixDbl, "INCR_POSTFIX_DBL", 1},
		{DecrPostfixDbl, "DECR_POSTFIX_DBL", 1},
		{BuildMatrix, "BUILD_MATRIX", 2},
		{BuildMatrixUneven, "BUILD_MATRIX_UNEVEN", 1},
		{BuildCell, "BUILD_CELL", 1},
		{Range2, "RANGE_2", 0},
		{Range3, "RANGE_3", 0},
		{LoadField, "LOAD_FIELD", 1},
		{SubassignSlot, "SUBASSIGN_SLOT", 2},
		{SubassignCell, "SUBASSIGN_CELL", 2},
		{SubassignFld, "SUBASSIGN_FLD", 2},
		{DeclareGlobal, "DECLARE_GLOBAL", 1},
		{DeclarePersistent, "DECLARE_PERSISTENT", 1},
		{MakeAnon, "MAKE_ANON", 2},
		{ProtectEnd, "PROTECT_END", 1},
		{Disp, "DISP", 1},
		{Debug, "DEBUG", 0},
		{Wide, "WIDE", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}
