package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chbinousamy/octave/object"
	"github.com/chbinousamy/octave/op"
)

func TestNewCopiesSpecSlices(t *testing.T) {
	ins := []byte{byte(op.PushDbl1), byte(op.Ret)}
	ids := []string{"x"}
	code := New(Spec{
		Name:         "f",
		Instructions: ins,
		Identifiers:  ids,
		LocalCount:   1,
	})

	ins[0] = byte(op.Nop)
	ids[0] = "mutated"

	require.Equal(t, byte(op.PushDbl1), code.Instructions()[0])
	require.Equal(t, "x", code.Identifier(0))
	require.Equal(t, "f", code.FunctionName())
	require.Equal(t, 1, code.LocalCount())
}

func TestNewAssignsDistinctIdentity(t *testing.T) {
	a := New(Spec{Name: "f"})
	b := New(Spec{Name: "f"})
	require.NotEqual(t, a.ID(), b.ID())
}

func TestLocationAt(t *testing.T) {
	code := New(Spec{
		Name: "f",
		Unwind: &UnwindData{
			Locations: []LocEntry{
				{Start: 0, End: 4, Line: 1, Column: 1},
				{Start: 4, End: 9, Line: 2, Column: 3},
			},
		},
	})

	line, col, ok := code.LocationAt(5)
	require.True(t, ok)
	require.Equal(t, 2, line)
	require.Equal(t, 3, col)

	_, _, ok = code.LocationAt(20)
	require.False(t, ok)
}

func TestArgNamesAt(t *testing.T) {
	code := New(Spec{
		Unwind: &UnwindData{
			ArgNames: []ArgNameEntry{
				{Start: 2, End: 5, ArgNames: []string{"i", "j"}, ObjName: "m"},
			},
		},
	})

	names, obj, ok := code.ArgNamesAt(3)
	require.True(t, ok)
	require.Equal(t, []string{"i", "j"}, names)
	require.Equal(t, "m", obj)

	_, _, ok = code.ArgNamesAt(5)
	require.False(t, ok)
}

func TestInnermostPicksLastContaining(t *testing.T) {
	u := &UnwindData{Entries: []UnwindEntry{
		{Start: 0, End: 20, Target: 20, Kind: KindLoop},
		{Start: 4, End: 12, Target: 14, Kind: KindTryCatch},
	}}

	require.Equal(t, 1, u.Innermost(6))
	require.Equal(t, 0, u.Innermost(15))
	require.Equal(t, -1, u.Innermost(25))
}

func TestInstructionIterDecodesWide(t *testing.T) {
	code := New(Spec{Instructions: []byte{
		byte(op.PushDbl1),
		byte(op.Wide), byte(op.LoadConst), 0x01, 0x2C, // wide operand 300
		byte(op.StoreSlot), 2,
		byte(op.Ret),
	}})

	it := NewInstructionIter(code)

	ins, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, op.PushDbl1, ins.Opcode)
	require.False(t, ins.Wide)
	require.Empty(t, ins.Operands)

	ins, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, op.LoadConst, ins.Opcode)
	require.True(t, ins.Wide)
	require.Equal(t, 1, ins.Offset)
	require.Equal(t, []int{300}, ins.Operands)

	ins, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, op.StoreSlot, ins.Opcode)
	require.Equal(t, []int{2}, ins.Operands)

	ins, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, op.Ret, ins.Opcode)

	_, ok = it.Next()
	require.False(t, ok)
}

func TestConstants(t *testing.T) {
	code := New(Spec{Constants: []object.Value{
		object.NewDouble(3.5),
		object.NewString("hi"),
	}})
	require.Equal(t, 2, code.ConstantCount())
	require.Equal(t, 3.5, code.Constant(0).(*object.Double).Value())
	require.Equal(t, "hi", code.Constant(1).(*object.String).Value())
}
