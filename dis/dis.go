// Package dis supports analysis of compiled bytecode by disassembling it.
// It decodes the opcodes defined in the op package using the instruction
// iterator from the bytecode package.
package dis

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/chbinousamy/octave/bytecode"
	"github.com/chbinousamy/octave/internal/table"
	"github.com/chbinousamy/octave/object"
	"github.com/chbinousamy/octave/op"
)

// Instruction represents a single decoded instruction with its operands and
// a human-oriented annotation.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Wide       bool
	Operands   []int
	Annotation string
}

// Disassemble returns a parsed representation of the given unit's bytecode.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	var instructions []Instruction
	iter := bytecode.NewInstructionIter(code)
	for {
		ins, ok := iter.Next()
		if !ok {
			break
		}
		info := op.GetInfo(ins.Opcode)
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", ins.Opcode, ins.Offset)
		}
		instructions = append(instructions, Instruction{
			Offset:     ins.Offset,
			Name:       info.Name,
			Opcode:     ins.Opcode,
			Wide:       ins.Wide,
			Operands:   ins.Operands,
			Annotation: annotate(code, ins),
		})
	}
	return instructions, nil
}

// annotate resolves an instruction's operands against the unit's identifier
// and constant tables.
func annotate(code *bytecode.Code, ins bytecode.Instruction) string {
	switch ins.Opcode {
	case op.LoadSlot, op.LoadSlotN, op.LoadCond, op.StoreSlot, op.ForceStore,
		op.IndexSlot, op.IndexCell, op.SubassignSlot, op.SubassignCell,
		op.DeclareGlobal, op.DeclarePersistent, op.Disp,
		op.IncrPrefix, op.DecrPrefix, op.IncrPostfix, op.DecrPostfix,
		op.IncrPrefixDbl, op.DecrPrefixDbl, op.IncrPostfixDbl, op.DecrPostfixDbl:
		return code.Identifier(ins.Operands[0])
	case op.ForCond:
		return fmt.Sprintf("%s -> %d", code.Identifier(ins.Operands[0]), ins.Operands[1])
	case op.StoreCompound:
		return fmt.Sprintf("%s %s=", code.Identifier(ins.Operands[0]),
			op.BinaryOpType(ins.Operands[1]).String())
	case op.Jmp, op.JmpIf, op.JmpIfN, op.JmpIfDef, op.JmpIfNCaseMatch:
		return fmt.Sprintf("-> %d", ins.Operands[len(ins.Operands)-1])
	case op.LoadConst:
		return constantAnnotation(code.Constant(ins.Operands[0]))
	case op.LoadField, op.SubassignFld:
		return constantAnnotation(code.Constant(ins.Operands[len(ins.Operands)-1]))
	case op.MakeAnon:
		return constantAnnotation(code.Constant(ins.Operands[0]))
	}
	return ""
}

func constantAnnotation(v object.Value) string {
	switch v := v.(type) {
	case *object.String:
		s := v.Value()
		if len(s) > 80 {
			s = s[:77] + "..."
		}
		return fmt.Sprintf("%q", s)
	case *object.Function:
		name := "<anonymous>"
		if v.Code() != nil && v.Code().FunctionName() != "" {
			name = v.Code().FunctionName()
		}
		return "func:" + name
	case nil:
		return ""
	default:
		return v.Inspect()
	}
}

// Print writes a table rendering of the given instructions. Color is applied
// only when the writer is a terminal.
func Print(instructions []Instruction, writer io.Writer) {
	colored := false
	if f, ok := writer.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	if !colored {
		bold.DisableColor()
		cyan.DisableColor()
	}

	var rows [][]string
	for _, instr := range instructions {
		operands := ""
		for i, o := range instr.Operands {
			if i > 0 {
				operands += " "
			}
			operands += fmt.Sprintf("%d", o)
		}
		name := instr.Name
		if instr.Wide {
			name = "WIDE " + name
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", instr.Offset),
			bold.Sprint(name),
			operands,
			cyan.Sprint(instr.Annotation),
		})
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(rows).
		Render()
}
