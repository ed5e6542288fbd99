package bytecode

import "github.com/chbinousamy/octave/op"

// Instruction is one decoded instruction.
type Instruction struct {
	// Offset is the address of the first byte, the Wide prefix included.
	Offset   int
	Opcode   op.Code
	Wide     bool
	Operands []int
}

// InstructionIter walks an instruction stream, decoding Wide prefixes.
type InstructionIter struct {
	ins []byte
	pos int
}

// NewInstructionIter creates an iterator over the unit's instructions.
func NewInstructionIter(c *Code) *InstructionIter {
	return &InstructionIter{ins: c.instructions}
}

// Next decodes the next instruction. ok is false at the end of the stream.
func (it *InstructionIter) Next() (Instruction, bool) {
	if it.pos >= len(it.ins) {
		return Instruction{}, false
	}
	offset := it.pos
	code := op.Code(it.ins[it.pos])
	wide := false
	if code == op.Wide {
		wide = true
		it.pos++
		code = op.Code(it.ins[it.pos])
	}
	it.pos++
	info := op.GetInfo(code)
	operands := make([]int, info.OperandCount)
	for i := range operands {
		if wide {
			operands[i] = int(it.ins[it.pos])<<8 | int(it.ins[it.pos+1])
			it.pos += 2
		} else {
			operands[i] = int(it.ins[it.pos])
			it.pos++
		}
	}
	return Instruction{Offset: offset, Opcode: code, Wide: wide, Operands: operands}, true
}
