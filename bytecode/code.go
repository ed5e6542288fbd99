// Package bytecode defines the immutable compiled form of a function or
// script body: the instruction stream, the constant pool, the identifier
// table, and the unwind/debug side tables consulted on the diagnostic path.
package bytecode

import (
	"github.com/gofrs/uuid"

	"github.com/chbinousamy/octave/object"
)

// Code is one compiled unit. It is immutable after compilation and may be
// shared, read-only, across any number of executions.
type Code struct {
	id           uuid.UUID
	name         string
	file         string
	instructions []byte
	constants    []object.Value
	identifiers  []string
	params       []int
	outs         []int
	localCount   int
	unwind       *UnwindData
}

// Spec carries the fields the compiler assembles into an immutable Code.
type Spec struct {
	Name         string
	File         string
	Instructions []byte
	Constants    []object.Value
	Identifiers  []string
	Params       []int // frame slots of the declared input parameters
	Outs         []int // frame slots of the declared output variables
	LocalCount   int
	Unwind       *UnwindData
}

// New builds an immutable Code from the given spec, assigning it a fresh
// identity. The identity keys persistent-variable storage for the unit.
func New(spec Spec) *Code {
	unwind := spec.Unwind
	if unwind == nil {
		unwind = &UnwindData{}
	}
	unwind.Name = spec.Name
	unwind.File = spec.File
	unwind.CodeSize = len(spec.Instructions)
	unwind.IDCount = len(spec.Identifiers)
	return &Code{
		id:           uuid.Must(uuid.NewV4()),
		name:         spec.Name,
		file:         spec.File,
		instructions: append([]byte(nil), spec.Instructions...),
		constants:    append([]object.Value(nil), spec.Constants...),
		identifiers:  append([]string(nil), spec.Identifiers...),
		params:       append([]int(nil), spec.Params...),
		outs:         append([]int(nil), spec.Outs...),
		localCount:   spec.LocalCount,
		unwind:       unwind,
	}
}

// ID returns the unit's identity.
func (c *Code) ID() uuid.UUID { return c.id }

// FunctionName returns the name of the compiled function, or "" for scripts.
func (c *Code) FunctionName() string { return c.name }

// File returns the source filename, if one was supplied.
func (c *Code) File() string { return c.file }

// Instructions returns the instruction stream. Callers must not modify it.
func (c *Code) Instructions() []byte { return c.instructions }

// Constant returns the constant pool entry at the given index.
func (c *Code) Constant(i int) object.Value { return c.constants[i] }

// ConstantCount returns the size of the constant pool.
func (c *Code) ConstantCount() int { return len(c.constants) }

// Identifier returns the name bound to the given frame slot.
func (c *Code) Identifier(slot int) string { return c.identifiers[slot] }

// IdentifierCount returns the number of identifiers, which is also the size
// of the local frame.
func (c *Code) IdentifierCount() int { return len(c.identifiers) }

// Params returns the frame slots of the declared input parameters.
func (c *Code) Params() []int { return c.params }

// Outs returns the frame slots of the declared output variables.
func (c *Code) Outs() []int { return c.outs }

// LocalCount returns the size of the local frame.
func (c *Code) LocalCount() int { return c.localCount }

// Unwind returns the unit's unwind and debug metadata.
func (c *Code) Unwind() *UnwindData { return c.unwind }

// LocationAt returns the source line/column recorded for an instruction
// address. It reads the ordered location table and is used only on the
// diagnostic path.
func (c *Code) LocationAt(ip int) (line, column int, ok bool) {
	for _, e := range c.unwind.Locations {
		if ip >= e.Start && ip < e.End {
			return e.Line, e.Column, true
		}
	}
	return 0, 0, false
}

// ArgNamesAt returns the call-argument names and object name recorded for an
// instruction address.
func (c *Code) ArgNamesAt(ip int) (argNames []string, objName string, ok bool) {
	for _, e := range c.unwind.ArgNames {
		if ip >= e.Start && ip < e.End {
			return e.ArgNames, e.ObjName, true
		}
	}
	return nil, "", false
}
