package compiler

import (
	"github.com/chbinousamy/octave/ast"
	"github.com/chbinousamy/octave/object"
	"github.com/chbinousamy/octave/op"
)

// placeholder is a temporary jump operand, always patched before compilation
// completes.
const placeholder = 0xFFFF

// narrowMax is the largest operand value a narrow (one-byte) field can hold.
const narrowMax = 0xFF

// emit appends one instruction. Operands are emitted narrow unless one of
// them exceeds the narrow range, in which case a Wide prefix widens all of
// the instruction's operands to two bytes. The returned position is the first
// byte emitted, prefix included, which is what jump targets must address.
func (c *Compiler) emit(opcode op.Code, operands ...int) int {
	pos := len(c.code)
	wide := false
	for _, o := range operands {
		if o > narrowMax {
			wide = true
			break
		}
	}
	if wide {
		c.code = append(c.code, byte(op.Wide))
	}
	c.code = append(c.code, byte(opcode))
	for _, o := range operands {
		if wide {
			c.code = append(c.code, byte(o>>8), byte(o))
		} else {
			c.code = append(c.code, byte(o))
		}
	}
	c.recordLocation(pos)
	return pos
}

// emitJump appends a jump-family instruction in wide form with a placeholder
// target as the final operand, so the target can be back-patched in place.
// The pre operands come before the target. It returns the instruction
// position and the byte offset of the target operand.
func (c *Compiler) emitJump(opcode op.Code, pre ...int) (pos, patchSite int) {
	pos = len(c.code)
	c.code = append(c.code, byte(op.Wide), byte(opcode))
	for _, o := range pre {
		c.code = append(c.code, byte(o>>8), byte(o))
	}
	patchSite = len(c.code)
	c.code = append(c.code, byte(placeholder>>8), byte(placeholder&0xFF))
	c.recordLocation(pos)
	return pos, patchSite
}

// patch writes the current position as the jump target at the given site.
func (c *Compiler) patch(patchSite int) {
	c.patchTo(patchSite, len(c.code))
}

// patchTo writes an explicit jump target at the given site.
func (c *Compiler) patchTo(patchSite, target int) {
	c.code[patchSite] = byte(target >> 8)
	c.code[patchSite+1] = byte(target)
}

// recordLocation extends or opens a location-table run for the bytes just
// emitted, using the position of the node currently being compiled.
func (c *Compiler) recordLocation(startIP int) {
	pos := c.currentPos
	n := len(c.locs)
	if n > 0 && c.locs[n-1].Line == pos.Line && c.locs[n-1].Column == pos.Column && c.locs[n-1].End == startIP {
		c.locs[n-1].End = len(c.code)
		return
	}
	if pos.IsZero() {
		return
	}
	c.locs = append(c.locs, locRun{Start: startIP, End: len(c.code), Line: pos.Line, Column: pos.Column})
	if c.cfg.Debug && c.currentNode != nil {
		c.ipToNode[startIP] = c.currentNode
	}
}

type locRun struct {
	Start, End, Line, Column int
}

// constant interns a value in the constant pool, folding repeated doubles
// and strings into a single entry.
func (c *Compiler) constant(v object.Value) int {
	var key any
	switch v := v.(type) {
	case *object.Double:
		key = v.Value()
	case *object.String:
		key = "s\x00" + v.Value()
	case *object.Bool:
		key = v.Value()
	case *object.MagicColon:
		key = "colon"
	}
	if key != nil {
		if idx, ok := c.constIndex[key]; ok {
			return idx
		}
	}
	idx := len(c.constants)
	c.constants = append(c.constants, v)
	if key != nil {
		c.constIndex[key] = idx
	}
	return idx
}

// Numeric-type proving. A slot is provably a double scalar only inside
// straight-line code: the facts are discarded wholesale at every control-flow
// construct, and never established for global- or persistent-backed slots,
// whose bindings other calls can rewrite.

func (c *Compiler) markProven(slot int) {
	if c.volatileSlots[slot] {
		return
	}
	c.proven[slot] = true
}

func (c *Compiler) clearProven(slot int) {
	delete(c.proven, slot)
}

func (c *Compiler) resetProven() {
	c.proven = map[int]bool{}
}

// provenDouble reports whether an expression is locally provable to produce
// a plain double scalar.
func (c *Compiler) provenDouble(e ast.Expression) bool {
	switch e := e.(type) {
	case *ast.Number:
		return true
	case *ast.Ident:
		slot, ok := c.slots.Lookup(e.Name())
		return ok && c.proven[slot]
	case *ast.Unary:
		return (e.Op() == "-" || e.Op() == "+") && c.provenDouble(e.Operand())
	case *ast.Binary:
		switch e.Op() {
		case "+", "-", "*", "/", "^":
			return c.provenDouble(e.X()) && c.provenDouble(e.Y())
		}
	}
	return false
}
