// Package compiler transforms syntax trees into bytecode units. Compilation
// is deterministic: compiling the same tree twice yields identical
// instruction streams, constant pools and side tables.
package compiler

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/chbinousamy/octave/ast"
	"github.com/chbinousamy/octave/bytecode"
	"github.com/chbinousamy/octave/object"
	"github.com/chbinousamy/octave/op"
)

// Config controls compilation of one unit.
type Config struct {
	// File is the source filename recorded in diagnostics.
	File string

	// Display enables echoing of unterminated statement results, the
	// interactive top-level behavior.
	Display bool

	// Debug records the node each instruction was compiled from, for
	// debugger support.
	Debug bool
}

// Compiler holds the state for compiling a single unit. A fresh Compiler is
// used per unit; anonymous function bodies get their own nested instance.
type Compiler struct {
	cfg       Config
	code      []byte
	constants []object.Value
	constIndex map[any]int
	slots     *slotTable

	entries       []bytecode.UnwindEntry
	locs          []locRun
	argNames      []bytecode.ArgNameEntry
	slotToPersist map[int]int
	ipToNode      map[int]ast.Node
	captureOffsets map[int]int

	// depth is the statically tracked operand stack depth, recorded into
	// unwind entries so the executor can trim before transferring.
	depth int

	proven        map[int]bool
	volatileSlots map[int]bool

	loops    []*loopContext
	protects []*protectContext

	currentNode ast.Node
	currentPos  ast.Pos

	failures *multierror.Error
}

// loopContext tracks the innermost enclosing loop during compilation.
type loopContext struct {
	continueIP   int   // back-edge target
	breakSites   []int // jump operands patched to the loop cleanup position
	protectDepth int   // protect-stack size at loop entry
	baseDepth    int   // operand stack depth inside the loop body
}

// protectContext tracks an open unwind_protect. Early exits crossing the
// construct register themselves here; their cleanup copies are laid out past
// the protected range once the construct finishes compiling.
type protectContext struct {
	cleanup *ast.Block
	exits   []protectExit
}

type exitKind int

const (
	exitBreak exitKind = iota
	exitContinue
	exitReturn
)

// protectExit is one early exit crossing an unwind_protect. restCount is the
// number of further protects the exit still has to cross on its way out.
type protectExit struct {
	site      int
	kind      exitKind
	loop      *loopContext
	restCount int
}

// New creates a compiler for one unit.
func New(cfg Config) *Compiler {
	return &Compiler{
		cfg:            cfg,
		constIndex:     map[any]int{},
		slots:          newSlotTable(),
		slotToPersist:  map[int]int{},
		ipToNode:       map[int]ast.Node{},
		captureOffsets: map[int]int{},
		proven:         map[int]bool{},
		volatileSlots:  map[int]bool{},
	}
}

// Compile compiles a function or script body into an executable unit.
func Compile(fn *ast.FuncDef, cfg Config) (*bytecode.Code, error) {
	return New(cfg).CompileFunc(fn)
}

// CompileFunc compiles the given definition with this compiler's config.
func (c *Compiler) CompileFunc(fn *ast.FuncDef) (*bytecode.Code, error) {
	if c.cfg.File == "" {
		c.cfg.File = fn.File()
	}
	for _, p := range fn.Params() {
		c.slots.Slot(p)
	}
	for _, o := range fn.Outs() {
		c.slots.Slot(o)
	}
	c.slots.collectIdentifiers(fn.Body())

	c.compileBlock(fn.Body())
	c.emit(op.Ret)

	if err := c.failures.ErrorOrNil(); err != nil {
		return nil, err
	}

	params := make([]int, 0, len(fn.Params()))
	for _, p := range fn.Params() {
		s, _ := c.slots.Lookup(p)
		params = append(params, s)
	}
	outs := make([]int, 0, len(fn.Outs()))
	for _, o := range fn.Outs() {
		s, _ := c.slots.Lookup(o)
		outs = append(outs, s)
	}
	return bytecode.New(bytecode.Spec{
		Name:         fn.Name(),
		File:         c.cfg.File,
		Instructions: c.code,
		Constants:    c.constants,
		Identifiers:  c.slots.Names(),
		Params:       params,
		Outs:         outs,
		LocalCount:   c.slots.Count(),
		Unwind:       c.unwindData(),
	}), nil
}

func (c *Compiler) unwindData() *bytecode.UnwindData {
	locs := make([]bytecode.LocEntry, 0, len(c.locs))
	for _, r := range c.locs {
		locs = append(locs, bytecode.LocEntry{Start: r.Start, End: r.End, Line: r.Line, Column: r.Column})
	}
	u := &bytecode.UnwindData{
		Entries:          c.entries,
		Locations:        locs,
		ArgNames:         c.argNames,
		SlotToPersistent: c.slotToPersist,
		CaptureOffsets:   c.captureOffsets,
	}
	if c.cfg.Debug {
		u.IPToNode = c.ipToNode
	}
	return u
}

// errorf records a compile failure and lets compilation continue, so one run
// reports as many failures as possible.
func (c *Compiler) errorf(pos ast.Pos, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.failures = multierror.Append(c.failures,
		fmt.Errorf("compile error: %s (%s: line %d, column %d)", msg, c.cfg.File, pos.Line, pos.Column))
}

func (c *Compiler) at(node ast.Node) {
	c.currentNode = node
	c.currentPos = node.Pos()
}

// reserveEntry appends a placeholder unwind entry and returns its index.
// Reserving at construct entry keeps the table ordered outermost-first even
// when constructs nest, since inner constructs reserve later.
func (c *Compiler) reserveEntry(kind bytecode.EntryKind) int {
	c.entries = append(c.entries, bytecode.UnwindEntry{Kind: kind})
	return len(c.entries) - 1
}

func (c *Compiler) compileBlock(b *ast.Block) {
	for _, s := range b.Stmts() {
		c.compileStmt(s)
	}
}

func (c *Compiler) compileStmt(s ast.Statement) {
	c.at(s)
	switch s := s.(type) {
	case *ast.ExprStmt:
		c.compileExprStmt(s)
	case *ast.Assign:
		c.compileAssign(s)
	case *ast.If:
		c.compileIf(s)
	case *ast.While:
		c.compileWhile(s)
	case *ast.For:
		c.compileFor(s)
	case *ast.Switch:
		c.compileSwitch(s)
	case *ast.TryCatch:
		c.compileTryCatch(s)
	case *ast.UnwindProtect:
		c.compileUnwindProtect(s)
	case *ast.Break:
		c.compileBreak(s)
	case *ast.Continue:
		c.compileContinue(s)
	case *ast.Return:
		c.compileReturn(s)
	case *ast.Global:
		c.compileGlobal(s)
	case *ast.Persistent:
		c.compilePersistent(s)
	case *ast.Block:
		c.compileBlock(s)
	default:
		c.errorf(s.Pos(), "unsupported statement %T", s)
	}
}

func (c *Compiler) compileExprStmt(s *ast.ExprStmt) {
	display := c.cfg.Display && s.Displayed()
	switch e := s.Expr().(type) {
	case *ast.Ident:
		// A bare identifier is a variable echo or a zero-argument call;
		// neither binds ans.
		slot := c.slots.Slot(e.Name())
		c.at(e)
		c.emit(op.LoadSlotN, slot, boolToNargout(display))
		if display {
			c.depth++
			c.emit(op.Disp, slot)
			c.depth--
		}
	case *ast.Index:
		// Call for effect: request no results unless the value is displayed.
		if !display {
			c.compileIndex(e, 0)
			return
		}
		c.compileIndex(e, 1)
		c.storeAns(e, display)
	case *ast.Postfix, *ast.Unary:
		if c.compileIncrDecrStmt(s.Expr()) {
			return
		}
		c.compileExpr(s.Expr())
		c.storeAns(s.Expr(), display)
	default:
		c.compileExpr(s.Expr())
		c.storeAns(s.Expr(), display)
	}
}

func boolToNargout(display bool) int {
	if display {
		return 1
	}
	return 0
}

// storeAns binds the value on top of the stack to ans, optionally echoing it.
func (c *Compiler) storeAns(e ast.Expression, display bool) {
	ansSlot := c.slots.Slot("ans")
	pd := c.provenDouble(e)
	if display {
		c.emit(op.Dup)
		c.depth++
	}
	c.emit(op.StoreSlot, ansSlot)
	c.depth--
	if pd {
		c.markProven(ansSlot)
	} else {
		c.clearProven(ansSlot)
	}
	if display {
		c.emit(op.Disp, ansSlot)
		c.depth--
	}
}

// compileIncrDecrStmt handles ++x, --x, x++ and x-- in statement position,
// where no value is needed. It reports whether it emitted anything.
func (c *Compiler) compileIncrDecrStmt(e ast.Expression) bool {
	var name string
	var incr bool
	switch e := e.(type) {
	case *ast.Unary:
		if e.Op() != "++" && e.Op() != "--" {
			return false
		}
		id, ok := e.Operand().(*ast.Ident)
		if !ok {
			c.errorf(e.Pos(), "invalid operand for %s", e.Op())
			return true
		}
		name, incr = id.Name(), e.Op() == "++"
	case *ast.Postfix:
		name, incr = e.Operand().Name(), e.Op() == "++"
	default:
		return false
	}
	slot := c.slots.Slot(name)
	code := op.DecrPrefix
	if incr {
		code = op.IncrPrefix
	}
	if c.proven[slot] {
		code = op.DecrPrefixDbl
		if incr {
			code = op.IncrPrefixDbl
		}
	}
	// Prefix and postfix agree when the value is unused.
	c.emit(code, slot)
	c.emit(op.Pop)
	if !c.volatileSlots[slot] {
		c.markProven(slot)
	}
	return true
}

func (c *Compiler) compileAssign(a *ast.Assign) {
	if len(a.Targets()) > 1 {
		c.compileMultiAssign(a)
		return
	}
	lv := a.Targets()[0]
	slot := c.slots.Slot(lv.Name)

	switch lv.Kind {
	case ast.LValuePlain:
		if a.Op() != "=" {
			binop, ok := compoundOp(a.Op())
			if !ok {
				c.errorf(a.Pos(), "invalid compound assignment operator %q", a.Op())
				return
			}
			wasProven := c.proven[slot]
			c.compileExpr(a.Value())
			c.emit(op.StoreCompound, slot, int(binop))
			c.depth--
			if wasProven && c.provenDouble(a.Value()) {
				c.markProven(slot)
			} else {
				c.clearProven(slot)
			}
		} else {
			pd := c.provenDouble(a.Value())
			c.compileExpr(a.Value())
			if a.Force() {
				c.emit(op.ForceStore, slot)
			} else {
				c.emit(op.StoreSlot, slot)
			}
			c.depth--
			if pd {
				c.markProven(slot)
			} else {
				c.clearProven(slot)
			}
		}

	case ast.LValueIndex, ast.LValueCell:
		rhs := a.Value()
		if a.Op() != "=" {
			rhs = c.desugarCompound(a, lv)
			if rhs == nil {
				return
			}
		}
		c.compileExpr(rhs)
		for _, arg := range lv.Args {
			c.compileIndexArg(arg)
		}
		code := op.SubassignSlot
		if lv.Kind == ast.LValueCell {
			code = op.SubassignCell
		}
		c.emit(code, slot, len(lv.Args))
		c.depth -= 1 + len(lv.Args)
		c.clearProven(slot)

	case ast.LValueField:
		rhs := a.Value()
		if a.Op() != "=" {
			rhs = c.desugarCompound(a, lv)
			if rhs == nil {
				return
			}
		}
		c.compileExpr(rhs)
		c.emit(op.SubassignFld, slot, c.constant(object.NewString(lv.Field)))
		c.depth--
		c.clearProven(slot)
	}

	if c.cfg.Display && a.Displayed() {
		c.emit(op.LoadSlot, slot)
		c.depth++
		c.emit(op.Disp, slot)
		c.depth--
	}
}

// desugarCompound rewrites `a(i) += v` as `a(i) = a(i) + v`. The index
// arguments are evaluated twice, once for the read and once for the write.
func (c *Compiler) desugarCompound(a *ast.Assign, lv ast.LValue) ast.Expression {
	spelling, ok := compoundSpelling(a.Op())
	if !ok {
		c.errorf(a.Pos(), "invalid compound assignment operator %q", a.Op())
		return nil
	}
	target := ast.NewIdent(a.Pos(), lv.Name)
	var read ast.Expression
	switch lv.Kind {
	case ast.LValueIndex:
		read = ast.NewIndex(a.Pos(), target, lv.Args)
	case ast.LValueCell:
		read = ast.NewCellIndex(a.Pos(), target, lv.Args)
	case ast.LValueField:
		read = ast.NewFieldAccess(a.Pos(), target, lv.Field)
	}
	return ast.NewBinary(a.Pos(), spelling, read, a.Value())
}

func compoundOp(spelling string) (op.BinaryOpType, bool) {
	switch spelling {
	case "+=":
		return op.BinaryAdd, true
	case "-=":
		return op.BinarySub, true
	case "*=":
		return op.BinaryMul, true
	case "/=":
		return op.BinaryDiv, true
	case "^=":
		return op.BinaryPow, true
	case ".*=":
		return op.BinaryElemMul, true
	case "./=":
		return op.BinaryElemDiv, true
	}
	return 0, false
}

func compoundSpelling(spelling string) (string, bool) {
	if len(spelling) < 2 || spelling[len(spelling)-1] != '=' {
		return "", false
	}
	base := spelling[:len(spelling)-1]
	switch base {
	case "+", "-", "*", "/", "^", ".*", "./":
		return base, true
	}
	return "", false
}

// compileMultiAssign compiles [a, b, ...] = f(...). Results come back with
// the first output deepest on the stack, so targets store in reverse.
func (c *Compiler) compileMultiAssign(a *ast.Assign) {
	targets := a.Targets()
	n := len(targets)
	for _, lv := range targets {
		if lv.Kind != ast.LValuePlain {
			c.errorf(a.Pos(), "indexed targets in multi-assignment are not supported")
			return
		}
	}
	switch v := a.Value().(type) {
	case *ast.Index:
		c.compileIndex(v, n)
	case *ast.CellIndex:
		c.compileCellIndex(v, n)
	default:
		c.errorf(a.Pos(), "right-hand side cannot produce %d values", n)
		return
	}
	for i := n - 1; i >= 0; i-- {
		slot := c.slots.Slot(targets[i].Name)
		c.emit(op.StoreSlot, slot)
		c.depth--
		c.clearProven(slot)
	}
	if c.cfg.Display && a.Displayed() {
		for _, lv := range targets {
			slot := c.slots.Slot(lv.Name)
			c.emit(op.LoadSlot, slot)
			c.depth++
			c.emit(op.Disp, slot)
			c.depth--
		}
	}
}

// compileCond compiles a statement condition. A bare identifier condition
// reports undefined use with the conditional-specific error type.
func (c *Compiler) compileCond(e ast.Expression) {
	if id, ok := e.(*ast.Ident); ok {
		c.at(e)
		c.emit(op.LoadCond, c.slots.Slot(id.Name()))
		c.depth++
		return
	}
	c.compileExpr(e)
}

func (c *Compiler) compileIf(s *ast.If) {
	c.resetProven()
	var endSites []int
	conds, blocks := s.Conds(), s.Blocks()
	for i, cond := range conds {
		c.compileCond(cond)
		_, falseSite := c.emitJump(op.JmpIfN)
		c.depth--
		c.compileBlock(blocks[i])
		c.resetProven()
		if i < len(conds)-1 || s.Alternative() != nil {
			_, end := c.emitJump(op.Jmp)
			endSites = append(endSites, end)
		}
		c.patch(falseSite)
	}
	if s.Alternative() != nil {
		c.compileBlock(s.Alternative())
	}
	for _, site := range endSites {
		c.patch(site)
	}
	c.resetProven()
}

func (c *Compiler) compileWhile(s *ast.While) {
	c.resetProven()
	condPos := len(c.code)
	c.compileCond(s.Cond())
	_, exitSite := c.emitJump(op.JmpIfN)
	c.depth--

	entryIdx := c.reserveEntry(bytecode.KindLoop)
	bodyStart := len(c.code)
	loop := &loopContext{continueIP: condPos, protectDepth: len(c.protects), baseDepth: c.depth}
	c.loops = append(c.loops, loop)
	c.compileBlock(s.Body())
	c.loops = c.loops[:len(c.loops)-1]

	_, back := c.emitJump(op.Jmp)
	c.patchTo(back, condPos)

	end := len(c.code)
	c.patchTo(exitSite, end)
	for _, site := range loop.breakSites {
		c.patchTo(site, end)
	}
	c.entries[entryIdx] = bytecode.UnwindEntry{
		Start:  bodyStart,
		End:    end,
		Target: end,
		Depth:  loop.baseDepth,
		Kind:   bytecode.KindLoop,
	}
	c.resetProven()
}

func (c *Compiler) compileFor(s *ast.For) {
	c.resetProven()
	provenVar := c.numericIterand(s.Iter())
	baseDepth := c.depth
	c.compileExpr(s.Iter())
	c.emit(op.ForSetup)
	c.depth += 2 // raw iteration count and counter beneath the iterand

	slot := c.slots.Slot(s.VarName())
	condPos := len(c.code)
	entryIdx := c.reserveEntry(bytecode.KindLoop)
	_, doneSite := c.emitJump(op.ForCond, slot)

	c.resetProven()
	if provenVar {
		c.markProven(slot)
	}
	loop := &loopContext{continueIP: condPos, protectDepth: len(c.protects), baseDepth: c.depth}
	c.loops = append(c.loops, loop)
	c.compileBlock(s.Body())
	c.loops = c.loops[:len(c.loops)-1]

	_, back := c.emitJump(op.Jmp)
	c.patchTo(back, condPos)

	cleanupPos := len(c.code)
	c.patchTo(doneSite, cleanupPos)
	for _, site := range loop.breakSites {
		c.patchTo(site, cleanupPos)
	}
	c.emit(op.PopN, 3)
	c.depth -= 3

	c.entries[entryIdx] = bytecode.UnwindEntry{
		Start:  condPos,
		End:    cleanupPos,
		Target: cleanupPos,
		Depth:  baseDepth + 3,
		Kind:   bytecode.KindLoop,
	}
	c.resetProven()
}

// numericIterand reports whether the iterand provably yields double loop
// values, enabling the specialized opcodes on the loop variable.
func (c *Compiler) numericIterand(e ast.Expression) bool {
	switch e := e.(type) {
	case *ast.Colon:
		if !c.provenDouble(e.Base()) || !c.provenDouble(e.Limit()) {
			return false
		}
		return e.Step() == nil || c.provenDouble(e.Step())
	default:
		return c.provenDouble(e)
	}
}

func (c *Compiler) compileSwitch(s *ast.Switch) {
	c.compileExpr(s.Subject())
	c.resetProven()
	subjectDepth := c.depth // depth with the subject still on the stack

	var endSites []int
	nextSite := -1
	for _, cse := range s.Cases() {
		if nextSite >= 0 {
			c.patch(nextSite)
			c.depth = subjectDepth
		}
		c.compileExpr(cse.Label)
		_, nextSite = c.emitJump(op.JmpIfNCaseMatch)
		c.depth-- // label popped on both paths
		c.emit(op.Pop)
		c.depth-- // subject popped on the match path
		c.compileBlock(cse.Body)
		c.resetProven()
		_, end := c.emitJump(op.Jmp)
		endSites = append(endSites, end)
	}
	if nextSite >= 0 {
		c.patch(nextSite)
		c.depth = subjectDepth
	}
	c.emit(op.Pop)
	c.depth--
	if s.Default() != nil {
		c.compileBlock(s.Default())
		c.resetProven()
	}
	for _, site := range endSites {
		c.patch(site)
	}
}

func (c *Compiler) compileTryCatch(s *ast.TryCatch) {
	c.resetProven()
	baseDepth := c.depth
	entryIdx := c.reserveEntry(bytecode.KindTryCatch)
	bodyStart := len(c.code)
	c.compileBlock(s.Body())
	_, after := c.emitJump(op.Jmp)

	// The unwinder trims the stack to the recorded depth and pushes the
	// condition value before transferring here.
	catchPos := len(c.code)
	c.depth++
	if s.CatchVar() != "" {
		slot := c.slots.Slot(s.CatchVar())
		c.emit(op.StoreSlot, slot)
		c.clearProven(slot)
	} else {
		c.emit(op.Pop)
	}
	c.depth--
	c.resetProven()
	c.compileBlock(s.CatchBody())

	c.patch(after)
	c.entries[entryIdx] = bytecode.UnwindEntry{
		Start:  bodyStart,
		End:    catchPos,
		Target: catchPos,
		Depth:  baseDepth,
		Kind:   bytecode.KindTryCatch,
	}
	c.resetProven()
}

func (c *Compiler) compileUnwindProtect(s *ast.UnwindProtect) {
	c.resetProven()
	baseDepth := c.depth
	entryIdx := c.reserveEntry(bytecode.KindUnwindProtect)
	pc := &protectContext{cleanup: s.Cleanup()}
	c.protects = append(c.protects, pc)
	bodyStart := len(c.code)
	c.compileBlock(s.Body())
	c.protects = c.protects[:len(c.protects)-1]

	// Canonical cleanup: the successful fall-through path runs it here, and
	// the unwinder transfers here on error with the condition held pending.
	cleanupPos := len(c.code)
	c.resetProven()
	c.compileBlock(s.Cleanup())
	c.emit(op.ProtectEnd, entryIdx)

	c.entries[entryIdx] = bytecode.UnwindEntry{
		Start:  bodyStart,
		End:    cleanupPos,
		Target: cleanupPos,
		Depth:  baseDepth,
		Kind:   bytecode.KindUnwindProtect,
	}

	c.emitProtectExits(pc)
	c.resetProven()
}

// emitProtectExits lays out the cleanup copies for early exits that crossed
// this construct. The copies sit past the protected range, so a failure
// inside one is handled by the enclosing construct rather than re-running
// this cleanup.
func (c *Compiler) emitProtectExits(pc *protectContext) {
	if len(pc.exits) == 0 {
		return
	}
	_, skip := c.emitJump(op.Jmp)
	for _, ex := range pc.exits {
		c.patch(ex.site)
		c.resetProven()
		c.compileBlock(pc.cleanup)
		if ex.restCount > 0 {
			// Hand off to the next enclosing protect still being compiled.
			next := c.protects[len(c.protects)-1]
			_, site := c.emitJump(op.Jmp)
			next.exits = append(next.exits, protectExit{
				site:      site,
				kind:      ex.kind,
				loop:      ex.loop,
				restCount: ex.restCount - 1,
			})
			continue
		}
		switch ex.kind {
		case exitBreak:
			_, site := c.emitJump(op.Jmp)
			ex.loop.breakSites = append(ex.loop.breakSites, site)
		case exitContinue:
			_, site := c.emitJump(op.Jmp)
			c.patchTo(site, ex.loop.continueIP)
		case exitReturn:
			c.emit(op.Ret)
		}
	}
	c.patch(skip)
}

func (c *Compiler) compileBreak(s *ast.Break) {
	loop := c.innermostLoop()
	if loop == nil {
		c.errorf(s.Pos(), "break outside of a loop")
		return
	}
	site := c.exitThroughProtects(loop.protectDepth, exitBreak, loop)
	if site >= 0 {
		loop.breakSites = append(loop.breakSites, site)
	}
}

func (c *Compiler) compileContinue(s *ast.Continue) {
	loop := c.innermostLoop()
	if loop == nil {
		c.errorf(s.Pos(), "continue outside of a loop")
		return
	}
	site := c.exitThroughProtects(loop.protectDepth, exitContinue, loop)
	if site >= 0 {
		c.patchTo(site, loop.continueIP)
	}
}

func (c *Compiler) compileReturn(s *ast.Return) {
	if len(c.protects) > 0 {
		c.exitThroughProtects(0, exitReturn, nil)
		return
	}
	c.emit(op.Ret)
}

func (c *Compiler) innermostLoop() *loopContext {
	if len(c.loops) == 0 {
		return nil
	}
	return c.loops[len(c.loops)-1]
}

// exitThroughProtects emits the jump for an early exit. When active protects
// stand between the exit and its destination, the jump routes through their
// cleanup copies; the returned site is then already consumed. Otherwise the
// caller receives the operand site to patch.
func (c *Compiler) exitThroughProtects(downTo int, kind exitKind, loop *loopContext) int {
	crossed := len(c.protects) - downTo
	if crossed <= 0 {
		_, site := c.emitJump(op.Jmp)
		return site
	}
	inner := c.protects[len(c.protects)-1]
	_, site := c.emitJump(op.Jmp)
	inner.exits = append(inner.exits, protectExit{
		site:      site,
		kind:      kind,
		loop:      loop,
		restCount: crossed - 1,
	})
	return -1
}

func (c *Compiler) compileGlobal(s *ast.Global) {
	for _, name := range s.Names() {
		slot := c.slots.Slot(name)
		c.emit(op.DeclareGlobal, slot)
		c.volatileSlots[slot] = true
		c.clearProven(slot)
	}
}

func (c *Compiler) compilePersistent(s *ast.Persistent) {
	for _, name := range s.Names() {
		slot := c.slots.Slot(name)
		if _, ok := c.slotToPersist[slot]; !ok {
			c.slotToPersist[slot] = len(c.slotToPersist)
		}
		c.emit(op.DeclarePersistent, slot)
		c.volatileSlots[slot] = true
		c.clearProven(slot)
	}
}

// Expressions. Each compiled expression leaves exactly one value on the
// stack; list-producing forms are compiled through compileIndex and
// compileCellIndex with explicit nargout instead.

func (c *Compiler) compileExpr(e ast.Expression) {
	c.at(e)
	switch e := e.(type) {
	case *ast.Number:
		c.compileNumber(e)
	case *ast.Str:
		c.emit(op.LoadConst, c.constant(object.NewString(e.Value())))
		c.depth++
	case *ast.Bool:
		if e.Value() {
			c.emit(op.PushTrue)
		} else {
			c.emit(op.PushFalse)
		}
		c.depth++
	case *ast.Ident:
		c.emit(op.LoadSlot, c.slots.Slot(e.Name()))
		c.depth++
	case *ast.Unary:
		c.compileUnary(e)
	case *ast.Postfix:
		c.compilePostfix(e)
	case *ast.Binary:
		c.compileBinary(e)
	case *ast.Colon:
		c.compileColon(e)
	case *ast.Index:
		c.compileIndex(e, 1)
	case *ast.CellIndex:
		c.compileCellIndex(e, 1)
	case *ast.FieldAccess:
		c.compileFieldAccess(e)
	case *ast.Matrix:
		c.compileMatrix(e)
	case *ast.CellLit:
		c.compileCellLit(e)
	case *ast.AnonFunc:
		c.compileAnonFunc(e)
	default:
		c.errorf(e.Pos(), "unsupported expression %T", e)
		c.emit(op.PushNil)
		c.depth++
	}
}

func (c *Compiler) compileNumber(e *ast.Number) {
	switch e.Value() {
	case 0:
		c.emit(op.PushDbl0)
	case 1:
		c.emit(op.PushDbl1)
	case 2:
		c.emit(op.PushDbl2)
	default:
		c.emit(op.LoadConst, c.constant(object.NewDouble(e.Value())))
	}
	c.depth++
}

func (c *Compiler) compileUnary(e *ast.Unary) {
	switch e.Op() {
	case "-":
		pd := c.provenDouble(e.Operand())
		c.compileExpr(e.Operand())
		if pd {
			c.emit(op.USubDbl)
		} else {
			c.emit(op.USub)
		}
	case "+":
		c.compileExpr(e.Operand())
		c.emit(op.UAdd)
	case "!", "~":
		c.compileExpr(e.Operand())
		c.emit(op.Not)
	case "++", "--":
		id, ok := e.Operand().(*ast.Ident)
		if !ok {
			c.errorf(e.Pos(), "invalid operand for %s", e.Op())
			c.emit(op.PushNil)
			c.depth++
			return
		}
		slot := c.slots.Slot(id.Name())
		code := op.DecrPrefix
		if e.Op() == "++" {
			code = op.IncrPrefix
		}
		if c.proven[slot] {
			code = op.DecrPrefixDbl
			if e.Op() == "++" {
				code = op.IncrPrefixDbl
			}
		}
		c.emit(code, slot)
		c.depth++
		if !c.volatileSlots[slot] {
			c.markProven(slot)
		}
	default:
		c.errorf(e.Pos(), "unsupported unary operator %q", e.Op())
		c.emit(op.PushNil)
		c.depth++
	}
}

func (c *Compiler) compilePostfix(e *ast.Postfix) {
	slot := c.slots.Slot(e.Operand().Name())
	code := op.DecrPostfix
	if e.Op() == "++" {
		code = op.IncrPostfix
	}
	if c.proven[slot] {
		code = op.DecrPostfixDbl
		if e.Op() == "++" {
			code = op.IncrPostfixDbl
		}
	}
	c.emit(code, slot)
	c.depth++
	if !c.volatileSlots[slot] {
		c.markProven(slot)
	}
}

var genericBinaryOps = map[string]op.Code{
	"+":  op.Add,
	"-":  op.Sub,
	"*":  op.Mul,
	"/":  op.Div,
	"^":  op.Pow,
	".*": op.ElemMul,
	"./": op.ElemDiv,
	"<":  op.Le,
	"<=": op.LeEq,
	">":  op.Gr,
	">=": op.GrEq,
	"==": op.Eq,
	"!=": op.Neq,
	"~=": op.Neq,
}

// specializedBinaryOps holds the double-scalar variants. Elementwise ops have
// no specialization: on scalars they match the plain operators.
var specializedBinaryOps = map[string]op.Code{
	"+":  op.AddDbl,
	"-":  op.SubDbl,
	"*":  op.MulDbl,
	"/":  op.DivDbl,
	"^":  op.PowDbl,
	"<":  op.LeDbl,
	"<=": op.LeEqDbl,
	">":  op.GrDbl,
	">=": op.GrEqDbl,
	"==": op.EqDbl,
	"!=": op.NeqDbl,
	"~=": op.NeqDbl,
}

func (c *Compiler) compileBinary(e *ast.Binary) {
	switch e.Op() {
	case "&&", "||":
		c.compileShortCircuit(e)
		return
	}
	specialized := c.provenDouble(e.X()) && c.provenDouble(e.Y())
	c.compileExpr(e.X())
	c.compileExpr(e.Y())
	c.at(e)
	if specialized {
		if code, ok := specializedBinaryOps[e.Op()]; ok {
			c.emit(code)
			c.depth--
			return
		}
	}
	code, ok := genericBinaryOps[e.Op()]
	if !ok {
		c.errorf(e.Pos(), "unsupported binary operator %q", e.Op())
		code = op.Add
	}
	c.emit(code)
	c.depth--
}

// compileShortCircuit compiles && and ||, which evaluate their right operand
// only when the left does not decide the result. The result is a bool.
func (c *Compiler) compileShortCircuit(e *ast.Binary) {
	jmpOp, first, second := op.JmpIfN, op.PushTrue, op.PushFalse
	if e.Op() == "||" {
		jmpOp, first, second = op.JmpIf, op.PushFalse, op.PushTrue
	}
	c.compileExpr(e.X())
	_, decidedX := c.emitJump(jmpOp)
	c.depth--
	c.compileExpr(e.Y())
	_, decidedY := c.emitJump(jmpOp)
	c.depth--
	c.emit(first)
	c.depth++
	_, done := c.emitJump(op.Jmp)
	c.patch(decidedX)
	c.patch(decidedY)
	c.emit(second)
	c.patch(done)
}

func (c *Compiler) compileColon(e *ast.Colon) {
	c.compileExpr(e.Base())
	if e.Step() != nil {
		c.compileExpr(e.Step())
		c.compileExpr(e.Limit())
		c.at(e)
		c.emit(op.Range3)
		c.depth -= 2
		return
	}
	c.compileExpr(e.Limit())
	c.at(e)
	c.emit(op.Range2)
	c.depth--
}

// compileIndex compiles target(args...) requesting nargout results. With a
// plain identifier target the executor resolves variable-vs-function at run
// time through the slot; any other target is evaluated and indexed as a
// value.
func (c *Compiler) compileIndex(e *ast.Index, nargout int) {
	if id, ok := e.Target().(*ast.Ident); ok {
		slot := c.slots.Slot(id.Name())
		names := c.compileCallArgs(e.Args())
		c.at(e)
		pos := c.emit(op.IndexSlot, slot, len(e.Args()), nargout)
		c.argNames = append(c.argNames, bytecode.ArgNameEntry{
			Start:    pos,
			End:      len(c.code),
			ArgNames: names,
			ObjName:  id.Name(),
		})
		c.depth += c.resultCells(nargout) - len(e.Args())
		return
	}
	if nargout > 1 {
		c.errorf(e.Pos(), "multiple results require an identifier target")
	}
	c.compileExpr(e.Target())
	c.compileCallArgs(e.Args())
	c.at(e)
	c.emit(op.IndexValue, len(e.Args()))
	c.depth -= len(e.Args())
}

// compileCellIndex compiles target{args...}. nargout NargoutAll yields a
// single comma-separated list cell for the executor to splice.
func (c *Compiler) compileCellIndex(e *ast.CellIndex, nargout int) {
	id, ok := e.Target().(*ast.Ident)
	if !ok {
		c.errorf(e.Pos(), "brace indexing requires an identifier target")
		c.emit(op.PushNil)
		c.depth++
		return
	}
	slot := c.slots.Slot(id.Name())
	names := c.compileCallArgs(e.Args())
	c.at(e)
	pos := c.emit(op.IndexCell, slot, len(e.Args()), nargout)
	c.argNames = append(c.argNames, bytecode.ArgNameEntry{
		Start:    pos,
		End:      len(c.code),
		ArgNames: names,
		ObjName:  id.Name(),
	})
	c.depth += c.resultCells(nargout) - len(e.Args())
}

func (c *Compiler) resultCells(nargout int) int {
	if nargout == op.NargoutAll {
		return 1
	}
	return nargout
}

// compileCallArgs compiles index/call arguments and returns their names for
// the argument-name table: identifiers keep their name, everything else gets
// an empty entry. A bare colon becomes the magic-colon constant; a
// brace-index argument spreads its full result list into the call.
func (c *Compiler) compileCallArgs(args []ast.Expression) []string {
	names := make([]string, len(args))
	for i, arg := range args {
		switch arg := arg.(type) {
		case *ast.Ident:
			names[i] = arg.Name()
			c.compileExpr(arg)
		case *ast.Colon:
			if arg.Base() == nil && arg.Limit() == nil {
				c.at(arg)
				c.emit(op.LoadConst, c.constant(object.Colon))
				c.depth++
				continue
			}
			c.compileExpr(arg)
		case *ast.CellIndex:
			c.compileCellIndex(arg, op.NargoutAll)
		default:
			c.compileExpr(arg)
		}
	}
	return names
}

// compileIndexArg compiles one subscript of an assignment target. A bare
// colon becomes the magic-colon constant; list spreading is not allowed on
// the left-hand side.
func (c *Compiler) compileIndexArg(arg ast.Expression) {
	if colon, ok := arg.(*ast.Colon); ok && colon.Base() == nil && colon.Limit() == nil {
		c.at(colon)
		c.emit(op.LoadConst, c.constant(object.Colon))
		c.depth++
		return
	}
	c.compileExpr(arg)
}

func (c *Compiler) compileFieldAccess(e *ast.FieldAccess) {
	objName := ""
	if id, ok := e.Target().(*ast.Ident); ok {
		objName = id.Name()
	}
	c.compileExpr(e.Target())
	c.at(e)
	pos := c.emit(op.LoadField, c.constant(object.NewString(e.Name())))
	if objName != "" {
		c.argNames = append(c.argNames, bytecode.ArgNameEntry{
			Start:   pos,
			End:     len(c.code),
			ObjName: objName,
		})
	}
}

func (c *Compiler) compileMatrix(e *ast.Matrix) {
	rows := e.Rows()
	if len(rows) == 0 {
		c.emit(op.BuildMatrix, 0, 0)
		c.depth++
		return
	}
	uniform := true
	for _, row := range rows[1:] {
		if len(row) != len(rows[0]) {
			uniform = false
			break
		}
	}
	if uniform {
		for _, row := range rows {
			for _, elem := range row {
				c.compileExpr(elem)
			}
		}
		c.at(e)
		c.emit(op.BuildMatrix, len(rows), len(rows[0]))
		c.depth += 1 - len(rows)*len(rows[0])
		return
	}
	total := 0
	for _, row := range rows {
		for _, elem := range row {
			c.compileExpr(elem)
		}
		c.at(e)
		c.emit(op.PushInt, len(row))
		c.depth++
		total += len(row) + 1
	}
	c.emit(op.BuildMatrixUneven, len(rows))
	c.depth += 1 - total
}

func (c *Compiler) compileCellLit(e *ast.CellLit) {
	for _, elem := range e.Elements() {
		if ci, ok := elem.(*ast.CellIndex); ok {
			// Spread the full list into the constructed cell.
			c.compileCellIndex(ci, op.NargoutAll)
			continue
		}
		c.compileExpr(elem)
	}
	c.at(e)
	c.emit(op.BuildCell, len(e.Elements()))
	c.depth += 1 - len(e.Elements())
}

// compileAnonFunc compiles the body as its own unit and emits the capture
// loads plus the closure constructor. Captures are copied by value at
// creation time.
func (c *Compiler) compileAnonFunc(e *ast.AnonFunc) {
	child := New(Config{File: c.cfg.File, Debug: c.cfg.Debug})
	for _, p := range e.Params() {
		child.slots.Slot(p)
	}
	for ord, name := range e.Captures() {
		child.captureOffsets[ord] = child.slots.Slot(name)
	}
	child.slots.collectIdentifiers(e.Body())
	resultSlot := child.slots.Slot("ans")

	child.at(e.Body())
	child.compileExpr(e.Body())
	child.emit(op.StoreSlot, resultSlot)
	child.depth--
	child.emit(op.Ret)

	if err := child.failures.ErrorOrNil(); err != nil {
		c.failures = multierror.Append(c.failures, err)
		c.emit(op.PushNil)
		c.depth++
		return
	}

	params := make([]int, 0, len(e.Params()))
	for _, p := range e.Params() {
		s, _ := child.slots.Lookup(p)
		params = append(params, s)
	}
	code := bytecode.New(bytecode.Spec{
		Name:         "<anonymous>",
		File:         c.cfg.File,
		Instructions: child.code,
		Constants:    child.constants,
		Identifiers:  child.slots.Names(),
		Params:       params,
		Outs:         []int{resultSlot},
		LocalCount:   child.slots.Count(),
		Unwind:       child.unwindData(),
	})
	ci := c.constant(object.NewFunction(code, nil))
	for _, name := range e.Captures() {
		c.emit(op.LoadSlot, c.slots.Slot(name))
		c.depth++
	}
	c.at(e)
	c.emit(op.MakeAnon, ci, len(e.Captures()))
	c.depth += 1 - len(e.Captures())
}
