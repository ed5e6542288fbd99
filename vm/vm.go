// Package vm executes compiled bytecode units on a stack machine. One
// Machine runs one execution at a time; all state that outlives a call lives
// in the explicitly-owned Registry.
package vm

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/chbinousamy/octave/bytecode"
	"github.com/chbinousamy/octave/errz"
	"github.com/chbinousamy/octave/object"
	"github.com/chbinousamy/octave/op"
)

// Machine executes bytecode. The zero Machine is not usable; construct with
// New.
type Machine struct {
	registry *Registry
	log      zerolog.Logger
	trace    bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithRegistry supplies a shared registry, letting several machines observe
// the same globals, persistents and builtins.
func WithRegistry(r *Registry) Option {
	return func(m *Machine) { m.registry = r }
}

// WithLogger enables per-instruction trace logging through the given logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Machine) {
		m.log = log
		m.trace = true
	}
}

// New creates a machine with a fresh registry unless one is supplied.
func New(opts ...Option) *Machine {
	m := &Machine{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = NewRegistry()
	}
	return m
}

// Registry returns the machine's registry.
func (m *Machine) Registry() *Registry { return m.registry }

// slotRef is one frame slot. Ordinary slots hold their value directly;
// global and persistent declarations rebind the slot to a shared box so all
// holders observe the same storage.
type slotRef struct {
	value object.Value
	ref   *object.Value
}

func (s *slotRef) get() object.Value {
	if s.ref != nil {
		return *s.ref
	}
	return s.value
}

func (s *slotRef) set(v object.Value) {
	if s.ref != nil {
		*s.ref = v
		return
	}
	s.value = v
}

// pendingCond is a condition held while an unwind-protect cleanup runs; it
// resumes propagating at the cleanup's ProtectEnd.
type pendingCond struct {
	entry int
	cond  *errz.Condition
}

type frame struct {
	code    *bytecode.Code
	ins     []byte
	slots   []slotRef
	stack   []element
	ip      int
	pending []pendingCond
}

func (f *frame) push(e element) { f.stack = append(f.stack, e) }

func (f *frame) pop() element {
	e := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return e
}

func (f *frame) popVal() object.Value { return f.pop().value() }

func (f *frame) peek() *element { return &f.stack[len(f.stack)-1] }

func (f *frame) trim(depth int) {
	if depth < len(f.stack) {
		f.stack = f.stack[:depth]
	}
}

// operand reads the next immediate, two bytes big-endian under a Wide
// prefix, one byte otherwise.
func (f *frame) operand(wide bool) int {
	if wide {
		v := int(f.ins[f.ip])<<8 | int(f.ins[f.ip+1])
		f.ip += 2
		return v
	}
	v := int(f.ins[f.ip])
	f.ip++
	return v
}

// popArgs pops n argument cells and splices comma-separated lists in place,
// so a spread argument contributes all of its values to the call.
func (f *frame) popArgs(n int) []object.Value {
	raw := make([]object.Value, n)
	for i := n - 1; i >= 0; i-- {
		raw[i] = f.popVal()
	}
	out := make([]object.Value, 0, n)
	for _, v := range raw {
		if l, ok := v.(*object.CsList); ok {
			out = append(out, l.Elements()...)
			continue
		}
		out = append(out, v)
	}
	return out
}

// Execute runs a compiled unit with the given arguments, requesting nargout
// results. The context cancels long-running executions at loop back-edges
// and call sites.
func (m *Machine) Execute(ctx context.Context, code *bytecode.Code, args []object.Value, nargout int) ([]object.Value, error) {
	return m.call(ctx, code, args, nil, nargout)
}

func (m *Machine) call(ctx context.Context, code *bytecode.Code, args, captures []object.Value, nargout int) ([]object.Value, error) {
	params := code.Params()
	if len(args) > len(params) {
		return nil, errz.NewExecutionError("Octave:invalid-fun-call",
			fmt.Sprintf("%s: function called with too many inputs", code.FunctionName()))
	}
	f := &frame{
		code:  code,
		ins:   code.Instructions(),
		slots: make([]slotRef, code.LocalCount()),
	}
	for i, a := range args {
		f.slots[params[i]].value = a
	}
	if u := code.Unwind(); u != nil && len(captures) > 0 {
		for ord, slot := range u.CaptureOffsets {
			if ord < len(captures) {
				f.slots[slot].value = captures[ord]
			}
		}
	}
	if err := m.run(ctx, f); err != nil {
		return nil, err
	}
	return m.collectOuts(f, nargout)
}

func (m *Machine) collectOuts(f *frame, nargout int) ([]object.Value, error) {
	if nargout == 0 {
		return nil, nil
	}
	outs := f.code.Outs()
	want := nargout
	if want == op.NargoutAll {
		want = len(outs)
	}
	if want > len(outs) {
		cond := errz.NewCondition(errz.InvalidNumTargets, f.ip).
			WithIdentifier(strconv.Itoa(len(outs) + 1))
		return nil, cond.Attach(f.code)
	}
	results := make([]object.Value, want)
	for i := 0; i < want; i++ {
		v := f.slots[outs[i]].get()
		if v == nil {
			cond := errz.NewCondition(errz.InvalidNumTargets, f.ip).
				WithIdentifier(strconv.Itoa(i + 1))
			return nil, cond.Attach(f.code)
		}
		results[i] = v
	}
	return results, nil
}

func (m *Machine) run(ctx context.Context, f *frame) error {
	for {
		if f.ip >= len(f.ins) {
			return nil
		}
		startIP := f.ip
		code := op.Code(f.ins[f.ip])
		wide := false
		if code == op.Wide {
			wide = true
			code = op.Code(f.ins[f.ip+1])
			f.ip += 2
		} else {
			f.ip++
		}
		if m.trace {
			m.log.Trace().
				Str("fn", f.code.FunctionName()).
				Int("ip", startIP).
				Str("op", op.GetInfo(code).Name).
				Int("depth", len(f.stack)).
				Msg("exec")
		}

		var err error
		switch code {

		case op.Nop:

		case op.Pop:
			f.pop()

		case op.PopN:
			f.trim(len(f.stack) - f.operand(wide))

		case op.Dup:
			f.push(*f.peek())

		case op.Rot:
			n := len(f.stack)
			f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]

		case op.LoadConst:
			f.push(boxedElem(f.code.Constant(f.operand(wide))))

		case op.PushNil:
			f.push(boxedElem(nil))

		case op.PushTrue:
			f.push(boxedElem(object.True))

		case op.PushFalse:
			f.push(boxedElem(object.False))

		case op.PushDbl0:
			f.push(doubleElem(0))

		case op.PushDbl1:
			f.push(doubleElem(1))

		case op.PushDbl2:
			f.push(doubleElem(2))

		case op.PushInt:
			f.push(intElem(f.operand(wide)))

		case op.Add, op.Sub, op.Mul, op.Div, op.Pow, op.ElemMul, op.ElemDiv,
			op.Le, op.LeEq, op.Gr, op.GrEq, op.Eq, op.Neq:
			err = m.binary(f, code)

		case op.AddDbl, op.SubDbl, op.MulDbl, op.DivDbl, op.PowDbl,
			op.LeDbl, op.LeEqDbl, op.GrDbl, op.GrEqDbl, op.EqDbl, op.NeqDbl:
			err = m.binarySpecialized(f, code)

		case op.Not:
			v, nerr := object.Not(f.popVal())
			if nerr != nil {
				err = nerr
				break
			}
			f.push(boxedElem(v))

		case op.USub:
			v, nerr := object.Negate(f.popVal())
			if nerr != nil {
				err = nerr
				break
			}
			f.push(boxedElem(v))

		case op.USubDbl:
			e := f.pop()
			if x, ok := e.double(); ok {
				f.push(doubleElem(-x))
				break
			}
			v, nerr := object.Negate(e.value())
			if nerr != nil {
				err = nerr
				break
			}
			f.push(boxedElem(v))

		case op.UAdd:
			e := *f.peek()
			if _, ok := e.double(); !ok {
				switch e.value().(type) {
				case *object.Matrix, *object.Range, *object.Bool:
				default:
					err = fmt.Errorf("unary operator '+' not implemented for %s", e.value().Type())
				}
			}

		case op.Jmp:
			target := f.operand(wide)
			if target <= startIP && ctx.Err() != nil {
				err = errz.NewCondition(errz.Interrupt, startIP)
				break
			}
			f.ip = target

		case op.JmpIf, op.JmpIfN:
			target := f.operand(wide)
			t, terr := m.truthy(f.pop())
			if terr != nil {
				err = terr
				break
			}
			if t == (code == op.JmpIf) {
				if target <= startIP && ctx.Err() != nil {
					err = errz.NewCondition(errz.Interrupt, startIP)
					break
				}
				f.ip = target
			}

		case op.JmpIfDef:
			target := f.operand(wide)
			if e := f.pop(); e.tag != elemBoxed || e.val != nil {
				f.ip = target
			}

		case op.JmpIfNCaseMatch:
			target := f.operand(wide)
			label := f.popVal()
			subject := f.peek().value()
			if !object.CaseMatch(subject, label) {
				f.ip = target
			}

		case op.ForSetup:
			iter := f.popVal()
			n, serr := object.IterLen(iter)
			if serr != nil {
				err = serr
				break
			}
			f.push(boxedElem(iter))
			f.push(intElem(n))
			f.push(intElem(0))

		case op.ForCond:
			slot := f.operand(wide)
			target := f.operand(wide)
			top := len(f.stack)
			counter := &f.stack[top-1]
			count := f.stack[top-2]
			iter := f.stack[top-3]
			if counter.i >= count.i {
				f.ip = target
				break
			}
			if ctx.Err() != nil {
				err = errz.NewCondition(errz.Interrupt, startIP)
				break
			}
			v, ierr := object.IterAt(iter.value(), counter.i)
			if ierr != nil {
				err = ierr
				break
			}
			f.slots[slot].set(v)
			counter.i++

		case op.LoadSlot, op.LoadSlotN, op.LoadCond:
			err = m.loadSlot(ctx, f, code, wide, startIP)

		case op.StoreSlot:
			slot := f.operand(wide)
			v := f.popVal()
			if v == nil {
				err = errz.NewCondition(errz.RHSUndefined, startIP)
				break
			}
			f.slots[slot].set(v)

		case op.ForceStore:
			f.slots[f.operand(wide)].set(f.popVal())

		case op.StoreCompound:
			slot := f.operand(wide)
			btype := op.BinaryOpType(f.operand(wide))
			rhs := f.popVal()
			cur := f.slots[slot].get()
			if cur == nil {
				err = errz.NewCondition(errz.IDUndefined, startIP).
					WithIdentifier(f.code.Identifier(slot))
				break
			}
			res, berr := object.BinaryOp(btype, cur, rhs)
			if berr != nil {
				err = berr
				break
			}
			f.slots[slot].set(res)

		case op.IndexSlot:
			err = m.indexSlot(ctx, f, wide, startIP)

		case op.IndexValue:
			args := f.popArgs(f.operand(wide))
			target := f.popVal()
			res, ierr := object.Index(target, args)
			if ierr != nil {
				err = errz.NewCondition(errz.IndexError, startIP).WithCause(ierr)
				break
			}
			f.push(boxedElem(res))

		case op.IndexCell:
			err = m.indexCell(f, wide, startIP)

		case op.Ret:
			return nil

		case op.IncrPrefix, op.DecrPrefix, op.IncrPostfix, op.DecrPostfix,
			op.IncrPrefixDbl, op.DecrPrefixDbl, op.IncrPostfixDbl, op.DecrPostfixDbl:
			err = m.incrDecr(f, code, wide, startIP)

		case op.BuildMatrix:
			rows := f.operand(wide)
			cols := f.operand(wide)
			err = m.buildMatrix(f, rows, cols)

		case op.BuildMatrixUneven:
			err = m.buildMatrixUneven(f, f.operand(wide))

		case op.BuildCell:
			f.push(boxedElem(object.NewCell(f.popArgs(f.operand(wide)))))

		case op.Range2, op.Range3:
			err = m.buildRange(f, code)

		case op.LoadField:
			name := f.code.Constant(f.operand(wide)).(*object.String).Value()
			target := f.popVal()
			st, ok := target.(*object.Struct)
			if !ok {
				err = fmt.Errorf("%s cannot be indexed with .", target.Type())
				break
			}
			v, ok := st.Field(name)
			if !ok {
				err = errz.NewCondition(errz.IndexError, startIP).
					WithCause(fmt.Errorf("invalid use of undefined field '%s'", name))
				break
			}
			f.push(boxedElem(v))

		case op.SubassignSlot, op.SubassignCell:
			slot := f.operand(wide)
			args := f.popArgs(f.operand(wide))
			rhs := f.popVal()
			cur := f.slots[slot].get()
			var res object.Value
			var aerr error
			if code == op.SubassignSlot {
				res, aerr = object.IndexAssign(cur, args, rhs)
			} else {
				res, aerr = object.CellAssign(cur, args, rhs)
			}
			if aerr != nil {
				err = errz.NewCondition(errz.IndexError, startIP).WithCause(aerr)
				break
			}
			f.slots[slot].set(res)

		case op.SubassignFld:
			slot := f.operand(wide)
			name := f.code.Constant(f.operand(wide)).(*object.String).Value()
			rhs := f.popVal()
			cur := f.slots[slot].get()
			if cur == nil {
				cur = object.NewStruct(nil)
			}
			st, ok := cur.(*object.Struct)
			if !ok {
				err = fmt.Errorf("%s cannot be indexed with .", cur.Type())
				break
			}
			f.slots[slot].set(st.WithField(name, rhs))

		case op.DeclareGlobal:
			slot := f.operand(wide)
			box := m.registry.Global(f.code.Identifier(slot))
			if *box == nil {
				// A newly declared global starts out as an empty matrix.
				*box = object.NewMatrix(0, 0, nil)
			}
			f.slots[slot] = slotRef{ref: box}

		case op.DeclarePersistent:
			slot := f.operand(wide)
			idx, ok := f.code.Unwind().SlotToPersistent[slot]
			if !ok {
				err = fmt.Errorf("no persistent storage recorded for '%s'", f.code.Identifier(slot))
				break
			}
			box := m.registry.Persistent(f.code.ID(), idx)
			if *box == nil {
				*box = object.NewMatrix(0, 0, nil)
			}
			f.slots[slot] = slotRef{ref: box}

		case op.MakeAnon:
			template := f.code.Constant(f.operand(wide)).(*object.Function)
			ncaps := f.operand(wide)
			caps := make([]object.Value, ncaps)
			for i := ncaps - 1; i >= 0; i-- {
				caps[i] = f.popVal()
			}
			f.push(boxedElem(object.NewFunction(template.Code(), caps)))

		case op.ProtectEnd:
			idx := f.operand(wide)
			if n := len(f.pending); n > 0 && f.pending[n-1].entry == idx {
				p := f.pending[n-1]
				f.pending = f.pending[:n-1]
				err = p.cond
			}

		case op.Disp:
			slot := f.operand(wide)
			m.registry.Display(f.code.Identifier(slot), f.popVal())

		case op.Debug:
			if m.trace {
				m.log.Debug().Int("ip", startIP).Int("depth", len(f.stack)).Msg("debug")
			}

		default:
			err = fmt.Errorf("invalid opcode %d at %d", code, startIP)
		}

		if err != nil {
			cond := toCondition(err, startIP)
			cond.Attach(f.code)
			if !m.unwindFrame(f, cond, startIP) {
				return cond
			}
		}
	}
}

func toCondition(err error, ip int) *errz.Condition {
	if c, ok := err.(*errz.Condition); ok {
		return c
	}
	return errz.NewCondition(errz.InvalidError, ip).WithCause(err)
}

// unwindFrame transfers control to the innermost handler guarding the raise
// address, trimming the operand stack to the handler's recorded depth. Loop
// entries only discard iteration state; the condition keeps propagating
// outward. It reports false when the frame has no handler left.
func (m *Machine) unwindFrame(f *frame, cond *errz.Condition, raiseIP int) bool {
	u := f.code.Unwind()
	if u == nil {
		return false
	}
	for idx := u.Innermost(raiseIP); idx >= 0; idx-- {
		e := &u.Entries[idx]
		if !e.Contains(raiseIP) {
			continue
		}
		switch e.Kind {
		case bytecode.KindLoop:
			f.trim(e.Depth)
			continue
		case bytecode.KindTryCatch:
			if !cond.Catchable() {
				continue
			}
			for n := len(f.pending); n > 0 && f.pending[n-1].entry > idx; n-- {
				f.pending = f.pending[:n-1]
			}
			f.trim(e.Depth)
			f.push(boxedElem(conditionValue(cond)))
			f.ip = e.Target
			return true
		case bytecode.KindUnwindProtect:
			f.trim(e.Depth)
			f.pending = append(f.pending, pendingCond{entry: idx, cond: cond})
			f.ip = e.Target
			return true
		}
	}
	return false
}

// conditionValue is the struct a catch clause receives.
func conditionValue(c *errz.Condition) object.Value {
	return object.NewStruct(map[string]object.Value{
		"message":    object.NewString(c.Error()),
		"identifier": object.NewString(c.Identifier()),
		"stack":      object.NewCell(nil),
	})
}

func binOpType(c op.Code) (op.BinaryOpType, bool) {
	switch c {
	case op.Add, op.AddDbl:
		return op.BinaryAdd, true
	case op.Sub, op.SubDbl:
		return op.BinarySub, true
	case op.Mul, op.MulDbl:
		return op.BinaryMul, true
	case op.Div, op.DivDbl:
		return op.BinaryDiv, true
	case op.Pow, op.PowDbl:
		return op.BinaryPow, true
	case op.ElemMul:
		return op.BinaryElemMul, true
	case op.ElemDiv:
		return op.BinaryElemDiv, true
	}
	return 0, false
}

func cmpOpType(c op.Code) (op.CompareOpType, bool) {
	switch c {
	case op.Le, op.LeDbl:
		return op.CompareLt, true
	case op.LeEq, op.LeEqDbl:
		return op.CompareLe, true
	case op.Gr, op.GrDbl:
		return op.CompareGt, true
	case op.GrEq, op.GrEqDbl:
		return op.CompareGe, true
	case op.Eq, op.EqDbl:
		return op.CompareEq, true
	case op.Neq, op.NeqDbl:
		return op.CompareNe, true
	}
	return 0, false
}

func (m *Machine) binary(f *frame, code op.Code) error {
	b := f.pop()
	a := f.pop()
	if bt, ok := binOpType(code); ok {
		res, err := object.BinaryOp(bt, a.value(), b.value())
		if err != nil {
			return err
		}
		f.push(boxedElem(res))
		return nil
	}
	ct, _ := cmpOpType(code)
	res, err := object.Compare(ct, a.value(), b.value())
	if err != nil {
		return err
	}
	f.push(boxedElem(res))
	return nil
}

// binarySpecialized runs the double-scalar fast path when the guard admits
// both operands, otherwise it performs the generic operation in place; the
// instruction is never redispatched.
func (m *Machine) binarySpecialized(f *frame, code op.Code) error {
	n := len(f.stack)
	x, okX := f.stack[n-2].double()
	y, okY := f.stack[n-1].double()
	if !okX || !okY {
		return m.binary(f, code)
	}
	f.stack = f.stack[:n-2]
	switch code {
	case op.AddDbl:
		f.push(doubleElem(x + y))
	case op.SubDbl:
		f.push(doubleElem(x - y))
	case op.MulDbl:
		f.push(doubleElem(x * y))
	case op.DivDbl:
		f.push(doubleElem(x / y))
	case op.PowDbl:
		f.push(doubleElem(math.Pow(x, y)))
	case op.LeDbl:
		f.push(boxedElem(object.NewBool(x < y)))
	case op.LeEqDbl:
		f.push(boxedElem(object.NewBool(x <= y)))
	case op.GrDbl:
		f.push(boxedElem(object.NewBool(x > y)))
	case op.GrEqDbl:
		f.push(boxedElem(object.NewBool(x >= y)))
	case op.EqDbl:
		f.push(boxedElem(object.NewBool(x == y)))
	case op.NeqDbl:
		f.push(boxedElem(object.NewBool(x != y)))
	}
	return nil
}

func (m *Machine) truthy(e element) (bool, error) {
	if x, ok := e.double(); ok {
		return x != 0, nil
	}
	return object.Truthy(e.value())
}

// loadSlot implements the slot-read family. A defined slot pushes its value;
// an undefined slot falls back to the builtin table, treating the bare name
// as a zero-argument call.
func (m *Machine) loadSlot(ctx context.Context, f *frame, code op.Code, wide bool, startIP int) error {
	slot := f.operand(wide)
	nargout := 1
	if code == op.LoadSlotN {
		nargout = f.operand(wide)
	}
	v := f.slots[slot].get()
	if v != nil {
		if nargout >= 1 {
			f.push(boxedElem(v))
		}
		return nil
	}
	name := f.code.Identifier(slot)
	if code == op.LoadCond {
		return errz.NewCondition(errz.IDUndefinedConditional, startIP).WithIdentifier(name)
	}
	if b, ok := m.registry.Builtin(name); ok {
		if ctx.Err() != nil {
			return errz.NewCondition(errz.Interrupt, startIP)
		}
		results, err := b.Call(nil, nargout)
		if err != nil {
			return err
		}
		return m.pushResults(f, results, nargout, startIP)
	}
	return errz.NewCondition(errz.IDUndefined, startIP).WithIdentifier(name)
}

// pushResults pushes call results per the requested nargout: none for 0, a
// spliceable list for NargoutAll, and exactly nargout values otherwise.
func (m *Machine) pushResults(f *frame, results []object.Value, nargout int, startIP int) error {
	switch nargout {
	case 0:
		return nil
	case op.NargoutAll:
		f.push(boxedElem(object.NewCsList(results)))
		return nil
	}
	for i := 0; i < nargout; i++ {
		if i >= len(results) || results[i] == nil {
			return errz.NewCondition(errz.InvalidNumTargets, startIP).
				WithIdentifier(strconv.Itoa(i + 1))
		}
		f.push(boxedElem(results[i]))
	}
	return nil
}

// indexSlot is the call-or-index instruction. What the slot holds decides
// the behavior at run time: a function value is called, any other defined
// value is indexed, and an undefined slot resolves through the builtin
// table.
func (m *Machine) indexSlot(ctx context.Context, f *frame, wide bool, startIP int) error {
	slot := f.operand(wide)
	nargs := f.operand(wide)
	nargout := f.operand(wide)
	args := f.popArgs(nargs)
	v := f.slots[slot].get()

	switch v := v.(type) {
	case nil:
		name := f.code.Identifier(slot)
		b, ok := m.registry.Builtin(name)
		if !ok {
			return errz.NewCondition(errz.IDUndefined, startIP).WithIdentifier(name)
		}
		if ctx.Err() != nil {
			return errz.NewCondition(errz.Interrupt, startIP)
		}
		results, err := b.Call(args, effectiveNargout(nargout))
		if err != nil {
			return err
		}
		return m.pushResults(f, results, nargout, startIP)

	case *object.Function:
		if ctx.Err() != nil {
			return errz.NewCondition(errz.Interrupt, startIP)
		}
		callee, ok := v.Code().(*bytecode.Code)
		if !ok {
			return fmt.Errorf("cannot execute foreign compiled code")
		}
		results, err := m.call(ctx, callee, args, v.Captures(), nargout)
		if err != nil {
			return err
		}
		return m.pushResults(f, results, nargout, startIP)

	case *object.Builtin:
		if ctx.Err() != nil {
			return errz.NewCondition(errz.Interrupt, startIP)
		}
		results, err := v.Call(args, effectiveNargout(nargout))
		if err != nil {
			return err
		}
		return m.pushResults(f, results, nargout, startIP)

	default:
		if nargout > 1 && nargout != op.NargoutAll {
			return errz.NewCondition(errz.InvalidNumTargets, startIP).WithIdentifier("2")
		}
		res, err := object.Index(v, args)
		if err != nil {
			return errz.NewCondition(errz.IndexError, startIP).WithCause(err)
		}
		if nargout == 0 {
			return nil
		}
		f.push(boxedElem(res))
		return nil
	}
}

// effectiveNargout maps the spread-all marker to a single primary result for
// builtins, which have no result list of statically known length.
func effectiveNargout(nargout int) int {
	if nargout == op.NargoutAll {
		return 1
	}
	return nargout
}

func (m *Machine) indexCell(f *frame, wide bool, startIP int) error {
	slot := f.operand(wide)
	nargs := f.operand(wide)
	nargout := f.operand(wide)
	args := f.popArgs(nargs)
	v := f.slots[slot].get()
	if v == nil {
		return errz.NewCondition(errz.IDUndefined, startIP).
			WithIdentifier(f.code.Identifier(slot))
	}
	vals, err := object.CellContent(v, args)
	if err != nil {
		return errz.NewCondition(errz.IndexError, startIP).WithCause(err)
	}
	return m.pushResults(f, vals, nargout, startIP)
}

func (m *Machine) incrDecr(f *frame, code op.Code, wide bool, startIP int) error {
	slot := f.operand(wide)
	cur := f.slots[slot].get()
	if cur == nil {
		return errz.NewCondition(errz.IDUndefined, startIP).
			WithIdentifier(f.code.Identifier(slot))
	}
	delta := 1.0
	switch code {
	case op.DecrPrefix, op.DecrPostfix, op.DecrPrefixDbl, op.DecrPostfixDbl:
		delta = -1.0
	}
	postfix := false
	switch code {
	case op.IncrPostfix, op.DecrPostfix, op.IncrPostfixDbl, op.DecrPostfixDbl:
		postfix = true
	}
	var next object.Value
	if d, ok := cur.(*object.Double); ok {
		next = object.NewDouble(d.Value() + delta)
	} else {
		var err error
		next, err = object.BinaryOp(op.BinaryAdd, cur, object.NewDouble(delta))
		if err != nil {
			return err
		}
	}
	f.slots[slot].set(next)
	if postfix {
		f.push(boxedElem(cur))
	} else {
		f.push(boxedElem(next))
	}
	return nil
}

func (m *Machine) buildMatrix(f *frame, rows, cols int) error {
	if rows == 0 || cols == 0 {
		f.push(boxedElem(object.NewMatrix(0, 0, nil)))
		return nil
	}
	n := rows * cols
	cells := f.stack[len(f.stack)-n:]
	rowVals := make([]object.Value, rows)
	for r := 0; r < rows; r++ {
		pieces := make([]object.Value, cols)
		for c := 0; c < cols; c++ {
			pieces[c] = cells[r*cols+c].value()
		}
		v, err := object.HorzCat(pieces)
		if err != nil {
			return err
		}
		rowVals[r] = v
	}
	res, err := object.VertCat(rowVals)
	if err != nil {
		return err
	}
	f.trim(len(f.stack) - n)
	f.push(boxedElem(res))
	return nil
}

func (m *Machine) buildMatrixUneven(f *frame, rows int) error {
	rowVals := make([]object.Value, rows)
	for r := rows - 1; r >= 0; r-- {
		count := f.pop()
		if count.tag != elemInt {
			return fmt.Errorf("corrupt matrix row count")
		}
		pieces := make([]object.Value, count.i)
		for i := count.i - 1; i >= 0; i-- {
			pieces[i] = f.popVal()
		}
		v, err := object.HorzCat(pieces)
		if err != nil {
			return err
		}
		rowVals[r] = v
	}
	res, err := object.VertCat(rowVals)
	if err != nil {
		return err
	}
	f.push(boxedElem(res))
	return nil
}

func (m *Machine) buildRange(f *frame, code op.Code) error {
	step := 1.0
	limitE := f.pop()
	var baseE element
	if code == op.Range3 {
		stepE := f.pop()
		baseE = f.pop()
		s, ok := stepE.double()
		if !ok {
			return fmt.Errorf("range step must be a numeric scalar")
		}
		step = s
	} else {
		baseE = f.pop()
	}
	limit, okL := limitE.double()
	base, okB := baseE.double()
	if !okL || !okB {
		return fmt.Errorf("range bounds must be numeric scalars")
	}
	f.push(boxedElem(object.NewRange(base, step, limit)))
	return nil
}
