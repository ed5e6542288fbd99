package compiler

import "github.com/chbinousamy/octave/ast"

// slotTable allocates one dense frame slot per distinct identifier in a
// compiled unit. Slot order follows declaration order: inputs, outputs, then
// every other identifier in encounter order, which keeps compilation
// deterministic.
type slotTable struct {
	slots map[string]int
	names []string
}

func newSlotTable() *slotTable {
	return &slotTable{slots: map[string]int{}}
}

// Slot returns the slot for a name, allocating one on first use.
func (t *slotTable) Slot(name string) int {
	if s, ok := t.slots[name]; ok {
		return s
	}
	s := len(t.names)
	t.slots[name] = s
	t.names = append(t.names, name)
	return s
}

// Lookup returns the slot for a name without allocating.
func (t *slotTable) Lookup(name string) (int, bool) {
	s, ok := t.slots[name]
	return s, ok
}

func (t *slotTable) Count() int { return len(t.names) }

func (t *slotTable) Names() []string { return t.names }

// collectIdentifiers walks a tree and allocates slots for every identifier
// it mentions, so the frame layout is fixed before code generation starts.
func (t *slotTable) collectIdentifiers(node ast.Node) {
	switch node := node.(type) {
	case *ast.Ident:
		t.Slot(node.Name())
	case *ast.Unary:
		t.collectIdentifiers(node.Operand())
	case *ast.Postfix:
		t.Slot(node.Operand().Name())
	case *ast.Binary:
		t.collectIdentifiers(node.X())
		t.collectIdentifiers(node.Y())
	case *ast.Colon:
		if node.Base() != nil {
			t.collectIdentifiers(node.Base())
		}
		if node.Step() != nil {
			t.collectIdentifiers(node.Step())
		}
		if node.Limit() != nil {
			t.collectIdentifiers(node.Limit())
		}
	case *ast.Index:
		t.collectIdentifiers(node.Target())
		for _, a := range node.Args() {
			t.collectIdentifiers(a)
		}
	case *ast.CellIndex:
		t.collectIdentifiers(node.Target())
		for _, a := range node.Args() {
			t.collectIdentifiers(a)
		}
	case *ast.FieldAccess:
		t.collectIdentifiers(node.Target())
	case *ast.Matrix:
		for _, row := range node.Rows() {
			for _, e := range row {
				t.collectIdentifiers(e)
			}
		}
	case *ast.CellLit:
		for _, e := range node.Elements() {
			t.collectIdentifiers(e)
		}
	case *ast.AnonFunc:
		// Captures live in the enclosing frame; the anonymous body gets its
		// own frame and table.
		for _, name := range node.Captures() {
			t.Slot(name)
		}
	case *ast.ExprStmt:
		t.collectIdentifiers(node.Expr())
	case *ast.Assign:
		for _, lv := range node.Targets() {
			t.Slot(lv.Name)
			for _, a := range lv.Args {
				t.collectIdentifiers(a)
			}
		}
		t.collectIdentifiers(node.Value())
	case *ast.Block:
		for _, s := range node.Stmts() {
			t.collectIdentifiers(s)
		}
	case *ast.If:
		for _, c := range node.Conds() {
			t.collectIdentifiers(c)
		}
		for _, b := range node.Blocks() {
			t.collectIdentifiers(b)
		}
		if node.Alternative() != nil {
			t.collectIdentifiers(node.Alternative())
		}
	case *ast.While:
		t.collectIdentifiers(node.Cond())
		t.collectIdentifiers(node.Body())
	case *ast.For:
		t.Slot(node.VarName())
		t.collectIdentifiers(node.Iter())
		t.collectIdentifiers(node.Body())
	case *ast.Switch:
		t.collectIdentifiers(node.Subject())
		for _, cse := range node.Cases() {
			t.collectIdentifiers(cse.Label)
			t.collectIdentifiers(cse.Body)
		}
		if node.Default() != nil {
			t.collectIdentifiers(node.Default())
		}
	case *ast.TryCatch:
		t.collectIdentifiers(node.Body())
		if node.CatchVar() != "" {
			t.Slot(node.CatchVar())
		}
		t.collectIdentifiers(node.CatchBody())
	case *ast.UnwindProtect:
		t.collectIdentifiers(node.Body())
		t.collectIdentifiers(node.Cleanup())
	case *ast.Global:
		for _, n := range node.Names() {
			t.Slot(n)
		}
	case *ast.Persistent:
		for _, n := range node.Names() {
			t.Slot(n)
		}
	}
}
