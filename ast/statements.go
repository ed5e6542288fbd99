package ast

// ExprStmt is an expression evaluated as a statement. If Displayed is true,
// the statement was not terminated with a semicolon and its result should be
// shown when display mode is active.
type ExprStmt struct {
	pos       Pos
	expr      Expression
	displayed bool
}

func NewExprStmt(pos Pos, expr Expression, displayed bool) *ExprStmt {
	return &ExprStmt{pos: pos, expr: expr, displayed: displayed}
}

func (s *ExprStmt) StatementNode() {}

func (s *ExprStmt) IsExpression() bool { return false }

func (s *ExprStmt) Pos() Pos { return s.pos }

func (s *ExprStmt) Expr() Expression { return s.expr }

func (s *ExprStmt) Displayed() bool { return s.displayed }

// LValueKind describes the form of an assignment target.
type LValueKind int

const (
	// LValuePlain is a bare identifier target.
	LValuePlain LValueKind = iota
	// LValueIndex is a paren-indexed target: a(args...).
	LValueIndex
	// LValueCell is a brace-indexed target: a{args...}.
	LValueCell
	// LValueField is a struct field target: a.name.
	LValueField
)

// LValue is a single assignment target.
type LValue struct {
	Name  string
	Kind  LValueKind
	Args  []Expression // index arguments for LValueIndex/LValueCell
	Field string       // field name for LValueField
}

// Assign is an assignment statement with one or more targets. Op is "=" for
// plain assignment or a compound spelling such as "+=". Force marks an
// assignment that accepts an undefined right-hand side.
type Assign struct {
	pos       Pos
	targets   []LValue
	op        string
	value     Expression
	force     bool
	displayed bool
}

func NewAssign(pos Pos, targets []LValue, op string, value Expression) *Assign {
	return &Assign{pos: pos, targets: targets, op: op, value: value}
}

// NewForceAssign returns an assignment that accepts an undefined right-hand
// side, leaving the target undefined instead of raising an error.
func NewForceAssign(pos Pos, targets []LValue, value Expression) *Assign {
	return &Assign{pos: pos, targets: targets, op: "=", value: value, force: true}
}

func (a *Assign) StatementNode() {}

func (a *Assign) IsExpression() bool { return false }

func (a *Assign) Pos() Pos { return a.pos }

func (a *Assign) Targets() []LValue { return a.targets }

func (a *Assign) Op() string { return a.op }

func (a *Assign) Value() Expression { return a.value }

func (a *Assign) Force() bool { return a.force }

func (a *Assign) Displayed() bool { return a.displayed }

// MarkDisplayed marks the assignment as unterminated by a semicolon, so that
// display mode shows the assigned value.
func (a *Assign) MarkDisplayed() *Assign {
	a.displayed = true
	return a
}

// Block is a sequence of statements.
type Block struct {
	pos   Pos
	stmts []Statement
}

func NewBlock(pos Pos, stmts []Statement) *Block { return &Block{pos: pos, stmts: stmts} }

func (b *Block) StatementNode() {}

func (b *Block) IsExpression() bool { return false }

func (b *Block) Pos() Pos { return b.pos }

func (b *Block) Stmts() []Statement { return b.stmts }

// If is an if/elseif/else chain. Conds and Blocks are parallel; Alternative
// may be nil.
type If struct {
	pos         Pos
	conds       []Expression
	blocks      []*Block
	alternative *Block
}

func NewIf(pos Pos, conds []Expression, blocks []*Block, alternative *Block) *If {
	return &If{pos: pos, conds: conds, blocks: blocks, alternative: alternative}
}

func (i *If) StatementNode() {}

func (i *If) IsExpression() bool { return false }

func (i *If) Pos() Pos { return i.pos }

func (i *If) Conds() []Expression { return i.conds }

func (i *If) Blocks() []*Block { return i.blocks }

func (i *If) Alternative() *Block { return i.alternative }

// While is a while loop.
type While struct {
	pos  Pos
	cond Expression
	body *Block
}

func NewWhile(pos Pos, cond Expression, body *Block) *While {
	return &While{pos: pos, cond: cond, body: body}
}

func (w *While) StatementNode() {}

func (w *While) IsExpression() bool { return false }

func (w *While) Pos() Pos { return w.pos }

func (w *While) Cond() Expression { return w.cond }

func (w *While) Body() *Block { return w.body }

// For is a for loop iterating a range, matrix or cell expression.
type For struct {
	pos     Pos
	varName string
	iter    Expression
	body    *Block
}

func NewFor(pos Pos, varName string, iter Expression, body *Block) *For {
	return &For{pos: pos, varName: varName, iter: iter, body: body}
}

func (f *For) StatementNode() {}

func (f *For) IsExpression() bool { return false }

func (f *For) Pos() Pos { return f.pos }

func (f *For) VarName() string { return f.varName }

func (f *For) Iter() Expression { return f.iter }

func (f *For) Body() *Block { return f.body }

// SwitchCase is one case of a switch statement. A cell-array label matches if
// any of its elements match.
type SwitchCase struct {
	Label Expression
	Body  *Block
}

// Switch is a switch statement.
type Switch struct {
	pos        Pos
	subject    Expression
	cases      []SwitchCase
	defaultCse *Block
}

func NewSwitch(pos Pos, subject Expression, cases []SwitchCase, defaultCase *Block) *Switch {
	return &Switch{pos: pos, subject: subject, cases: cases, defaultCse: defaultCase}
}

func (s *Switch) StatementNode() {}

func (s *Switch) IsExpression() bool { return false }

func (s *Switch) Pos() Pos { return s.pos }

func (s *Switch) Subject() Expression { return s.subject }

func (s *Switch) Cases() []SwitchCase { return s.cases }

func (s *Switch) Default() *Block { return s.defaultCse }

// TryCatch is a try/catch statement. CatchVar names the variable bound to the
// caught condition; it is empty when the catch clause declares none.
type TryCatch struct {
	pos       Pos
	body      *Block
	catchVar  string
	catchBody *Block
}

func NewTryCatch(pos Pos, body *Block, catchVar string, catchBody *Block) *TryCatch {
	return &TryCatch{pos: pos, body: body, catchVar: catchVar, catchBody: catchBody}
}

func (t *TryCatch) StatementNode() {}

func (t *TryCatch) IsExpression() bool { return false }

func (t *TryCatch) Pos() Pos { return t.pos }

func (t *TryCatch) Body() *Block { return t.body }

func (t *TryCatch) CatchVar() string { return t.catchVar }

func (t *TryCatch) CatchBody() *Block { return t.catchBody }

// UnwindProtect is an unwind_protect statement. Cleanup runs on every exit of
// the guarded body, successful or not.
type UnwindProtect struct {
	pos     Pos
	body    *Block
	cleanup *Block
}

func NewUnwindProtect(pos Pos, body, cleanup *Block) *UnwindProtect {
	return &UnwindProtect{pos: pos, body: body, cleanup: cleanup}
}

func (u *UnwindProtect) StatementNode() {}

func (u *UnwindProtect) IsExpression() bool { return false }

func (u *UnwindProtect) Pos() Pos { return u.pos }

func (u *UnwindProtect) Body() *Block { return u.body }

func (u *UnwindProtect) Cleanup() *Block { return u.cleanup }

// Break is a break statement.
type Break struct {
	pos Pos
}

func NewBreak(pos Pos) *Break { return &Break{pos: pos} }

func (b *Break) StatementNode() {}

func (b *Break) IsExpression() bool { return false }

func (b *Break) Pos() Pos { return b.pos }

// Continue is a continue statement.
type Continue struct {
	pos Pos
}

func NewContinue(pos Pos) *Continue { return &Continue{pos: pos} }

func (c *Continue) StatementNode() {}

func (c *Continue) IsExpression() bool { return false }

func (c *Continue) Pos() Pos { return c.pos }

// Return is a return statement. Return values are taken from the function's
// declared output variables.
type Return struct {
	pos Pos
}

func NewReturn(pos Pos) *Return { return &Return{pos: pos} }

func (r *Return) StatementNode() {}

func (r *Return) IsExpression() bool { return false }

func (r *Return) Pos() Pos { return r.pos }

// Global declares names as process-scoped variables.
type Global struct {
	pos   Pos
	names []string
}

func NewGlobal(pos Pos, names []string) *Global { return &Global{pos: pos, names: names} }

func (g *Global) StatementNode() {}

func (g *Global) IsExpression() bool { return false }

func (g *Global) Pos() Pos { return g.pos }

func (g *Global) Names() []string { return g.names }

// Persistent declares names as variables that outlive the call frame, keyed
// to the function's identity.
type Persistent struct {
	pos   Pos
	names []string
}

func NewPersistent(pos Pos, names []string) *Persistent {
	return &Persistent{pos: pos, names: names}
}

func (p *Persistent) StatementNode() {}

func (p *Persistent) IsExpression() bool { return false }

func (p *Persistent) Pos() Pos { return p.pos }

func (p *Persistent) Names() []string { return p.names }

// FuncDef is a function or script body definition, the unit of compilation.
// Scripts use an empty name and no declared parameters.
type FuncDef struct {
	pos    Pos
	name   string
	file   string
	params []string
	outs   []string
	body   *Block
}

func NewFuncDef(pos Pos, name, file string, params, outs []string, body *Block) *FuncDef {
	return &FuncDef{pos: pos, name: name, file: file, params: params, outs: outs, body: body}
}

func (f *FuncDef) IsExpression() bool { return false }

func (f *FuncDef) Pos() Pos { return f.pos }

func (f *FuncDef) Name() string { return f.name }

func (f *FuncDef) File() string { return f.file }

func (f *FuncDef) Params() []string { return f.params }

func (f *FuncDef) Outs() []string { return f.outs }

func (f *FuncDef) Body() *Block { return f.body }
