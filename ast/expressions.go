package ast

// Number is a numeric literal. All plain numbers are doubles.
type Number struct {
	pos   Pos
	value float64
}

func NewNumber(pos Pos, value float64) *Number { return &Number{pos: pos, value: value} }

func (n *Number) ExpressionNode() {}

func (n *Number) IsExpression() bool { return true }

func (n *Number) Pos() Pos { return n.pos }

func (n *Number) Value() float64 { return n.value }

// Str is a string literal.
type Str struct {
	pos   Pos
	value string
}

func NewStr(pos Pos, value string) *Str { return &Str{pos: pos, value: value} }

func (s *Str) ExpressionNode() {}

func (s *Str) IsExpression() bool { return true }

func (s *Str) Pos() Pos { return s.pos }

func (s *Str) Value() string { return s.value }

// Bool is a boolean literal.
type Bool struct {
	pos   Pos
	value bool
}

func NewBool(pos Pos, value bool) *Bool { return &Bool{pos: pos, value: value} }

func (b *Bool) ExpressionNode() {}

func (b *Bool) IsExpression() bool { return true }

func (b *Bool) Pos() Pos { return b.pos }

func (b *Bool) Value() bool { return b.value }

// Ident is a reference to an identifier.
type Ident struct {
	pos  Pos
	name string
}

func NewIdent(pos Pos, name string) *Ident { return &Ident{pos: pos, name: name} }

func (i *Ident) ExpressionNode() {}

func (i *Ident) IsExpression() bool { return true }

func (i *Ident) Pos() Pos { return i.pos }

func (i *Ident) Name() string { return i.name }

// Unary is a unary operator expression. Op is one of "-", "+", "!".
type Unary struct {
	pos     Pos
	op      string
	operand Expression
}

func NewUnary(pos Pos, op string, operand Expression) *Unary {
	return &Unary{pos: pos, op: op, operand: operand}
}

func (u *Unary) ExpressionNode() {}

func (u *Unary) IsExpression() bool { return true }

func (u *Unary) Pos() Pos { return u.pos }

func (u *Unary) Op() string { return u.op }

func (u *Unary) Operand() Expression { return u.operand }

// Postfix is a postfix increment or decrement: x++ or x--. The operand must
// be an identifier. The expression yields the value held before the update.
type Postfix struct {
	pos     Pos
	op      string
	operand *Ident
}

func NewPostfix(pos Pos, op string, operand *Ident) *Postfix {
	return &Postfix{pos: pos, op: op, operand: operand}
}

func (p *Postfix) ExpressionNode() {}

func (p *Postfix) IsExpression() bool { return true }

func (p *Postfix) Pos() Pos { return p.pos }

func (p *Postfix) Op() string { return p.op }

func (p *Postfix) Operand() *Ident { return p.operand }

// Binary is a binary operator expression. Op is one of the arithmetic,
// elementwise, comparison or short-circuit operator spellings.
type Binary struct {
	pos  Pos
	op   string
	x, y Expression
}

func NewBinary(pos Pos, op string, x, y Expression) *Binary {
	return &Binary{pos: pos, op: op, x: x, y: y}
}

func (b *Binary) ExpressionNode() {}

func (b *Binary) IsExpression() bool { return true }

func (b *Binary) Pos() Pos { return b.pos }

func (b *Binary) Op() string { return b.op }

func (b *Binary) X() Expression { return b.x }

func (b *Binary) Y() Expression { return b.y }

// Colon is a range expression base:limit or base:step:limit.
type Colon struct {
	pos   Pos
	base  Expression
	step  Expression // nil for two-part ranges
	limit Expression
}

func NewColon(pos Pos, base, step, limit Expression) *Colon {
	return &Colon{pos: pos, base: base, step: step, limit: limit}
}

func (c *Colon) ExpressionNode() {}

func (c *Colon) IsExpression() bool { return true }

func (c *Colon) Pos() Pos { return c.pos }

func (c *Colon) Base() Expression { return c.base }

func (c *Colon) Step() Expression { return c.step }

func (c *Colon) Limit() Expression { return c.limit }

// Index is a call or paren-index expression: target(args...). The language
// does not distinguish the two syntactically; the executor decides based on
// what the target holds at run time.
type Index struct {
	pos    Pos
	target Expression
	args   []Expression
}

func NewIndex(pos Pos, target Expression, args []Expression) *Index {
	return &Index{pos: pos, target: target, args: args}
}

func (i *Index) ExpressionNode() {}

func (i *Index) IsExpression() bool { return true }

func (i *Index) Pos() Pos { return i.pos }

func (i *Index) Target() Expression { return i.target }

func (i *Index) Args() []Expression { return i.args }

// CellIndex is a brace-index expression: target{args...}. Indexing with a
// colon or a multi-element subscript yields a comma-separated list.
type CellIndex struct {
	pos    Pos
	target Expression
	args   []Expression
}

func NewCellIndex(pos Pos, target Expression, args []Expression) *CellIndex {
	return &CellIndex{pos: pos, target: target, args: args}
}

func (c *CellIndex) ExpressionNode() {}

func (c *CellIndex) IsExpression() bool { return true }

func (c *CellIndex) Pos() Pos { return c.pos }

func (c *CellIndex) Target() Expression { return c.target }

func (c *CellIndex) Args() []Expression { return c.args }

// FieldAccess is a struct field read: x.name.
type FieldAccess struct {
	pos    Pos
	target Expression
	name   string
}

func NewFieldAccess(pos Pos, target Expression, name string) *FieldAccess {
	return &FieldAccess{pos: pos, target: target, name: name}
}

func (f *FieldAccess) ExpressionNode() {}

func (f *FieldAccess) IsExpression() bool { return true }

func (f *FieldAccess) Pos() Pos { return f.pos }

func (f *FieldAccess) Target() Expression { return f.target }

func (f *FieldAccess) Name() string { return f.name }

// Matrix is a matrix construction expression. Rows may have uneven lengths,
// in which case row contents are concatenated by the executor.
type Matrix struct {
	pos  Pos
	rows [][]Expression
}

func NewMatrix(pos Pos, rows [][]Expression) *Matrix { return &Matrix{pos: pos, rows: rows} }

func (m *Matrix) ExpressionNode() {}

func (m *Matrix) IsExpression() bool { return true }

func (m *Matrix) Pos() Pos { return m.pos }

func (m *Matrix) Rows() [][]Expression { return m.rows }

// CellLit is a cell-array construction expression.
type CellLit struct {
	pos      Pos
	elements []Expression
}

func NewCellLit(pos Pos, elements []Expression) *CellLit {
	return &CellLit{pos: pos, elements: elements}
}

func (c *CellLit) ExpressionNode() {}

func (c *CellLit) IsExpression() bool { return true }

func (c *CellLit) Pos() Pos { return c.pos }

func (c *CellLit) Elements() []Expression { return c.elements }

// AnonFunc is an anonymous function definition. Captures lists the names of
// enclosing-frame variables whose values are captured at creation time.
type AnonFunc struct {
	pos      Pos
	params   []string
	captures []string
	body     Expression
}

func NewAnonFunc(pos Pos, params, captures []string, body Expression) *AnonFunc {
	return &AnonFunc{pos: pos, params: params, captures: captures, body: body}
}

func (a *AnonFunc) ExpressionNode() {}

func (a *AnonFunc) IsExpression() bool { return true }

func (a *AnonFunc) Pos() Pos { return a.pos }

func (a *AnonFunc) Params() []string { return a.params }

func (a *AnonFunc) Captures() []string { return a.captures }

func (a *AnonFunc) Body() Expression { return a.body }
