// Package ast defines the syntax-tree node kinds consumed by the bytecode
// compiler. The front end that produces these trees lives outside this
// module; malformed trees are treated as defects of that front end.
package ast

// Pos is a position in the original source text.
type Pos struct {
	Line   int // 1-based line number
	Column int // 1-based column number
}

// IsZero returns true if the position has not been set.
func (p Pos) IsZero() bool {
	return p.Line == 0 && p.Column == 0
}

// Node is the interface implemented by every syntax-tree node.
type Node interface {
	// Pos returns the source position of the node.
	Pos() Pos

	// IsExpression returns true if the node is an expression.
	IsExpression() bool
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	ExpressionNode()
}

// Statement is a node that is executed for effect.
type Statement interface {
	Node
	StatementNode()
}
