package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chbinousamy/octave/ast"
)

// fixtureNode is the JSON shape shared by every statement and expression in
// a fixture. Kind selects which of the remaining fields apply.
type fixtureNode struct {
	Kind   string `json:"kind"`
	Line   int    `json:"line"`
	Column int    `json:"column"`

	Value float64  `json:"value"`
	Text  string   `json:"text"`
	Name  string   `json:"name"`
	Flag  bool     `json:"flag"`
	Op    string   `json:"op"`
	Names []string `json:"names"`

	X      *fixtureNode   `json:"x"`
	Y      *fixtureNode   `json:"y"`
	Target *fixtureNode   `json:"target"`
	Args   []*fixtureNode `json:"args"`

	Base  *fixtureNode `json:"base"`
	Step  *fixtureNode `json:"step"`
	Limit *fixtureNode `json:"limit"`

	Rows     [][]*fixtureNode `json:"rows"`
	Elements []*fixtureNode   `json:"elements"`

	Params   []string     `json:"params"`
	Captures []string     `json:"captures"`
	Expr     *fixtureNode `json:"expr"`

	Targets   []fixtureLValue `json:"targets"`
	Displayed bool            `json:"displayed"`
	Force     bool            `json:"force"`

	Conds  []*fixtureNode   `json:"conds"`
	Blocks [][]*fixtureNode `json:"blocks"`
	Else   []*fixtureNode   `json:"else"`

	Var  string         `json:"var"`
	Iter *fixtureNode   `json:"iter"`
	Body []*fixtureNode `json:"body"`

	Subject *fixtureNode  `json:"subject"`
	Cases   []fixtureCase `json:"cases"`

	CatchVar  string         `json:"catch_var"`
	CatchBody []*fixtureNode `json:"catch_body"`
	Cleanup   []*fixtureNode `json:"cleanup"`

	Field string `json:"field"`
}

type fixtureLValue struct {
	Name  string         `json:"name"`
	Kind  string         `json:"kind"`
	Args  []*fixtureNode `json:"args"`
	Field string         `json:"field"`
}

type fixtureCase struct {
	Label *fixtureNode   `json:"label"`
	Body  []*fixtureNode `json:"body"`
}

type fixtureFunc struct {
	Name   string         `json:"name"`
	File   string         `json:"file"`
	Params []string       `json:"params"`
	Outs   []string       `json:"outs"`
	Body   []*fixtureNode `json:"body"`
}

// LoadFixture reads a JSON function fixture and builds its syntax tree.
func LoadFixture(path string) (*ast.FuncDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixture fixtureFunc
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file := fixture.File
	if file == "" {
		file = path
	}
	body, err := buildBlock(fixture.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ast.NewFuncDef(ast.Pos{Line: 1, Column: 1},
		fixture.Name, file, fixture.Params, fixture.Outs, body), nil
}

func (n *fixtureNode) pos() ast.Pos {
	line, col := n.Line, n.Column
	if line == 0 {
		line = 1
	}
	if col == 0 {
		col = 1
	}
	return ast.Pos{Line: line, Column: col}
}

func buildBlock(nodes []*fixtureNode) (*ast.Block, error) {
	stmts := make([]ast.Statement, 0, len(nodes))
	pos := ast.Pos{Line: 1, Column: 1}
	for i, n := range nodes {
		stmt, err := buildStatement(n)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			pos = n.pos()
		}
		stmts = append(stmts, stmt)
	}
	return ast.NewBlock(pos, stmts), nil
}

func buildStatement(n *fixtureNode) (ast.Statement, error) {
	if n == nil {
		return nil, fmt.Errorf("missing statement node")
	}
	switch n.Kind {
	case "expr":
		expr, err := buildExpression(n.Expr)
		if err != nil {
			return nil, err
		}
		return ast.NewExprStmt(n.pos(), expr, n.Displayed), nil
	case "assign":
		targets, err := buildLValues(n.Targets)
		if err != nil {
			return nil, err
		}
		value, err := buildExpression(n.Expr)
		if err != nil {
			return nil, err
		}
		op := n.Op
		if op == "" {
			op = "="
		}
		var stmt *ast.Assign
		if n.Force {
			stmt = ast.NewForceAssign(n.pos(), targets, value)
		} else {
			stmt = ast.NewAssign(n.pos(), targets, op, value)
		}
		if n.Displayed {
			stmt.MarkDisplayed()
		}
		return stmt, nil
	case "if":
		if len(n.Conds) != len(n.Blocks) {
			return nil, fmt.Errorf("if: %d conditions but %d blocks", len(n.Conds), len(n.Blocks))
		}
		conds := make([]ast.Expression, len(n.Conds))
		blocks := make([]*ast.Block, len(n.Blocks))
		for i := range n.Conds {
			cond, err := buildExpression(n.Conds[i])
			if err != nil {
				return nil, err
			}
			block, err := buildBlock(n.Blocks[i])
			if err != nil {
				return nil, err
			}
			conds[i], blocks[i] = cond, block
		}
		var alternative *ast.Block
		if n.Else != nil {
			var err error
			if alternative, err = buildBlock(n.Else); err != nil {
				return nil, err
			}
		}
		return ast.NewIf(n.pos(), conds, blocks, alternative), nil
	case "while":
		cond, err := buildExpression(n.Expr)
		if err != nil {
			return nil, err
		}
		body, err := buildBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return ast.NewWhile(n.pos(), cond, body), nil
	case "for":
		iter, err := buildExpression(n.Iter)
		if err != nil {
			return nil, err
		}
		body, err := buildBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return ast.NewFor(n.pos(), n.Var, iter, body), nil
	case "switch":
		subject, err := buildExpression(n.Subject)
		if err != nil {
			return nil, err
		}
		cases := make([]ast.SwitchCase, len(n.Cases))
		for i, c := range n.Cases {
			label, err := buildExpression(c.Label)
			if err != nil {
				return nil, err
			}
			body, err := buildBlock(c.Body)
			if err != nil {
				return nil, err
			}
			cases[i] = ast.SwitchCase{Label: label, Body: body}
		}
		var deflt *ast.Block
		if n.Else != nil {
			if deflt, err = buildBlock(n.Else); err != nil {
				return nil, err
			}
		}
		return ast.NewSwitch(n.pos(), subject, cases, deflt), nil
	case "try":
		body, err := buildBlock(n.Body)
		if err != nil {
			return nil, err
		}
		catchBody, err := buildBlock(n.CatchBody)
		if err != nil {
			return nil, err
		}
		return ast.NewTryCatch(n.pos(), body, n.CatchVar, catchBody), nil
	case "unwind_protect":
		body, err := buildBlock(n.Body)
		if err != nil {
			return nil, err
		}
		cleanup, err := buildBlock(n.Cleanup)
		if err != nil {
			return nil, err
		}
		return ast.NewUnwindProtect(n.pos(), body, cleanup), nil
	case "break":
		return ast.NewBreak(n.pos()), nil
	case "continue":
		return ast.NewContinue(n.pos()), nil
	case "return":
		return ast.NewReturn(n.pos()), nil
	case "global":
		return ast.NewGlobal(n.pos(), n.Names), nil
	case "persistent":
		return ast.NewPersistent(n.pos(), n.Names), nil
	}
	return nil, fmt.Errorf("unknown statement kind %q", n.Kind)
}

func buildLValues(targets []fixtureLValue) ([]ast.LValue, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("assign: no targets")
	}
	out := make([]ast.LValue, len(targets))
	for i, t := range targets {
		lv := ast.LValue{Name: t.Name, Field: t.Field}
		switch t.Kind {
		case "", "plain":
			lv.Kind = ast.LValuePlain
		case "index":
			lv.Kind = ast.LValueIndex
		case "cell":
			lv.Kind = ast.LValueCell
		case "field":
			lv.Kind = ast.LValueField
		default:
			return nil, fmt.Errorf("unknown target kind %q", t.Kind)
		}
		args, err := buildExpressions(t.Args)
		if err != nil {
			return nil, err
		}
		lv.Args = args
		out[i] = lv
	}
	return out, nil
}

func buildExpressions(nodes []*fixtureNode) ([]ast.Expression, error) {
	if nodes == nil {
		return nil, nil
	}
	out := make([]ast.Expression, len(nodes))
	for i, n := range nodes {
		expr, err := buildExpression(n)
		if err != nil {
			return nil, err
		}
		out[i] = expr
	}
	return out, nil
}

func buildExpression(n *fixtureNode) (ast.Expression, error) {
	if n == nil {
		return nil, fmt.Errorf("missing expression node")
	}
	switch n.Kind {
	case "number":
		return ast.NewNumber(n.pos(), n.Value), nil
	case "string":
		return ast.NewStr(n.pos(), n.Text), nil
	case "bool":
		return ast.NewBool(n.pos(), n.Flag), nil
	case "ident":
		return ast.NewIdent(n.pos(), n.Name), nil
	case "unary":
		operand, err := buildExpression(n.X)
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(n.pos(), n.Op, operand), nil
	case "postfix":
		operand, err := buildExpression(n.X)
		if err != nil {
			return nil, err
		}
		ident, ok := operand.(*ast.Ident)
		if !ok {
			return nil, fmt.Errorf("postfix %q requires an identifier operand", n.Op)
		}
		return ast.NewPostfix(n.pos(), n.Op, ident), nil
	case "binary":
		x, err := buildExpression(n.X)
		if err != nil {
			return nil, err
		}
		y, err := buildExpression(n.Y)
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(n.pos(), n.Op, x, y), nil
	case "colon":
		var base, step, limit ast.Expression
		var err error
		if n.Base != nil {
			if base, err = buildExpression(n.Base); err != nil {
				return nil, err
			}
		}
		if n.Step != nil {
			if step, err = buildExpression(n.Step); err != nil {
				return nil, err
			}
		}
		if n.Limit != nil {
			if limit, err = buildExpression(n.Limit); err != nil {
				return nil, err
			}
		}
		return ast.NewColon(n.pos(), base, step, limit), nil
	case "index":
		target, err := buildExpression(n.Target)
		if err != nil {
			return nil, err
		}
		args, err := buildExpressions(n.Args)
		if err != nil {
			return nil, err
		}
		return ast.NewIndex(n.pos(), target, args), nil
	case "cellindex":
		target, err := buildExpression(n.Target)
		if err != nil {
			return nil, err
		}
		args, err := buildExpressions(n.Args)
		if err != nil {
			return nil, err
		}
		return ast.NewCellIndex(n.pos(), target, args), nil
	case "field":
		target, err := buildExpression(n.Target)
		if err != nil {
			return nil, err
		}
		return ast.NewFieldAccess(n.pos(), target, n.Field), nil
	case "matrix":
		rows := make([][]ast.Expression, len(n.Rows))
		for i, row := range n.Rows {
			exprs, err := buildExpressions(row)
			if err != nil {
				return nil, err
			}
			rows[i] = exprs
		}
		return ast.NewMatrix(n.pos(), rows), nil
	case "cell":
		elements, err := buildExpressions(n.Elements)
		if err != nil {
			return nil, err
		}
		return ast.NewCellLit(n.pos(), elements), nil
	case "anon":
		body, err := buildExpression(n.Expr)
		if err != nil {
			return nil, err
		}
		return ast.NewAnonFunc(n.pos(), n.Params, n.Captures, body), nil
	}
	return nil, fmt.Errorf("unknown expression kind %q", n.Kind)
}
