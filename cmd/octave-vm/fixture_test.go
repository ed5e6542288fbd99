package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chbinousamy/octave"
	"github.com/chbinousamy/octave/ast"
	"github.com/chbinousamy/octave/object"
)

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFixtureAndRun(t *testing.T) {
	path := writeFixture(t, `{
		"name": "main",
		"outs": ["r"],
		"body": [
			{"kind": "assign", "line": 1,
			 "targets": [{"name": "x"}],
			 "expr": {"kind": "number", "line": 1, "value": 6}},
			{"kind": "assign", "line": 2,
			 "targets": [{"name": "r"}],
			 "expr": {"kind": "binary", "line": 2, "op": "*",
			          "x": {"kind": "ident", "line": 2, "name": "x"},
			          "y": {"kind": "number", "line": 2, "value": 7}}}
		]
	}`)

	fn, err := LoadFixture(path)
	require.NoError(t, err)
	require.Equal(t, "main", fn.Name())

	got, err := octave.NewEvaluator().Eval(context.Background(), fn, nil, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 42.0, got[0].(*object.Double).Value())
}

func TestLoadFixtureControlFlow(t *testing.T) {
	path := writeFixture(t, `{
		"name": "main",
		"outs": ["r"],
		"body": [
			{"kind": "assign", "targets": [{"name": "r"}],
			 "expr": {"kind": "number", "value": 0}},
			{"kind": "for", "var": "i",
			 "iter": {"kind": "colon",
			          "base": {"kind": "number", "value": 1},
			          "limit": {"kind": "number", "value": 4}},
			 "body": [
				{"kind": "assign", "targets": [{"name": "r"}],
				 "expr": {"kind": "binary", "op": "+",
				          "x": {"kind": "ident", "name": "r"},
				          "y": {"kind": "ident", "name": "i"}}}
			 ]}
		]
	}`)

	fn, err := LoadFixture(path)
	require.NoError(t, err)

	got, err := octave.NewEvaluator().Eval(context.Background(), fn, nil, 1)
	require.NoError(t, err)
	require.Equal(t, 10.0, got[0].(*object.Double).Value())
}

func TestLoadFixtureIndexedTarget(t *testing.T) {
	path := writeFixture(t, `{
		"body": [
			{"kind": "assign",
			 "targets": [{"name": "m", "kind": "index",
			              "args": [{"kind": "number", "value": 2},
			                       {"kind": "number", "value": 2}]}],
			 "expr": {"kind": "number", "value": 9}}
		]
	}`)

	fn, err := LoadFixture(path)
	require.NoError(t, err)
	stmts := fn.Body().Stmts()
	require.Len(t, stmts, 1)
	assign, ok := stmts[0].(*ast.Assign)
	require.True(t, ok)
	require.Equal(t, ast.LValueIndex, assign.Targets()[0].Kind)
	require.Len(t, assign.Targets()[0].Args, 2)
}

func TestLoadFixtureRejectsUnknownKind(t *testing.T) {
	path := writeFixture(t, `{"body": [{"kind": "goto"}]}`)
	_, err := LoadFixture(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown statement kind "goto"`)
}

func TestLoadFixtureMissingFile(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
