package vm

import (
	"fmt"
	"math"
	"strings"

	"github.com/chbinousamy/octave/errz"
	"github.com/chbinousamy/octave/object"
)

// defaultBuiltins returns the builtin function table. Builtins that produce
// display output close over the registry so output redirection applies to
// them too.
func defaultBuiltins(r *Registry) []*object.Builtin {
	return []*object.Builtin{
		object.NewBuiltin("error", builtinError),
		object.NewBuiltin("exit", builtinExit),
		object.NewBuiltin("quit", builtinExit),
		object.NewBuiltin("disp", func(args []object.Value, nargout int) ([]object.Value, error) {
			for _, a := range args {
				if s, ok := a.(*object.String); ok {
					fmt.Fprintln(r.Output(), s.Value())
					continue
				}
				fmt.Fprintln(r.Output(), a.Inspect())
			}
			return nil, nil
		}),
		object.NewBuiltin("printf", func(args []object.Value, nargout int) ([]object.Value, error) {
			s, err := formatValues(args)
			if err != nil {
				return nil, err
			}
			fmt.Fprint(r.Output(), s)
			return nil, nil
		}),
		object.NewBuiltin("sprintf", func(args []object.Value, nargout int) ([]object.Value, error) {
			s, err := formatValues(args)
			if err != nil {
				return nil, err
			}
			return []object.Value{object.NewString(s)}, nil
		}),
		object.NewBuiltin("numel", builtinNumel),
		object.NewBuiltin("length", builtinLength),
		object.NewBuiltin("size", builtinSize),
		object.NewBuiltin("zeros", fillBuiltin(0)),
		object.NewBuiltin("ones", fillBuiltin(1)),
		object.NewBuiltin("isempty", builtinIsEmpty),
		object.NewBuiltin("class", builtinClass),
		object.NewBuiltin("strcmp", builtinStrcmp),
		object.NewBuiltin("num2str", builtinNum2Str),
		object.NewBuiltin("abs", mathBuiltin(math.Abs)),
		object.NewBuiltin("sqrt", mathBuiltin(math.Sqrt)),
		object.NewBuiltin("floor", mathBuiltin(math.Floor)),
		object.NewBuiltin("ceil", mathBuiltin(math.Ceil)),
		object.NewBuiltin("round", mathBuiltin(math.Round)),
		object.NewBuiltin("mod", builtinMod),
	}
}

// builtinError raises a condition. With an identifier of the form "pkg:id"
// as the first argument, the remaining arguments form the message; otherwise
// the first argument is the message template itself.
func builtinError(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) == 0 {
		return nil, errz.NewExecutionError("", "unspecified error")
	}
	first, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("error: first argument must be a string")
	}
	id := ""
	rest := args
	if strings.Contains(first.Value(), ":") && !strings.ContainsAny(first.Value(), " %") && len(args) > 1 {
		id = first.Value()
		rest = args[1:]
	}
	msg, err := formatValues(rest)
	if err != nil {
		return nil, err
	}
	return nil, errz.NewExecutionError(id, msg)
}

// builtinExit requests termination of the running unit. The condition is not
// catchable, so it unwinds every frame back to the host; unwind-protect
// cleanups still run on the way out. An optional numeric status argument is
// accepted for call-site compatibility.
func builtinExit(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("exit: expected at most one argument")
	}
	if len(args) == 1 {
		if _, ok := numericArg(args[0]); !ok {
			return nil, fmt.Errorf("exit: numeric argument expected")
		}
	}
	return nil, errz.NewCondition(errz.ExitException, -1)
}

// formatValues renders a printf-style template. The language's %d verb
// accepts doubles, so numeric arguments convert per verb.
func formatValues(args []object.Value) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("format string expected")
	}
	tmpl, ok := args[0].(*object.String)
	if !ok {
		return "", fmt.Errorf("format string expected, got %s", args[0].Type())
	}
	format := tmpl.Value()
	rest := args[1:]
	var sb strings.Builder
	arg := 0
	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' {
			if ch == '\\' && i+1 < len(format) && format[i+1] == 'n' {
				sb.WriteByte('\n')
				i++
				continue
			}
			sb.WriteByte(ch)
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			sb.WriteByte('%')
			i++
			continue
		}
		// Scan the verb, passing flags and widths through.
		j := i + 1
		for j < len(format) && strings.ContainsRune("+-# 0123456789.", rune(format[j])) {
			j++
		}
		if j >= len(format) {
			return "", fmt.Errorf("incomplete format specifier")
		}
		verb := format[j]
		spec := format[i : j+1]
		if arg >= len(rest) {
			return "", fmt.Errorf("not enough arguments for format %q", format)
		}
		v := rest[arg]
		arg++
		switch verb {
		case 'd', 'i':
			x, ok := numericArg(v)
			if !ok {
				return "", fmt.Errorf("numeric argument expected for %%%c", verb)
			}
			fmt.Fprintf(&sb, format[i:j]+"d", int(x))
		case 'f', 'g', 'e':
			x, ok := numericArg(v)
			if !ok {
				return "", fmt.Errorf("numeric argument expected for %%%c", verb)
			}
			fmt.Fprintf(&sb, spec, x)
		case 's':
			if s, ok := v.(*object.String); ok {
				fmt.Fprintf(&sb, spec, s.Value())
			} else {
				fmt.Fprintf(&sb, spec, v.Inspect())
			}
		default:
			return "", fmt.Errorf("unsupported format verb %%%c", verb)
		}
		i = j
	}
	return sb.String(), nil
}

func numericArg(v object.Value) (float64, bool) {
	switch v := v.(type) {
	case *object.Double:
		return v.Value(), true
	case *object.Bool:
		if v.Value() {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func builtinNumel(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("numel: expected one argument")
	}
	n, err := valueNumel(args[0])
	if err != nil {
		return nil, err
	}
	return []object.Value{object.NewDouble(float64(n))}, nil
}

func valueNumel(v object.Value) (int, error) {
	switch v := v.(type) {
	case *object.Double, *object.Bool:
		return 1, nil
	case *object.String:
		return len(v.Value()), nil
	case *object.Matrix:
		return v.Len(), nil
	case *object.Range:
		return v.Len(), nil
	case *object.Cell:
		return v.Len(), nil
	}
	return 0, fmt.Errorf("wrong type argument %s", v.Type())
}

func builtinLength(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("length: expected one argument")
	}
	if m, ok := args[0].(*object.Matrix); ok {
		n := m.Rows()
		if m.Cols() > n {
			n = m.Cols()
		}
		if m.Len() == 0 {
			n = 0
		}
		return []object.Value{object.NewDouble(float64(n))}, nil
	}
	return builtinNumel(args, nargout)
}

func builtinSize(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("size: expected one argument")
	}
	rows, cols := 1, 1
	switch v := args[0].(type) {
	case *object.Matrix:
		rows, cols = v.Rows(), v.Cols()
	case *object.Range:
		rows, cols = 1, v.Len()
	case *object.String:
		rows, cols = 1, len(v.Value())
	case *object.Cell:
		rows, cols = 1, v.Len()
	}
	if nargout >= 2 {
		return []object.Value{object.NewDouble(float64(rows)), object.NewDouble(float64(cols))}, nil
	}
	return []object.Value{object.NewRowVector([]float64{float64(rows), float64(cols)})}, nil
}

func fillBuiltin(fill float64) object.BuiltinFunc {
	return func(args []object.Value, nargout int) ([]object.Value, error) {
		rows, cols := 1, 1
		switch len(args) {
		case 0:
		case 1:
			n, ok := numericArg(args[0])
			if !ok {
				return nil, fmt.Errorf("dimension must be numeric")
			}
			rows, cols = int(n), int(n)
		case 2:
			r, ok1 := numericArg(args[0])
			c, ok2 := numericArg(args[1])
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("dimensions must be numeric")
			}
			rows, cols = int(r), int(c)
		default:
			return nil, fmt.Errorf("expected at most two dimensions")
		}
		if rows < 0 || cols < 0 {
			rows, cols = 0, 0
		}
		data := make([]float64, rows*cols)
		if fill != 0 {
			for i := range data {
				data[i] = fill
			}
		}
		if rows == 1 && cols == 1 {
			return []object.Value{object.NewDouble(fill)}, nil
		}
		return []object.Value{object.NewMatrix(rows, cols, data)}, nil
	}
}

func builtinIsEmpty(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("isempty: expected one argument")
	}
	n, err := valueNumel(args[0])
	if err != nil {
		return nil, err
	}
	return []object.Value{object.NewBool(n == 0)}, nil
}

func builtinClass(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("class: expected one argument")
	}
	name := string(args[0].Type())
	switch args[0].Type() {
	case object.MATRIX, object.RANGE, object.BOOL:
		name = string(object.DOUBLE)
	case object.STRING:
		name = "char"
	case object.FUNCTION, object.BUILTIN:
		name = "function_handle"
	}
	return []object.Value{object.NewString(name)}, nil
}

func builtinStrcmp(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("strcmp: expected two arguments")
	}
	a, okA := args[0].(*object.String)
	b, okB := args[1].(*object.String)
	return []object.Value{object.NewBool(okA && okB && a.Value() == b.Value())}, nil
}

func builtinNum2Str(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("num2str: expected one argument")
	}
	x, ok := numericArg(args[0])
	if !ok {
		return nil, fmt.Errorf("num2str: numeric argument expected")
	}
	return []object.Value{object.NewString(fmt.Sprintf("%g", x))}, nil
}

func mathBuiltin(fn func(float64) float64) object.BuiltinFunc {
	return func(args []object.Value, nargout int) ([]object.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected one argument")
		}
		switch v := args[0].(type) {
		case *object.Double:
			return []object.Value{object.NewDouble(fn(v.Value()))}, nil
		case *object.Bool:
			x, _ := numericArg(v)
			return []object.Value{object.NewDouble(fn(x))}, nil
		case *object.Range:
			return mathApply(fn, v.ToMatrix()), nil
		case *object.Matrix:
			return mathApply(fn, v), nil
		}
		return nil, fmt.Errorf("numeric argument expected, got %s", args[0].Type())
	}
}

func mathApply(fn func(float64) float64, m *object.Matrix) []object.Value {
	data := make([]float64, m.Len())
	for i := range data {
		data[i] = fn(m.At(i))
	}
	return []object.Value{object.NewMatrix(m.Rows(), m.Cols(), data)}
}

func builtinMod(args []object.Value, nargout int) ([]object.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("mod: expected two arguments")
	}
	x, okX := numericArg(args[0])
	y, okY := numericArg(args[1])
	if !okX || !okY {
		return nil, fmt.Errorf("mod: numeric arguments expected")
	}
	if y == 0 {
		return []object.Value{object.NewDouble(x)}, nil
	}
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return []object.Value{object.NewDouble(r)}, nil
}
