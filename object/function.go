package object

import "fmt"

// CompiledCode is the interface the executor's bytecode type satisfies. It is
// declared here, rather than importing the bytecode package, because compiled
// function values live in that package's constant pool.
type CompiledCode interface {
	FunctionName() string
}

// Function is a compiled function or anonymous-function handle. Captured
// values are copied at creation time and mapped into the callee frame through
// the code's captured-variable offset table.
type Function struct {
	code     CompiledCode
	captures []Value
}

func NewFunction(code CompiledCode, captures []Value) *Function {
	return &Function{code: code, captures: captures}
}

func (f *Function) Type() Type { return FUNCTION }

func (f *Function) Code() CompiledCode { return f.code }

func (f *Function) Captures() []Value { return f.captures }

func (f *Function) Inspect() string {
	name := f.code.FunctionName()
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("@%s", name)
}

// BuiltinFunc is the signature of a native builtin. The nargout argument is
// the caller's requested result count.
type BuiltinFunc func(args []Value, nargout int) ([]Value, error)

// Builtin is a function implemented natively.
type Builtin struct {
	name string
	fn   BuiltinFunc
}

func NewBuiltin(name string, fn BuiltinFunc) *Builtin {
	return &Builtin{name: name, fn: fn}
}

func (b *Builtin) Type() Type { return BUILTIN }

func (b *Builtin) Name() string { return b.name }

func (b *Builtin) Call(args []Value, nargout int) ([]Value, error) {
	return b.fn(args, nargout)
}

func (b *Builtin) Inspect() string { return fmt.Sprintf("@%s", b.name) }
