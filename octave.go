// Package octave evaluates function and script bodies by compiling them to
// bytecode and executing them on a stack machine. The package-level API
// wires together the compiler, the executor and the registry; the selection
// of an execution strategy per function is pluggable.
package octave

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chbinousamy/octave/ast"
	"github.com/chbinousamy/octave/bytecode"
	"github.com/chbinousamy/octave/compiler"
	"github.com/chbinousamy/octave/object"
	"github.com/chbinousamy/octave/vm"
)

// Evaluator executes a function body with the given arguments, producing
// nargout results.
type Evaluator interface {
	Eval(ctx context.Context, fn *ast.FuncDef, args []object.Value, nargout int) ([]object.Value, error)

	// Invalidate drops any cached compilation for the function, forcing a
	// fresh compile on next use. Persistent variables keyed to the stale
	// compilation are released.
	Invalidate(fn *ast.FuncDef)
}

// Selector chooses the evaluator for a function. Injecting a selector lets a
// host mix execution strategies, for example routing functions under debug
// to a different evaluator.
type Selector interface {
	Choose(fn *ast.FuncDef) Evaluator
}

// Option configures an evaluator.
type Option func(*BytecodeEvaluator)

// WithDisplay enables echoing of unterminated statement results.
func WithDisplay() Option {
	return func(e *BytecodeEvaluator) { e.cfg.Display = true }
}

// WithDebug records per-instruction syntax tree nodes for debugger support.
func WithDebug() Option {
	return func(e *BytecodeEvaluator) { e.cfg.Debug = true }
}

// WithRegistry supplies a shared registry for globals, persistents and
// builtins.
func WithRegistry(r *vm.Registry) Option {
	return func(e *BytecodeEvaluator) { e.registry = r }
}

// WithTraceLogger enables per-instruction trace logging.
func WithTraceLogger(log zerolog.Logger) Option {
	return func(e *BytecodeEvaluator) {
		e.log = &log
	}
}

// BytecodeEvaluator compiles function bodies on first use and caches the
// compiled unit per syntax tree. The cache preserves unit identity across
// calls, which is what keeps persistent variables alive between invocations.
type BytecodeEvaluator struct {
	mu       sync.Mutex
	cache    map[*ast.FuncDef]*bytecode.Code
	cfg      compiler.Config
	registry *vm.Registry
	machine  *vm.Machine
	log      *zerolog.Logger
}

// NewEvaluator creates a bytecode evaluator.
func NewEvaluator(opts ...Option) *BytecodeEvaluator {
	e := &BytecodeEvaluator{cache: map[*ast.FuncDef]*bytecode.Code{}}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = vm.NewRegistry()
	}
	mopts := []vm.Option{vm.WithRegistry(e.registry)}
	if e.log != nil {
		mopts = append(mopts, vm.WithLogger(*e.log))
	}
	e.machine = vm.New(mopts...)
	return e
}

// Registry returns the evaluator's registry.
func (e *BytecodeEvaluator) Registry() *vm.Registry { return e.registry }

// Compile returns the compiled unit for a function, compiling and caching it
// on first use.
func (e *BytecodeEvaluator) Compile(fn *ast.FuncDef) (*bytecode.Code, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.cache[fn]; ok {
		return code, nil
	}
	code, err := compiler.Compile(fn, e.cfg)
	if err != nil {
		return nil, err
	}
	e.cache[fn] = code
	return code, nil
}

// Eval compiles the function if needed and executes it.
func (e *BytecodeEvaluator) Eval(ctx context.Context, fn *ast.FuncDef, args []object.Value, nargout int) ([]object.Value, error) {
	code, err := e.Compile(fn)
	if err != nil {
		return nil, err
	}
	return e.machine.Execute(ctx, code, args, nargout)
}

// Invalidate drops the cached compilation and releases its persistent state.
func (e *BytecodeEvaluator) Invalidate(fn *ast.FuncDef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.cache[fn]; ok {
		e.registry.ClearPersistents(code.ID())
		delete(e.cache, fn)
	}
}

// bytecodeAlways is the default selector: every function runs on the
// bytecode evaluator.
type bytecodeAlways struct {
	ev Evaluator
}

func (s bytecodeAlways) Choose(fn *ast.FuncDef) Evaluator { return s.ev }

// Interpreter routes each evaluated function through a selector.
type Interpreter struct {
	selector Selector
}

// NewInterpreter creates an interpreter. With a nil selector every function
// runs on a fresh bytecode evaluator configured by opts.
func NewInterpreter(selector Selector, opts ...Option) *Interpreter {
	if selector == nil {
		selector = bytecodeAlways{ev: NewEvaluator(opts...)}
	}
	return &Interpreter{selector: selector}
}

// Run evaluates a function body with the given arguments.
func (i *Interpreter) Run(ctx context.Context, fn *ast.FuncDef, args []object.Value, nargout int) ([]object.Value, error) {
	return i.selector.Choose(fn).Eval(ctx, fn, args, nargout)
}
