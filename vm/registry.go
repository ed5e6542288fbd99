package vm

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/chbinousamy/octave/object"
)

// persistKey identifies one persistent variable: the compiled unit it belongs
// to plus the variable's index within that unit. Recompiling a unit yields a
// new identity, so stale persistent state never leaks into new code.
type persistKey struct {
	id    uuid.UUID
	index int
}

// Registry holds all state that outlives a single execution: global
// variables, persistent variables, the builtin function table and the
// display writer. It is explicitly owned; nothing in this package reaches
// for process-wide state.
type Registry struct {
	mu          sync.RWMutex
	globals     map[string]*object.Value
	persistents map[persistKey]*object.Value
	builtins    map[string]*object.Builtin
	out         io.Writer
}

// NewRegistry creates a registry with the default builtin table, writing
// display output to stdout.
func NewRegistry() *Registry {
	r := &Registry{
		globals:     map[string]*object.Value{},
		persistents: map[persistKey]*object.Value{},
		builtins:    map[string]*object.Builtin{},
		out:         os.Stdout,
	}
	for _, b := range defaultBuiltins(r) {
		r.builtins[b.Name()] = b
	}
	return r
}

// SetOutput redirects display output.
func (r *Registry) SetOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = w
}

// Output returns the display writer.
func (r *Registry) Output() io.Writer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.out
}

// Global returns the storage box for a named global, creating an undefined
// one on first use. Frames that declare the global bind their slot to the
// box, so all declaring frames observe each other's stores.
func (r *Registry) Global(name string) *object.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	box, ok := r.globals[name]
	if !ok {
		box = new(object.Value)
		r.globals[name] = box
	}
	return box
}

// GlobalValue reads a global's current value. ok is false when the global
// was never declared or holds no value yet.
func (r *Registry) GlobalValue(name string) (object.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	box, ok := r.globals[name]
	if !ok || *box == nil {
		return nil, false
	}
	return *box, true
}

// ClearGlobal removes a global binding entirely.
func (r *Registry) ClearGlobal(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.globals, name)
}

// Persistent returns the storage box for a persistent variable of the given
// compiled unit, creating an undefined one on first use.
func (r *Registry) Persistent(id uuid.UUID, index int) *object.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := persistKey{id: id, index: index}
	box, ok := r.persistents[key]
	if !ok {
		box = new(object.Value)
		r.persistents[key] = box
	}
	return box
}

// ClearPersistents drops all persistent state belonging to a compiled unit.
func (r *Registry) ClearPersistents(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.persistents {
		if key.id == id {
			delete(r.persistents, key)
		}
	}
}

// RegisterBuiltin installs or replaces a builtin function.
func (r *Registry) RegisterBuiltin(b *object.Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name()] = b
}

// Builtin looks up a builtin by name.
func (r *Registry) Builtin(name string) (*object.Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	return b, ok
}

// Display writes one "name = value" line to the display writer.
func (r *Registry) Display(name string, v object.Value) {
	fmt.Fprintf(r.Output(), "%s = %s\n", name, v.Inspect())
}
