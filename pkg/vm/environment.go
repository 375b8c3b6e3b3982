package vm

import "sort"

// Environment is the flat variable store of one Interpreter. There is no
// parent chain: a function body sees and writes the caller's bindings, and
// the call boundary undoes scalar changes with Snapshot and Restore.
type Environment struct {
	variables map[string]Value
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{variables: make(map[string]Value)}
}

// Get looks up a variable by exact name.
func (e *Environment) Get(name string) (Value, bool) {
	v, ok := e.variables[name]
	return v, ok
}

// Set creates or overwrites a binding.
func (e *Environment) Set(name string, v Value) {
	e.variables[name] = v
}

// Has reports whether name is bound.
func (e *Environment) Has(name string) bool {
	_, ok := e.variables[name]
	return ok
}

// Names returns the bound names in sorted order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.variables))
	for name := range e.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the number of bindings.
func (e *Environment) Size() int {
	return len(e.variables)
}

// Snapshot is a shallow copy of an environment's bindings. Array values are
// shared with the live environment.
type Snapshot map[string]Value

// Snapshot copies the current bindings.
func (e *Environment) Snapshot() Snapshot {
	snap := make(Snapshot, len(e.variables))
	for name, v := range e.variables {
		snap[name] = v
	}
	return snap
}

// Restore replaces every binding with the snapshot's. Names created after
// the snapshot was taken disappear.
func (e *Environment) Restore(snap Snapshot) {
	variables := make(map[string]Value, len(snap))
	for name, v := range snap {
		variables[name] = v
	}
	e.variables = variables
}
