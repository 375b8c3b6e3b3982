package vm

import "strings"

// Array is a mutable, shared sequence of values. Every binding that holds
// the same *Array sees the same elements, which is what lets array
// mutations survive a function call while scalar bindings are restored.
type Array struct {
	elements []Value
}

// NewArray creates an Array holding the given elements.
func NewArray(elements ...Value) *Array {
	a := &Array{elements: make([]Value, len(elements))}
	copy(a.elements, elements)
	return a
}

// Len returns the current number of elements.
func (a *Array) Len() int {
	return len(a.elements)
}

// Get returns the element at index. The second result is false when the
// index is out of range.
func (a *Array) Get(index int) (Value, bool) {
	if index < 0 || index >= len(a.elements) {
		return None, false
	}
	return a.elements[index], true
}

// Set replaces the element at index. Arrays never grow through Set; the
// result is false when index is out of range.
func (a *Array) Set(index int, v Value) bool {
	if index < 0 || index >= len(a.elements) {
		return false
	}
	a.elements[index] = v
	return true
}

// Push appends values and returns the new length.
func (a *Array) Push(values ...Value) int {
	a.elements = append(a.elements, values...)
	return len(a.elements)
}

// Pop removes and returns the last element, or None when the array is empty.
func (a *Array) Pop() Value {
	n := len(a.elements)
	if n == 0 {
		return None
	}
	last := a.elements[n-1]
	a.elements[n-1] = nil
	a.elements = a.elements[:n-1]
	return last
}

// Join renders each element with Display and joins them with sep.
func (a *Array) Join(sep string) string {
	parts := make([]string, len(a.elements))
	for i, elem := range a.elements {
		parts[i] = Display(elem)
	}
	return strings.Join(parts, sep)
}

// Elements returns a copy of the elements.
func (a *Array) Elements() []Value {
	result := make([]Value, len(a.elements))
	copy(result, a.elements)
	return result
}
