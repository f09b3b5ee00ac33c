package rendergraph

import "reflect"

// ViewData is pre-created in every Scope and exposes the frame's
// render and viewport dimensions to pass bodies, per §4.2.
type ViewData struct {
	RenderWidth, RenderHeight     uint32
	ViewportWidth, ViewportHeight uint32
}

// typeTag keys a Scope's entries by the Go runtime type (reflect.Type)
// of the stored POD type; no separate integer discriminant is
// assigned. reflect.Type values are comparable and stable for the
// process lifetime, so a plain map keyed on them holds one entry per
// type.
type typeTag = reflect.Type

// Scope is a heterogeneous, type-keyed parameter bundle attached to
// each Pass. A declaration closure publishes virtual handles and
// constants into it; the matching execute closure reads them back
// without any external wiring between the two closures.
type Scope struct {
	data map[typeTag]interface{}
}

// newScope creates a Scope with its mandatory ViewData entry already present.
func newScope() *Scope {
	s := &Scope{data: make(map[typeTag]interface{})}
	Get[ViewData](s)
	return s
}

// Get returns a stable mutable pointer to the zero-initialised T
// stored in the scope, creating it on first access. T is expected to
// be a small, trivially-copiable parameter struct (a POD bundle); the
// scope does not attempt to deep-copy or validate T's shape.
func Get[T any](s *Scope) *T {
	var zero T
	tag := reflect.TypeOf(zero)
	if existing, ok := s.data[tag]; ok {
		return existing.(*T)
	}
	ptr := new(T)
	s.data[tag] = ptr
	return ptr
}
