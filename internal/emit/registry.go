package emit

import (
	"slices"
	"sort"

	"atomikgen/internal/namespace"
)

// Registry maps target names to emitters. It is not safe for concurrent
// mutation; build it before generating.
type Registry struct {
	emitters map[string]Emitter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{emitters: make(map[string]Emitter)}
}

// DefaultRegistry returns a new registry holding every built-in emitter.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(namespace.Python, EmitterFunc(EmitPython))
	r.Register(namespace.Rust, EmitterFunc(EmitRust))
	r.Register(namespace.C, EmitterFunc(EmitC))
	r.Register(namespace.JavaScript, EmitterFunc(EmitJavaScript))
	r.Register(namespace.Go, EmitterFunc(EmitGo))
	r.Register(namespace.Verilog, EmitterFunc(EmitVerilog))

	return r
}

// Register adds or replaces the emitter for target.
func (r *Registry) Register(target string, e Emitter) {
	r.emitters[target] = e
}

// Get returns the emitter for target.
func (r *Registry) Get(target string) (Emitter, bool) {
	e, ok := r.emitters[target]

	return e, ok
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	return len(r.emitters)
}

// Targets returns the registered target names: built-in targets in
// canonical order, then any others sorted.
func (r *Registry) Targets() []string {
	var known, extra []string

	for _, t := range namespace.Targets() {
		if _, ok := r.emitters[t]; ok {
			known = append(known, t)
		}
	}

	for t := range r.emitters {
		if !slices.Contains(known, t) {
			extra = append(extra, t)
		}
	}

	sort.Strings(extra)

	return append(known, extra...)
}
