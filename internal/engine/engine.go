package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"atomikgen/internal/config"
	"atomikgen/internal/diagnostic"
	"atomikgen/internal/emit"
	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

// Diagnostic codes for schemas that never reach validation.
const (
	CodeReadFailed  = "read_failed"
	CodeParseFailed = "parse_failed"
)

var (
	// ErrNoSchema is returned by operations that need a loaded, valid schema.
	ErrNoSchema = errors.New("no schema loaded")
	// ErrInvalidSchema is returned when a schema fails validation.
	ErrInvalidSchema = errors.New("schema validation failed")
	// ErrNoEmitters is returned by Generate when the registry is empty.
	ErrNoEmitters = errors.New("no generators registered")
	// ErrUnknownTarget is returned when none of the requested targets is registered.
	ErrUnknownTarget = errors.New("none of the requested targets are registered")
	// ErrNamespaceConflict is returned when two schemas map to the same output subtree.
	ErrNamespaceConflict = errors.New("duplicate namespace")
)

// Engine runs the pipeline for one schema: load, map names, emit, write.
// An Engine is disposable and not safe for concurrent use; create one per
// schema.
type Engine struct {
	cfg      config.Config
	log      *slog.Logger
	registry *emit.Registry

	source string
	schema *schema.Schema
	ns     *namespace.Mapping
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRegistry replaces the default registry of built-in emitters.
func WithRegistry(r *emit.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// New creates an Engine with every built-in emitter registered.
func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		log:      slog.New(slog.DiscardHandler),
		registry: emit.DefaultRegistry(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// LoadSchema reads, parses and validates the schema at path. The schema is
// kept only when it has no errors; the diagnostics are returned either way.
// The error is non-nil only when the file cannot be read or parsed; the
// diagnostics then hold a single KindIO or KindStructural error saying which.
func (e *Engine) LoadSchema(path string) (*diagnostic.Diagnostics, error) {
	e.schema, e.ns, e.source = nil, nil, path

	doc, err := schema.LoadFile(path)
	if err != nil {
		diags := &diagnostic.Diagnostics{}

		var pe *fs.PathError
		if errors.As(err, &pe) {
			diags.AddError(diagnostic.KindIO, CodeReadFailed, err.Error(), "")
		} else {
			diags.AddError(diagnostic.KindStructural, CodeParseFailed, err.Error(), "")
		}

		diags.SetSchema(path)

		return diags, err
	}

	s, diags := schema.Compile(doc)
	if !e.cfg.Validate {
		diags.Warnings, diags.Infos = nil, nil
	}

	e.log.Debug("schema loaded", "schema", path, "verdict", diags.String())

	if s == nil {
		return diags, nil
	}

	e.schema = s

	return diags, nil
}

// Schema returns the loaded schema, or nil.
func (e *Engine) Schema() *schema.Schema {
	return e.schema
}

// ExtractMetadata derives the namespace mapping of the loaded schema.
func (e *Engine) ExtractMetadata() (*namespace.Mapping, error) {
	if e.schema == nil {
		return nil, ErrNoSchema
	}

	if e.ns != nil {
		return e.ns, nil
	}

	ns, err := namespace.Map(e.schema.Path())
	if err != nil {
		return nil, fmt.Errorf("mapping namespace: %w", err)
	}

	e.ns = ns
	e.log.Debug("namespace extracted", "namespace", e.schema.Path().String())

	return ns, nil
}

// RegisterGenerator adds or replaces the emitter for target.
func (e *Engine) RegisterGenerator(target string, em emit.Emitter) {
	e.registry.Register(target, em)
	e.log.Debug("generator registered", "target", target)
}

// Targets returns the registered target names.
func (e *Engine) Targets() []string {
	return e.registry.Targets()
}

// Generate runs the emitter of each requested target, or of every
// registered target when none are given. Unregistered targets are skipped;
// if none remain ErrUnknownTarget is returned. A failing or panicking
// emitter yields a failed Result for its target only.
func (e *Engine) Generate(targets ...string) (map[string]*emit.Result, error) {
	if e.schema == nil {
		return nil, ErrNoSchema
	}

	ns, err := e.ExtractMetadata()
	if err != nil {
		return nil, err
	}

	if e.registry.Len() == 0 {
		return nil, ErrNoEmitters
	}

	selected, err := e.selectTargets(targets)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*emit.Result, len(selected))

	for _, target := range selected {
		em, _ := e.registry.Get(target)

		res := e.emitOne(target, em, ns)
		if res.Success {
			e.log.Debug("target generated", "target", target, "files", len(res.Files))
		} else {
			e.log.Warn("target failed", "target", target, "schema", e.source, "errors", res.Errors)
		}

		results[target] = res
	}

	return results, nil
}

func (e *Engine) selectTargets(requested []string) ([]string, error) {
	registered := e.registry.Targets()
	if len(requested) == 0 {
		return registered, nil
	}

	var selected []string

	for _, t := range registered {
		if slices.Contains(requested, t) {
			selected = append(selected, t)
		}
	}

	for _, t := range requested {
		if !slices.Contains(registered, t) {
			e.log.Warn("target not registered", "target", t)
		}
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTarget, requested)
	}

	return selected, nil
}

func (e *Engine) emitOne(target string, em emit.Emitter, ns *namespace.Mapping) (res *emit.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = emit.Failed(target, &emit.GenerationError{Target: target, Err: fmt.Errorf("emitter panicked: %v", r)})
		}
	}()

	out, err := em.Emit(e.schema, ns)
	if err != nil {
		return emit.Failed(target, err)
	}

	if out == nil {
		return emit.Failed(target, &emit.GenerationError{Target: target, Err: errors.New("emitter returned no result")})
	}

	return out
}

// GenerateAndWrite generates the requested targets of the loaded schema and
// writes every successful result. Without a valid schema it writes nothing
// and returns ErrNoSchema.
func (e *Engine) GenerateAndWrite(targets ...string) (map[string]*emit.Result, []string, error) {
	results, err := e.Generate(targets...)
	if err != nil {
		return nil, nil, err
	}

	files, err := e.WriteOutput(results)

	return results, files, err
}
