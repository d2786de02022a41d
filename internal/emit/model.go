package emit

import (
	"errors"
	"fmt"
	"path"

	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

// GeneratedFile is one emitted file.
type GeneratedFile struct {
	// Path is relative to the output root and uses forward slashes.
	Path        string `json:"path"`
	Content     []byte `json:"-"`
	Target      string `json:"target"`
	Description string `json:"description"`
}

// Result is the outcome of one (schema, target) generation.
type Result struct {
	Target   string          `json:"target"`
	Success  bool            `json:"success"`
	Files    []GeneratedFile `json:"files,omitempty"`
	Errors   []string        `json:"errors,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Failed builds an unsuccessful result carrying err.
func Failed(target string, err error) *Result {
	return &Result{Target: target, Errors: []string{err.Error()}}
}

// Paths returns the relative paths of the result's files.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Path
	}

	return out
}

// Emitter turns a compiled schema and its names into source files for one
// target. Implementations must be pure: no I/O and no shared state.
type Emitter interface {
	Emit(s *schema.Schema, ns *namespace.Mapping) (*Result, error)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(s *schema.Schema, ns *namespace.Mapping) (*Result, error)

// Emit calls f.
func (f EmitterFunc) Emit(s *schema.Schema, ns *namespace.Mapping) (*Result, error) {
	return f(s, ns)
}

// ErrUnsupportedWidth is wrapped when a target has no native type wide
// enough for the schema.
var ErrUnsupportedWidth = errors.New("unsupported width")

// GenerationError reports a failure of a single target's emitter.
type GenerationError struct {
	Target string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func unsupportedWidth(target string, width, limit int) error {
	return &GenerationError{
		Target: target,
		Err:    fmt.Errorf("%w: %d bits exceeds the widest native %s integer (%d bits)", ErrUnsupportedWidth, width, target, limit),
	}
}

// fileSet accumulates files under one target root.
type fileSet struct {
	target string
	root   string
	files  []GeneratedFile
}

func newFileSet(t namespace.Target) *fileSet {
	return &fileSet{target: t.Name, root: t.Root}
}

func (fs *fileSet) add(rel string, content []byte, description string) {
	fs.files = append(fs.files, GeneratedFile{
		Path:        path.Join(fs.root, rel),
		Content:     content,
		Target:      fs.target,
		Description: description,
	})
}

func (fs *fileSet) result(warnings ...string) *Result {
	return &Result{
		Target:   fs.target,
		Success:  true,
		Files:    fs.files,
		Warnings: warnings,
	}
}
