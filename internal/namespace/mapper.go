package namespace

import (
	"fmt"
	"path"
	"strings"

	"atomikgen/internal/naming"
)

// Target names.
const (
	Python     = "python"
	Rust       = "rust"
	C          = "c"
	JavaScript = "javascript"
	Go         = "go"
	Verilog    = "verilog"
)

var allTargets = []string{Python, Rust, C, JavaScript, Go, Verilog}

// Targets returns every supported target name in canonical order.
func Targets() []string {
	return append([]string(nil), allTargets...)
}

// IsTarget reports whether name is a supported target.
func IsTarget(name string) bool {
	for _, t := range allTargets {
		if t == name {
			return true
		}
	}

	return false
}

// Path is the catalogue triple every name is derived from.
type Path struct {
	Vertical string
	Field    string
	Object   string
}

// String returns the dotted form "Vertical.Field.Object".
func (p Path) String() string {
	return p.Vertical + "." + p.Field + "." + p.Object
}

// Key returns the output-path key of p. Two schemas with the same key would
// write the same files, so a batch rejects them.
func (p Path) Key() string {
	return strings.ToLower(p.Vertical) + "/" + strings.ToLower(p.Field) + "/" + naming.Snake(p.Object)
}

// Mapping is the read-only set of names derived for one schema.
type Mapping struct {
	Vertical string
	Field    string
	Object   string

	// LowerVertical and LowerField are the case-folded path segments used
	// by targets with lowercase module names.
	LowerVertical string
	LowerField    string
	// Snake is the object name in snake_case ("H264Delta" -> "h264_delta").
	Snake string

	Targets map[string]Target
}

// Target holds the names one target language uses for the object.
type Target struct {
	// Name is the target key ("python", "rust", ...).
	Name string
	// Identifier is the fully qualified symbol.
	Identifier string
	// Import is the statement a consumer writes to use the symbol.
	Import string
	// Root is the output subdirectory for this target and object.
	Root string
	// Source is the primary source file, relative to Root.
	Source string
}

// Map derives the Mapping for p. It fails with an *IdentifierError when any
// segment is illegal.
func Map(p Path) (*Mapping, error) {
	for _, name := range []string{p.Vertical, p.Field, p.Object} {
		if err := ValidateIdentifier(name); err != nil {
			return nil, err
		}
	}

	m := &Mapping{
		Vertical:      p.Vertical,
		Field:         p.Field,
		Object:        p.Object,
		LowerVertical: strings.ToLower(p.Vertical),
		LowerField:    strings.ToLower(p.Field),
		Snake:         naming.Snake(p.Object),
	}

	v, f, o, s := m.LowerVertical, m.LowerField, m.Object, m.Snake
	module := fmt.Sprintf("atomik_%s_%s_%s", v, f, s)

	m.Targets = map[string]Target{
		Python: {
			Identifier: fmt.Sprintf("atomik.%s.%s.%s", p.Vertical, p.Field, o),
			Import:     fmt.Sprintf("from atomik.%s.%s import %s", p.Vertical, p.Field, o),
			Source:     path.Join("atomik", p.Vertical, p.Field, s+".py"),
		},
		Rust: {
			Identifier: fmt.Sprintf("atomik::%s::%s::%s", v, f, o),
			Import:     fmt.Sprintf("use atomik::%s::%s::%s;", v, f, o),
			Source:     path.Join("src", v, f, s+".rs"),
		},
		C: {
			Identifier: fmt.Sprintf("atomik_%s_t", s),
			Import:     fmt.Sprintf("#include <atomik/%s/%s/%s.h>", v, f, s),
			Source:     path.Join("atomik", v, f, s+".c"),
		},
		JavaScript: {
			Identifier: fmt.Sprintf("@atomik/%s-%s.%s", v, f, o),
			Import:     fmt.Sprintf("import { %s } from '@atomik/%s-%s';", o, v, f),
			Source:     path.Join("src", s+".js"),
		},
		Go: {
			Identifier: fmt.Sprintf("atomik/%s/%s.%s", v, f, o),
			Import:     fmt.Sprintf("import %q", "atomik/"+v+"/"+f),
			Source:     path.Join(v, f, s+".go"),
		},
		Verilog: {
			Identifier: module,
			Import:     fmt.Sprintf("`include \"rtl/%s.v\"", module),
			Source:     path.Join("rtl", module+".v"),
		},
	}

	for name, t := range m.Targets {
		t.Name = name
		t.Root = path.Join(name, v, f, s)
		m.Targets[name] = t
	}

	return m, nil
}

// Path returns the catalogue triple the mapping was derived from.
func (m *Mapping) Path() Path {
	return Path{Vertical: m.Vertical, Field: m.Field, Object: m.Object}
}

// Target returns the names for one target.
func (m *Mapping) Target(name string) (Target, bool) {
	t, ok := m.Targets[name]

	return t, ok
}

// VerilogModule returns the hardware module name.
func (m *Mapping) VerilogModule() string {
	return m.Targets[Verilog].Identifier
}

// Directories returns, per target, the package directory the object's
// source lives in, relative to the target's Root.
func (m *Mapping) Directories() map[string]string {
	v, f := m.LowerVertical, m.LowerField

	return map[string]string{
		Python:     path.Join("atomik", m.Vertical, m.Field),
		Rust:       path.Join("src", v, f),
		C:          path.Join("atomik", v, f),
		JavaScript: "src",
		Go:         path.Join(v, f),
		Verilog:    "rtl",
	}
}
