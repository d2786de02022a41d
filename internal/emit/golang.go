package emit

import (
	"fmt"
	"go/format"
	"path"
	"text/template"

	"atomikgen/internal/contract"
	"atomikgen/internal/namespace"
	"atomikgen/internal/naming"
	"atomikgen/internal/schema"
)

const goMaxWidth = 64

// GoModule is the module path of every generated Go backend.
const GoModule = "atomik"

// GoVersion is the language version declared by every generated go.mod.
const GoVersion = "1.22"

// EmitGo generates a Go module whose package path is
// atomik/<vertical>/<field>. Sources are run through go/format.
func EmitGo(s *schema.Schema, ns *namespace.Mapping) (*Result, error) {
	if s.DataWidth > goMaxWidth {
		return nil, unsupportedWidth(namespace.Go, s.DataWidth, goMaxWidth)
	}

	p := newProgram(namespace.Go, s, ns)
	fs := newFileSet(p.Target)
	gp := &goProgram{
		program: p,
		Package: ns.LowerField,
		Word:    goWord(s.DataWidth),
		Local:   naming.Camel(ns.Object),
		Module:  GoModule,
		Version: GoVersion,
	}

	dir := ns.Directories()[namespace.Go]

	err := renderAll(fs, gp, output{"go.mod", goModTemplate, "Go module file"})
	if err != nil {
		return nil, err
	}

	for _, o := range []output{
		{p.Target.Source, goSourceTemplate, ns.Object + " accumulator"},
		{path.Join(dir, ns.Snake+"_test.go"), goTestTemplate, "Vector replay test for " + ns.Object},
	} {
		content, err := renderGo(o.tmpl, gp)
		if err != nil {
			return nil, &GenerationError{Target: namespace.Go, Err: err}
		}

		fs.add(o.path, content, o.description)
	}

	return fs.result(), nil
}

type goProgram struct {
	*program
	Package string
	Word    string
	Local   string
	Module  string
	Version string
}

func goWord(width int) string {
	switch {
	case width <= 8:
		return "uint8"
	case width <= 16:
		return "uint16"
	case width <= 32:
		return "uint32"
	default:
		return "uint64"
	}
}

// renderGo executes t and formats the result.
func renderGo(t *template.Template, data any) ([]byte, error) {
	raw, err := render(t, data)
	if err != nil {
		return nil, err
	}

	formatted, err := format.Source(raw)
	if err != nil {
		return nil, fmt.Errorf("formatting %s output: %w", t.Name(), err)
	}

	return formatted, nil
}

var goFuncs = funcs(template.FuncMap{
	"lit": func(width int, w contract.Word) string { return "0x" + w.Hex(width) },
})

var goModTemplate = template.Must(template.New("go_mod").Funcs(goFuncs).Parse(
	`module {{.Module}}

go {{.Version}}
`))

var goSourceTemplate = template.Must(template.New("go_source").Funcs(goFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

// Package {{.Package}} holds the {{.NS.Vertical}}.{{.NS.Field}} delta-state accumulators.
package {{.Package}}

// {{.Object}}Word holds one {{.Width}}-bit {{.Object}} state.
type {{.Object}}Word = {{.Word}}

const (
	{{.Object}}Width = {{.Width}}
	{{.Object}}Mask {{.Object}}Word = {{lit .Width .Mask}}
{{- if .Rollback}}
	{{.Object}}HistoryDepth = {{.Depth}}
{{- end}}
)

// {{.Object}} is a delta-state accumulator: its state is the initial state
// XOR every accumulated delta.
{{- if .Description}}
//
// {{.Description}}
{{- end}}
//
// Field layout ({{.Layout}}):
{{- range .Fields}}
//   - {{.Name}}: bits {{.Offset}}..{{lastBit .}} ({{.Type}})
{{- end}}
//
// A {{.Object}} is not safe for concurrent use.
type {{.Object}} struct {
	initialState {{.Object}}Word
	accumulator  {{.Object}}Word
{{- if .Rollback}}
	history      []{{.Object}}Word
	historyHead  int
	historyCount int
{{- end}}
}

// New{{.Object}} returns a zeroed {{.Object}}.
func New{{.Object}}() *{{.Object}} {
	return &{{.Object}}{
{{- if .Rollback}}
		history: make([]{{.Object}}Word, {{.Object}}HistoryDepth),
{{- end}}
	}
}

// Load sets the initial state and clears the accumulator and history.
func (m *{{.Object}}) Load(initialState {{.Object}}Word) {
	m.initialState = initialState & {{.Object}}Mask
	m.accumulator = 0
{{- if .Rollback}}
	m.historyHead = 0
	m.historyCount = 0
{{- end}}
}

// Accumulate XORs delta into the accumulator.
func (m *{{.Object}}) Accumulate(delta {{.Object}}Word) {
	delta &= {{.Object}}Mask
{{- if .Rollback}}
	m.history[m.historyHead] = delta
	m.historyHead = (m.historyHead + 1) % {{.Object}}HistoryDepth
	if m.historyCount < {{.Object}}HistoryDepth {
		m.historyCount++
	}
{{- end}}
	m.accumulator ^= delta
}
{{- if .Reconstruct}}

// Reconstruct returns the current state.
func (m *{{.Object}}) Reconstruct() {{.Object}}Word {
	return m.initialState ^ m.accumulator
}
{{- end}}

// IsAccumulatorZero reports whether the accumulated deltas cancel out.
func (m *{{.Object}}) IsAccumulatorZero() bool {
	return m.accumulator == 0
}
{{- if .Rollback}}

// Rollback undoes up to count of the most recent deltas and returns how
// many were undone. A non-positive count undoes nothing.
func (m *{{.Object}}) Rollback(count int) int {
	if count <= 0 {
		return 0
	}
	undone := min(count, m.historyCount)
	for range undone {
		m.historyHead = (m.historyHead + {{.Object}}HistoryDepth - 1) % {{.Object}}HistoryDepth
		m.accumulator ^= m.history[m.historyHead]
	}
	m.historyCount -= undone
	return undone
}
{{- end}}

// Accumulator returns the accumulated deltas.
func (m *{{.Object}}) Accumulator() {{.Object}}Word {
	return m.accumulator
}

// InitialState returns the loaded initial state.
func (m *{{.Object}}) InitialState() {{.Object}}Word {
	return m.initialState
}
`))

var goTestTemplate = template.Must(template.New("go_test").Funcs(goFuncs).Parse(
	`// Code generated by {{.Generator}} from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import (
	"fmt"
	"testing"
)

type {{.Local}}Step struct {
	op       string
	value    {{.Object}}Word
	count    int
	state    {{.Object}}Word
	zero     bool
	acc      {{.Object}}Word
	returned int
}

var {{.Local}}Vectors = []struct {
	name  string
	steps []{{.Local}}Step
}{
{{- range .Vectors}}
	{"{{.Name}}", []{{$.Local}}Step{
{{- range .Steps}}
		{"{{.Op}}", {{lit $.Width .Value}}, {{.Count}}, {{lit $.Width .Expect.Reconstruct}}, {{.Expect.Status}}, {{lit $.Width .Expect.Accumulator}}, {{.Expect.Returned}}},
{{- end}}
	}},
{{- end}}
}

func Test{{.Object}}Vectors(t *testing.T) {
	const hexDigits = {{.HexDigits}}

	m := New{{.Object}}()
	for _, v := range {{.Local}}Vectors {
		for i, s := range v.steps {
			returned := 0
			switch s.op {
			case "load":
				m.Load(s.value)
			case "accumulate":
				m.Accumulate(s.value)
			default:
{{- if .Rollback}}
				returned = m.Rollback(s.count)
{{- else}}
				t.Fatalf("%s step %d: rollback is not generated", v.name, i)
{{- end}}
			}
{{- if .Reconstruct}}
			state := m.Reconstruct()
{{- else}}
			state := m.InitialState() ^ m.Accumulator()
{{- end}}
			zero := m.IsAccumulatorZero()
			acc := m.Accumulator()
			status := 0
			if zero {
				status = 1
			}
			fmt.Printf("TRACE %s %d %0*x %d %0*x %d\n", v.name, i, hexDigits, state, status, hexDigits, acc, returned)
			if state != s.state || zero != s.zero || acc != s.acc || returned != s.returned {
				t.Errorf("%s step %d: got (%#x, %t, %#x, %d), want (%#x, %t, %#x, %d)",
					v.name, i, state, zero, acc, returned, s.state, s.zero, s.acc, s.returned)
			}
		}
	}
}
{{- if .Rollback}}

func Test{{.Object}}RollbackNonPositive(t *testing.T) {
	m := New{{.Object}}()
	m.Accumulate(1)
	if got := m.Rollback(-1); got != 0 {
		t.Errorf("Rollback(-1) = %d, want 0", got)
	}
	if m.IsAccumulatorZero() {
		t.Error("Rollback(-1) changed the accumulator")
	}
}
{{- end}}
`))
