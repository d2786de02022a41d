package emit

import (
	"bytes"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"text/template"

	"atomikgen/internal/contract"
	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

const generatorName = "atomikgen"

// program is the template data shared by every emitter.
type program struct {
	Generator   string
	Source      string
	Schema      *schema.Schema
	NS          *namespace.Mapping
	Target      namespace.Target
	Object      string
	Snake       string
	Description string
	Version     string
	Width       int
	HexDigits   int
	Depth       int
	Rollback    bool
	Reconstruct bool
	Mask        contract.Word
	Layout      string
	Fields      []schema.Field
	Vectors     []vector
}

type vector struct {
	Name  string
	Steps []step
}

type step struct {
	Index  int
	Op     contract.Op
	Value  contract.Word
	Count  int
	Expect contract.Row
}

// IsLoad, IsAccumulate and IsRollback keep templates free of Op constants.
func (s step) IsLoad() bool       { return s.Op == contract.OpLoad }
func (s step) IsAccumulate() bool { return s.Op == contract.OpAccumulate }
func (s step) IsRollback() bool   { return s.Op == contract.OpRollback }

func newProgram(target string, s *schema.Schema, ns *namespace.Mapping) *program {
	source := s.Path().String()
	if s.Source != "" {
		source = filepath.Base(s.Source)
	}

	depth := s.HistoryCapacity()

	p := &program{
		Generator:   generatorName,
		Source:      source,
		Schema:      s,
		NS:          ns,
		Target:      ns.Targets[target],
		Object:      ns.Object,
		Snake:       ns.Snake,
		Description: strings.Join(strings.Fields(s.Catalogue.Description), " "),
		Version:     s.Catalogue.Version,
		Width:       s.DataWidth,
		HexDigits:   contract.HexDigits(s.DataWidth),
		Depth:       depth,
		Rollback:    s.Operations.Rollback,
		Reconstruct: s.Operations.Reconstruct,
		Mask:        contract.Mask(s.DataWidth),
		Layout:      s.Layout.String(),
		Fields:      s.Fields,
	}

	for _, v := range contract.StandardVectors(s.DataWidth, depth) {
		rows := contract.Replay(s.DataWidth, depth, v)

		vec := vector{Name: v.Name, Steps: make([]step, len(v.Steps))}
		for i, st := range v.Steps {
			vec.Steps[i] = step{Index: i, Op: st.Op, Value: st.Value, Count: st.Count, Expect: rows[i]}
		}

		p.Vectors = append(p.Vectors, vec)
	}

	return p
}

// baseFuncs are available to every template. Word-formatting helpers take
// the width first so templates can call them as {{lit $.Width .Value}}.
var baseFuncs = template.FuncMap{
	"hex": func(width int, w contract.Word) string { return w.Hex(width) },
	"lastBit": func(f schema.Field) int {
		return f.Offset + f.Width - 1
	},
	"bit": func(b bool) int {
		if b {
			return 1
		}

		return 0
	},
}

func funcs(extra template.FuncMap) template.FuncMap {
	m := maps.Clone(baseFuncs)
	maps.Copy(m, extra)

	return m
}

func render(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing %s template: %w", t.Name(), err)
	}

	return buf.Bytes(), nil
}

// renderAll executes each template in order, stopping at the first error.
func renderAll(fs *fileSet, data any, outputs ...output) error {
	for _, o := range outputs {
		content, err := render(o.tmpl, data)
		if err != nil {
			return &GenerationError{Target: fs.target, Err: err}
		}

		fs.add(o.path, content, o.description)
	}

	return nil
}

type output struct {
	path        string
	tmpl        *template.Template
	description string
}
