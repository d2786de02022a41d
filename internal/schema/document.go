package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk schema as decoded, before validation. Downstream
// code never reads a Document directly: it reads the compiled Schema.
type Document struct {
	Catalogue *Catalogue `yaml:"catalogue" validate:"required"`
	Schema    *Body      `yaml:"schema"    validate:"required"`
	Hardware  *Hardware  `yaml:"hardware,omitempty"`

	// Source is the file the document was read from, if any.
	Source string `yaml:"-"`

	decodeErrors []string
}

// Catalogue is the organizational metadata that drives identifier derivation.
type Catalogue struct {
	Vertical    string `yaml:"vertical"              validate:"required"`
	Field       string `yaml:"field"                 validate:"required"`
	Object      string `yaml:"object"                validate:"required"`
	Version     string `yaml:"version"               validate:"required,semver"`
	Description string `yaml:"description,omitempty"`
	Author      string `yaml:"author,omitempty"`
	License     string `yaml:"license,omitempty"`
}

// Body is the "schema" block.
type Body struct {
	DeltaFields FieldList      `yaml:"delta_fields"          validate:"required,min=1,dive"`
	Operations  *Operations    `yaml:"operations"            validate:"required"`
	Constraints map[string]any `yaml:"constraints,omitempty"`
}

// FieldSpec is one entry of delta_fields.
type FieldSpec struct {
	Name         string `yaml:"-"`
	Type         string `yaml:"type"                    validate:"required,fieldtype"`
	Width        int    `yaml:"width"                   validate:"required,pow2"`
	Description  string `yaml:"description,omitempty"`
	DefaultValue any    `yaml:"default_value,omitempty"`

	// Line is the 1-based line of the field's key in the source document.
	Line int `yaml:"-"`
}

// FieldList is the ordered delta_fields mapping. Duplicate keys are kept so
// the validator can report them.
type FieldList []FieldSpec

// UnmarshalYAML implements yaml.Unmarshaler, preserving declaration order.
func (l *FieldList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &yaml.TypeError{Errors: []string{
			fmt.Sprintf("line %d: delta_fields must be a mapping of field name to spec", node.Line),
		}}
	}

	list := make(FieldList, 0, len(node.Content)/2)

	var typeErrs []string

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		spec := FieldSpec{Name: key.Value, Line: key.Line}

		if err := value.Decode(&spec); err != nil {
			typeErrs = append(typeErrs, typeErrorLines(err)...)
		}

		spec.Name = key.Value
		spec.Line = key.Line
		list = append(list, spec)
	}

	*l = list

	if len(typeErrs) > 0 {
		return &yaml.TypeError{Errors: typeErrs}
	}

	return nil
}

// Operations is the operation flag set. Accumulate is mandatory.
type Operations struct {
	Accumulate  *OperationFlag `yaml:"accumulate"            validate:"required"`
	Reconstruct *OperationFlag `yaml:"reconstruct,omitempty"`
	Rollback    *OperationFlag `yaml:"rollback,omitempty"`
}

// OperationFlag accepts either a bare boolean or a mapping with
// "enabled" and, for rollback, "history_depth".
type OperationFlag struct {
	// Enabled is nil when the mapping form omits "enabled".
	Enabled      *bool
	HistoryDepth *int
}

type operationFlagYAML struct {
	Enabled      *bool `yaml:"enabled,omitempty"`
	HistoryDepth *int  `yaml:"history_depth,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *OperationFlag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}

		f.Enabled = &b

		return nil
	}

	if node.Kind != yaml.MappingNode {
		return &yaml.TypeError{Errors: []string{
			fmt.Sprintf("line %d: operation flag must be a boolean or a mapping", node.Line),
		}}
	}

	var raw operationFlagYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	f.Enabled = raw.Enabled
	f.HistoryDepth = raw.HistoryDepth

	return nil
}

// IsEnabled resolves the flag, using def when "enabled" was not given.
func (f *OperationFlag) IsEnabled(def bool) bool {
	if f == nil || f.Enabled == nil {
		return def
	}

	return *f.Enabled
}

// Hardware holds target hints for the hardware backend.
type Hardware struct {
	TargetDevice string     `yaml:"target_device,omitempty"`
	ClockMHz     float64    `yaml:"clock_mhz,omitempty"     validate:"gte=0"`
	RTLParams    *RTLParams `yaml:"rtl_params,omitempty"`
}

// RTLParams holds RTL parameters. DATA_WIDTH is the declared overall width.
type RTLParams struct {
	DataWidth *int `yaml:"DATA_WIDTH,omitempty"`
}

// DeclaredWidth returns hardware.rtl_params.DATA_WIDTH, if present.
func (d *Document) DeclaredWidth() (int, bool) {
	if d.Hardware == nil || d.Hardware.RTLParams == nil || d.Hardware.RTLParams.DataWidth == nil {
		return 0, false
	}

	return *d.Hardware.RTLParams.DataWidth, true
}

func typeErrorLines(err error) []string {
	if te, ok := err.(*yaml.TypeError); ok {
		return te.Errors
	}

	return []string{err.Error()}
}
