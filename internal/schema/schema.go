package schema

import (
	"atomikgen/internal/diagnostic"
	"atomikgen/internal/namespace"
)

const (
	// MaxWidth is the widest accumulator any schema may declare.
	MaxWidth = 256
	// DefaultHistoryDepth applies when rollback is enabled without a depth.
	DefaultHistoryDepth = 10
	// largeHistoryDepth is the depth above which a warning is raised.
	largeHistoryDepth = 10000
	// nativeWidthLimit is the widest value every target holds natively.
	nativeWidthLimit = 64
)

// FieldType is the semantic type tag of a delta field.
type FieldType string

const (
	DeltaStream    FieldType = "delta_stream"
	ParameterDelta FieldType = "parameter_delta"
	BitmaskDelta   FieldType = "bitmask_delta"
)

// FieldTypes returns every known field type tag.
func FieldTypes() []FieldType {
	return []FieldType{DeltaStream, ParameterDelta, BitmaskDelta}
}

// ParseFieldType resolves a type tag.
func ParseFieldType(s string) (FieldType, bool) {
	for _, t := range FieldTypes() {
		if string(t) == s {
			return t, true
		}
	}

	return "", false
}

// Layout describes how fields are placed in the accumulator word.
type Layout int

const (
	// LayoutPacked places fields side by side, first field in the low bits.
	LayoutPacked Layout = iota
	// LayoutShared overlays every field on the full accumulator width.
	LayoutShared
)

func (l Layout) String() string {
	if l == LayoutShared {
		return "shared"
	}

	return "packed"
}

// MarshalText encodes the layout by name.
func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Schema is a validated, compiled schema. It is never mutated after Compile.
type Schema struct {
	Catalogue   Catalogue
	Fields      []Field
	Operations  OperationSet
	Hints       Hints
	DataWidth   int
	Layout      Layout
	Constraints map[string]any
	Source      string
}

// Field is one compiled delta field.
type Field struct {
	Name        string
	Type        FieldType
	Width       int
	Offset      int
	Description string
}

// OperationSet is the resolved set of operations to generate.
type OperationSet struct {
	Accumulate  bool
	Reconstruct bool
	// Rollback is false when rollback is disabled or its depth is zero.
	Rollback     bool
	HistoryDepth int
}

// Hints are target hints carried through to the hardware backend.
type Hints struct {
	// DataWidth is the declared DATA_WIDTH, or 0 when it was derived.
	DataWidth int
	Platform  string
	ClockMHz  float64
}

// Path returns the catalogue triple used for name derivation.
func (s *Schema) Path() namespace.Path {
	return namespace.Path{
		Vertical: s.Catalogue.Vertical,
		Field:    s.Catalogue.Field,
		Object:   s.Catalogue.Object,
	}
}

// HistoryCapacity is the number of history entries a backend must keep.
func (s *Schema) HistoryCapacity() int {
	if !s.Operations.Rollback {
		return 0
	}

	return s.Operations.HistoryDepth
}

// Compile validates doc and, when it has no errors, builds the Schema.
// The diagnostics are returned in both cases.
func Compile(doc *Document) (*Schema, *diagnostic.Diagnostics) {
	diags := Validate(doc)
	if diags.HasErrors() {
		return nil, diags
	}

	declared, hasDeclared := doc.DeclaredWidth()

	width, layout, _ := resolveWidth(doc.Schema.DeltaFields, declared, hasDeclared)

	s := &Schema{
		Catalogue:   *doc.Catalogue,
		Fields:      make([]Field, 0, len(doc.Schema.DeltaFields)),
		DataWidth:   width,
		Layout:      layout,
		Constraints: doc.Schema.Constraints,
		Source:      doc.Source,
	}

	offset := 0

	for _, spec := range doc.Schema.DeltaFields {
		ft, _ := ParseFieldType(spec.Type)

		f := Field{
			Name:        spec.Name,
			Type:        ft,
			Width:       spec.Width,
			Description: spec.Description,
		}

		if layout == LayoutPacked {
			f.Offset = offset
			offset += spec.Width
		}

		s.Fields = append(s.Fields, f)
	}

	ops := doc.Schema.Operations
	s.Operations = OperationSet{
		Accumulate:   true,
		Reconstruct:  ops.Reconstruct.IsEnabled(true),
		HistoryDepth: DefaultHistoryDepth,
	}

	if ops.Rollback.IsEnabled(false) {
		if ops.Rollback.HistoryDepth != nil {
			s.Operations.HistoryDepth = *ops.Rollback.HistoryDepth
		}

		s.Operations.Rollback = s.Operations.HistoryDepth > 0
	}

	if hw := doc.Hardware; hw != nil {
		s.Hints = Hints{Platform: hw.TargetDevice, ClockMHz: hw.ClockMHz}
	}

	if hasDeclared {
		s.Hints.DataWidth = declared
	}

	return s, diags
}
