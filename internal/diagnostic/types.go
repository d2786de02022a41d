package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostics holds every diagnostic produced for one schema.
type Diagnostics struct {
	Errors   []Diagnostic `json:"errors,omitempty"`
	Warnings []Diagnostic `json:"warnings,omitempty"`
	Infos    []Diagnostic `json:"infos,omitempty"`
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity `json:"severity"`
	// Kind places the diagnostic in the error taxonomy.
	Kind Kind `json:"kind"`
	// Code is a unique identifier for this type of diagnostic.
	Code string `json:"code"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// Schema identifies the schema document this relates to (if any).
	Schema string `json:"schema,omitempty"`
	// Path is the dotted document path this relates to (if any).
	Path string `json:"path,omitempty"`
	// Suggestions are potential fixes or alternatives.
	Suggestions []string `json:"suggestions,omitempty"`
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return unknown
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Kind classifies where in the pipeline a diagnostic was raised.
type Kind int

const (
	// KindStructural is a missing or mistyped required field.
	KindStructural Kind = iota
	// KindCrossField is an inconsistency between fields, such as a width
	// mismatch, a duplicate field name or an illegal derived identifier.
	KindCrossField
	// KindSemantic is a discouraged but legal schema shape.
	KindSemantic
	// KindGeneration is a failure of a single target's emitter.
	KindGeneration
	// KindIO is a file read or write failure.
	KindIO
)

const unknown = "unknown"

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindCrossField:
		return "cross_field"
	case KindSemantic:
		return "semantic"
	case KindGeneration:
		return "generation"
	case KindIO:
		return "io"
	default:
		return unknown
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(kind Kind, code, message, path string, suggestions ...string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity:    SeverityError,
		Kind:        kind,
		Code:        code,
		Message:     message,
		Path:        path,
		Suggestions: suggestions,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(kind Kind, code, message, path string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: SeverityWarning,
		Kind:     kind,
		Code:     code,
		Message:  message,
		Path:     path,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(kind Kind, code, message, path string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: SeverityInfo,
		Kind:     kind,
		Code:     code,
		Message:  message,
		Path:     path,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// HasKind reports whether any error diagnostic has the given kind.
func (d *Diagnostics) HasKind(kind Kind) bool {
	for _, e := range d.Errors {
		if e.Kind == kind {
			return true
		}
	}

	return false
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}

	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// SetSchema stamps every diagnostic with the schema it belongs to.
func (d *Diagnostics) SetSchema(name string) {
	for _, list := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for i := range list {
			list[i].Schema = name
		}
	}
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns the validation verdict, e.g. "VALID (with 2 warning(s))".
func (d *Diagnostics) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("INVALID: %d error(s)", len(d.Errors))
	}

	if len(d.Warnings) > 0 {
		return fmt.Sprintf("VALID (with %d warning(s))", len(d.Warnings))
	}

	return "VALID"
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Schema != "" {
		prefix = append(prefix, "["+d.Schema+"]")
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if d.Path != "" {
		prefix = append(prefix, d.Path+":")
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + " " + msg
	}

	return msg
}
