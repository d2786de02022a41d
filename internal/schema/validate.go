package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"atomikgen/internal/diagnostic"
	"atomikgen/internal/namespace"
	"atomikgen/internal/naming"
)

// Diagnostic codes.
const (
	CodeTypeMismatch        = "type_mismatch"
	CodeMissingRequired     = "missing_required"
	CodeInvalidVersion      = "invalid_version"
	CodeEmptyDeltaFields    = "empty_delta_fields"
	CodeUnknownFieldType    = "unknown_field_type"
	CodeInvalidWidth        = "invalid_width"
	CodeAccumulateDisabled  = "accumulate_disabled"
	CodeInvalidValue        = "invalid_value"
	CodeDuplicateField      = "duplicate_field"
	CodeIllegalIdentifier   = "illegal_identifier"
	CodeInvalidHistoryDepth = "invalid_history_depth"
	CodeInvalidDataWidth    = "invalid_data_width"
	CodeWidthMismatch       = "width_mismatch"
	CodeDuplicateNamespace  = "duplicate_namespace"
	CodeRollbackDepthZero   = "rollback_depth_zero"
	CodeDefaultHistoryDepth = "default_history_depth"
	CodeLargeHistoryDepth   = "large_history_depth"
	CodeUnusedHistoryDepth  = "unused_history_depth"
	CodeMissingDescription  = "missing_description"
	CodeMissingMetadata     = "missing_metadata"
	CodeNoConstraints       = "no_constraints"
	CodeReconstructDisabled = "reconstruct_disabled"
	CodeWideAccumulator     = "wide_accumulator"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("pow2", func(fl validator.FieldLevel) bool {
		return IsValidWidth(int(fl.Field().Int()))
	})

	_ = v.RegisterValidation("fieldtype", func(fl validator.FieldLevel) bool {
		_, ok := ParseFieldType(fl.Field().String())

		return ok
	})

	return v
}

// IsValidWidth reports whether w is a power of two in 1..MaxWidth.
func IsValidWidth(w int) bool {
	return w >= 1 && w <= MaxWidth && w&(w-1) == 0
}

// Validate runs the structural, cross-field and semantic passes over doc
// and returns every problem found. Structural and cross-field problems are
// errors; semantic problems are warnings.
func Validate(doc *Document) *diagnostic.Diagnostics {
	diags := &diagnostic.Diagnostics{}

	validateStructure(doc, diags)
	validateCrossField(doc, diags)
	validateSemantics(doc, diags)

	if doc.Source != "" {
		diags.SetSchema(doc.Source)
	}

	return diags
}

var deltaFieldIndex = regexp.MustCompile(`delta_fields\[(\d+)\]`)

// yamlTypeLeak matches the Go destination type yaml.v3 names in decode errors.
var yamlTypeLeak = regexp.MustCompile(`cannot unmarshal (!!\w+)( .*?)? into \S+$`)

// decodeMessage rewrites a yaml.v3 type error in document terms:
// "line 1: cannot unmarshal !!int `5` into schema.Catalogue" becomes
// "line 1: unexpected !!int value `5`".
func decodeMessage(msg string) string {
	return yamlTypeLeak.ReplaceAllString(msg, "unexpected ${1} value${2}")
}

func validateStructure(doc *Document, diags *diagnostic.Diagnostics) {
	for _, msg := range doc.decodeErrors {
		diags.AddError(diagnostic.KindStructural, CodeTypeMismatch, decodeMessage(msg), "")
	}

	err := structValidator.Struct(doc)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			addFieldError(doc, fe, diags)
		}
	}

	if doc.Schema != nil && doc.Schema.Operations != nil && doc.Schema.Operations.Accumulate != nil &&
		!doc.Schema.Operations.Accumulate.IsEnabled(false) {
		diags.AddError(diagnostic.KindStructural, CodeAccumulateDisabled,
			"accumulate must be enabled", "schema.operations.accumulate.enabled")
	}
}

// documentPath turns a validator namespace into a dotted document path,
// naming delta fields by key: "Document.schema.delta_fields[1].width"
// becomes "schema.delta_fields.price.width".
func documentPath(doc *Document, ns string) string {
	_, p, found := strings.Cut(ns, ".")
	if !found {
		p = ns
	}

	return deltaFieldIndex.ReplaceAllStringFunc(p, func(m string) string {
		idx, err := strconv.Atoi(deltaFieldIndex.FindStringSubmatch(m)[1])
		if err != nil || doc.Schema == nil || idx >= len(doc.Schema.DeltaFields) {
			return m
		}

		return "delta_fields." + doc.Schema.DeltaFields[idx].Name
	})
}

func addFieldError(doc *Document, fe validator.FieldError, diags *diagnostic.Diagnostics) {
	path := documentPath(doc, fe.Namespace())

	switch fe.Tag() {
	case "required":
		diags.AddError(diagnostic.KindStructural, CodeMissingRequired,
			"missing required field "+path, path)
	case "min":
		diags.AddError(diagnostic.KindStructural, CodeEmptyDeltaFields,
			"schema.delta_fields must have at least one field", path)
	case "semver":
		diags.AddError(diagnostic.KindStructural, CodeInvalidVersion,
			fmt.Sprintf("version %q is not a semantic version (MAJOR.MINOR.PATCH)", fe.Value()), path)
	case "fieldtype":
		tag := fmt.Sprint(fe.Value())

		known := make([]string, 0, len(FieldTypes()))
		for _, t := range FieldTypes() {
			known = append(known, string(t))
		}

		diags.AddError(diagnostic.KindStructural, CodeUnknownFieldType,
			fmt.Sprintf("unknown field type %q (known: %s)", tag, strings.Join(known, ", ")),
			path, naming.Closest(tag, known)...)
	case "pow2":
		diags.AddError(diagnostic.KindStructural, CodeInvalidWidth,
			fmt.Sprintf("width %v must be a power of two between 1 and %d", fe.Value(), MaxWidth), path)
	default:
		diags.AddError(diagnostic.KindStructural, CodeInvalidValue,
			fmt.Sprintf("%s failed the %q check", path, fe.Tag()), path)
	}
}

func validateCrossField(doc *Document, diags *diagnostic.Diagnostics) {
	if c := doc.Catalogue; c != nil {
		for _, seg := range []struct{ key, value string }{
			{"vertical", c.Vertical},
			{"field", c.Field},
			{"object", c.Object},
		} {
			if seg.value == "" {
				continue
			}

			if err := namespace.ValidateIdentifier(seg.value); err != nil {
				diags.AddError(diagnostic.KindCrossField, CodeIllegalIdentifier, err.Error(), "catalogue."+seg.key)
			}
		}
	}

	body := doc.Schema
	if body == nil {
		return
	}

	first := make(map[string]int, len(body.DeltaFields))
	for _, f := range body.DeltaFields {
		if line, dup := first[f.Name]; dup {
			diags.AddError(diagnostic.KindCrossField, CodeDuplicateField,
				fmt.Sprintf("duplicate field %q (first defined at line %d)", f.Name, line),
				"schema.delta_fields."+f.Name)

			continue
		}

		first[f.Name] = f.Line
	}

	if ops := body.Operations; ops != nil && ops.Rollback != nil && ops.Rollback.HistoryDepth != nil &&
		*ops.Rollback.HistoryDepth < 0 {
		diags.AddError(diagnostic.KindCrossField, CodeInvalidHistoryDepth,
			fmt.Sprintf("history_depth must be a non-negative integer, got %d", *ops.Rollback.HistoryDepth),
			"schema.operations.rollback.history_depth")
	}

	if len(body.DeltaFields) == 0 {
		return
	}

	for _, f := range body.DeltaFields {
		// already reported by the structural pass
		if !IsValidWidth(f.Width) {
			return
		}
	}

	declared, hasDeclared := doc.DeclaredWidth()
	if _, _, problem := resolveWidth(body.DeltaFields, declared, hasDeclared); problem != nil {
		diags.AddError(diagnostic.KindCrossField, problem.code, problem.message, problem.path)
	}
}

type widthProblem struct {
	code    string
	message string
	path    string
}

// resolveWidth computes the accumulator width and field layout.
func resolveWidth(fields FieldList, declared int, hasDeclared bool) (int, Layout, *widthProblem) {
	sum := 0
	for _, f := range fields {
		sum += f.Width
	}

	if !hasDeclared {
		if !IsValidWidth(sum) {
			return 0, LayoutPacked, &widthProblem{
				code: CodeInvalidDataWidth,
				message: fmt.Sprintf("derived width %d (sum of field widths) must be a power of two between 1 and %d",
					sum, MaxWidth),
				path: "schema.delta_fields",
			}
		}

		return sum, LayoutPacked, nil
	}

	const declaredPath = "hardware.rtl_params.DATA_WIDTH"

	if !IsValidWidth(declared) {
		return 0, LayoutPacked, &widthProblem{
			code:    CodeInvalidDataWidth,
			message: fmt.Sprintf("DATA_WIDTH %d must be a power of two between 1 and %d", declared, MaxWidth),
			path:    declaredPath,
		}
	}

	if declared == sum {
		return declared, LayoutPacked, nil
	}

	for _, f := range fields {
		if f.Width != declared {
			return 0, LayoutPacked, &widthProblem{
				code: CodeWidthMismatch,
				message: fmt.Sprintf(
					"DATA_WIDTH (%d) matches neither the sum of field widths (%d) nor delta_fields.%s.width (%d)",
					declared, sum, f.Name, f.Width),
				path: declaredPath,
			}
		}
	}

	return declared, LayoutShared, nil
}

func validateSemantics(doc *Document, diags *diagnostic.Diagnostics) {
	if c := doc.Catalogue; c != nil {
		for _, meta := range []struct{ key, value string }{
			{"description", c.Description},
			{"author", c.Author},
			{"license", c.License},
		} {
			if meta.value == "" {
				diags.AddWarning(diagnostic.KindSemantic, CodeMissingMetadata,
					fmt.Sprintf("recommended field catalogue.%s is missing", meta.key), "catalogue."+meta.key)
			}
		}
	}

	body := doc.Schema
	if body == nil {
		return
	}

	described := make(map[string]bool, len(body.DeltaFields))
	for _, f := range body.DeltaFields {
		if f.Description == "" && !described[f.Name] {
			described[f.Name] = true
			diags.AddWarning(diagnostic.KindSemantic, CodeMissingDescription,
				fmt.Sprintf("field %q has no description", f.Name), "schema.delta_fields."+f.Name)
		}
	}

	if len(body.Constraints) == 0 {
		diags.AddWarning(diagnostic.KindSemantic, CodeNoConstraints,
			"no constraints specified; consider adding resource limits", "schema.constraints")
	}

	if ops := body.Operations; ops != nil {
		semanticOperations(ops, diags)
	}

	declared, hasDeclared := doc.DeclaredWidth()
	if width, _, problem := resolveWidth(body.DeltaFields, declared, hasDeclared); problem == nil &&
		width > nativeWidthLimit {
		diags.AddWarning(diagnostic.KindSemantic, CodeWideAccumulator,
			fmt.Sprintf("accumulator width %d exceeds %d bits; targets without a native %d-bit type will fail",
				width, nativeWidthLimit, width),
			"schema.delta_fields")
	}
}

func semanticOperations(ops *Operations, diags *diagnostic.Diagnostics) {
	const rollbackPath = "schema.operations.rollback"

	if !ops.Reconstruct.IsEnabled(true) {
		diags.AddWarning(diagnostic.KindSemantic, CodeReconstructDisabled,
			"reconstruct disabled; reading state will not be generated", "schema.operations.reconstruct")
	}

	rb := ops.Rollback
	if rb == nil {
		return
	}

	if !rb.IsEnabled(false) {
		if rb.HistoryDepth != nil {
			diags.AddWarning(diagnostic.KindSemantic, CodeUnusedHistoryDepth,
				"history_depth is set but rollback is not enabled", rollbackPath+".history_depth")
		}

		return
	}

	switch {
	case rb.HistoryDepth == nil:
		diags.AddInfo(diagnostic.KindSemantic, CodeDefaultHistoryDepth,
			fmt.Sprintf("rollback enabled without history_depth; default %d applied", DefaultHistoryDepth),
			rollbackPath)
	case *rb.HistoryDepth == 0:
		diags.AddWarning(diagnostic.KindSemantic, CodeRollbackDepthZero,
			"rollback enabled with history_depth 0; rollback will not be generated", rollbackPath+".history_depth")
	case *rb.HistoryDepth > largeHistoryDepth:
		diags.AddWarning(diagnostic.KindSemantic, CodeLargeHistoryDepth,
			fmt.Sprintf("very large history_depth (%d) may consume significant memory", *rb.HistoryDepth),
			rollbackPath+".history_depth")
	}
}

// ValidateNamespaceUniqueness reports schemas that would write the same
// output files. Each conflict is attributed to the later schema.
func ValidateNamespaceUniqueness(schemas []*Schema) *diagnostic.Diagnostics {
	diags := &diagnostic.Diagnostics{}
	owners := make(map[string]*Schema, len(schemas))

	for _, s := range schemas {
		key := s.Path().Key()

		owner, taken := owners[key]
		if !taken {
			owners[key] = s

			continue
		}

		diags.Errors = append(diags.Errors, diagnostic.Diagnostic{
			Severity: diagnostic.SeverityError,
			Kind:     diagnostic.KindCrossField,
			Code:     CodeDuplicateNamespace,
			Message: fmt.Sprintf("duplicate namespace %q (%s), already declared by %s",
				s.Path().String(), key, owner.Source),
			Schema: s.Source,
			Path:   "catalogue",
		})
	}

	return diags
}
