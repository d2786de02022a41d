// Package schema decodes, validates and compiles delta-state accumulator
// schema documents.
//
// A document has three blocks: catalogue (naming metadata), schema (ordered
// delta fields, operation flags, constraints) and optional hardware hints.
// Documents may be written in YAML or JSON:
//
//	catalogue:
//	  vertical: Video
//	  field: Streaming
//	  object: H264Delta
//	  version: 1.0.0
//	schema:
//	  delta_fields:
//	    frame_delta: {type: delta_stream, width: 64}
//	  operations:
//	    accumulate: {enabled: true}
//	    rollback: {enabled: true, history_depth: 16}
//	hardware:
//	  rtl_params: {DATA_WIDTH: 64}
//
// Validate runs three passes and collects every problem rather than
// stopping at the first:
//   - structural: required keys, types, semantic version, type tags, widths
//   - cross-field: declared vs derived width, duplicate fields, history
//     depth sign, identifier legality of the catalogue path
//   - semantic: non-fatal warnings for discouraged shapes
//
// Compile turns a document without errors into an immutable Schema, the
// only form the emitters see.
//
// # Width resolution
//
// The accumulator width is hardware.rtl_params.DATA_WIDTH when declared,
// otherwise the sum of the field widths. A declared width must either equal
// that sum (packed layout, first field in the low bits) or equal the width
// of every field (shared layout, every field spans the whole word). The
// result must be a power of two between 1 and 256.
package schema
