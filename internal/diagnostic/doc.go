// Package diagnostic provides structured errors, warnings and notes for the
// generator pipeline.
//
// Diagnostics are collected rather than returned one at a time, so a user
// sees every problem with a schema in a single pass. Each diagnostic is
// placed in the error taxonomy by its Kind:
//   - structural: missing or mistyped required fields
//   - cross_field: width mismatches, duplicate names, illegal identifiers
//   - semantic: discouraged but legal shapes (warnings only)
//   - generation: a single target's emitter failed
//   - io: a file could not be read or written
package diagnostic
