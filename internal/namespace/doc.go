// Package namespace derives every target-specific name for a schema from
// its catalogue path (vertical, field, object).
//
// Derivation is pure: the same Path always yields the same Mapping, with no
// I/O and no randomness. Generated file layouts, import statements and the
// consistency harness all rely on that.
//
// # Identifier rules
//
// Vertical, field and object names must start with an uppercase letter,
// contain only ASCII letters and digits, be 2 to 64 characters long, and
// must not collide (case-insensitively) with a reserved word of any
// supported target. The denylist is shared across targets because a single
// schema generates all of them at once.
//
// # Output layout
//
// Each target's files for one object live under
//
//	<target>/<vertical>/<field>/<object_snake>/
//
// so independent schemas never write the same file.
package namespace
