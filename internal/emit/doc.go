// Package emit turns a compiled schema into source files for each target
// language.
//
// Every emitter is a pure function of (*schema.Schema, *namespace.Mapping):
// it renders package-level text/template templates into memory and never
// touches the filesystem. The engine package writes the resulting
// GeneratedFile values.
//
// Each target produces the accumulator source, a build manifest where the
// language has one, and a test program. The test program replays
// contract.StandardVectors, prints one line per step in the form
//
//	TRACE <vector> <step> <reconstruct-hex> <status> <accumulator-hex> <returned>
//
// and exits non-zero when any step disagrees with the expected values
// computed by contract.Replay at generation time.
//
// Native word types bound the supported widths: the Go backend stops at 64
// bits, Rust and C at 128 (C uses unsigned __int128 above 64), while
// Python, JavaScript and Verilog accept any width up to 256.
package emit
