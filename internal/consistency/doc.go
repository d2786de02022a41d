// Package consistency checks that the generated backends agree with each
// other.
//
// Every backend ships a test program that replays the standard test vectors
// and prints one TRACE line per step. The harness builds and runs each
// program with its native toolchain, parses the trace and compares it with
// the reference replay from package contract. Targets whose toolchain is
// not installed are skipped, not failed.
package consistency
