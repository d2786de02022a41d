// Package contract is the reference model of the delta-state accumulator
// that every generated backend realizes.
//
// State is an initial value, a running XOR accumulator and a bounded
// history of raw deltas. Operations:
//
//	load(v)        initial := v, accumulator := 0, history cleared
//	accumulate(d)  history.push(d) (oldest evicted when full), accumulator ^= d
//	reconstruct()  initial ^ accumulator
//	status()       accumulator == 0
//	rollback(n)    pop min(n, count) newest entries, XOR each back out,
//	               return how many were popped; n <= 0 pops nothing
//
// A delta that was evicted from history stays folded into the accumulator
// and can no longer be rolled back.
//
// Values are Words: up to 256 bits, masked to the schema width on every
// load and accumulate. The standard vectors in this package are the
// operation sequences replayed by every generated test program; Replay
// gives the expected observation after each step.
package contract
