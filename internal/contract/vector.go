package contract

import (
	"fmt"
	"strings"
)

// Op is a contract operation in a test vector.
type Op int

const (
	OpLoad Op = iota
	OpAccumulate
	OpRollback
)

func (o Op) String() string {
	switch o {
	case OpLoad:
		return "load"
	case OpAccumulate:
		return "accumulate"
	case OpRollback:
		return "rollback"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Step is one operation. Value is used by load and accumulate, Count by
// rollback.
type Step struct {
	Op    Op
	Value Word
	Count int
}

// Vector is a named operation sequence. Every standard vector starts with
// a load.
type Vector struct {
	Name  string
	Steps []Step
}

// Row is the observation after one step.
type Row struct {
	Vector      string
	Step        int
	Reconstruct Word
	Status      bool
	Accumulator Word
	// Returned is the rollback result; zero for other operations.
	Returned int
}

// Trace formats the row as a trace line:
//
//	TRACE <vector> <step> <reconstruct> <status> <accumulator> <returned>
//
// with hex values zero-padded for width and status printed as 1 or 0.
func (r Row) Trace(width int) string {
	status := 0
	if r.Status {
		status = 1
	}

	return fmt.Sprintf("TRACE %s %d %s %d %s %d",
		r.Vector, r.Step, r.Reconstruct.Hex(width), status, r.Accumulator.Hex(width), r.Returned)
}

// Replay runs v against a fresh reference accumulator and returns one row
// per step.
func Replay(width, depth int, v Vector) []Row {
	acc := NewAccumulator(width, depth)
	rows := make([]Row, 0, len(v.Steps))

	for i, step := range v.Steps {
		returned := 0

		switch step.Op {
		case OpLoad:
			acc.Load(step.Value)
		case OpAccumulate:
			acc.Accumulate(step.Value)
		case OpRollback:
			returned = acc.Rollback(step.Count)
		}

		rows = append(rows, Row{
			Vector:      v.Name,
			Step:        i,
			Reconstruct: acc.Reconstruct(),
			Status:      acc.Status(),
			Accumulator: acc.Value(),
			Returned:    returned,
		})
	}

	return rows
}

// ReplayAll replays every vector and concatenates the rows.
func ReplayAll(width, depth int, vectors []Vector) []Row {
	var rows []Row
	for _, v := range vectors {
		rows = append(rows, Replay(width, depth, v)...)
	}

	return rows
}

// TraceLines formats rows as trace lines.
func TraceLines(width int, rows []Row) []string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.Trace(width)
	}

	return lines
}

const (
	// evictionDepthLimit bounds the history depth for which the eviction
	// vector is generated; it pushes depth+2 deltas.
	evictionDepthLimit = 64
	randomSteps        = 24
	randomSeed         = 0x41544f4d694b
)

// StandardVectors returns the operation sequences every backend replays.
// Values are scaled to width. Rollback steps appear only when depth > 0.
func StandardVectors(width, depth int) []Vector {
	a := RepeatNibble(0xA, width)
	five := RepeatNibble(0x5, width)
	d1 := RepeatNibble(0x1, width)
	d2 := RepeatNibble(0x2, width)
	d4 := RepeatNibble(0x4, width)

	load := func(v Word) Step { return Step{Op: OpLoad, Value: v} }
	accumulate := func(v Word) Step { return Step{Op: OpAccumulate, Value: v} }
	rollback := func(n int) Step { return Step{Op: OpRollback, Count: n} }

	vectors := []Vector{
		{Name: "load_reconstruct", Steps: []Step{load(a)}},
		{Name: "complement", Steps: []Step{load(a), accumulate(five)}},
		{Name: "self_inverse", Steps: []Step{load(a), accumulate(five), accumulate(five)}},
		{Name: "commute_ab", Steps: []Step{load(a), accumulate(d1), accumulate(d2)}},
		{Name: "commute_ba", Steps: []Step{load(a), accumulate(d2), accumulate(d1)}},
		{Name: "reload", Steps: []Step{load(a), accumulate(d4), load(five), accumulate(d1)}},
	}

	if depth > 0 {
		vectors = append(vectors,
			Vector{Name: "rollback_two", Steps: []Step{
				load(Word{}), accumulate(d1), accumulate(d2), accumulate(d4), rollback(2),
			}},
			Vector{Name: "rollback_clamp", Steps: []Step{
				load(a), accumulate(d1), rollback(0), rollback(5), rollback(1),
			}},
		)

		if depth <= evictionDepthLimit {
			vectors = append(vectors, evictionVector(width, depth))
		}
	}

	vectors = append(vectors, randomVector(width, depth))

	return vectors
}

// evictionVector overfills the history by two, then asks to roll back
// everything pushed.
func evictionVector(width, depth int) Vector {
	steps := []Step{{Op: OpLoad, Value: RepeatNibble(0x3, width)}}

	for i := range depth + 2 {
		steps = append(steps, Step{Op: OpAccumulate, Value: FromUint64(uint64(i+1) * 0x9e3779b97f4a7c15).And(Mask(width))})
	}

	steps = append(steps, Step{Op: OpRollback, Count: depth + 2})

	return Vector{Name: "eviction", Steps: steps}
}

// randomVector is a fixed pseudo-random sequence from a seeded splitmix64.
func randomVector(width, depth int) Vector {
	rng := splitMix(randomSeed)

	steps := []Step{{Op: OpLoad, Value: rng.word(width)}}

	for range randomSteps {
		if depth > 0 && rng.next()%4 == 0 {
			steps = append(steps, Step{Op: OpRollback, Count: int(rng.next()%3) + 1})

			continue
		}

		steps = append(steps, Step{Op: OpAccumulate, Value: rng.word(width)})
	}

	return Vector{Name: "random", Steps: steps}
}

type splitMix uint64

func (s *splitMix) next() uint64 {
	*s += 0x9e3779b97f4a7c15

	z := uint64(*s)
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb

	return z ^ (z >> 31)
}

func (s *splitMix) word(width int) Word {
	var w Word
	for i := range w {
		w[i] = s.next()
	}

	return w.And(Mask(width))
}

// Describe renders a vector as one line per step, for debugging.
func (v Vector) Describe(width int) string {
	var b strings.Builder

	for i, s := range v.Steps {
		switch s.Op {
		case OpRollback:
			fmt.Fprintf(&b, "%s[%d] rollback(%d)\n", v.Name, i, s.Count)
		default:
			fmt.Fprintf(&b, "%s[%d] %s(%s)\n", v.Name, i, s.Op, s.Value.Hex(width))
		}
	}

	return b.String()
}
