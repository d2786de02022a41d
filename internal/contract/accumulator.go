package contract

// Accumulator is the reference delta-state accumulator. It is not safe for
// concurrent use.
type Accumulator struct {
	width   int
	mask    Word
	initial Word
	acc     Word
	history *Ring[Word]
}

// NewAccumulator returns an empty accumulator of the given width in bits
// keeping up to depth deltas of history.
func NewAccumulator(width, depth int) *Accumulator {
	return &Accumulator{
		width:   width,
		mask:    Mask(width),
		history: NewRing[Word](depth),
	}
}

// Load sets the initial state and clears the accumulator and history.
func (a *Accumulator) Load(v Word) {
	a.initial = v.And(a.mask)
	a.acc = Word{}
	a.history.Reset()
}

// Accumulate folds d into the accumulator and records it in history.
func (a *Accumulator) Accumulate(d Word) {
	d = d.And(a.mask)
	a.history.Push(d)
	a.acc = a.acc.Xor(d)
}

// Reconstruct returns initial XOR accumulator.
func (a *Accumulator) Reconstruct() Word {
	return a.initial.Xor(a.acc)
}

// Status reports whether the accumulator is zero.
func (a *Accumulator) Status() bool {
	return a.acc.IsZero()
}

// Rollback undoes up to n of the most recent deltas still in history and
// returns how many were undone.
func (a *Accumulator) Rollback(n int) int {
	undone := 0

	for undone < n {
		d, ok := a.history.Pop()
		if !ok {
			break
		}

		a.acc = a.acc.Xor(d)
		undone++
	}

	return undone
}

// Value returns the accumulator.
func (a *Accumulator) Value() Word { return a.acc }

// Initial returns the initial state.
func (a *Accumulator) Initial() Word { return a.initial }

// HistoryLen returns the number of deltas that can still be rolled back.
func (a *Accumulator) HistoryLen() int { return a.history.Len() }

// Width returns the accumulator width in bits.
func (a *Accumulator) Width() int { return a.width }
