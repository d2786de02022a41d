package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorByName(t *testing.T, vectors []Vector, name string) Vector {
	t.Helper()

	for _, v := range vectors {
		if v.Name == name {
			return v
		}
	}

	require.Failf(t, "vector not found", "%s", name)

	return Vector{}
}

func TestStandardVectors_Scenarios(t *testing.T) {
	vectors := StandardVectors(64, 10)

	rows := Replay(64, 10, vectorByName(t, vectors, "complement"))
	assert.Equal(t, "ffffffffffffffff", rows[len(rows)-1].Reconstruct.Hex(64))

	rows = Replay(64, 10, vectorByName(t, vectors, "self_inverse"))
	last := rows[len(rows)-1]
	assert.True(t, last.Status)
	assert.Equal(t, RepeatNibble(0xA, 64), last.Reconstruct)

	ab := Replay(64, 10, vectorByName(t, vectors, "commute_ab"))
	ba := Replay(64, 10, vectorByName(t, vectors, "commute_ba"))
	assert.Equal(t, ab[2].Reconstruct, ba[2].Reconstruct)
	assert.Equal(t, ab[2].Accumulator, ba[2].Accumulator)

	rows = Replay(64, 10, vectorByName(t, vectors, "rollback_two"))
	assert.Equal(t, FromUint64(0x7777777777777777), rows[3].Accumulator)
	assert.Equal(t, 2, rows[4].Returned)
	assert.Equal(t, FromUint64(0x1111111111111111), rows[4].Accumulator)

	rows = Replay(64, 10, vectorByName(t, vectors, "rollback_clamp"))
	assert.Equal(t, []int{0, 0, 0, 1, 0}, []int{rows[0].Returned, rows[1].Returned, rows[2].Returned, rows[3].Returned, rows[4].Returned})
	assert.True(t, rows[3].Status)

	rows = Replay(64, 10, vectorByName(t, vectors, "eviction"))
	assert.Equal(t, 10, rows[len(rows)-1].Returned)
	assert.False(t, rows[len(rows)-1].Status)
}

func TestStandardVectors_NoRollbackWithoutHistory(t *testing.T) {
	for _, v := range StandardVectors(32, 0) {
		for _, s := range v.Steps {
			assert.NotEqual(t, OpRollback, s.Op, v.Name)
		}
	}
}

func TestStandardVectors_StartWithLoad(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8, 16, 32, 64, 128, 256} {
		for _, v := range StandardVectors(width, 4) {
			require.NotEmpty(t, v.Steps)
			assert.Equal(t, OpLoad, v.Steps[0].Op, v.Name)

			for _, s := range v.Steps {
				assert.Equal(t, s.Value, s.Value.Masked(width), "values fit the width")
			}
		}
	}
}

func TestStandardVectors_EvictionBounded(t *testing.T) {
	vectors := StandardVectors(64, 4096)

	for _, v := range vectors {
		assert.NotEqual(t, "eviction", v.Name)
	}
}

func TestStandardVectors_Deterministic(t *testing.T) {
	assert.Equal(t, StandardVectors(128, 8), StandardVectors(128, 8))
}

func TestRowTrace(t *testing.T) {
	row := Row{Vector: "rollback_two", Step: 4, Reconstruct: FromUint64(0x11), Accumulator: FromUint64(0x11), Returned: 2}
	assert.Equal(t, "TRACE rollback_two 4 00000011 0 00000011 2", row.Trace(32))

	row = Row{Vector: "self_inverse", Step: 2, Status: true}
	assert.Equal(t, "TRACE self_inverse 2 0 1 0 0", row.Trace(1))
}

func TestReplayAllAndTraceLines(t *testing.T) {
	vectors := StandardVectors(8, 2)
	rows := ReplayAll(8, 2, vectors)

	total := 0
	for _, v := range vectors {
		total += len(v.Steps)
	}

	require.Len(t, rows, total)

	lines := TraceLines(8, rows)
	assert.Equal(t, "TRACE load_reconstruct 0 aa 1 00 0", lines[0])
}

func TestVectorDescribe(t *testing.T) {
	v := Vector{Name: "x", Steps: []Step{{Op: OpLoad, Value: FromUint64(1)}, {Op: OpRollback, Count: 2}}}
	assert.Equal(t, "x[0] load(01)\nx[1] rollback(2)\n", v.Describe(8))
	assert.Equal(t, "op(9)", Op(9).String())
}
