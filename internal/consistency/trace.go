package consistency

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"atomikgen/internal/contract"
)

const (
	tracePrefix = "TRACE"
	traceFields = 7
	missingRow  = "<missing>"
)

// ParseTrace extracts the TRACE lines of a test program's output. Other
// lines, such as test runner chatter, are ignored.
func ParseTrace(out []byte) ([]contract.Row, error) {
	var rows []contract.Row

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for n := 1; sc.Scan(); n++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != tracePrefix {
			continue
		}

		row, err := parseRow(fields)
		if err != nil {
			return rows, fmt.Errorf("line %d: %w", n, err)
		}

		rows = append(rows, row)
	}

	if err := sc.Err(); err != nil {
		return rows, fmt.Errorf("reading trace: %w", err)
	}

	return rows, nil
}

func parseRow(fields []string) (contract.Row, error) {
	if len(fields) != traceFields {
		return contract.Row{}, fmt.Errorf("want %d fields, got %d", traceFields, len(fields))
	}

	step, err := strconv.Atoi(fields[2])
	if err != nil {
		return contract.Row{}, fmt.Errorf("step: %w", err)
	}

	reconstruct, err := contract.ParseWord(fields[3])
	if err != nil {
		return contract.Row{}, fmt.Errorf("reconstruct: %w", err)
	}

	var status bool

	switch fields[4] {
	case "1":
		status = true
	case "0":
	default:
		return contract.Row{}, fmt.Errorf("status must be 0 or 1, got %q", fields[4])
	}

	acc, err := contract.ParseWord(fields[5])
	if err != nil {
		return contract.Row{}, fmt.Errorf("accumulator: %w", err)
	}

	returned, err := strconv.Atoi(fields[6])
	if err != nil {
		return contract.Row{}, fmt.Errorf("returned: %w", err)
	}

	return contract.Row{
		Vector:      fields[1],
		Step:        step,
		Reconstruct: reconstruct,
		Status:      status,
		Accumulator: acc,
		Returned:    returned,
	}, nil
}

// Mismatch is one checkpoint where a backend disagreed with the reference.
type Mismatch struct {
	Index  int    `json:"index"`
	Vector string `json:"vector"`
	Want   string `json:"want"`
	Got    string `json:"got"`
}

// Compare lines got up against want by position. Rows are compared by
// value, so hex padding differences do not count.
func Compare(width int, want, got []contract.Row) []Mismatch {
	var out []Mismatch

	for i := range max(len(want), len(got)) {
		switch {
		case i >= len(got):
			out = append(out, Mismatch{Index: i, Vector: want[i].Vector, Want: want[i].Trace(width), Got: missingRow})
		case i >= len(want):
			out = append(out, Mismatch{Index: i, Vector: got[i].Vector, Want: missingRow, Got: got[i].Trace(width)})
		case want[i] != got[i]:
			out = append(out, Mismatch{Index: i, Vector: want[i].Vector, Want: want[i].Trace(width), Got: got[i].Trace(width)})
		}
	}

	return out
}
