package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"atomikgen/internal/diagnostic"
)

const validYAML = `
catalogue:
  vertical: Video
  field: Streaming
  object: H264Delta
  version: 1.0.0
  description: H.264 frame deltas
  author: ATOMiK
  license: MIT
schema:
  delta_fields:
    frame_delta:
      type: delta_stream
      width: 64
      description: Frame-to-frame delta
  operations:
    accumulate: {enabled: true}
    reconstruct: {enabled: true}
    rollback: {enabled: true, history_depth: 16}
  constraints:
    max_memory_kb: 64
hardware:
  target_device: GW1NR-9
  clock_mhz: 94.5
  rtl_params:
    DATA_WIDTH: 64
`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()

	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	return doc
}

func codes(list []diagnostic.Diagnostic) []string {
	out := make([]string, 0, len(list))
	for _, d := range list {
		out = append(out, d.Code)
	}

	return out
}

func findCode(list []diagnostic.Diagnostic, code string) (diagnostic.Diagnostic, bool) {
	for _, d := range list {
		if d.Code == code {
			return d, true
		}
	}

	return diagnostic.Diagnostic{}, false
}
