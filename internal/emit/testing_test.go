package emit

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

type fixture struct {
	width       int
	depth       int
	reconstruct bool
	clockMHz    float64
}

func defaultFixture() fixture {
	return fixture{width: 32, depth: 4, reconstruct: true, clockMHz: 100}
}

func (f fixture) yaml() string {
	rollback := "rollback: {enabled: false}"
	if f.depth > 0 {
		rollback = fmt.Sprintf("rollback: {enabled: true, history_depth: %d}", f.depth)
	}

	hardware := ""
	if f.clockMHz > 0 {
		hardware = fmt.Sprintf("hardware: {target_device: GW1NR-9, clock_mhz: %g}\n", f.clockMHz)
	}

	return fmt.Sprintf(`catalogue:
  vertical: Video
  field: Streaming
  object: H264Delta
  version: 1.2.0
  description: H.264 frame deltas
schema:
  delta_fields:
    frame_delta: {type: delta_stream, width: %d, description: Frame-to-frame delta}
  operations:
    accumulate: true
    reconstruct: %t
    %s
  constraints: {max_memory_kb: 64}
%s`, f.width, f.reconstruct, rollback, hardware)
}

func compile(t *testing.T, f fixture) (*schema.Schema, *namespace.Mapping) {
	t.Helper()

	doc, err := schema.Parse([]byte(f.yaml()))
	require.NoError(t, err)

	doc.Source = "schemas/h264_delta.yaml"

	s, diags := schema.Compile(doc)
	require.NotNil(t, s, "errors: %v", diags.Errors)

	ns, err := namespace.Map(s.Path())
	require.NoError(t, err)

	return s, ns
}

func fileContent(t *testing.T, r *Result, suffix string) string {
	t.Helper()

	for _, f := range r.Files {
		if strings.HasSuffix(f.Path, suffix) {
			return string(f.Content)
		}
	}

	require.Failf(t, "file not generated", "no file ending in %q among %v", suffix, r.Paths())

	return ""
}
