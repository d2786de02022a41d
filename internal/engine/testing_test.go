package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"atomikgen/internal/config"
	"atomikgen/internal/diagnostic"
)

type schemaSpec struct {
	vertical string
	field    string
	object   string
	width    int
	declared int
}

func h264() schemaSpec {
	return schemaSpec{vertical: "Video", field: "Streaming", object: "H264Delta", width: 64}
}

func (s schemaSpec) yaml() string {
	hardware := "hardware: {target_device: GW1NR-9, clock_mhz: 50}\n"
	if s.declared > 0 {
		hardware = fmt.Sprintf("hardware: {target_device: GW1NR-9, clock_mhz: 50, rtl_params: {DATA_WIDTH: %d}}\n", s.declared)
	}

	return fmt.Sprintf(`catalogue:
  vertical: %s
  field: %s
  object: %s
  version: 1.0.0
  description: test schema
  author: tests
  license: MIT
schema:
  delta_fields:
    delta: {type: delta_stream, width: %d, description: the delta}
  operations:
    accumulate: true
    reconstruct: true
    rollback: {enabled: true, history_depth: 4}
  constraints: {max_memory_kb: 1}
%s`, s.vertical, s.field, s.object, s.width, hardware)
}

func writeSchema(t *testing.T, dir, name string, s schemaSpec) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(s.yaml()), 0o644))

	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")

	return cfg
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()

	n := 0

	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			n++
		}

		return nil
	})
	if os.IsNotExist(err) {
		return 0
	}

	require.NoError(t, err)

	return n
}

func findCode(list []diagnostic.Diagnostic, code string) (diagnostic.Diagnostic, bool) {
	for _, d := range list {
		if d.Code == code {
			return d, true
		}
	}

	return diagnostic.Diagnostic{}, false
}
