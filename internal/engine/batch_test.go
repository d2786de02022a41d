package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"b.yaml", "a.json", "c.YML", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	paths, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "c.YML"),
	}, paths)

	_, err = Discover(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()

	price := schemaSpec{vertical: "Finance", field: "Trading", object: "PriceTick", width: 32}
	bad := h264()
	bad.declared = 16

	writeSchema(t, dir, "1_h264.yaml", h264())
	writeSchema(t, dir, "2_price.yaml", price)
	writeSchema(t, dir, "3_bad.yaml", bad)
	writeSchema(t, dir, "4_h264_again.yaml", h264())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "5_broken.yaml"), []byte("catalogue: [unterminated"), 0o644))

	cfg := testConfig(t)
	cfg.Targets = []string{namespace.Python, namespace.Go}
	cfg.Parallelism = 2

	report, err := Batch(t.Context(), dir, cfg)
	require.NoError(t, err)
	require.Len(t, report.Schemas, 5)

	_, err = uuid.Parse(report.RunID)
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, 3, report.Failures())

	first, second, invalid, dup, broken := report.Schemas[0], report.Schemas[1], report.Schemas[2], report.Schemas[3], report.Schemas[4]

	assert.True(t, first.OK())
	assert.Equal(t, "Video.Streaming.H264Delta", first.Namespace)
	require.Len(t, first.Results, 2)
	assert.Equal(t, namespace.Python, first.Results[0].Target)
	assert.Equal(t, namespace.Go, first.Results[1].Target)

	assert.True(t, second.OK())
	assert.NotEmpty(t, second.Files)

	assert.False(t, invalid.Valid)
	assert.Empty(t, invalid.Files)

	assert.False(t, dup.Valid)
	assert.Contains(t, dup.Error, "duplicate namespace")
	assert.Empty(t, dup.Results)

	_, ok := findCode(dup.Diagnostics.Errors, schema.CodeDuplicateNamespace)
	assert.True(t, ok)

	assert.False(t, broken.Valid)
	assert.NotEmpty(t, broken.Error)
	_, ok = findCode(broken.Diagnostics.Errors, CodeParseFailed)
	assert.True(t, ok)

	assert.Equal(t, report.TotalFiles(), countFiles(t, cfg.OutputDir))
}

func TestBatch_WriteJSON(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "h264.yaml", h264())

	cfg := testConfig(t)
	cfg.Targets = []string{namespace.Verilog}

	report, err := Batch(t.Context(), dir, cfg)
	require.NoError(t, err)
	require.True(t, report.OK())

	path := filepath.Join(t.TempDir(), "reports", "batch.json")
	require.NoError(t, report.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		RunID   string `json:"run_id"`
		Schemas []struct {
			Path    string `json:"path"`
			Valid   bool   `json:"valid"`
			Results []struct {
				Target  string `json:"target"`
				Success bool   `json:"success"`
				Files   []struct {
					Path string `json:"path"`
				} `json:"files"`
			} `json:"results"`
		} `json:"schemas"`
	}

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	require.Len(t, decoded.Schemas, 1)
	assert.True(t, decoded.Schemas[0].Valid)
	require.Len(t, decoded.Schemas[0].Results, 1)
	assert.Equal(t, namespace.Verilog, decoded.Schemas[0].Results[0].Target)
	assert.NotEmpty(t, decoded.Schemas[0].Results[0].Files)
	assert.NotContains(t, string(data), "endmodule")
}

func TestBatch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "h264.yaml", h264())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Batch(ctx, dir, testConfig(t))
	require.ErrorIs(t, err, context.Canceled)
}
