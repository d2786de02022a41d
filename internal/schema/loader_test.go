package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_YAML(t *testing.T) {
	doc := mustParse(t, validYAML)

	require.NotNil(t, doc.Catalogue)
	assert.Equal(t, "Video", doc.Catalogue.Vertical)
	assert.Equal(t, "H264Delta", doc.Catalogue.Object)

	require.NotNil(t, doc.Schema)
	require.Len(t, doc.Schema.DeltaFields, 1)
	assert.Equal(t, "frame_delta", doc.Schema.DeltaFields[0].Name)
	assert.Equal(t, 64, doc.Schema.DeltaFields[0].Width)
	assert.Positive(t, doc.Schema.DeltaFields[0].Line)

	rb := doc.Schema.Operations.Rollback
	require.NotNil(t, rb)
	assert.True(t, rb.IsEnabled(false))
	require.NotNil(t, rb.HistoryDepth)
	assert.Equal(t, 16, *rb.HistoryDepth)

	width, ok := doc.DeclaredWidth()
	assert.True(t, ok)
	assert.Equal(t, 64, width)
	assert.InDelta(t, 94.5, doc.Hardware.ClockMHz, 1e-9)
}

func TestParse_JSON(t *testing.T) {
	src := `{
  "catalogue": {"vertical": "Finance", "field": "Trading", "object": "PriceTick", "version": "2.1.0"},
  "schema": {
    "delta_fields": {
      "bid": {"type": "parameter_delta", "width": 32},
      "ask": {"type": "parameter_delta", "width": 32}
    },
    "operations": {"accumulate": true, "rollback": {"enabled": true, "history_depth": 4096}}
  }
}`

	doc := mustParse(t, src)
	assert.Equal(t, []string{"bid", "ask"}, fieldNames(doc.Schema.DeltaFields))
	assert.True(t, doc.Schema.Operations.Accumulate.IsEnabled(false))
	assert.Nil(t, doc.Schema.Operations.Reconstruct)
	assert.True(t, doc.Schema.Operations.Reconstruct.IsEnabled(true))
}

func TestParse_PreservesFieldOrder(t *testing.T) {
	src := `
schema:
  delta_fields:
    zeta: {type: delta_stream, width: 8}
    alpha: {type: delta_stream, width: 8}
    mid: {type: delta_stream, width: 16}
`
	doc := mustParse(t, src)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, fieldNames(doc.Schema.DeltaFields))
}

func TestParse_SyntaxErrorIsReturned(t *testing.T) {
	_, err := Parse([]byte("catalogue: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse schema")
}

func TestParse_TypeMismatchIsCollected(t *testing.T) {
	src := `
schema:
  delta_fields:
    a: {type: delta_stream, width: wide}
`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, doc.decodeErrors)

	diags := Validate(doc)
	_, found := findCode(diags.Errors, CodeTypeMismatch)
	assert.True(t, found, "codes: %v", codes(diags.Errors))
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse([]byte("  \n"))
	require.NoError(t, err)

	diags := Validate(doc)
	assert.False(t, diags.IsValid())
	assert.Len(t, diags.Errors, 2)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "h264.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func fieldNames(l FieldList) []string {
	names := make([]string, 0, len(l))
	for _, f := range l {
		names = append(names, f.Name)
	}

	return names
}
