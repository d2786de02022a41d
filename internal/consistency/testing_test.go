package consistency

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"atomikgen/internal/contract"
	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

const testSchema = `catalogue:
  vertical: Finance
  field: Trading
  object: PriceTick
  version: 0.3.0
  description: price tick deltas
schema:
  delta_fields:
    price_delta: {type: delta_stream, width: 64, description: price change}
  operations:
    accumulate: true
    reconstruct: true
    rollback: {enabled: true, history_depth: 8}
`

func compile(t *testing.T) (*schema.Schema, *namespace.Mapping) {
	t.Helper()

	doc, err := schema.Parse([]byte(testSchema))
	require.NoError(t, err)

	doc.Source = "price_tick.yaml"

	s, diags := schema.Compile(doc)
	require.NoError(t, diags.Error())

	ns, err := namespace.Map(s.Path())
	require.NoError(t, err)

	return s, ns
}

func reference(s *schema.Schema) []contract.Row {
	depth := s.HistoryCapacity()

	return contract.ReplayAll(s.DataWidth, depth, contract.StandardVectors(s.DataWidth, depth))
}

// cannedRunner replays a trace file written into the target directory.
func cannedRunner(target string) Runner {
	return Runner{
		Target: target,
		Tools:  []string{"sh"},
		Commands: func(Job) [][]string {
			return [][]string{{"sh", "-c", "cat trace.txt"}}
		},
	}
}

func writeTrace(t *testing.T, root string, ns *namespace.Mapping, target string, lines []string) {
	t.Helper()

	tgt, ok := ns.Target(target)
	require.True(t, ok)

	dir := filepath.Join(root, filepath.FromSlash(tgt.Root))
	require.NoError(t, os.MkdirAll(dir, 0o755))

	body := "running vectors\n" + strings.Join(lines, "\n") + "\nok\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trace.txt"), []byte(body), 0o644))
}
