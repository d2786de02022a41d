package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atomikgen/internal/diagnostic"
	"atomikgen/internal/engine"
)

func schemaYAML(object string, width int) string {
	return fmt.Sprintf(`catalogue:
  vertical: Edge
  field: Sensor
  object: %s
  version: 2.0.0
  description: fused IMU deltas
schema:
  delta_fields:
    accel_delta: {type: delta_stream, width: %d, description: acceleration delta}
  operations:
    accumulate: true
    reconstruct: true
    rollback: {enabled: true, history_depth: 4}
  constraints: {max_memory_kb: 1}
hardware: {target_device: GW1NR-9, clock_mhz: 27}
`, object, width)
}

// workspace moves the test into a fresh directory holding the named
// schema files.
func workspace(t *testing.T, schemas map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	for name, body := range schemas {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	return dir
}

func run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()

	return stdout.String(), stderr.String(), err
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitValidation, exitCode(errors.New("unknown flag")))
	assert.Equal(t, exitGeneration, exitCode(withCode(exitGeneration, errors.New("x"))))
	assert.Equal(t, exitFile, exitCode(fmt.Errorf("wrapped: %w", withCode(exitFile, errors.New("x")))))

	unreadable := &diagnostic.Diagnostics{}
	unreadable.AddError(diagnostic.KindIO, engine.CodeReadFailed, "permission denied", "")
	assert.Equal(t, exitFile, exitCode(loadError(unreadable, errors.New("permission denied"))))

	unparsable := &diagnostic.Diagnostics{}
	unparsable.AddError(diagnostic.KindStructural, engine.CodeParseFailed, "failed to parse schema", "")
	assert.Equal(t, exitValidation, exitCode(loadError(unparsable, errors.New("failed to parse schema"))))
	assert.Equal(t, exitValidation, exitCode(loadError(nil, errors.New("x"))))

	assert.Equal(t, exitFile, exitCode(verifyError(&engine.WriteError{Path: "x", Err: errors.New("denied")})))
	assert.Equal(t, exitFile, exitCode(verifyError(fmt.Errorf("creating output directory: %w", &fs.PathError{Op: "mkdir", Path: "x", Err: fs.ErrPermission}))))
	assert.Equal(t, exitGeneration, exitCode(verifyError(engine.ErrUnknownTarget)))
}

func TestList(t *testing.T) {
	workspace(t, nil)

	out, _, err := run("list")
	require.NoError(t, err)

	assert.Contains(t, out, "Available target languages:")

	for _, target := range []string{"python", "rust", "c", "javascript", "go", "verilog"} {
		assert.Contains(t, out, "  "+target+"\n")
	}
}

func TestConfigFile(t *testing.T) {
	dir := workspace(t, map[string]string{
		"atomikgen.yaml": "output_dir: custom\nlog_level: loud\n",
	})

	_, _, err := run("list")
	require.Error(t, err)
	assert.Equal(t, exitFile, exitCode(err))
	assert.Contains(t, err.Error(), "log_level must be one of")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "atomikgen.yaml"), []byte("output_dir: custom\n"), 0o644))

	_, _, err = run("list", "--log-level", "shout")
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))

	_, _, err = run("list", "--config", "missing.yaml")
	require.Error(t, err)
	assert.Equal(t, exitFile, exitCode(err))
}
