package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "atomikgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "generated", cfg.OutputDir)
	assert.True(t, cfg.Validate)
	assert.Empty(t, cfg.Targets)
	require.NoError(t, cfg.Check())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
output_dir: out
targets: [python, go]
log_level: debug
parallelism: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, []string{"python", "go"}, cfg.Targets)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.True(t, cfg.Validate)
}

func TestLoad_MissingFiles(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(DefaultFile)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load("elsewhere.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr []string
	}{
		{
			name:    "unknown target",
			content: "targets: [python, cobol]\n",
			wantErr: []string{`targets[1]: unknown target "cobol"`},
		},
		{
			name:    "bad level and format",
			content: "log_level: loud\nlog_format: xml\n",
			wantErr: []string{"log_level must be one of", "log_format must be one of"},
		},
		{
			name:    "empty output dir",
			content: "output_dir: \"\"\n",
			wantErr: []string{"output_dir is required"},
		},
		{
			name:    "parallelism",
			content: "parallelism: 0\n",
			wantErr: []string{"parallelism must be gte 1"},
		},
		{
			name:    "yaml type error",
			content: "parallelism: many\n",
			wantErr: []string{"parsing config file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)

			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	cfg := Default()
	cfg.LogLevel = "info"
	cfg.LogFormat = "json"

	log := cfg.NewLogger(&buf)
	log.Debug("hidden")
	log.Info("shown", "schema", "h264.yaml")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"schema":"h264.yaml"`)

	buf.Reset()

	cfg.LogFormat = "text"
	cfg.NewLogger(&buf).Warn("careful")
	assert.Contains(t, buf.String(), "level=WARN msg=careful")
}
