package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppgranger/token-saver/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 200, cfg.MinInputLength)
	assert.InDelta(t, 0.10, cfg.MinCompressionRatio, 1e-9)
	assert.Equal(t, 4, cfg.CharsPerToken)
	assert.Equal(t, 300, cfg.WrapTimeout)
	assert.Equal(t, 150, cfg.MaxDiffHunkLines)
	assert.Equal(t, 3, cfg.MaxDiffContextLines)
	assert.Equal(t, 500, cfg.GenericTruncateThreshold)
	assert.Equal(t, 200, cfg.GenericKeepHead)
	assert.Equal(t, 100, cfg.GenericKeepTail)
	assert.Equal(t, 3, cfg.LintGroupThreshold)
	assert.Equal(t, 2, cfg.LintExampleCount)
	assert.Equal(t, 90, cfg.DBPruneDays)
}

func TestLoadFromBytes_Overlay(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(`
min_input_length: 50
min_compression_ratio: 0.25
generic_keep_head: 10
generic_keep_tail: 5
`))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MinInputLength)
	assert.InDelta(t, 0.25, cfg.MinCompressionRatio, 1e-9)
	assert.Equal(t, 10, cfg.GenericKeepHead)
	assert.Equal(t, 5, cfg.GenericKeepTail)
	// Untouched keys keep their defaults.
	assert.Equal(t, 150, cfg.MaxDiffHunkLines)
	assert.True(t, cfg.Enabled)
}

func TestLoadFromBytes_InvalidYAML(t *testing.T) {
	_, err := config.LoadFromBytes([]byte("min_input_length: [not a number"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("TS_TEST_MIN_LEN", "123")

	cfg, err := config.LoadFromBytes([]byte(`
min_input_length: ${TS_TEST_MIN_LEN}
wrap_timeout: ${TS_TEST_UNSET_TIMEOUT:-42}
`))
	require.NoError(t, err)

	assert.Equal(t, 123, cfg.MinInputLength)
	assert.Equal(t, 42, cfg.WrapTimeout)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TOKEN_SAVER_ENABLED", "false")
	t.Setenv("TOKEN_SAVER_MIN_INPUT_LENGTH", "999")
	t.Setenv("TOKEN_SAVER_MIN_COMPRESSION_RATIO", "0.5")
	t.Setenv("TOKEN_SAVER_DEBUG", "yes")

	cfg, err := config.LoadFromBytes([]byte("{}"))
	require.NoError(t, err)

	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 999, cfg.MinInputLength)
	assert.InDelta(t, 0.5, cfg.MinCompressionRatio, 1e-9)
}

func TestEnvOverrides_BadValuesIgnored(t *testing.T) {
	t.Setenv("TOKEN_SAVER_MIN_INPUT_LENGTH", "not-a-number")
	t.Setenv("TOKEN_SAVER_MIN_COMPRESSION_RATIO", "lots")

	cfg, err := config.LoadFromBytes([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.MinInputLength)
	assert.InDelta(t, 0.10, cfg.MinCompressionRatio, 1e-9)
}

func TestEnvOverrides_PrecedenceOverFile(t *testing.T) {
	t.Setenv("TOKEN_SAVER_MIN_INPUT_LENGTH", "777")

	cfg, err := config.LoadFromBytes([]byte("min_input_length: 50"))
	require.NoError(t, err)

	assert.Equal(t, 777, cfg.MinInputLength)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "negative ratio clamps to zero",
			yaml: "min_compression_ratio: -0.5",
			check: func(t *testing.T, cfg *config.Config) {
				assert.InDelta(t, 0.0, cfg.MinCompressionRatio, 1e-9)
			},
		},
		{
			name: "ratio above one clamps to one",
			yaml: "min_compression_ratio: 3.0",
			check: func(t *testing.T, cfg *config.Config) {
				assert.InDelta(t, 1.0, cfg.MinCompressionRatio, 1e-9)
			},
		},
		{
			name: "negative hunk cap clamps to one",
			yaml: "max_diff_hunk_lines: -10",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 1, cfg.MaxDiffHunkLines)
			},
		},
		{
			name: "negative context window clamps to zero",
			yaml: "max_diff_context_lines: -3",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 0, cfg.MaxDiffContextLines)
			},
		},
		{
			name: "zero chars per token clamps to one",
			yaml: "chars_per_token: 0",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 1, cfg.CharsPerToken)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadFromBytes([]byte(tt.yaml))
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidate_KeepWindowsExceedThreshold(t *testing.T) {
	_, err := config.LoadFromBytes([]byte(`
generic_truncate_threshold: 100
generic_keep_head: 90
generic_keep_tail: 90
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generic_keep_head")
}

func TestLoad_UsesDataDirFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TOKEN_SAVER_DATA_DIR", dir)

	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("min_input_length: 64\n"), 0o600))

	cfg := config.Load()
	assert.Equal(t, 64, cfg.MinInputLength)
}

func TestLoad_IgnoresBrokenFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TOKEN_SAVER_DATA_DIR", dir)

	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("{{{{ nope"), 0o600))

	cfg := config.Load()
	assert.Equal(t, 200, cfg.MinInputLength)
	assert.True(t, cfg.Enabled)
}

func TestImportantKeys(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte("important_keys: [request_id, trace_id]"))
	require.NoError(t, err)
	assert.Equal(t, []string{"request_id", "trace_id"}, cfg.ImportantKeys)

	t.Setenv("TOKEN_SAVER_IMPORTANT_KEYS", "foo, bar ,")
	cfg, err = config.LoadFromBytes([]byte("{}"))
	require.NoError(t, err)
	want := append([]string(nil), config.DefaultImportantKeys...)
	want = append(want, "foo", "bar")
	assert.Equal(t, want, cfg.ImportantKeys)
}

func TestDataDir_EnvOverride(t *testing.T) {
	t.Setenv("TOKEN_SAVER_DATA_DIR", "/tmp/ts-test")
	assert.Equal(t, "/tmp/ts-test", config.DataDir())
}
