package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/recordkit/internal/orm/schema"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	return tmpDir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "orm", cfg.Schema.Tag)
	assert.Equal(t, "db", cfg.Schema.ColumnTag)
	assert.Equal(t, "id", cfg.Schema.FallbackKey)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
	assert.Equal(t, schema.DefaultOptions(), cfg.SchemaOptions())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := inTempDir(t)

	content := `
schema:
  tag: entity
  fallback_key: key
log:
  level: debug
  development: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recordkit.yaml"), []byte(content), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "entity", cfg.Schema.Tag)
	assert.Equal(t, "db", cfg.Schema.ColumnTag)
	assert.Equal(t, "key", cfg.Schema.FallbackKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("schema:\n  column_tag: sql\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sql", cfg.Schema.ColumnTag)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	inTempDir(t)
	t.Setenv("RECORDKIT_LOG_LEVEL", "warn")
	t.Setenv("RECORDKIT_SCHEMA_FALLBACK_KEY", "uid")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "uid", cfg.Schema.FallbackKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"empty tag", "schema:\n  tag: \"\"\n"},
		{"tag with colon", "schema:\n  tag: \"a:b\"\n"},
		{"empty fallback", "schema:\n  fallback_key: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "recordkit.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLogConfig_ZapLevel(t *testing.T) {
	level, err := LogConfig{Level: "error"}.ZapLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.ErrorLevel, level)

	_, err = LogConfig{Level: "chatty"}.ZapLevel()
	assert.Error(t, err)
}
