package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsonfilter/internal/resolve"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jsonfilter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().EntityAlias, cfg.EntityAlias)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.Catalog)
	assert.Nil(t, cfg.AliasMap())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
catalog: crm.yaml
reference_db: refs.db
entity_alias: p
log_level: debug
aliases:
  - name: Area
    path: AreaLevel1.Name
  - name: Org
    path: Organisation
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "crm.yaml", cfg.Catalog)
	assert.Equal(t, "refs.db", cfg.ReferenceDB)
	assert.Equal(t, "p", cfg.EntityAlias)
	assert.Equal(t, resolve.AliasMap{"Area": "AreaLevel1.Name", "Org": "Organisation"}, cfg.AliasMap())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "catalog: crm.yaml\nentity_alias: p\n")
	t.Setenv("JSONFILTER_CATALOG", "other.cue")
	t.Setenv("JSONFILTER_REFERENCE_DB", "/tmp/refs.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "other.cue", cfg.Catalog)
	assert.Equal(t, "/tmp/refs.db", cfg.ReferenceDB)
	assert.Equal(t, "p", cfg.EntityAlias)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown key", content: "catalgo: crm.yaml\n"},
		{name: "alias without path", content: "aliases:\n  - name: Area\n"},
		{name: "duplicate alias", content: "aliases:\n  - {name: A, path: X}\n  - {name: A, path: Y}\n"},
		{name: "bad log level", content: "log_level: loud\n"},
		{name: "malformed yaml", content: "catalog: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
