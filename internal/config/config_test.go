package config

import (
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	fs := afero.NewMemMapFs()
	AppFs = fs
	t.Cleanup(func() { AppFs = prev })
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	useMemFs(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/app")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "schema.prisma", cfg.SchemaPath)
	assert.Equal(t, "postgres://localhost/app", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.IntrospectionTimeout)
	assert.True(t, cfg.HistoryEnabled)
	assert.False(t, cfg.AcceptDataLoss)
	assert.Empty(t, cfg.IgnoreTables)
}

func TestLoad_File(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/project/.schema-engine.yaml", []byte(`
schema_path: db/schema.prisma
database_url: sqlite://dev.db
provider: sqlite
introspection_timeout: 5s
debug: true
drift:
  ignore_tables: [audit_log]
  ignore_file: /project/ignore.yaml
history:
  enabled: false
`), 0644))
	require.NoError(t, afero.WriteFile(fs, "/project/ignore.yaml", []byte("tables:\n  - legacy_users\n"), 0644))

	cfg, err := Load(viper.New(), "/project/.schema-engine.yaml")
	require.NoError(t, err)
	assert.Equal(t, "db/schema.prisma", cfg.SchemaPath)
	assert.Equal(t, "sqlite://dev.db", cfg.DatabaseURL)
	assert.Equal(t, "sqlite", cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.IntrospectionTimeout)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.HistoryEnabled)
	assert.Equal(t, []string{"audit_log", "legacy_users"}, cfg.IgnoreTables)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/project/.schema-engine.yaml", []byte("provider: sqlite\n"), 0644))
	t.Setenv("SCHEMA_ENGINE_PROVIDER", "postgres")
	t.Setenv("SCHEMA_ENGINE_ACCEPT_DATA_LOSS", "true")

	cfg, err := Load(viper.New(), "/project/.schema-engine.yaml")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Provider)
	assert.True(t, cfg.AcceptDataLoss)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	useMemFs(t)
	_, err := Load(viper.New(), "/nowhere/.schema-engine.yaml")
	assert.Error(t, err)
}

func TestReadIgnoreFile_Invalid(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("tables: {"), 0644))
	_, err := ReadIgnoreFile("/bad.yaml")
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	useMemFs(t)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", "/home/tester")

	path, err := SaveConfig(&Config{
		SchemaPath:           "schema.prisma",
		Provider:             "mysql",
		IntrospectionTimeout: time.Minute,
		IgnoreTables:         []string{"audit_log"},
		HistoryEnabled:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.config/schema-engine/.schema-engine.yaml", path)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Provider)
	assert.Equal(t, time.Minute, cfg.IntrospectionTimeout)
	assert.Equal(t, []string{"audit_log"}, cfg.IgnoreTables)
	assert.True(t, cfg.HistoryEnabled)
}
