package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/joi-to-zod/internal/config"
	"github.com/DeusData/joi-to-zod/internal/discover"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeFile(t, ".joizod.yaml", "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"**/*"}, cfg.Include)
	assert.Equal(t, discover.DefaultExclude, cfg.Exclude)
	assert.False(t, cfg.DryRun)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, time.Duration(0), cfg.FileTimeout)
	assert.Equal(t, config.DefaultMappingFile, cfg.MappingFile)
	assert.Equal(t, "z", cfg.TargetAlias)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeFile(t, ".joizod.yaml", `include:
  - "src/**/*.ts"
dry_run: true
parallel: false
log_level: debug
inline_constants: true
file_timeout: 5s
journal: runs.db
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/**/*.ts"}, cfg.Include)
	assert.True(t, cfg.DryRun)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.True(t, cfg.InlineConstants)
	assert.Equal(t, 5*time.Second, cfg.FileTimeout)
	assert.Equal(t, "runs.db", cfg.Journal)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, ".joizod.yaml", "dry_run: false\n")
	t.Setenv("JOIZOD_DRY_RUN", "true")
	t.Setenv("JOIZOD_TARGET_ALIAS", "zod")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "zod", cfg.TargetAlias)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := config.LoadConfig(writeFile(t, ".joizod.yaml", "log_level: loud\n"))
	require.ErrorIs(t, err, config.ErrInvalidLogLevel)

	_, err = config.LoadConfig(writeFile(t, ".joizod.yaml", "target_alias: 'a b'\n"))
	require.ErrorIs(t, err, config.ErrInvalidTargetAlias)

	_, err = config.LoadConfig(writeFile(t, ".joizod.yaml", "include: [\n"))
	require.Error(t, err)
}

func TestValidate_ZeroConfig_NoError(t *testing.T) {
	cfg := config.Config{}
	require.NoError(t, cfg.Validate())
}

func TestLoadMappings(t *testing.T) {
	path := writeFile(t, "m.yaml", `mappings:
  - primitive: string
    joi: token()
    zod: regex(/^[a-zA-Z0-9_]+$/)
  - joi: strip()
    zod: ""
`)
	ms, err := config.LoadMappings(path)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "string", ms[0].Primitive)
	assert.Equal(t, "token()", ms[0].Source)
	assert.Equal(t, "regex(/^[a-zA-Z0-9_]+$/)", ms[0].Target)
	assert.Equal(t, "*", ms[1].Primitive)
	assert.Equal(t, "", ms[1].Target)

	ms, err = config.LoadMappings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, ms)

	_, err = config.LoadMappings(writeFile(t, "bad.yaml", "mappings: {"))
	require.Error(t, err)

	_, err = config.LoadMappings(writeFile(t, "nojoi.yaml", "mappings:\n  - zod: x()\n"))
	require.Error(t, err)
}
