package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendSQL, cfg.Storage.Backend)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 5*time.Second, cfg.Database.PingTimeout)
	assert.Equal(t, "zero", cfg.Import.NumericPolicy)
	assert.Equal(t, "accept", cfg.Import.UnknownValues)
	assert.Equal(t, "batch", cfg.Import.Transaction)
	assert.Equal(t, filepath.Join("data", "data_constants.json"), cfg.Storage.ConstantsPath())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  backend: file
  data_dir: /srv/rates
import:
  numeric_policy: fail
`), 0o644))
	t.Setenv("RATEBOOK_LOG_LEVEL", "debug")
	t.Setenv("RATEBOOK_IMPORT_UNKNOWN_VALUES", "extend")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "/srv/rates", cfg.Storage.DataDir)
	assert.Equal(t, "fail", cfg.Import.NumericPolicy)
	assert.Equal(t, "extend", cfg.Import.UnknownValues)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join("/srv/rates", "data_constants.json"), cfg.Storage.ConstantsPath())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Storage.Backend = "s3"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Database.DSN = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Storage.Backend, bad.Storage.DataDir = BackendFile, ""
	assert.Error(t, bad.Validate())
}
