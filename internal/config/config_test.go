package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultPath, cfg.Path)
	assert.Equal(t, "auto", cfg.Backend)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Keyring)
	assert.Empty(t, cfg.File)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "path: vault.db\nbcrypt_cost: 6\nkeyring: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "safelist.yaml"), []byte(yaml), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "vault.db", cfg.Path)
	assert.Equal(t, 6, cfg.BcryptCost)
	assert.False(t, cfg.Keyring)
	assert.Equal(t, filepath.Join(dir, "safelist.yaml"), cfg.File)

	// environment wins over the file
	t.Setenv("SAFELIST_PATH", "other.json")
	t.Setenv("SAFELIST_LOG_LEVEL", "debug")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "other.json", cfg.Path)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 6, cfg.BcryptCost)
}

func TestLoadExplicitFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("backend: bolt\n"), 0600))
	t.Setenv("SAFELIST_CONFIG", file)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Backend)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("SAFELIST_BCRYPT_COST", "2")
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("SAFELIST_BCRYPT_COST", "10")
	t.Setenv("SAFELIST_BACKEND", "sqlite")
	_, err = Load(t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("SAFELIST_BACKEND", "json")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "safelist.yaml"), []byte("path: [unterminated\n"), 0600))
	_, err = Load(dir)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
