package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalConfig(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	cfg := GetGlobalConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "table", cfg.Output.DefaultFormat)
	assert.Same(t, cfg, GetGlobalConfig())

	ResetGlobalConfigForTest()
	assert.NotSame(t, cfg, GetGlobalConfig())
}

func TestSetGlobalConfig(t *testing.T) {
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	cfg := Defaults()
	cfg.Output.DefaultFormat = "json"
	cfg.Logging.Level = "debug"
	cfg.Logging.File = "/tmp/pz-test.log"
	SetGlobalConfig(cfg)

	assert.Same(t, cfg, GetGlobalConfig())
	assert.Equal(t, "json", GetDefaultOutputFormat())
	assert.Equal(t, "debug", GetLogLevel())
	assert.Equal(t, "/tmp/pz-test.log", GetLogFile())
	assert.Equal(t, "debug", GetLoggingConfig().Level)
}

func TestGetConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, home, dir)

	t.Setenv(EnvHome, "")
	t.Setenv("HOME", home)
	dir, err = GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".planetzero"), dir)
}

func TestEnsureConfigDir(t *testing.T) {
	home := filepath.Join(t.TempDir(), "pz")
	t.Setenv(EnvHome, home)
	require.NoError(t, EnsureConfigDir())
	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureLogDir(t *testing.T) {
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)

	logDir := filepath.Join(t.TempDir(), "logs")
	cfg := Defaults()
	cfg.Logging.File = filepath.Join(logDir, "pz.log")
	SetGlobalConfig(cfg)

	require.NoError(t, EnsureLogDir())
	_, err := os.Stat(logDir)
	require.NoError(t, err)

	cfg.Logging.File = ""
	assert.NoError(t, EnsureLogDir())
}

func TestNewFallsBackOnMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	t.Setenv(EnvStoreDriver, "")
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("store: [oops"), 0o600))

	cfg := New()
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.ConfigPath())
}
