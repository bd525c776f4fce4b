package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()
	t.Setenv("ACP_DATA_DIR", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultProxyAddr, cfg.ProxyAddr)
	assert.Equal(t, defaultManagementAddr, cfg.ManagementAddr)
	assert.False(t, cfg.Debug)
}

func TestLoad_DataDirEnvOverride(t *testing.T) {
	resetViper()
	dir := t.TempDir() + "/custom"
	t.Setenv("ACP_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestResolveDataDir_DefaultsUnderHome(t *testing.T) {
	resetViper()
	t.Setenv("ACP_DATA_DIR", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := resolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, home+"/"+defaultSecretsDirName, dir)
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
