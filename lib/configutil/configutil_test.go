package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl string `json:"base_url"`
	Offline bool   `json:"offline"`
	Timeout *int   `json:"timeout"`
	Port    int    `json:"port"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	require.NoError(t, err)
}

func TestLocalName(t *testing.T) {
	testCases := []struct {
		name   string
		expect string
	}{
		{name: "config.json5", expect: "config.local.json5"},
		{name: filepath.Join("a", "b", "telemetry.json5"), expect: filepath.Join("a", "b", "telemetry.local.json5")},
		{name: "config", expect: "config.local"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, LocalName(test.name))
	}
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		base_url: "https://www.patreon.com/",
		port: 9120,
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{offline: true, port: 8080}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://www.patreon.com/", cfg.BaseUrl)
	require.True(t, cfg.Offline)
	require.Equal(t, 8080, cfg.Port)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{port: `)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.Error(t, err)
	require.False(t, os.IsNotExist(err))
}

func TestReadConfigWithDefaults(t *testing.T) {
	zero := 0
	sixty := 60
	defaults := testConfig{BaseUrl: "https://www.patreon.com/", Timeout: &sixty, Port: 9120}

	cfg, err := ReadConfigWithDefaults(filepath.Join(t.TempDir(), "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{timeout: 0, base_url: "http://localhost:1234/"}`)
	cfg, err = ReadConfigWithDefaults(filepath.Join(dir, "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:1234/", cfg.BaseUrl)
	require.Equal(t, &zero, cfg.Timeout)
	require.Equal(t, 9120, cfg.Port)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0777))
	writeFile(t, filepath.Join(root, "goalietron.json5"), `{port: 1}`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("goalietron.json5")
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Port)
}
