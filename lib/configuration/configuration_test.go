package configuration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"goalietron/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestReadPatreon(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")

	// missing files fall back to the defaults
	config, err := ReadPatreon(name)
	require.NoError(t, err)
	require.Equal(t, DefaultPatreon(), config)

	err = os.WriteFile(name, []byte(`{
		// cache disabled on purpose
		cache_timeout_seconds: 0,
		offline: true,
		goals_file: "goals.json",
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		fetch_timeout_seconds: 10,
	}`), 0644)
	require.NoError(t, err)

	config, err = ReadPatreon(name)
	require.NoError(t, err)
	require.Equal(t, 0, *config.CacheTimeoutSeconds)
	require.Equal(t, 10, *config.FetchTimeoutSeconds)
	require.True(t, config.Offline)
	require.Equal(t, "goals.json", config.GoalsFile)
	require.Equal(t, DefaultPatreon().BaseUrl, config.BaseUrl)
}

func TestOpenClient(t *testing.T) {
	config := DefaultPatreon()
	config.Offline = true
	config.CacheTimeoutSeconds = intPtr(-4)
	config.RestyDumpDir = filepath.Join(t.TempDir(), "dumps")

	client, err := config.OpenClient(telemetry.NewRecordingAPI())
	require.NoError(t, err)
	defer client.Close()

	require.True(t, client.IsOfflineMode())
	require.Zero(t, client.CacheTimeout())

	record, err := client.PublicCampaignData(context.Background(), "alice", true)
	require.NoError(t, err)
	require.Greater(t, record.Patrons(), 0)
}
