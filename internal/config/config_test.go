package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vitalcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDecodesTomlAndAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "vitalcore-test"
port = 9999

[database]
url = "postgres://localhost/test"

[token]
secret = "s3cret"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "vitalcore-test", cfg.Name)
	require.Equal(t, 9999, cfg.Port)
	require.Equal(t, "postgres://localhost/test", cfg.Database.URL)
	require.Equal(t, "s3cret", cfg.Token.Secret)

	// defaults fill everything the file left out
	require.Equal(t, 24, cfg.Token.ExpirationHours)
	require.Equal(t, 60, cfg.Device.ReplayWindowSec)
	require.Equal(t, 20, cfg.Database.MaxConns)
	require.Equal(t, 100, cfg.FHIR.DefaultPageLimit)
	require.Equal(t, 1000, cfg.FHIR.MaxPageLimit)
	require.Equal(t, 8, cfg.Auth.MinPasswordLength)
	require.Equal(t, 24*time.Hour, cfg.Cache.SnapshotTTL)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
[database]
url = "postgres://localhost/from-file"

[device]
shared_secret = "from-file"
replay_window_seconds = 60
`)

	t.Setenv("MEDHEALTH__DATABASE__URL", "postgres://localhost/from-env")
	t.Setenv("MEDHEALTH__DEVICE__SHAREDSECRET", "from-env")
	t.Setenv("MEDHEALTH__DEVICE__REPLAYWINDOWSEC", "120")
	t.Setenv("MEDHEALTH__ANALYZER__ENABLEALERTS", "true")
	t.Setenv("MEDHEALTH__CORS__ALLOWEDORIGINS", "https://a.example.org, https://b.example.org")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "postgres://localhost/from-env", cfg.Database.URL)
	require.Equal(t, "from-env", cfg.Device.SharedSecret)
	require.Equal(t, 120, cfg.Device.ReplayWindowSec)
	require.True(t, cfg.Analyzer.EnableAlerts)
	require.Equal(t, OriginList{"https://a.example.org", "https://b.example.org"}, cfg.CORS.AllowedOrigins)
}

func TestAllowedOriginsAcceptsStringOrList(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[cors]
allowed_origins = "*"
`))
	require.NoError(t, err)
	require.Equal(t, OriginList{"*"}, cfg.CORS.AllowedOrigins)

	cfg, err = Load(writeConfig(t, `
[cors]
allowed_origins = ["https://a.example.org", "https://b.example.org"]
`))
	require.NoError(t, err)
	require.Len(t, cfg.CORS.AllowedOrigins, 2)
}

func TestLoadMissingFileUsesDefaultsOnly(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)
	require.Equal(t, "vitalcore", cfg.Name)
	require.Equal(t, 8888, cfg.Port)
}
