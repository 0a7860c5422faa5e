package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/care-portal/internal/config"
	"github.com/stretchr/testify/require"
)

func TestServerConfigDefaults(t *testing.T) {
	cfg := config.New()

	require.Equal(t, ":8080", cfg.GetPort())
	require.Equal(t, "DEV", cfg.GetEnv())
	require.Equal(t, 15*time.Minute, cfg.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, cfg.GetRefreshTokenExpiry())
	require.Equal(t, "care_refresh", cfg.GetRefreshCookieName())
	require.Equal(t, "/auth", cfg.GetRefreshCookiePath())
	require.False(t, cfg.GetCookieSecure())
	require.Equal(t, cfg.GetBaseURL(), cfg.GetIssuer())
	require.Empty(t, cfg.GetRedisURL())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
}

func TestServerConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "PROD")
	t.Setenv("ACCESS_TOKEN_TTL", "2m")
	t.Setenv("REFRESH_TOKEN_TTL", "not-a-duration")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.clinic.test/ ,https://admin.clinic.test")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg := config.New()
	require.Equal(t, ":9090", cfg.GetPort())
	require.Equal(t, 2*time.Minute, cfg.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, cfg.GetRefreshTokenExpiry())
	require.True(t, cfg.GetCookieSecure())
	require.False(t, cfg.GetLogPretty())
	require.False(t, cfg.GetSeedPatient())
	require.Equal(t, "https://admin.clinic.test, https://app.clinic.test", cfg.GetAllowedOrigins().String())
	require.Equal(t, "redis://localhost:6379/0", cfg.GetRedisURL())
}

func TestLoadClientConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
base_url: "https://api.clinic.test"
refresh_timeout: 3s
state_dir: "` + dir + `"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CARE_LOG_LEVEL", "debug")

	cfg, err := config.LoadClientConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://api.clinic.test", cfg.BaseURL)
	require.Equal(t, 3*time.Second, cfg.RefreshTimeout)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, dir, cfg.StateDir)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadClientConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.LoadClientConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
}

func TestLoadClientConfig_Invalid(t *testing.T) {
	t.Setenv("CARE_BASE_URL", "not a url")
	_, err := config.LoadClientConfig("")
	require.Error(t, err)
}

func TestClientConfig_SaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.DefaultClientConfig()
	cfg.BaseURL = "https://api.clinic.test"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := config.LoadClientConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseURL, loaded.BaseURL)
	require.Equal(t, cfg.RefreshTimeout, loaded.RefreshTimeout)
}
