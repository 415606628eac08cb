package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.greenapi.com", cfg.Provider.BaseURL)
	assert.Equal(t, 500, cfg.Polling.NotifIntervalMs)
	assert.Equal(t, 8, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 60000, cfg.RateLimit.WindowMs)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
provider:
  instanceId: "7103899702"
  apiToken: "secret-token"
polling:
  notifIntervalMs: 750
  qrIntervalMs: 5000
rateLimit:
  maxRequests: 4
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7103899702", cfg.Provider.InstanceID)
	assert.Equal(t, "secret-token", cfg.Provider.APIToken)
	assert.Equal(t, 750, cfg.Polling.NotifIntervalMs)
	assert.Equal(t, 5000, cfg.Polling.QRIntervalMs)
	assert.Equal(t, 4, cfg.RateLimit.MaxRequests)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// untouched fields keep defaults
	assert.Equal(t, 30000, cfg.Polling.StateIntervalMs)
	assert.Equal(t, 60000, cfg.RateLimit.WindowMs)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "provider: [not: a map")
	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestTokenEnvExpansion(t *testing.T) {
	t.Setenv("WAGATE_TEST_TOKEN", "expanded-value")
	path := writeConfig(t, `
provider:
  instanceId: "1"
  apiToken: "${WAGATE_TEST_TOKEN}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-value", cfg.Provider.APIToken)
}

func TestTokenEnvExpansionUnset(t *testing.T) {
	path := writeConfig(t, `
provider:
  instanceId: "1"
  apiToken: "${WAGATE_DEFINITELY_UNSET_VAR}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	// left as-is so Validate can flag it
	assert.Equal(t, "${WAGATE_DEFINITELY_UNSET_VAR}", cfg.Provider.APIToken)
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WAGATE_INSTANCE_ID", "999")
	t.Setenv("WAGATE_API_TOKEN", "env-token")
	t.Setenv("WAGATE_LOG_LEVEL", "WARN")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "999", cfg.Provider.InstanceID)
	assert.Equal(t, "env-token", cfg.Provider.APIToken)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestDurationAccessors(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 30*time.Second, cfg.Polling.StateInterval())
	assert.Equal(t, 3*time.Second, cfg.Polling.QRInterval())
	assert.Equal(t, 5*time.Second, cfg.Polling.QRDedupWindow())
	assert.Equal(t, 500*time.Millisecond, cfg.Polling.NotifInterval())
	assert.Equal(t, 5*time.Second, cfg.Polling.NotifRateLimitInterval())
	assert.Equal(t, 10*time.Second, cfg.Polling.NotifServerErrInterval())
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Provider.InstanceID = "" },
			wantErr: "provider.instanceId",
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Provider.APIToken = "" },
			wantErr: "provider.apiToken",
		},
		{
			name:    "bad base url",
			mutate:  func(c *Config) { c.Provider.BaseURL = "ftp://wrong" },
			wantErr: "provider.baseUrl",
		},
		{
			name:    "notif interval too small",
			mutate:  func(c *Config) { c.Polling.NotifIntervalMs = 10 },
			wantErr: "polling.notifIntervalMs",
		},
		{
			name:    "zero max requests",
			mutate:  func(c *Config) { c.RateLimit.MaxRequests = -1 },
			wantErr: "rateLimit.maxRequests",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Provider.InstanceID = "1"
			cfg.Provider.APIToken = "t"
			tt.mutate(&cfg)

			issues := Validate(&cfg)
			require.NotEmpty(t, issues)

			found := false
			for _, issue := range issues {
				if issue.Path == tt.wantErr {
					found = true
				}
			}
			assert.True(t, found, "expected an issue at %s, got %v", tt.wantErr, issues)
		})
	}
}

func TestValidateOK(t *testing.T) {
	cfg := Defaults()
	cfg.Provider.InstanceID = "7103899702"
	cfg.Provider.APIToken = "token"
	assert.Empty(t, Validate(&cfg))
}
