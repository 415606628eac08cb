package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so the API token can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Provider.APIToken = expandEnvVars(cfg.Provider.APIToken)
	cfg.Provider.InstanceID = expandEnvVars(cfg.Provider.InstanceID)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			expandSensitiveFields(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
// Unmarshalling over Defaults() can zero nested structs that the file
// mentions but leaves partially empty.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = d.Provider.BaseURL
	}
	if cfg.Provider.RequestTimeoutMs == 0 {
		cfg.Provider.RequestTimeoutMs = d.Provider.RequestTimeoutMs
	}
	if cfg.Polling.StateIntervalMs == 0 {
		cfg.Polling.StateIntervalMs = d.Polling.StateIntervalMs
	}
	if cfg.Polling.QRIntervalMs == 0 {
		cfg.Polling.QRIntervalMs = d.Polling.QRIntervalMs
	}
	if cfg.Polling.QRDedupWindowMs == 0 {
		cfg.Polling.QRDedupWindowMs = d.Polling.QRDedupWindowMs
	}
	if cfg.Polling.NotifIntervalMs == 0 {
		cfg.Polling.NotifIntervalMs = d.Polling.NotifIntervalMs
	}
	if cfg.Polling.NotifRateLimitIntervalMs == 0 {
		cfg.Polling.NotifRateLimitIntervalMs = d.Polling.NotifRateLimitIntervalMs
	}
	if cfg.Polling.NotifServerErrIntervalMs == 0 {
		cfg.Polling.NotifServerErrIntervalMs = d.Polling.NotifServerErrIntervalMs
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = d.RateLimit.MaxRequests
	}
	if cfg.RateLimit.WindowMs == 0 {
		cfg.RateLimit.WindowMs = d.RateLimit.WindowMs
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = d.Gateway.Port
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
}

// applyEnvOverrides reads WAGATE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WAGATE_INSTANCE_ID"); v != "" {
		cfg.Provider.InstanceID = v
	}
	if v := os.Getenv("WAGATE_API_TOKEN"); v != "" {
		cfg.Provider.APIToken = v
	}
	if v := os.Getenv("WAGATE_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("WAGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("WAGATE_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
}
