package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Provider.InstanceID == "" {
		issues = append(issues, ValidationIssue{
			Path:    "provider.instanceId",
			Message: "instance id is required",
		})
	}
	if cfg.Provider.APIToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "provider.apiToken",
			Message: "api token is required (set WAGATE_API_TOKEN or provider.apiToken)",
		})
	}
	if strings.Contains(cfg.Provider.APIToken, "${") {
		issues = append(issues, ValidationIssue{
			Path:    "provider.apiToken",
			Message: "unresolved environment reference in api token",
		})
	}
	if cfg.Provider.BaseURL != "" && !strings.HasPrefix(cfg.Provider.BaseURL, "http://") &&
		!strings.HasPrefix(cfg.Provider.BaseURL, "https://") {
		issues = append(issues, ValidationIssue{
			Path:    "provider.baseUrl",
			Message: fmt.Sprintf("must be an http(s) URL, got %q", cfg.Provider.BaseURL),
		})
	}

	if cfg.Polling.NotifIntervalMs < 100 {
		issues = append(issues, ValidationIssue{
			Path:    "polling.notifIntervalMs",
			Message: fmt.Sprintf("must be at least 100ms, got %d", cfg.Polling.NotifIntervalMs),
		})
	}
	if cfg.Polling.StateIntervalMs < 1000 {
		issues = append(issues, ValidationIssue{
			Path:    "polling.stateIntervalMs",
			Message: fmt.Sprintf("must be at least 1000ms, got %d", cfg.Polling.StateIntervalMs),
		})
	}
	if cfg.Polling.QRIntervalMs < 1000 {
		issues = append(issues, ValidationIssue{
			Path:    "polling.qrIntervalMs",
			Message: fmt.Sprintf("must be at least 1000ms, got %d", cfg.Polling.QRIntervalMs),
		})
	}

	if cfg.RateLimit.MaxRequests < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "rateLimit.maxRequests",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.RateLimit.MaxRequests),
		})
	}
	if cfg.RateLimit.WindowMs < 1000 {
		issues = append(issues, ValidationIssue{
			Path:    "rateLimit.windowMs",
			Message: fmt.Sprintf("must be at least 1000ms, got %d", cfg.RateLimit.WindowMs),
		})
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
