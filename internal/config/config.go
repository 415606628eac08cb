package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL:          "https://api.greenapi.com",
			RequestTimeoutMs: 20000,
		},
		Polling: PollingConfig{
			StateIntervalMs:          30000,
			QRIntervalMs:             3000,
			QRDedupWindowMs:          5000,
			NotifIntervalMs:          500,
			NotifRateLimitIntervalMs: 5000,
			NotifServerErrIntervalMs: 10000,
		},
		RateLimit: RateLimitConfig{
			MaxRequests: 8,
			WindowMs:    60000,
		},
		Gateway: GatewayConfig{
			Port: 18790,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Duration accessors — config stores millisecond ints for YAML friendliness.

func (p PollingConfig) StateInterval() time.Duration { return ms(p.StateIntervalMs) }
func (p PollingConfig) QRInterval() time.Duration    { return ms(p.QRIntervalMs) }
func (p PollingConfig) QRDedupWindow() time.Duration { return ms(p.QRDedupWindowMs) }
func (p PollingConfig) NotifInterval() time.Duration { return ms(p.NotifIntervalMs) }
func (p PollingConfig) NotifRateLimitInterval() time.Duration {
	return ms(p.NotifRateLimitIntervalMs)
}
func (p PollingConfig) NotifServerErrInterval() time.Duration {
	return ms(p.NotifServerErrIntervalMs)
}

func (r RateLimitConfig) Window() time.Duration { return ms(r.WindowMs) }

func (p ProviderConfig) RequestTimeout() time.Duration { return ms(p.RequestTimeoutMs) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
