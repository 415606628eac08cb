package config

// Config is the root configuration for wagate.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Polling   PollingConfig   `yaml:"polling,omitempty"`
	RateLimit RateLimitConfig `yaml:"rateLimit,omitempty"`
	Archive   ArchiveConfig   `yaml:"archive,omitempty"`
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// ProviderConfig identifies the remote WhatsApp-gateway instance.
// The token may be stored as ${ENV_VAR} and is expanded at load time.
type ProviderConfig struct {
	BaseURL    string `yaml:"baseUrl,omitempty"` // default https://api.greenapi.com
	InstanceID string `yaml:"instanceId"`
	APIToken   string `yaml:"apiToken"`

	// RequestTimeoutMs is the transport-level HTTP timeout. Long-running
	// fetches (group listing) carry their own explicit ceiling on top.
	RequestTimeoutMs int `yaml:"requestTimeoutMs,omitempty"`
}

// PollingConfig holds the cadences of the three polling loops. The three
// loops have conflicting latency/rate-limit tradeoffs and must stay
// independently tunable.
type PollingConfig struct {
	StateIntervalMs int `yaml:"stateIntervalMs,omitempty"` // connection state check, default 30000

	QRIntervalMs    int `yaml:"qrIntervalMs,omitempty"`    // QR refresh while unauthorized, default 3000
	QRDedupWindowMs int `yaml:"qrDedupWindowMs,omitempty"` // suppress identical QR redisplay, default 5000

	NotifIntervalMs          int `yaml:"notifIntervalMs,omitempty"`          // nominal inbox drain, default 500
	NotifRateLimitIntervalMs int `yaml:"notifRateLimitIntervalMs,omitempty"` // after HTTP 429, default 5000
	NotifServerErrIntervalMs int `yaml:"notifServerErrIntervalMs,omitempty"` // after 5xx, default 10000
}

// RateLimitConfig bounds outbound requests against the provider.
// One sliding window per instance/token pair, shared by all pollers.
type RateLimitConfig struct {
	MaxRequests int `yaml:"maxRequests,omitempty"` // default 8
	WindowMs    int `yaml:"windowMs,omitempty"`    // default 60000
}

// ArchiveConfig controls the local SQLite log of forwarded messages.
// The archive is write-only from the bridge's point of view; all runtime
// state is re-derived from the provider on every start.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"` // default <data>/wagate.db
}

// GatewayConfig controls the optional browser-facing event feed.
type GatewayConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	Port    int  `yaml:"port,omitempty"` // default 18790, loopback only
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File  string `yaml:"file,omitempty"`  // optional debug log file, teed with stderr
}
