package notify

import (
	"guidetrack/internal/config"
	"time"
)

// Hardcoded delivery defaults - these rarely need tuning.
const (
	defaultMaxRetries      = 3
	defaultBufferSize      = 1000
	defaultHTTPTimeout     = 10 * time.Second
	defaultDeliveryTimeout = 30 * time.Second
)

// Config holds notifier configuration.
type Config struct {
	URL             string        // destination webhook
	SigningKey      string        // HMAC key, empty = unsigned
	BufferSize      int           // pending events buffer (default: 1000)
	MaxRetries      int           // retries per event (default: 3)
	HTTPTimeout     time.Duration // per-request timeout (default: 10s)
	DeliveryTimeout time.Duration // total per-event budget incl. retries (default: 30s)
}

// LoadConfigFromEnv loads notifier configuration from environment variables.
// The destination URL and signing key come from the tracker config.
func LoadConfigFromEnv(url, signingKey string) Config {
	cfg := Config{
		URL:         url,
		SigningKey:  signingKey,
		BufferSize:  config.GetIntEnv("NOTIFIER_BUFFER_SIZE", defaultBufferSize),
		MaxRetries:  config.GetIntEnv("NOTIFIER_MAX_RETRIES", defaultMaxRetries),
		HTTPTimeout: config.GetDurationEnv("NOTIFIER_HTTP_TIMEOUT", defaultHTTPTimeout),
	}
	return cfg.withDefaults()
}

// withDefaults fills in zero values with defaults.
func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = defaultDeliveryTimeout
	}
	return c
}
