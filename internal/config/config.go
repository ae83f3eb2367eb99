// Package config provides configuration loading from environment variables.
package config

import (
	"time"
)

// DefaultTick is how often the scheduler wakes. The per-job poll cadence is
// governed separately by the tiered interval in internal/track.
const DefaultTick = 750 * time.Millisecond

// TrackerConfig holds configuration for the tracker service.
type TrackerConfig struct {
	Port        string
	MetricsPort string
	APIKey      string        // auth for the local API (empty = disabled)
	Tick        time.Duration // scheduler wake interval
	Deadline    time.Duration // wall-clock limit per job (0 = disabled)

	RemoteBaseURL string        // base URL of the guide service
	RemoteAPIKey  string        // bearer token for the guide service
	RemoteTimeout time.Duration // per-request timeout for remote calls

	CallbackURL        string // lifecycle event webhook (empty = disabled)
	CallbackSigningKey string // HMAC key for signing lifecycle events

	ShutdownDrainWait time.Duration // time to wait for load balancer to drain (0 to skip)
}

// LoadTrackerConfig loads tracker configuration from environment variables.
func LoadTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		Port:        GetEnv("PORT", "8080"),
		MetricsPort: GetEnv("METRICS_PORT", "9090"),
		APIKey:      GetSecretFile(GetEnv("API_KEY_FILE", "")),
		Tick:        GetDurationEnv("TRACKER_TICK", DefaultTick),
		Deadline:    GetDurationEnv("TRACKER_DEADLINE", 0),

		RemoteBaseURL: GetEnv("REMOTE_BASE_URL", "http://localhost:8000"),
		RemoteAPIKey:  GetSecretFile(GetEnv("REMOTE_API_KEY_FILE", "")),
		RemoteTimeout: GetDurationEnv("REMOTE_TIMEOUT", 30*time.Second),

		CallbackURL:        GetEnv("CALLBACK_URL", ""),
		CallbackSigningKey: GetSecretFile(GetEnv("CALLBACK_SIGNING_KEY_FILE", "")),

		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 5*time.Second),
	}
}
