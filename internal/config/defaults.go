package config

import "time"

// ApplyDefaults sets default values for unspecified configuration fields
func ApplyDefaults(cfg *Config) {
	// Client defaults
	if cfg.Client.Server == "" {
		cfg.Client.Server = "pool.ntp.org"
	}
	if cfg.Client.RequestInterval == 0 {
		cfg.Client.RequestInterval = time.Hour
	}
	if cfg.Client.PollTick == 0 {
		cfg.Client.PollTick = 500 * time.Millisecond
	}

	// Rate limiting defaults (disabled by default; the request interval is
	// the primary cadence control)
	if cfg.Client.RateLimit.RequestsPerMinute == 0 {
		cfg.Client.RateLimit.RequestsPerMinute = 60
	}
	if cfg.Client.RateLimit.BurstSize == 0 {
		cfg.Client.RateLimit.BurstSize = 4
	}

	// Circuit breaker defaults (enabled by default for fault tolerance)
	cfg.Client.CircuitBreaker.Enabled = true // Always enabled
	if cfg.Client.CircuitBreaker.MaxRequests == 0 {
		cfg.Client.CircuitBreaker.MaxRequests = 3
	}
	if cfg.Client.CircuitBreaker.Interval == 0 {
		cfg.Client.CircuitBreaker.Interval = 60 * time.Second
	}
	if cfg.Client.CircuitBreaker.Timeout == 0 {
		cfg.Client.CircuitBreaker.Timeout = 30 * time.Second
	}
	if cfg.Client.CircuitBreaker.FailureThreshold == 0 {
		cfg.Client.CircuitBreaker.FailureThreshold = 0.6 // 60%
	}

	// Metrics server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9123
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "sntp"
	}
}

// DefaultConfig returns a configuration with all defaults applied
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
