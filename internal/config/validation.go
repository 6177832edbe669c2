package config

import (
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if err := validateClient(&cfg.Client); err != nil {
		return err
	}

	if err := validateServer(&cfg.Server); err != nil {
		return err
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}

	return nil
}

func validateClient(cfg *ClientConfig) error {
	if err := ValidateServerAddress(cfg.Server); err != nil {
		return err
	}

	if cfg.RequestInterval < 16*time.Second || cfg.RequestInterval > 36*time.Hour {
		return errors.New("request_interval must be between 16s and 36h")
	}

	if cfg.PollTick < 10*time.Millisecond || cfg.PollTick > time.Minute {
		return errors.New("poll_tick must be between 10ms and 1m")
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerMinute < 1 {
			return errors.New("rate_limit.requests_per_minute must be at least 1")
		}
		if cfg.RateLimit.BurstSize < 1 {
			return errors.New("rate_limit.burst_size must be at least 1")
		}
	}

	if cfg.CircuitBreaker.Enabled {
		if cfg.CircuitBreaker.FailureThreshold <= 0 || cfg.CircuitBreaker.FailureThreshold > 1 {
			return errors.New("circuit_breaker.failure_threshold must be in (0, 1]")
		}
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return errors.New("server port must be between 1 and 65535, got " + strconv.Itoa(cfg.Port))
	}

	if cfg.ReadTimeout < 1*time.Second || cfg.ReadTimeout > 60*time.Second {
		return errors.New("read_timeout must be between 1s and 60s")
	}

	if cfg.WriteTimeout < 1*time.Second || cfg.WriteTimeout > 60*time.Second {
		return errors.New("write_timeout must be between 1s and 60s")
	}

	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLevels[cfg.Level] {
		return errors.New("invalid log level (must be trace, debug, info, warn, error, fatal, or panic)")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[cfg.Format] {
		return errors.New("invalid log format (must be json or console)")
	}

	if cfg.EnableFile && cfg.FilePath == "" {
		return errors.New("file_path is required when enable_file is true")
	}

	return nil
}

// ValidateServerAddress validates an SNTP server host or IP address
func ValidateServerAddress(address string) error {
	if address == "" {
		return errors.New("server address is empty")
	}

	if len(address) > 255 {
		return errors.New("server address is too long")
	}

	if strings.Contains(address, "\x00") {
		return errors.New("server address contains null byte")
	}

	// A bare IP address is fine
	if ip := net.ParseIP(address); ip != nil {
		return nil
	}

	if !hostnamePattern.MatchString(address) {
		return errors.New("invalid server address format")
	}

	return nil
}
