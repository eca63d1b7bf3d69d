package config

import (
	"fmt"
)

// Interval bounds for the recurring sync timer, in seconds. The mirror is
// meant to run on the order of one to five minutes; anything faster hammers
// the Access file, anything slower is probably a misconfiguration.
const (
	MinIntervalSeconds = 30
	MaxIntervalSeconds = 3600
)

// Validate checks the configuration for required fields and sane values.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Source.DSN == "" {
		return fmt.Errorf("source.dsn is required (ODBC connection string for the Access database)")
	}

	if c.Destination.Host == "" {
		return fmt.Errorf("destination.host is required")
	}
	if c.Destination.Port <= 0 || c.Destination.Port > 65535 {
		return fmt.Errorf("destination.port %d is out of range", c.Destination.Port)
	}
	if c.Destination.User == "" {
		return fmt.Errorf("destination.user is required")
	}
	if c.Destination.Database == "" {
		return fmt.Errorf("destination.database is required")
	}

	switch c.Destination.SSLMode {
	case "", "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("destination.ssl_mode %q is not a valid libpq sslmode", c.Destination.SSLMode)
	}

	if c.Sync.IntervalSeconds < MinIntervalSeconds || c.Sync.IntervalSeconds > MaxIntervalSeconds {
		return fmt.Errorf("sync.interval_seconds must be between %d and %d, got %d",
			MinIntervalSeconds, MaxIntervalSeconds, c.Sync.IntervalSeconds)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}
