// Package config provides configuration structures and loading for accmirror.
package config

// Config represents the complete application configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source" mapstructure:"source"`
	Destination DestinationConfig `yaml:"destination" mapstructure:"destination"`
	Sync        SyncConfig        `yaml:"sync" mapstructure:"sync"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// SourceConfig describes the legacy Access database read over ODBC.
// DSN is a full ODBC connection string, typically
// "Driver={Microsoft Access Driver (*.mdb, *.accdb)};Dbq=C:\\data\\legacy.accdb;".
// Tables optionally pins the table list for ODBC drivers that refuse to
// expose the system catalog; when empty the catalog is queried.
type SourceConfig struct {
	DSN    string   `yaml:"dsn" mapstructure:"dsn" json:"dsn"`
	Tables []string `yaml:"tables" mapstructure:"tables" json:"tables,omitempty"`
}

// DestinationConfig describes the PostgreSQL destination connection.
type DestinationConfig struct {
	Host               string `yaml:"host" mapstructure:"host" json:"host"`
	Port               int    `yaml:"port" mapstructure:"port" json:"port,omitempty"`
	User               string `yaml:"user" mapstructure:"user" json:"user,omitempty"`
	Password           string `yaml:"password" mapstructure:"password" json:"password,omitempty"`
	Database           string `yaml:"database" mapstructure:"database" json:"database"`
	SSLMode            string `yaml:"ssl_mode" mapstructure:"ssl_mode" json:"sslMode,omitempty"` // disable, require, verify-full
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections" json:"-"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections" json:"-"`
}

// SyncConfig represents sync pass behavior settings.
type SyncConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds" mapstructure:"interval_seconds"`
	SkipPrefix      string `yaml:"skip_prefix" mapstructure:"skip_prefix"`
	SkipVerify      bool   `yaml:"skip_verify" mapstructure:"skip_verify"`
}

// ServerConfig represents the HTTP/websocket service settings.
type ServerConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Destination: DestinationConfig{
			Port:               5432,
			SSLMode:            "disable",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Sync: SyncConfig{
			IntervalSeconds: 120,
			SkipPrefix:      "~",
		},
		Server: ServerConfig{
			Listen: ":8090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, intervalSeconds int, skipVerify bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if intervalSeconds > 0 {
		c.Sync.IntervalSeconds = intervalSeconds
	}
	if skipVerify {
		c.Sync.SkipVerify = true
	}
}

// Merge overlays non-zero connection fields from other onto a copy of c.
// Used when a sync request supplies its own connection info.
func (c *Config) Merge(source SourceConfig, dest DestinationConfig) *Config {
	merged := *c
	if source.DSN != "" {
		merged.Source.DSN = source.DSN
	}
	if len(source.Tables) > 0 {
		merged.Source.Tables = source.Tables
	}
	if dest.Host != "" {
		merged.Destination.Host = dest.Host
	}
	if dest.Port != 0 {
		merged.Destination.Port = dest.Port
	}
	if dest.User != "" {
		merged.Destination.User = dest.User
	}
	if dest.Password != "" {
		merged.Destination.Password = dest.Password
	}
	if dest.Database != "" {
		merged.Destination.Database = dest.Database
	}
	if dest.SSLMode != "" {
		merged.Destination.SSLMode = dest.SSLMode
	}
	return &merged
}
