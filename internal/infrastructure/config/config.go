// Package config provides configuration structs and utilities for the tilekit application.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config represents the root configuration for the tilekit application.
type Config struct {
	Logging       LoggingConfig       `yaml:"logging"`
	Persistence   PersistenceConfig   `yaml:"persistence"`
	Manager       ManagerConfig       `yaml:"manager"`
	Shortcuts     ShortcutsConfig     `yaml:"shortcuts"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// PersistenceConfig holds configuration for the entity store.
type PersistenceConfig struct {
	// EntitiesDir is the directory of YAML files holding workspaces,
	// patterns, rules, monitor configurations, mappings, and profiles, one
	// file per entity kind.
	EntitiesDir string `yaml:"entities_dir"`
	// WatchExternalEdits reloads the store when its files change on disk.
	WatchExternalEdits bool `yaml:"watch_external_edits"`
	// WatchDebounce coalesces bursts of file events into one reload.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// ManagerConfig holds timing configuration for the workspace manager.
type ManagerConfig struct {
	// AckBudget bounds how long a switch waits for driver acknowledgment.
	AckBudget time.Duration `yaml:"ack_budget"`
	// RetryBackoff is the base backoff between driver retry attempts.
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// ShortcutsConfig holds configuration for the keyboard shortcut table.
type ShortcutsConfig struct {
	// InstallDefaults seeds the standard bindings on first run.
	InstallDefaults bool `yaml:"install_defaults"`
	// LegacyImportPath optionally names a legacy mapping export to migrate
	// on startup.
	LegacyImportPath string `yaml:"legacy_import_path,omitempty"`
}

// ObservabilityConfig holds configuration for observability features.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig holds configuration for metrics collection.
type MetricsConfig struct {
	Enabled         bool          `yaml:"enabled"`          // Whether metrics collection is enabled
	DatabasePath    string        `yaml:"database_path"`    // SQLite database for switch and tiling records
	RetentionPeriod time.Duration `yaml:"retention_period"` // How long to retain records
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // Whether tracing is enabled
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP collector endpoint
	SampleRate   float64 `yaml:"sample_rate"`   // Sampling rate (0.0 to 1.0)
	ServiceName  string  `yaml:"service_name"`  // Service name for traces
}

// Default configuration values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultEntitiesDir   = "~/.tilekit/entities"
	DefaultWatchDebounce = 500 * time.Millisecond

	DefaultAckBudget    = 200 * time.Millisecond
	DefaultRetryBackoff = 20 * time.Millisecond

	// Observability defaults
	DefaultMetricsEnabled         = true
	DefaultMetricsDatabasePath    = "~/.tilekit/metrics.db"
	DefaultMetricsRetentionPeriod = 30 * 24 * time.Hour // 30 days
	DefaultTracingEnabled         = false
	DefaultTracingExporterType    = "none"
	DefaultTracingSampleRate      = 1.0
	DefaultTracingServiceName     = "tilekit"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// NewDefaultConfig creates a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Persistence: PersistenceConfig{
			EntitiesDir:        DefaultEntitiesDir,
			WatchExternalEdits: true,
			WatchDebounce:      DefaultWatchDebounce,
		},
		Manager: ManagerConfig{
			AckBudget:    DefaultAckBudget,
			RetryBackoff: DefaultRetryBackoff,
		},
		Shortcuts: ShortcutsConfig{
			InstallDefaults: true,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled:         DefaultMetricsEnabled,
				DatabasePath:    DefaultMetricsDatabasePath,
				RetentionPeriod: DefaultMetricsRetentionPeriod,
			},
			Tracing: TracingConfig{
				Enabled:      DefaultTracingEnabled,
				ExporterType: DefaultTracingExporterType,
				SampleRate:   DefaultTracingSampleRate,
				ServiceName:  DefaultTracingServiceName,
			},
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Persistence.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("persistence: %w", err))
	}

	if err := c.Manager.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("manager: %w", err))
	}

	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}

	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the PersistenceConfig is valid.
func (p *PersistenceConfig) Validate() error {
	var errs []error

	if p.EntitiesDir == "" {
		errs = append(errs, errors.New("entities_dir is required"))
	}

	if p.WatchExternalEdits && p.WatchDebounce <= 0 {
		errs = append(errs, errors.New("watch_debounce must be positive when watching is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ManagerConfig is valid.
func (m *ManagerConfig) Validate() error {
	var errs []error

	if m.AckBudget <= 0 {
		errs = append(errs, errors.New("ack_budget must be positive"))
	}

	if m.RetryBackoff <= 0 {
		errs = append(errs, errors.New("retry_backoff must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ObservabilityConfig is valid.
func (o *ObservabilityConfig) Validate() error {
	var errs []error

	if err := o.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}

	if err := o.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the MetricsConfig is valid.
func (m *MetricsConfig) Validate() error {
	var errs []error

	if m.Enabled {
		if m.DatabasePath == "" {
			errs = append(errs, errors.New("database_path is required when metrics is enabled"))
		}
		if m.RetentionPeriod <= 0 {
			errs = append(errs, errors.New("retention_period must be positive when metrics is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
			errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint != "" {
			if _, err := url.Parse(t.OTLPEndpoint); err != nil {
				errs = append(errs, fmt.Errorf("invalid otlp_endpoint: %w", err))
			}
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
