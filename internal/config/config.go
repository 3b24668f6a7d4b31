package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete ralphui configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Views   ViewsConfig   `mapstructure:"views" yaml:"views"`
	State   StateConfig   `mapstructure:"state" yaml:"state"`
	PRD     PRDConfig     `mapstructure:"prd" yaml:"prd"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig controls the HTTP view host started by "ralphui serve"
type ServerConfig struct {
	// Addr is the listen address (default: "127.0.0.1:7419")
	Addr string `mapstructure:"addr" yaml:"addr"`
	// EventBuffer is the number of outbound messages queued per event stream
	// before delivery to that stream fails (default: 64)
	EventBuffer int `mapstructure:"event_buffer" yaml:"event_buffer"`
}

// ViewsConfig controls the view controllers
type ViewsConfig struct {
	// LogLimit is the number of log entries each view keeps (default: 50)
	LogLimit int `mapstructure:"log_limit" yaml:"log_limit"`
	// StartVisible marks the surfaces visible before a client reports focus (default: true)
	StartVisible bool `mapstructure:"start_visible" yaml:"start_visible"`
}

// StateConfig controls where panel state is persisted
type StateConfig struct {
	// Dir is the workspace storage directory.
	// If empty, defaults to "<config dir>/state".
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Key is the storage key of the panel state record (default: "ralph.panelState")
	Key string `mapstructure:"key" yaml:"key"`
	// CacheSizeKB bounds the in-memory read cache of the store (default: 1024)
	CacheSizeKB int `mapstructure:"cache_size_kb" yaml:"cache_size_kb"`
}

// PRDConfig locates the task document
type PRDConfig struct {
	// Path is the PRD markdown file, relative to the working directory (default: "PRD.md")
	Path string `mapstructure:"path" yaml:"path"`
	// Watch refreshes stats when the file changes on disk (default: true)
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the directory the log file is written to.
	// If empty, defaults to "<config dir>/logs".
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// TracingConfig controls OTLP export of command dispatch spans.
// The collector endpoint comes from OTEL_EXPORTER_OTLP_ENDPOINT.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// ResolveDir returns the state directory, falling back to <config dir>/state.
func (s *StateConfig) ResolveDir() string {
	if s.Dir != "" {
		return s.Dir
	}
	return filepath.Join(ConfigDir(), "state")
}

// ResolveDir returns the log directory, falling back to <config dir>/logs.
func (l *LoggingConfig) ResolveDir() string {
	if l.Dir != "" {
		return l.Dir
	}
	return filepath.Join(ConfigDir(), "logs")
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        "127.0.0.1:7419",
			EventBuffer: 64,
		},
		Views: ViewsConfig{
			LogLimit:     50,
			StartVisible: true,
		},
		State: StateConfig{
			Dir:         "",
			Key:         "ralph.panelState",
			CacheSizeKB: 1024,
		},
		PRD: PRDConfig{
			Path:  "PRD.md",
			Watch: true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "ralphui",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Server defaults
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.event_buffer", defaults.Server.EventBuffer)

	// View defaults
	viper.SetDefault("views.log_limit", defaults.Views.LogLimit)
	viper.SetDefault("views.start_visible", defaults.Views.StartVisible)

	// State defaults
	viper.SetDefault("state.dir", defaults.State.Dir)
	viper.SetDefault("state.key", defaults.State.Key)
	viper.SetDefault("state.cache_size_kb", defaults.State.CacheSizeKB)

	// PRD defaults
	viper.SetDefault("prd.path", defaults.PRD.Path)
	viper.SetDefault("prd.watch", defaults.PRD.Watch)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if it
// cannot be loaded
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the directory holding the config file, state and logs
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ralphui")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ralphui"
	}
	return filepath.Join(home, ".config", "ralphui")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
