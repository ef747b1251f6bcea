package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides
// (e.g. LINEBRIDGE_BRIDGE_COMPLETION_POLICY).
const EnvPrefix = "LINEBRIDGE"

// Completion policies accepted by bridge.completion_policy. These values must
// match bridge.ParsePolicy (defined separately to avoid a circular import).
const (
	PolicyDistinctEOF   = "distinct_eof"
	PolicyAlwaysPublish = "always_publish"
)

// UI modes accepted by ui.mode.
const (
	UIModeHeadless = "headless"
	UIModeConsole  = "console"
)

// Config represents the complete linebridge configuration
type Config struct {
	Bridge    BridgeConfig    `mapstructure:"bridge"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	UI        UIConfig        `mapstructure:"ui"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// BridgeConfig controls how the bridge frames and publishes lines
type BridgeConfig struct {
	// CompletionPolicy selects what happens at end-of-stream.
	// "distinct_eof" (default): a trailing partial line is published only if
	// non-empty, then end-of-stream is reported once as its own event.
	// "always_publish": every completion is published, even an empty one at
	// end-of-stream, and end-of-stream is never reported.
	CompletionPolicy string `mapstructure:"completion_policy"`
	// CapacityHint is the initial capacity of the line accumulator in bytes (default: 20)
	CapacityHint int `mapstructure:"capacity_hint"`
	// PollIntervalMs bounds how long a readiness watcher blocks before
	// re-checking for shutdown (default: 100)
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

// HeartbeatConfig controls the heartbeat liveness monitor
type HeartbeatConfig struct {
	// IntervalMs is how often a heartbeat line is sent. 0 disables heartbeats (default: 0)
	IntervalMs int `mapstructure:"interval_ms"`
	// TimeoutMs is how long without an echo before the peer is reported lost (default: 5000)
	TimeoutMs int `mapstructure:"timeout_ms"`
	// Prefix starts every heartbeat line; echoed lines with this prefix count as liveness (default: "heartbeat")
	Prefix string `mapstructure:"prefix"`
}

// UIConfig controls the optional console view
type UIConfig struct {
	// Mode is "headless" (default) or "console". Console mode draws on the
	// controlling terminal, never on the bridged stdio.
	Mode string `mapstructure:"mode"`
	// MaxLogLines limits how many traffic lines the console keeps (default: 1000)
	MaxLogLines int `mapstructure:"max_log_lines"`
	// ShowTimestamps prefixes each console line with its event time (default: true)
	ShowTimestamps bool `mapstructure:"show_timestamps"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory holding bridge.log. Empty means <config dir>/logs.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			CompletionPolicy: PolicyDistinctEOF,
			CapacityHint:     20,
			PollIntervalMs:   100,
		},
		Heartbeat: HeartbeatConfig{
			IntervalMs: 0, // Disabled unless a peer is known to echo
			TimeoutMs:  5000,
			Prefix:     "heartbeat",
		},
		UI: UIConfig{
			Mode:           UIModeHeadless,
			MaxLogLines:    1000,
			ShowTimestamps: true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// PollInterval returns the readiness poll interval as a time.Duration
func (c *BridgeConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Interval returns the heartbeat interval as a time.Duration (0 means disabled)
func (c *HeartbeatConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Timeout returns the heartbeat timeout as a time.Duration
func (c *HeartbeatConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ResolveDir returns the resolved log directory.
// If Dir is empty, it returns <config dir>/logs.
// If Dir starts with ~, it expands to the user's home directory.
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}

	path := c.Dir
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}
	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Bridge defaults
	viper.SetDefault("bridge.completion_policy", defaults.Bridge.CompletionPolicy)
	viper.SetDefault("bridge.capacity_hint", defaults.Bridge.CapacityHint)
	viper.SetDefault("bridge.poll_interval_ms", defaults.Bridge.PollIntervalMs)

	// Heartbeat defaults
	viper.SetDefault("heartbeat.interval_ms", defaults.Heartbeat.IntervalMs)
	viper.SetDefault("heartbeat.timeout_ms", defaults.Heartbeat.TimeoutMs)
	viper.SetDefault("heartbeat.prefix", defaults.Heartbeat.Prefix)

	// UI defaults
	viper.SetDefault("ui.mode", defaults.UI.Mode)
	viper.SetDefault("ui.max_log_lines", defaults.UI.MaxLogLines)
	viper.SetDefault("ui.show_timestamps", defaults.UI.ShowTimestamps)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
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

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// Watch starts watching the config file viper loaded. Whenever it is written
// or recreated, the new configuration is loaded and validated: a valid one is
// passed to onChange, an invalid one to onError and otherwise ignored.
// Callbacks run on fsnotify's goroutine.
func Watch(onChange func(path string, cfg *Config), onError func(error)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		handleConfigEvent(e, onChange, onError)
	})
	viper.WatchConfig()
}

// handleConfigEvent reacts to a single file event after viper has re-read
// the file.
func handleConfigEvent(e fsnotify.Event, onChange func(string, *Config), onError func(error)) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}

	cfg, err := Load()
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	if onChange != nil {
		onChange(e.Name, cfg)
	}
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "linebridge")
	}
	// Fall back to ~/.config/linebridge
	home, err := os.UserHomeDir()
	if err != nil {
		return ".linebridge"
	}
	return filepath.Join(home, ".config", "linebridge")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidCompletionPolicies returns the list of valid completion policy values
func ValidCompletionPolicies() []string {
	return []string{PolicyDistinctEOF, PolicyAlwaysPublish}
}

// IsValidCompletionPolicy checks if the given policy is valid
func IsValidCompletionPolicy(policy string) bool {
	for _, valid := range ValidCompletionPolicies() {
		if policy == valid {
			return true
		}
	}
	return false
}

// ValidUIModes returns the list of valid ui.mode values
func ValidUIModes() []string {
	return []string{UIModeHeadless, UIModeConsole}
}
