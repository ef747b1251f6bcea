package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/linebridge/internal/config"
	"github.com/Iron-Ham/linebridge/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify linebridge configuration",
	Long: `View or modify linebridge configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  linebridge config set bridge.completion_policy always_publish
  linebridge config set heartbeat.interval_ms 1000
  linebridge config set logging.level debug

The new configuration is validated before it is written.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/linebridge/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// -----------------------------------------------------------------------------
// Key table
// -----------------------------------------------------------------------------

// configKey describes one settable key.
type configKey struct {
	Key     string
	Type    string // "string", "bool", "int"
	Comment string
	Value   func(c *config.Config) any
}

type configSection struct {
	Name    string
	Comment string
	Keys    []configKey
}

var configSections = []configSection{
	{
		Name:    "bridge",
		Comment: "How lines are framed and published",
		Keys: []configKey{
			{"completion_policy", "string",
				"What happens at end of input. Options: " + strings.Join(config.ValidCompletionPolicies(), ", ") +
					"\ndistinct_eof: publish a non-empty partial line, then report end-of-stream once\nalways_publish: publish whatever was read, even nothing; never report end-of-stream",
				func(c *config.Config) any { return c.Bridge.CompletionPolicy }},
			{"capacity_hint", "int", "Initial line buffer size in bytes",
				func(c *config.Config) any { return c.Bridge.CapacityHint }},
			{"poll_interval_ms", "int", "How often idle watchers re-check for shutdown, in milliseconds",
				func(c *config.Config) any { return c.Bridge.PollIntervalMs }},
		},
	},
	{
		Name:    "heartbeat",
		Comment: "Liveness checks against a peer that echoes heartbeat lines",
		Keys: []configKey{
			{"interval_ms", "int", "Heartbeat interval in milliseconds (0 = disabled)",
				func(c *config.Config) any { return c.Heartbeat.IntervalMs }},
			{"timeout_ms", "int", "Report the peer lost after this long without an echo",
				func(c *config.Config) any { return c.Heartbeat.TimeoutMs }},
			{"prefix", "string", "Heartbeat lines start with this word",
				func(c *config.Config) any { return c.Heartbeat.Prefix }},
		},
	},
	{
		Name:    "ui",
		Comment: "Console view",
		Keys: []configKey{
			{"mode", "string", "Options: " + strings.Join(config.ValidUIModes(), ", "),
				func(c *config.Config) any { return c.UI.Mode }},
			{"max_log_lines", "int", "Traffic lines kept in the console",
				func(c *config.Config) any { return c.UI.MaxLogLines }},
			{"show_timestamps", "bool", "Prefix console lines with the time",
				func(c *config.Config) any { return c.UI.ShowTimestamps }},
		},
	},
	{
		Name:    "logging",
		Comment: "Structured JSON log (never written to stdout)",
		Keys: []configKey{
			{"enabled", "bool", "Write a log file",
				func(c *config.Config) any { return c.Logging.Enabled }},
			{"level", "string", "Options: " + strings.Join(logging.ValidLevels(), ", "),
				func(c *config.Config) any { return c.Logging.Level }},
			{"dir", "string", "Log directory (empty = <config dir>/logs, ~ is expanded)",
				func(c *config.Config) any { return c.Logging.Dir }},
			{"max_size_mb", "int", "Rotate the log after this many megabytes (0 = never)",
				func(c *config.Config) any { return c.Logging.MaxSizeMB }},
			{"max_backups", "int", "Rotated logs to keep",
				func(c *config.Config) any { return c.Logging.MaxBackups }},
			{"compress", "bool", "Gzip rotated logs",
				func(c *config.Config) any { return c.Logging.Compress }},
		},
	},
}

// lookupKey finds a dotted key in the table.
func lookupKey(dotted string) (configKey, bool) {
	section, name, ok := strings.Cut(dotted, ".")
	if !ok {
		return configKey{}, false
	}
	for _, s := range configSections {
		if s.Name != section {
			continue
		}
		for _, k := range s.Keys {
			if k.Key == name {
				return k, true
			}
		}
	}
	return configKey{}, false
}

// validKeys lists every dotted key, sorted.
func validKeys() []string {
	var keys []string
	for _, s := range configSections {
		for _, k := range s.Keys {
			keys = append(keys, s.Name+"."+k.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// configDocument renders cfg as a YAML document, with comments if asked.
func configDocument(cfg *config.Config, comments bool) *yaml.Node {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range configSections {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: s.Name}
		body := &yaml.Node{Kind: yaml.MappingNode}
		if comments {
			keyNode.HeadComment = s.Comment
		}
		for _, k := range s.Keys {
			kn := &yaml.Node{Kind: yaml.ScalarNode, Value: k.Key}
			if comments {
				kn.HeadComment = k.Comment
			}
			vn := &yaml.Node{}
			if err := vn.Encode(k.Value(cfg)); err != nil {
				vn = &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(k.Value(cfg))}
			}
			body.Content = append(body.Content, kn, vn)
		}
		root.Content = append(root.Content, keyNode, body)
	}

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	if comments {
		doc.HeadComment = "linebridge configuration\nEnvironment overrides: " + config.EnvPrefix + "_<SECTION>_<KEY>, e.g. " +
			config.EnvPrefix + "_BRIDGE_COMPLETION_POLICY"
	}
	return doc
}

func marshalConfig(cfg *config.Config, comments bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(configDocument(cfg, comments)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "# Config file: (none - using defaults)\n")
	}

	data, err := marshalConfig(cfg, false)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	k, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %s", key, strings.Join(validKeys(), ", "))
	}

	// Validate the value based on type
	var typedValue any
	switch k.Type {
	case "string":
		typedValue = value
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = b
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		typedValue = n
	}

	previous := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		viper.Set(key, previous)
		return err
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.ConfigFile()
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'linebridge config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := marshalConfig(config.Default(), true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize linebridge's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/linebridge/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintf(out, "\nEnvironment variables: %s_* (e.g., %s_BRIDGE_COMPLETION_POLICY)\n", config.EnvPrefix, config.EnvPrefix)
	return nil
}
