package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/internal/view"
)

// Config is the persisted CLI configuration.
type Config struct {
	URL       string            `json:"url,omitempty"        yaml:"url,omitempty"`
	APIKey    string            `json:"apikey,omitempty"     yaml:"apikey,omitempty"`
	BasicAuth string            `json:"basic-auth,omitempty" yaml:"basic-auth,omitempty"`
	Output    string            `json:"output,omitempty"     yaml:"output,omitempty"`
	Timeout   string            `json:"timeout,omitempty"    yaml:"timeout,omitempty"`
	CacheSize int               `json:"cache-size,omitempty" yaml:"cache-size,omitempty"`
	NoCache   bool              `json:"no-cache,omitempty"   yaml:"no-cache,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"    yaml:"headers,omitempty"`
}

// settableKeys are the scalar keys accepted by config set and unset.
var settableKeys = []string{"apikey", "basic-auth", "cache-size", "no-cache", "output", "timeout", "url"}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in the kongcli config file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigPathCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration merged from flags, environment and config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.APIKey = mask(config.APIKey)
			config.BasicAuth = maskCredentials(config.BasicAuth)

			table := view.Table{
				Headers: []string{"Property", "Value"},
				Rows: [][]string{
					{"url", config.URL},
					{"apikey", config.APIKey},
					{"basic-auth", config.BasicAuth},
					{"output", config.Output},
					{"timeout", config.Timeout},
					{"cache-size", strconv.Itoa(config.CacheSize)},
					{"no-cache", strconv.FormatBool(config.NoCache)},
				},
			}

			keys := make([]string, 0, len(config.Headers))
			for name := range config.Headers {
				keys = append(keys, name)
			}

			sort.Strings(keys)

			for _, name := range keys {
				table.Rows = append(table.Rows, []string{"headers." + name, config.Headers[name]})
			}

			return render(cmd, config, table, "")
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: "Store a configuration value in the config file. Keys: " + strings.Join(settableKeys, ", ") +
			", or headers.NAME for an extra request header",
		Args: cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := readConfigFile()
			if err != nil {
				return err
			}

			if err := setConfigValue(config, args[0], args[1]); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := readConfigFile()
			if err != nil {
				return err
			}

			if err := unsetConfigValue(config, args[0]); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)

			return nil
		},
	}
}

// loadConfig returns the effective configuration.
func loadConfig() *Config {
	return &Config{
		URL:       viper.GetString("url"),
		APIKey:    viper.GetString("apikey"),
		BasicAuth: viper.GetString("basic-auth"),
		Output:    viper.GetString("output"),
		Timeout:   viper.GetString("timeout"),
		CacheSize: viper.GetInt("cache-size"),
		NoCache:   viper.GetBool("no-cache"),
		Headers:   viper.GetStringMapString("headers"),
	}
}

// readConfigFile returns only what is stored in the config file, so that
// values coming from flags or the environment are never persisted.
func readConfigFile() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	// configFile comes from --config or the home directory.
	// #nosec G304
	data, err := os.ReadFile(configFile)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func setConfigValue(config *Config, key, value string) error {
	if name, ok := strings.CutPrefix(key, "headers."); ok && name != "" {
		if config.Headers == nil {
			config.Headers = make(map[string]string)
		}

		config.Headers[name] = value

		return nil
	}

	switch key {
	case "url":
		config.URL = strings.TrimRight(value, "/")
	case "apikey":
		config.APIKey = value
	case "basic-auth":
		config.BasicAuth = value
	case "output":
		switch value {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		default:
			return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, value)
		}

		config.Output = value
	case "timeout":
		config.Timeout = value
	case "cache-size":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid cache-size %q: %w", value, err)
		}

		config.CacheSize = size
	case "no-cache":
		noCache, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid no-cache %q: %w", value, err)
		}

		config.NoCache = noCache
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	if name, ok := strings.CutPrefix(key, "headers."); ok && name != "" {
		delete(config.Headers, name)

		return nil
	}

	switch key {
	case "url":
		config.URL = ""
	case "apikey":
		config.APIKey = ""
	case "basic-auth":
		config.BasicAuth = ""
	case "output":
		config.Output = ""
	case "timeout":
		config.Timeout = ""
	case "cache-size":
		config.CacheSize = 0
	case "no-cache":
		config.NoCache = false
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName+"."+constants.ConfigFileType), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}

	return constants.MaskedPassword
}

func maskCredentials(credentials string) string {
	username, _, ok := strings.Cut(credentials, ":")
	if !ok {
		return credentials
	}

	return username + ":" + constants.MaskedPassword
}
