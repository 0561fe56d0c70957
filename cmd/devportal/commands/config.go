package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration keys.
const (
	keyURL            = "url"
	keyToken          = "token"
	keyAccessToken    = "access_token"
	keyRefreshToken   = "refresh_token"
	keyTokenExpiresAt = "token_expires_at"
	keyLastRefreshed  = "last_refreshed"
	keyUsername       = "username"
	keyOutput         = "output"
	keyVerbose        = "verbose"
)

// Config represents the CLI configuration.
type Config struct {
	URL            string     `json:"url,omitempty"              yaml:"url,omitempty"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	AccessToken    string     `json:"access_token,omitempty"     yaml:"access_token,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"   yaml:"last_refreshed,omitempty"`
	Username       string     `json:"username,omitempty"         yaml:"username,omitempty"`
	Output         string     `json:"output,omitempty"           yaml:"output,omitempty"`
}

// Credentials returns the stored session tokens.
func (c *Config) Credentials() devportal.Credentials {
	return devportal.Credentials{
		Token:        c.Token,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
	}
}

// ClearCredentials forgets the stored tokens and their metadata.
func (c *Config) ClearCredentials() {
	c.Token = ""
	c.AccessToken = ""
	c.RefreshToken = ""
	c.TokenExpiresAt = nil
	c.LastRefreshed = nil
}

// masked returns a copy safe to print.
func (c *Config) masked() *Config {
	masked := *c
	masked.Token = maskSecret(c.Token)
	masked.AccessToken = maskSecret(c.AccessToken)
	masked.RefreshToken = maskSecret(c.RefreshToken)

	return &masked
}

// configSetters maps the keys accepted by "config set" and "config unset".
var configSetters = map[string]func(*Config, string){
	keyURL:          func(c *Config, v string) { c.URL = v },
	keyToken:        func(c *Config, v string) { c.Token = v },
	keyAccessToken:  func(c *Config, v string) { c.AccessToken = v },
	keyRefreshToken: func(c *Config, v string) { c.RefreshToken = v },
	keyUsername:     func(c *Config, v string) { c.Username = v },
	keyOutput:       func(c *Config, v string) { c.Output = v },
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the developer portal CLI configuration stored in ~/.devportal/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with tokens masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig().masked()

			return render(cmd.OutOrStdout(), config, func(w io.Writer) error {
				return displayConfigTable(w, config)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + configKeyList(),
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			err := updateConfigValue(key, value)
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value. Keys: " + configKeyList(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			err := updateConfigValue(key, "")
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Unset", key, "")
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove the configuration file including stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := configFilePath()
			if err != nil {
				return err
			}

			err = os.Remove(configFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Cleared", "all configuration", "")
		},
	}
}

func updateConfigValue(key, value string) error {
	setter, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("%w: %s (valid keys: %s)", constants.ErrUnknownConfigKey, key, configKeyList())
	}

	config := loadConfig()
	setter(config, value)

	// A replaced bearer token invalidates the stored expiry.
	if key == keyToken {
		config.TokenExpiresAt = nil
	}

	return saveConfigStruct(config)
}

func configKeyList() string {
	keys := make([]string, 0, len(configSetters))
	for key := range configSetters {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return fmt.Sprint(keys)
}

func loadConfig() *Config {
	return &Config{
		URL:            viper.GetString(keyURL),
		Token:          viper.GetString(keyToken),
		AccessToken:    viper.GetString(keyAccessToken),
		RefreshToken:   viper.GetString(keyRefreshToken),
		TokenExpiresAt: parseTimeKey(keyTokenExpiresAt),
		LastRefreshed:  parseTimeKey(keyLastRefreshed),
		Username:       viper.GetString(keyUsername),
		Output:         viper.GetString(keyOutput),
	}
}

// parseTimeKey accepts both RFC 3339 strings and YAML timestamps.
func parseTimeKey(key string) *time.Time {
	if !viper.IsSet(key) {
		return nil
	}

	t, err := cast.ToTimeE(viper.Get(key))
	if err != nil || t.IsZero() {
		return nil
	}

	return &t
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Reload so later reads in this process see the saved values.
	viper.SetConfigFile(configFile)

	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to reload config file: %w", err)
	}

	return nil
}

func displayConfigTable(w io.Writer, config *Config) error {
	rows := [][]string{
		{"URL", formatConfigValue(config.URL)},
		{"Username", formatConfigValue(config.Username)},
		{"Output", formatConfigValue(config.Output)},
		{"Token", formatConfigValue(config.Token)},
		{"Access Token", formatConfigValue(config.AccessToken)},
		{"Refresh Token", formatConfigValue(config.RefreshToken)},
	}

	if config.TokenExpiresAt != nil {
		rows = append(rows, []string{"Token Expires At", config.TokenExpiresAt.Format(time.RFC3339)})
	}

	if config.LastRefreshed != nil {
		rows = append(rows, []string{"Last Refreshed", config.LastRefreshed.Format(time.RFC3339)})
	}

	return renderTable(w, []string{"Property", "Value"}, rows)
}

func formatConfigValue(value string) string {
	if value == "" {
		return NotSet
	}

	return value
}

func outputConfigUpdateResult(w io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return render(w, result, func(w io.Writer) error {
		rows := [][]string{{"Action", action}, {"Key", key}}
		if value != "" {
			rows = append(rows, []string{"Value", value})
		}

		return renderTable(w, []string{"Property", "Value"}, rows)
	})
}
