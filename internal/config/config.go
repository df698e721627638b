// ABOUTME: Configuration loader for the clinic CLI and TUI
// ABOUTME: Merges flags, CLINIC_* environment, .env and config.yaml with defaults

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. CLINIC_API_URL
	EnvPrefix     = "CLINIC"
	DefaultAPIURL = "http://localhost:8000"
	appDirName    = "clinic"
	envFile       = ".env"
)

// Keys shared by flags, environment and config.yaml
const (
	KeyAPIURL    = "api-url"
	KeyConfigDir = "config-dir"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
	KeyJSON      = "json"
)

type Config struct {
	APIURL    string
	ConfigDir string
	LogLevel  string
	LogFormat string
	JSON      bool
}

// DefaultConfigDir returns the default config directory following XDG conventions
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

// Load resolves the configuration. Precedence, highest first: changed flags,
// CLINIC_* environment (including .env), config.yaml in the config dir, defaults.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyConfigDir, DefaultConfigDir())
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyJSON, false)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	dir := v.GetString(KeyConfigDir)
	if dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		APIURL:    strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		ConfigDir: dir,
		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),
		JSON:      v.GetBool(KeyJSON),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL %q: must be an http(s) URL", c.APIURL)
	}
	if c.ConfigDir == "" {
		return fmt.Errorf("cannot determine config directory, set --config-dir or %s_CONFIG_DIR", EnvPrefix)
	}
	return nil
}

// loadDotEnv exports variables from path without overriding the environment
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
