package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "HANDICAPPER"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration on top of Default(); a missing file is not an error
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadProfile reads a standalone tuning profile on top of DefaultProfile
// Several profiles can be loaded this way and run side by side
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	profile := DefaultProfile()
	if err := v.Unmarshal(&profile); err != nil {
		return Profile{}, fmt.Errorf("failed to unmarshal profile %s: %w", path, err)
	}

	if err := ValidateProfile(profile); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}

	return profile, nil
}

// ReloadFromEnv replaces cfg with the file named by HANDICAPPER_CONFIG_PATH, if set
func ReloadFromEnv(cfg *Config) error {
	envPath := os.Getenv(envPrefix + "_CONFIG_PATH")
	if envPath == "" {
		return nil
	}
	newCfg, err := LoadWithDefaults(envPath)
	if err != nil {
		return err
	}
	*cfg = *newCfg
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set environment variable prefix
	v.SetEnvPrefix(envPrefix)

	// Enable automatic binding of environment variables
	v.AutomaticEnv()

	// Replace dots with underscores in environment variable names
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults registers the keys most often overridden from the environment
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.environment", d.App.Environment)
	v.SetDefault("app.log_level", d.App.LogLevel)
	v.SetDefault("profile.name", d.Profile.Name)
	v.SetDefault("profile.scoring.max_base_score", d.Profile.Scoring.MaxBaseScore)
	v.SetDefault("profile.overlay.transform", d.Profile.Overlay.Transform)
	v.SetDefault("profile.recommendation.budget", d.Profile.Recommendation.Budget)
	v.SetDefault("profile.recommendation.bankroll", d.Profile.Recommendation.Bankroll)
	v.SetDefault("backtest.workers", d.Backtest.Workers)
	v.SetDefault("backtest.data_dir", d.Backtest.DataDir)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("advisory.enabled", d.Advisory.Enabled)
	v.SetDefault("advisory.url", d.Advisory.URL)
}
