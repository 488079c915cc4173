// Package config provides configuration management for the handicapper.
package config

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Profile  Profile        `mapstructure:"profile" validate:"required"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Advisory AdvisoryConfig `mapstructure:"advisory"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// BacktestConfig represents batch validation over historical races
type BacktestConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	Workers    int    `mapstructure:"workers" validate:"gte=0,lte=64"`
	OutputPath string `mapstructure:"output_path"`
	// TopBets is how many ranked straight bets are settled per race
	TopBets int `mapstructure:"top_bets" validate:"gte=0"`
}

// CacheConfig represents the result cache used by the service layer
type CacheConfig struct {
	Enabled                bool `mapstructure:"enabled"`
	TTLSeconds             int  `mapstructure:"ttl_seconds" validate:"gte=0"`
	CleanupIntervalSeconds int  `mapstructure:"cleanup_interval_seconds" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// AdvisoryConfig represents the optional external advisory service
type AdvisoryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	URL               string  `mapstructure:"url" validate:"required_if=Enabled true,omitempty,url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0,lte=10"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Default returns a configuration that runs without any file
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "clever-handicapper",
			Environment: "development",
			LogLevel:    "info",
		},
		Profile: DefaultProfile(),
		Backtest: BacktestConfig{
			Workers:    4,
			OutputPath: "output/validation",
			TopBets:    1,
		},
		Cache: CacheConfig{
			Enabled:                true,
			TTLSeconds:             300,
			CleanupIntervalSeconds: 600,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Advisory: AdvisoryConfig{
			TimeoutSeconds:    10,
			RetryAttempts:     3,
			RequestsPerSecond: 2,
			Burst:             1,
		},
	}
}
