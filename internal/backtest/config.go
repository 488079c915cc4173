package backtest

import (
	"fmt"

	"github.com/yourusername/clever-handicapper/internal/config"
)

const (
	defaultWorkers              = 4
	defaultMonteCarloIterations = 1000
)

// Config holds batch validation settings
type Config struct {
	Workers int
	// TopBets is how many ranked straight bets are settled per race
	TopBets              int
	InitialBankroll      float64
	MonteCarloIterations int
	Seed                 int64
	OutputPath           string
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Workers:              defaultWorkers,
		TopBets:              1,
		InitialBankroll:      1000,
		MonteCarloIterations: defaultMonteCarloIterations,
		Seed:                 1,
	}
}

// FromConfig converts app config to backtest config, filling zero values with defaults
func FromConfig(cfg config.BacktestConfig) (Config, error) {
	bt := DefaultConfig()
	if cfg.Workers > 0 {
		bt.Workers = cfg.Workers
	}
	if cfg.TopBets > 0 {
		bt.TopBets = cfg.TopBets
	}
	bt.OutputPath = cfg.OutputPath
	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.TopBets < 0 {
		return fmt.Errorf("top bets cannot be negative")
	}
	if c.InitialBankroll <= 0 {
		return fmt.Errorf("initial bankroll must be positive")
	}
	if c.MonteCarloIterations < 0 {
		return fmt.Errorf("monte carlo iterations cannot be negative")
	}
	return nil
}
