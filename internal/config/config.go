// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"kalshi-hedger/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Clock   ClockConfig   `mapstructure:"clock"`
	Hedge   HedgeConfig   `mapstructure:"hedge"`
	Sweep   SweepConfig   `mapstructure:"sweep"`
	Model   ModelConfig   `mapstructure:"model"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DataConfig locates the historical inputs and the results database.
type DataConfig struct {
	DerivDir     string  `mapstructure:"deriv_dir"`
	UnderCSV     string  `mapstructure:"under_csv"`
	ResultsDB    string  `mapstructure:"results_db"`
	MinRows      int     `mapstructure:"min_rows"`
	QuoteDivisor float64 `mapstructure:"quote_divisor"`
}

// ClockConfig controls the simulation clock.
type ClockConfig struct {
	Delta float64 `mapstructure:"delta"` // simulated seconds per cycle
}

// HedgeConfig holds the agent hyperparameters for single runs.
type HedgeConfig struct {
	MaxUnderPos float64 `mapstructure:"max_under_pos"`
	MinTTEHedge float64 `mapstructure:"min_tte_hedge"`
	Drift       float64 `mapstructure:"drift"`
	MaxSpread   float64 `mapstructure:"max_spread"`
	MinBid      float64 `mapstructure:"min_bid"`
	MaxAsk      float64 `mapstructure:"max_ask"`
}

// SweepConfig defines the hyperparameter grid.
type SweepConfig struct {
	MaxUnderPos float64 `mapstructure:"max_under_pos"`
	MinTTEHedge float64 `mapstructure:"min_tte_hedge"`
	Samples     int     `mapstructure:"samples"`
}

// ModelConfig selects and parameterizes the pricing model.
type ModelConfig struct {
	Family       string  `mapstructure:"family"` // gaussian, cauchy, lattice
	LatticeUp    float64 `mapstructure:"lattice_up"`
	LatticeRate  float64 `mapstructure:"lattice_rate"`
	LatticeDepth int     `mapstructure:"lattice_depth"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/kalshi-hedger"
	}
	return filepath.Join(home, ".config", "kalshi-hedger")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A missing config file is not
// an error: defaults apply and flags can override the rest.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.deriv_dir", "data/derivative")
	v.SetDefault("data.under_csv", "data/underlying.csv")
	v.SetDefault("data.results_db", filepath.Join(DefaultConfigDir(), "results.db"))
	v.SetDefault("data.min_rows", 5)
	v.SetDefault("data.quote_divisor", 100.0)

	v.SetDefault("clock.delta", 60.0)

	v.SetDefault("hedge.max_under_pos", 50.0)
	v.SetDefault("hedge.min_tte_hedge", 0.5)
	v.SetDefault("hedge.drift", 0.0)

	v.SetDefault("sweep.max_under_pos", 100.0)
	v.SetDefault("sweep.min_tte_hedge", 2.0)
	v.SetDefault("sweep.samples", 5)

	v.SetDefault("model.family", "gaussian")
	v.SetDefault("model.lattice_up", 1.001)
	v.SetDefault("model.lattice_rate", 0.0)
	v.SetDefault("model.lattice_depth", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(DefaultConfigDir(), "logs", "hedger.log"))
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures deep inside a replay.
func (c *Config) Validate() error {
	if c.Clock.Delta <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "clock.delta must be positive, got %v", c.Clock.Delta)
	}
	if c.Hedge.MaxUnderPos < 0 || c.Hedge.MinTTEHedge < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "hedge hyperparameters must be non-negative")
	}
	if c.Sweep.Samples < 1 {
		return errors.Wrapf(errors.ErrConfigInvalid, "sweep.samples must be at least 1, got %d", c.Sweep.Samples)
	}
	switch c.Model.Family {
	case "", "gaussian", "cauchy":
	case "lattice":
		if c.Model.LatticeUp <= 1 || c.Model.LatticeDepth < 1 {
			return errors.Wrap(errors.ErrConfigInvalid, "lattice model needs lattice_up > 1 and lattice_depth >= 1")
		}
	default:
		return errors.Wrapf(errors.ErrConfigInvalid, "unknown model.family %q", c.Model.Family)
	}
	return nil
}
