/*
Package config loads CLI configuration.

PURPOSE:
  Resolves settings from, in increasing priority: built-in defaults, an
  optional YAML config file, a .env file and AMORTIZATION_* environment
  variables. Command-line flags are applied on top by the caller.

ENVIRONMENT:
  AMORTIZATION_LOG_LEVEL            debug | info | warn | error
  AMORTIZATION_LOG_FORMAT           console | json
  AMORTIZATION_LOAN_RATE            default nominal rate in percent
  AMORTIZATION_LOAN_DURATION        default duration in months
  AMORTIZATION_LOAN_ROUND_VALUES    round annuity and installment up
  AMORTIZATION_OUTPUT_FORMAT        text | json
  AMORTIZATION_OUTPUT_METRICS_FILE  prometheus textfile path

USAGE:
  cfg, err := config.Load("amortization.yaml")
*/
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/warp/amortization-engine/observability"
)

const envPrefix = "AMORTIZATION"

var (
	ErrInvalidFormat   = errors.New("unsupported format")
	ErrInvalidDefaults = errors.New("invalid loan defaults")
)

type Config struct {
	Log    observability.LogConfig `mapstructure:"log"`
	Loan   LoanDefaults            `mapstructure:"loan"`
	Output OutputConfig            `mapstructure:"output"`
}

// LoanDefaults fill in loan parameters the caller did not set.
type LoanDefaults struct {
	Rate        float64 `mapstructure:"rate"`
	Duration    int     `mapstructure:"duration"`
	RoundValues bool    `mapstructure:"round_values"`
}

type OutputConfig struct {
	Format      string `mapstructure:"format"`
	MetricsFile string `mapstructure:"metrics_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("loan.rate", 0.01)
	v.SetDefault("loan.duration", 12)
	v.SetDefault("loan.round_values", true)
	v.SetDefault("output.format", "text")
	v.SetDefault("output.metrics_file", "")
}

// Load resolves the configuration. configPath may be empty. With no
// envFiles a .env in the working directory is loaded if present; named
// envFiles must exist.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects formats the CLI cannot produce and impossible defaults.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log format %q: %w", c.Log.Format, ErrInvalidFormat)
	}
	switch strings.ToLower(c.Output.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("output format %q: %w", c.Output.Format, ErrInvalidFormat)
	}
	if c.Loan.Duration < 1 || c.Loan.Rate < 0 {
		return fmt.Errorf("duration %d, rate %v: %w", c.Loan.Duration, c.Loan.Rate, ErrInvalidDefaults)
	}
	return nil
}
