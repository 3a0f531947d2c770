// Package config loads the windquote configuration from an optional YAML
// file and WINDQUOTE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"windquote/calculator"
)

// DefaultConfigFile is read when WINDQUOTE_CONFIG is not set. A missing
// default file is not an error.
const DefaultConfigFile = "windquote.yml"

// EnvConfigFile names the variable overriding the configuration path.
const EnvConfigFile = "WINDQUOTE_CONFIG"

// Configuration holds all configuration for windquote.
type Configuration struct {
	Logging    LoggingConfig
	Seed       SeedConfig
	Export     ExportConfig
	Calculator CalculatorConfig
}

// LoggingConfig selects the zap level, encoder and output.
type LoggingConfig struct {
	Level      string
	Format     string
	OutputFile string
}

type SeedConfig struct {
	PriceItems bool
	Demo       bool
}

type ExportConfig struct {
	Currency string
	Company  string
}

type CalculatorConfig struct {
	SlopePolicy string
}

// SlopeParsePolicy is the parse-failure policy for slope ratios submitted
// through the API.
func (c CalculatorConfig) SlopeParsePolicy() calculator.ParsePolicy {
	p, err := calculator.ParsePolicyFromString(c.SlopePolicy)
	if err != nil {
		return calculator.DefaultOnParseFailure
	}
	return p
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("seed.priceItems", true)
	v.SetDefault("seed.demo", false)
	v.SetDefault("export.currency", "EUR")
	v.SetDefault("export.company", "")
	v.SetDefault("calculator.slopePolicy", "default")
}

// Load reads the configuration at configPath. An empty path falls back to
// WINDQUOTE_CONFIG, then to DefaultConfigFile if it exists; with no file
// only defaults and environment variables apply.
func Load(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WINDQUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configPath != ""
	if !explicit {
		configPath = os.Getenv(EnvConfigFile)
		explicit = configPath != ""
	}
	if !explicit {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			configPath = DefaultConfigFile
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	var conf Configuration
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate rejects values that would only fail later at startup.
func (c *Configuration) Validate() error {
	var errs []error
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid logging.level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("invalid logging.format %q", c.Logging.Format))
	}
	if _, err := calculator.ParsePolicyFromString(c.Calculator.SlopePolicy); err != nil {
		errs = append(errs, fmt.Errorf("invalid calculator.slopePolicy: %w", err))
	}
	return errors.Join(errs...)
}
