// Package config provides configuration management for buildtrend.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. BUILDTREND_PR_END.
const EnvPrefix = "BUILDTREND"

const (
	DefaultBaseURL   = "https://gcsweb-ci.svc.ci.openshift.org/gcs/origin-ci-test/pr-logs/pull/openshift_installer/"
	DefaultJobSuffix = "e2e-aws/"
	DefaultStore     = "builds.json"
	DefaultTopic     = "buildtrend.builds"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the application configuration.
type Config struct {
	// BaseURL is the directory listing holding one subdirectory per pull request.
	BaseURL   string `mapstructure:"base-url" validate:"required,url"`
	JobSuffix string `mapstructure:"job-suffix" validate:"required"`
	// PRStart and PREnd bound the half-open range of pull requests crawled.
	PRStart int `mapstructure:"pr-start" validate:"gte=0"`
	PREnd   int `mapstructure:"pr-end" validate:"gtfield=PRStart"`

	Store     string        `mapstructure:"store" validate:"required"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent string        `mapstructure:"user-agent"`
	// Location names the time zone used for build keys. Empty or "Local" means the host zone.
	Location string `mapstructure:"location"`

	LogLevel    string `mapstructure:"log-level" validate:"oneof=trace debug info warn warning error"`
	LogFile     string `mapstructure:"log-file"`
	MetricsFile string `mapstructure:"metrics-file"`

	PostgresDSN     string   `mapstructure:"postgres-dsn"`
	RedpandaBrokers []string `mapstructure:"redpanda-brokers"`
	Topic           string   `mapstructure:"topic" validate:"required"`

	Schedule string `mapstructure:"schedule"`
	Charts   string `mapstructure:"charts"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base-url", DefaultBaseURL)
	v.SetDefault("job-suffix", DefaultJobSuffix)
	v.SetDefault("pr-start", 1)
	v.SetDefault("pr-end", 10000)
	v.SetDefault("store", DefaultStore)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("user-agent", "buildtrend")
	v.SetDefault("location", "Local")
	v.SetDefault("log-level", "info")
	v.SetDefault("topic", DefaultTopic)
}

// Load resolves configuration from defaults, an optional YAML file, BUILDTREND_*
// environment variables and flags, in increasing order of precedence.
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and that Location names a known zone.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q check (value %v)", ErrInvalid, fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.TimeLocation(); err != nil {
		return err
	}
	return nil
}

// TimeLocation returns the zone build start times are rendered in.
func (c *Config) TimeLocation() (*time.Location, error) {
	if c.Location == "" || c.Location == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: location %q: %v", ErrInvalid, c.Location, err)
	}
	return loc, nil
}
