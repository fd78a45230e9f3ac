package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/goquad"
)

// Config holds all goquad configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string `yaml:"addr" validate:"required"`
	RequestTimeout string `yaml:"request_timeout" validate:"omitempty,duration"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes" validate:"gt=0"`
}

// EngineConfig tunes the coordinator and the rules.
type EngineConfig struct {
	DefaultN          int    `yaml:"default_n" validate:"gte=1,ltefield=MaxN"`
	MaxN              int    `yaml:"max_n" validate:"gte=1"`
	MonteCarloScale   int    `yaml:"monte_carlo_scale" validate:"gte=1,lte=1000"`
	Workers           int    `yaml:"workers" validate:"gte=0"`            // 0 means GOMAXPROCS
	ParallelThreshold int    `yaml:"parallel_threshold" validate:"gte=0"` // 0 means the library default
	Seed              uint64 `yaml:"seed"`                                // 0 draws a fresh Monte Carlo seed per run
	AllowPartialGauss bool   `yaml:"allow_partial_gauss"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// MetricsConfig configures Prometheus exposition.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"required_if=Enabled true"`
}

// TracingConfig selects the OpenTelemetry span exporter.
type TracingConfig struct {
	Exporter     string `yaml:"exporter" validate:"oneof=none stdout otlp"`
	ServiceName  string `yaml:"service_name" validate:"required"`
	OTLPEndpoint string `yaml:"otlp_endpoint" validate:"required_if=Exporter otlp"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: "30s",
			MaxBodyBytes:   1 << 20,
		},
		Engine: EngineConfig{
			DefaultN:        goquad.DefaultN,
			MaxN:            goquad.DefaultMaxN,
			MonteCarloScale: goquad.DefaultMonteCarloScale,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "goquad",
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "goquad",
		},
	}
}

var validate = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
	return v
}()

// Load reads a YAML file over the defaults, applies GOQUAD_* environment
// overrides and validates the result. An empty path or a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("GOQUAD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("GOQUAD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GOQUAD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("GOQUAD_MAX_N"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOQUAD_MAX_N: %w", err)
		}
		c.Engine.MaxN = n
	}
	if v := os.Getenv("GOQUAD_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GOQUAD_SEED: %w", err)
		}
		c.Engine.Seed = seed
	}
	if v := os.Getenv("GOQUAD_METRICS"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GOQUAD_METRICS: %w", err)
		}
		c.Metrics.Enabled = on
	}
	if v := os.Getenv("GOQUAD_TRACE_EXPORTER"); v != "" {
		c.Tracing.Exporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Tracing.OTLPEndpoint = v
	}
	return nil
}

// GetRequestTimeout returns the per-request timeout as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// RuleOptions maps the engine section onto rule construction options.
func (e EngineConfig) RuleOptions() goquad.RuleOptions {
	return goquad.RuleOptions{
		Workers:           e.Workers,
		ParallelThreshold: e.ParallelThreshold,
		Seed:              e.Seed,
		AllowPartialGauss: e.AllowPartialGauss,
	}
}

// CoordinatorOptions returns the engine options for goquad.NewCoordinator.
func (e EngineConfig) CoordinatorOptions() []goquad.Option {
	return []goquad.Option{
		goquad.WithRuleOptions(e.RuleOptions()),
		goquad.WithMaxN(e.MaxN),
		goquad.WithMonteCarloScale(e.MonteCarloScale),
	}
}
