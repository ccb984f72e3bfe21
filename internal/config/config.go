// Package config loads YAML configuration with defaults and validation.
package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the process-wide configuration shared by every command.
type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development production"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`

	Storage struct {
		// Backend selects the store wiring: in-memory for local runs,
		// postgres for anything persistent.
		Backend     string `yaml:"backend" default:"memory" validate:"oneof=memory postgres"`
		PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Backend postgres"`

		// ClickhouseDSN, when set, routes the prediction audit log to
		// ClickHouse instead of the primary backend.
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`

	Model struct {
		Dir string `yaml:"dir" default:"./models" validate:"required"`
	} `yaml:"model"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"false"`
		Addr    string `yaml:"addr" default:":9102"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Training struct {
		Category       string `yaml:"category" default:"all" validate:"oneof=all market_feed uploaded"`
		RemoveOutliers bool   `yaml:"remove_outliers" default:"false"`
	} `yaml:"training"`

	Forecast struct {
		DefaultHorizonDays int `yaml:"default_horizon_days" default:"7" validate:"gte=1,lte=365"`
	} `yaml:"forecast"`
}

// Load reads a YAML file, applies defaults and env overrides, and
// validates the result. An empty path yields the default configuration.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
		c.Storage.Backend = "postgres"
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Model.Dir = v
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}
