package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	CatalogPath string `envconfig:"CATALOG_PATH" default:"data/catalog.json"`
	CompanyName string `envconfig:"COMPANY_NAME" default:"iCare Life"`

	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	ExportRateLimit int           `envconfig:"EXPORT_RATE_LIMIT" default:"10"`
	ExportRateEvery time.Duration `envconfig:"EXPORT_RATE_EVERY" default:"1m"`
	BatchTTL        time.Duration `envconfig:"BATCH_TTL" default:"12h"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CatalogPath == "" {
		return nil, errors.New("catalog path must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
