package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/secrets"
	"github.com/dmitrymomot/notifykit/pkg/testsend"
)

// appConfig is the process level configuration. Storage backends are loaded
// separately so dry runs never require a database.
type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"notifykit"`
	AppKey      string `env:"APP_KEY"`
	LogLevel    string `env:"LOG_LEVEL"`
	LogNoColor  bool   `env:"LOG_NO_COLOR" envDefault:"false"`

	TemplatesDir string `env:"TEMPLATES_DIR" envDefault:"templates"`
	DevMailDir   string `env:"DEV_MAIL_DIR" envDefault:"tmp/emails"`

	TenantCacheTTL    time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`
	TenantCachePrefix string        `env:"TENANT_CACHE_PREFIX" envDefault:"notifykit:tenant:"`
	UseRedisCache     bool          `env:"TENANT_CACHE_REDIS" envDefault:"false"`
	UseMongoTemplates bool          `env:"TEMPLATES_MONGO" envDefault:"false"`

	MetricsFile string `env:"METRICS_TEXTFILE"`

	TestSend testsend.Config
}

var errInvalidAppConfig = errors.New("invalid application config")

// Validate implements config.Validator.
func (c *appConfig) Validate() error {
	switch c.Env {
	case logger.EnvDevelopment, logger.EnvStaging, logger.EnvProduction:
	default:
		return fmt.Errorf("%w: APP_ENV %q", errInvalidAppConfig, c.Env)
	}
	if c.AppKey != "" {
		if _, err := secrets.ParseKey(c.AppKey); err != nil {
			return fmt.Errorf("%w: APP_KEY: %w", errInvalidAppConfig, err)
		}
	}
	if c.TestSend.FallbackSender != "" {
		if !email.IsValidAddress(c.TestSend.FallbackSender) {
			return fmt.Errorf("%w: FALLBACK_SENDER %q", errInvalidAppConfig, c.TestSend.FallbackSender)
		}
	}
	if c.TenantCacheTTL < 0 {
		return fmt.Errorf("%w: TENANT_CACHE_TTL must not be negative", errInvalidAppConfig)
	}
	return nil
}

// appKey decodes APP_KEY. It is required by every path that opens stored credentials.
func (c *appConfig) appKey() ([]byte, error) {
	if c.AppKey == "" {
		return nil, fmt.Errorf("%w: APP_KEY is required", errInvalidAppConfig)
	}
	return secrets.ParseKey(c.AppKey)
}
