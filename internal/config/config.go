// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Billing   BillingConfig   `koanf:"billing"`
	Media     MediaConfig     `koanf:"media"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
	KeyPrefix    string `koanf:"key_prefix"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
}

// CatalogConfig bounds artwork listing pages.
type CatalogConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
	FeaturedLimit   int `koanf:"featured_limit"`
}

// BillingConfig drives the simulated premium plan.
type BillingConfig struct {
	PremiumPrice    float64 `koanf:"premium_price"`
	PeriodDays      int     `koanf:"period_days"`
	RenewalEnabled  bool    `koanf:"renewal_enabled"`
	RenewalSchedule string  `koanf:"renewal_schedule"`
}

func (b BillingConfig) Period() time.Duration {
	return time.Duration(b.PeriodDays) * 24 * time.Hour
}

type MediaConfig struct {
	Root       string `koanf:"root"`
	LoginURL   string `koanf:"login_url"`
	UpgradeURL string `koanf:"upgrade_url"`
}

// Load resolves configuration in order: built-in defaults, the optional YAML
// file, then environment variables. A .env file in the working directory is
// read into the environment first.
func Load(configPath string) (*Config, error) {
	return load(configPath)
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		err := k.Load(file.Provider(configPath), yaml.Parser())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

var defaults = map[string]map[string]any{
	"app": {
		"name":        "Artistry",
		"version":     "1.0.0",
		"environment": "development",
	},
	"server": {
		"host":             "0.0.0.0",
		"port":             8080,
		"read_timeout":     "30s",
		"write_timeout":    "60s",
		"idle_timeout":     "120s",
		"shutdown_timeout": "15s",
	},
	"database": {
		"max_open_conns":     25,
		"max_idle_conns":     5,
		"conn_max_lifetime":  "1h",
		"conn_max_idle_time": "30m",
		"auto_migrate":       true,
	},
	"redis": {
		"pool_size":      10,
		"min_idle_conns": 5,
		"key_prefix":     "artistry",
	},
	"jwt": {
		"access_token_expire":  "15m",
		"refresh_token_expire": "168h",
		"issuer":               "artistry",
		"audience":             "artistry-api",
		"private_key_path":     "keys/private.pem",
		"public_key_path":      "keys/public.pem",
	},
	"rate_limit": {
		"requests": 100,
		"window":   "1m",
		"burst":    20,
	},
	"cors": {
		"allowed_origins": []string{"http://localhost:3000"},
		"allowed_methods": []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		"allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"allow_credentials": true,
		"max_age":           300,
	},
	"log": {
		"level":  "info",
		"format": "json",
	},
	"otel": {
		"enabled":      false,
		"insecure":     true,
		"sample_rate":  0.1,
		"service_name": "artistry",
	},
	"metrics": {
		"enabled":   true,
		"path":      "/metrics",
		"namespace": "artistry",
	},
	"catalog": {
		"default_page_size": 12,
		"max_page_size":     50,
		"featured_limit":    6,
	},
	"billing": {
		"premium_price":    9.99,
		"period_days":      30,
		"renewal_enabled":  true,
		"renewal_schedule": "@daily",
	},
	"media": {
		"root":        "media",
		"login_url":   "/login",
		"upgrade_url": "/subscription",
	},
}

func loadDefaults(k *koanf.Koanf) error {
	for section, values := range defaults {
		for key, value := range values {
			if err := k.Set(section+"."+key, value); err != nil {
				return fmt.Errorf("set default %s.%s: %w", section, key, err)
			}
		}
	}
	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"REDIS_KEY_PREFIX":            "redis.key_prefix",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"METRICS_ENABLED":             "metrics.enabled",
	"METRICS_PATH":                "metrics.path",
	"CATALOG_DEFAULT_PAGE_SIZE":   "catalog.default_page_size",
	"CATALOG_MAX_PAGE_SIZE":       "catalog.max_page_size",
	"BILLING_PREMIUM_PRICE":       "billing.premium_price",
	"BILLING_PERIOD_DAYS":         "billing.period_days",
	"BILLING_RENEWAL_ENABLED":     "billing.renewal_enabled",
	"BILLING_RENEWAL_SCHEDULE":    "billing.renewal_schedule",
	"MEDIA_ROOT":                  "media.root",
	"MEDIA_LOGIN_URL":             "media.login_url",
	"MEDIA_UPGRADE_URL":           "media.upgrade_url",
}

// envKeyReplacer drops every variable not listed in envKeyMap.
func envKeyReplacer(s string) string {
	return envKeyMap[s]
}

// validate reports every problem at once so a broken deployment can be
// fixed in one pass.
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Database.URL != "", "DATABASE_URL is required")
	check(c.Redis.URL != "", "REDIS_URL is required")
	check(c.JWT.PrivateKeyPath != "", "JWT_PRIVATE_KEY_PATH is required")
	check(c.JWT.PublicKeyPath != "", "JWT_PUBLIC_KEY_PATH is required")
	check(c.Media.Root != "", "MEDIA_ROOT is required")

	check(!c.CORS.AllowCredentials || !slices.Contains(c.CORS.AllowedOrigins, "*"),
		"CORS wildcard '*' cannot be used with AllowCredentials")
	check(!c.IsProduction() || !c.Otel.Enabled || !c.Otel.Insecure,
		"OTEL_INSECURE must be false in production")

	check(c.Server.ReadTimeout > 0, "server.read_timeout must be positive")
	check(c.Server.WriteTimeout > 0, "server.write_timeout must be positive")

	check(c.Catalog.DefaultPageSize > 0, "catalog.default_page_size must be positive")
	check(c.Catalog.MaxPageSize >= c.Catalog.DefaultPageSize,
		"catalog.max_page_size must be at least catalog.default_page_size")

	check(c.Billing.PremiumPrice > 0, "billing.premium_price must be positive")
	check(c.Billing.PeriodDays > 0, "billing.period_days must be positive")
	if c.Billing.RenewalEnabled {
		if _, err := cron.ParseStandard(c.Billing.RenewalSchedule); err != nil {
			errs = append(errs, fmt.Errorf("billing.renewal_schedule: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
