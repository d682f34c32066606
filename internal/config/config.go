// Package config loads the service configuration from an optional YAML file
// with environment variable overrides on top. A missing file is not an error;
// everything has a default or an env knob.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Driver string `yaml:"driver"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Prefix string `yaml:"prefix"`
	} `yaml:"cache"`

	JWT struct {
		Secret            string        `yaml:"secret"`
		AccessTTL         time.Duration `yaml:"access_ttl"`
		AccessTTLRemember time.Duration `yaml:"access_ttl_remember"`
	} `yaml:"jwt"`

	Refresh struct {
		TTL         time.Duration `yaml:"ttl"`
		TTLRemember time.Duration `yaml:"ttl_remember"`
	} `yaml:"refresh"`

	Cookies struct {
		Domain string `yaml:"domain"`
		// Secure defaults to true when App.Env is prod.
		Secure *bool `yaml:"secure"`
	} `yaml:"cookies"`

	OTP struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"otp"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		From     string `yaml:"from"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		// auto | starttls | ssl | none
		TLSMode string `yaml:"tls_mode"`
	} `yaml:"smtp"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"login"`
		Otp struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"otp"`
	} `yaml:"rate"`

	Cleanup struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"cleanup"`
}

// Defaults applied before YAML and env.
func defaults() *Config {
	var c Config
	c.App.Env = "dev"
	c.App.LogLevel = "info"
	c.Server.Addr = ":8080"
	c.Storage.Driver = "postgres"
	c.Cache.Driver = "memory"
	c.Cache.Prefix = "authgate:"
	c.JWT.AccessTTL = 15 * time.Minute
	c.JWT.AccessTTLRemember = 24 * time.Hour
	c.Refresh.TTL = 7 * 24 * time.Hour
	c.Refresh.TTLRemember = 30 * 24 * time.Hour
	c.OTP.TTL = 10 * time.Minute
	c.SMTP.Port = 587
	c.SMTP.TLSMode = "auto"
	c.Rate.Login.Limit = 10
	c.Rate.Login.Window = time.Minute
	c.Rate.Otp.Limit = 5
	c.Rate.Otp.Window = time.Minute
	c.Cleanup.Interval = time.Hour
	return &c
}

// Load reads the YAML file at path (if it exists) and applies env overrides.
func Load(path string) (*Config, error) {
	c := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	return c, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("STORE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("DATABASE_MAX_CONNS"); ok {
		c.Storage.MaxConns = v
	}
	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvDur("ACCESS_TOKEN_EXPIRY"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvDur("ACCESS_TOKEN_EXPIRY_REMEMBER"); ok {
		c.JWT.AccessTTLRemember = v
	}
	if v, ok := getEnvDur("REFRESH_TOKEN_EXPIRY"); ok {
		c.Refresh.TTL = v
	}
	if v, ok := getEnvDur("REFRESH_TOKEN_EXPIRY_REMEMBER"); ok {
		c.Refresh.TTLRemember = v
	}
	if v, ok := getEnvStr("COOKIE_DOMAIN"); ok {
		c.Cookies.Domain = v
	}
	if v, ok := getEnvBool("COOKIE_SECURE"); ok {
		c.Cookies.Secure = &v
	}
	if v, ok := getEnvDur("OTP_EXPIRY"); ok {
		c.OTP.TTL = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.SMTP.TLSMode = v
	}
	if v, ok := getEnvBool("RATE_LIMIT_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvDur("CLEANUP_INTERVAL"); ok {
		c.Cleanup.Interval = v
	}
}

// CookieSecure resolves the secure flag: explicit setting wins, otherwise
// cookies are secure only outside dev.
func (c *Config) CookieSecure() bool {
	if c.Cookies.Secure != nil {
		return *c.Cookies.Secure
	}
	return strings.EqualFold(c.App.Env, "prod")
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("config: JWT_SECRET must be at least 32 bytes")
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: DATABASE_URL is required for the postgres driver")
	}
	if c.JWT.AccessTTL <= 0 || c.Refresh.TTL <= 0 {
		return fmt.Errorf("config: token expiries must be positive")
	}
	return nil
}

// ─── env helpers ───

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func getEnvBool(key string) (bool, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func getEnvDur(key string) (time.Duration, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
