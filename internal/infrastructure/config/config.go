package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Swell     SwellConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Stripe    StripeConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

// SwellConfig holds settings for the remote store line-protocol client
type SwellConfig struct {
	Host      string
	Port      int
	StoreID   string
	SecretKey string

	MaxFetchPageSize      int     // upper bound for a single page request
	DefaultPageSize       int     // substituted when a caller asks for <= 0
	MaxWorkers            int     // ceiling on concurrent page requests
	PageRequestsPerSecond float64 // 0 = unlimited
	MaxRetries            int     // retries for transient network errors

	DialTimeout      time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	KeepAlive        time.Duration
	MaxResponseBytes int

	CAFile             string // optional PEM bundle replacing the system roots
	InsecureSkipVerify bool   // development only, rejected in production
}

// Addr returns host:port of the remote store
func (s *SwellConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig holds response cache settings
type CacheConfig struct {
	ProductTTL time.Duration
}

// StripeConfig holds Stripe settings
type StripeConfig struct {
	SecretKey       string
	DefaultCurrency string
}

// TelemetryConfig holds OpenTelemetry export settings
type TelemetryConfig struct {
	Enabled               bool
	CollectorEndpoint     string
	SamplingRatio         float64
	Insecure              bool
	MetricsExportInterval time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PAYBRIDGE_ prefix (e.g., PAYBRIDGE_SWELL_SECRET_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PAYBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		},
		Swell: SwellConfig{
			Host:                  v.GetString("swell.host"),
			Port:                  v.GetInt("swell.port"),
			StoreID:               v.GetString("swell.store_id"),
			SecretKey:             v.GetString("swell.secret_key"),
			MaxFetchPageSize:      v.GetInt("swell.max_fetch_page_size"),
			DefaultPageSize:       v.GetInt("swell.default_page_size"),
			MaxWorkers:            v.GetInt("swell.max_workers"),
			PageRequestsPerSecond: v.GetFloat64("swell.page_requests_per_second"),
			MaxRetries:            v.GetInt("swell.max_retries"),
			DialTimeout:           v.GetDuration("swell.dial_timeout"),
			ReadTimeout:           v.GetDuration("swell.read_timeout"),
			WriteTimeout:          v.GetDuration("swell.write_timeout"),
			KeepAlive:             v.GetDuration("swell.keep_alive"),
			MaxResponseBytes:      v.GetInt("swell.max_response_bytes"),
			CAFile:                v.GetString("swell.ca_file"),
			InsecureSkipVerify:    v.GetBool("swell.insecure_skip_verify"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			ProductTTL: v.GetDuration("cache.product_ttl"),
		},
		Stripe: StripeConfig{
			SecretKey:       v.GetString("stripe.secret_key"),
			DefaultCurrency: v.GetString("stripe.default_currency"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
		},
	}

	if !v.IsSet("telemetry.sampling_ratio") {
		cfg.Telemetry.SamplingRatio = 1.0
	}

	// max_retries = 0 is meaningful, so only an unset key gets the default
	if !v.IsSet("swell.max_retries") {
		cfg.Swell.MaxRetries = 1
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "paybridge"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// bulk listings fan out over many remote round trips
		cfg.HTTP.WriteTimeout = 2 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Swell.Host == "" {
		cfg.Swell.Host = "api.swell.store"
	}
	if cfg.Swell.Port == 0 {
		cfg.Swell.Port = 8443
	}
	if cfg.Swell.MaxFetchPageSize == 0 {
		cfg.Swell.MaxFetchPageSize = 1000
	}
	if cfg.Swell.DefaultPageSize == 0 {
		cfg.Swell.DefaultPageSize = 25
	}
	if cfg.Swell.MaxWorkers == 0 {
		cfg.Swell.MaxWorkers = 16
	}
	if cfg.Swell.DialTimeout == 0 {
		cfg.Swell.DialTimeout = 10 * time.Second
	}
	if cfg.Swell.ReadTimeout == 0 {
		cfg.Swell.ReadTimeout = 30 * time.Second
	}
	if cfg.Swell.WriteTimeout == 0 {
		cfg.Swell.WriteTimeout = 10 * time.Second
	}
	if cfg.Swell.KeepAlive == 0 {
		cfg.Swell.KeepAlive = 30 * time.Second
	}
	if cfg.Swell.MaxResponseBytes == 0 {
		cfg.Swell.MaxResponseBytes = 32 << 20 // 32MB
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Cache.ProductTTL == 0 {
		cfg.Cache.ProductTTL = 5 * time.Minute
	}
	if cfg.Stripe.DefaultCurrency == "" {
		cfg.Stripe.DefaultCurrency = "aud"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Swell.Port <= 0 || c.Swell.Port > 65535 {
		return fmt.Errorf("swell.port must be between 1 and 65535, got %d", c.Swell.Port)
	}
	if c.Swell.MaxFetchPageSize < 0 {
		return fmt.Errorf("swell.max_fetch_page_size must be positive")
	}
	if c.Swell.DefaultPageSize < 0 || c.Swell.DefaultPageSize > c.Swell.MaxFetchPageSize {
		return fmt.Errorf("swell.default_page_size (%d) must be between 1 and swell.max_fetch_page_size (%d)",
			c.Swell.DefaultPageSize, c.Swell.MaxFetchPageSize)
	}
	if c.Swell.MaxWorkers < 0 {
		return fmt.Errorf("swell.max_workers cannot be negative")
	}
	if c.Swell.MaxRetries < 0 {
		return fmt.Errorf("swell.max_retries cannot be negative")
	}
	if c.Swell.PageRequestsPerSecond < 0 {
		return fmt.Errorf("swell.page_requests_per_second cannot be negative")
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Swell.StoreID == "" {
			return fmt.Errorf("swell.store_id is required in production")
		}
		if c.Swell.SecretKey == "" {
			return fmt.Errorf("swell.secret_key is required in production")
		}
		if c.Swell.InsecureSkipVerify {
			return fmt.Errorf("swell.insecure_skip_verify must be false in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// Addr returns host:port of the Redis server
func (r *RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}
