package config

import (
	"fmt"
	"strings"

	"github.com/dispatch-next/internal/logger"

	"github.com/spf13/viper"
)

// Config application configuration
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Log       LogConfig                 `mapstructure:"log"`
	Database  DatabaseConfig            `mapstructure:"database"`
	JWT       JWTConfig                 `mapstructure:"jwt"`
	Redis     RedisConfig               `mapstructure:"redis"`
	Queue     QueueConfig               `mapstructure:"queue"`
	CORS      CORSConfig                `mapstructure:"cors"`
	Security  SecurityConfig            `mapstructure:"security"`
	POPS      POPSConfig                `mapstructure:"pops"`
	Callbacks map[string]CallbackConfig `mapstructure:"callbacks"`
	Geocode   GeocodeConfig             `mapstructure:"geocode"`
	Tracking  TrackingConfig            `mapstructure:"tracking"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig log output settings
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions converts to logger options
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig connection pool settings
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig database settings
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig bearer token validation settings. Tokens are issued by the
// external auth service; this service only validates them.
type JWTConfig struct {
	SecretKey string `mapstructure:"secret"`
}

// RedisConfig redis settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig asynq queue settings
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
	// SweepIntervalSeconds controls the periodic re-attempt of shipments in
	// pending/needs_sync/failed sync states.
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
	SweepBatchSize       int `mapstructure:"sweep_batch_size"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig security settings
type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig fixed-window request limit settings
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// POPSConfig upstream order system settings
type POPSConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	AccessToken      string `mapstructure:"access_token"` // service-level credential, not per-user
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	LegacyStatusPath string `mapstructure:"legacy_status_path"`
}

// CallbackConfig per-origin-tag outbound callback settings
type CallbackConfig struct {
	URL       string `mapstructure:"url"`
	Active    bool   `mapstructure:"active"`
	AuthToken string `mapstructure:"auth_token"`
}

// GeocodeConfig address lookup settings
type GeocodeConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	MinIntervalMS int    `mapstructure:"min_interval_ms"` // third-party rate limit spacing
}

// TrackingConfig route tracking settings
type TrackingConfig struct {
	LocationCacheTTLSeconds int `mapstructure:"location_cache_ttl_seconds"`
	MaxBatchPoints          int `mapstructure:"max_batch_points"`
}

// Load reads configuration from config.yml with env override
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./")
	viper.AddConfigPath("../")
	viper.AddConfigPath("./etc")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "app.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/dispatch.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "dn")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default": 10,
	})
	viper.SetDefault("queue.sweep_interval_seconds", 300)
	viper.SetDefault("queue.sweep_batch_size", 50)
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.rate_limit.window_seconds", 60)
	viper.SetDefault("security.rate_limit.max_requests", 120)
	viper.SetDefault("security.rate_limit.block_seconds", 300)
	viper.SetDefault("pops.base_url", "")
	viper.SetDefault("pops.access_token", "")
	viper.SetDefault("pops.timeout_seconds", 10)
	viper.SetDefault("pops.legacy_status_path", "/api/orders/%d/status")
	viper.SetDefault("geocode.enabled", false)
	viper.SetDefault("geocode.base_url", "")
	viper.SetDefault("geocode.api_key", "")
	viper.SetDefault("geocode.min_interval_ms", 1100)
	viper.SetDefault("tracking.location_cache_ttl_seconds", 300)
	viper.SetDefault("tracking.max_batch_points", 500)

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config unmarshal failed: %w", err))
	}

	return &cfg
}
