package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Version is injected at build time via ldflags.
var Version = "dev"

var (
	ErrOverseerrURLMissing = errors.New("overseerr url is not configured")
	ErrOverseerrKeyMissing = errors.New("overseerr api key is not configured")
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Overseerr OverseerrConfig `mapstructure:"overseerr"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Requests  RequestsConfig  `mapstructure:"requests"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	API       APIConfig       `mapstructure:"api"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// OverseerrConfig holds the downstream media-request service connection.
type OverseerrConfig struct {
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// CacheConfig holds lookup cache configuration.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxSize     int           `mapstructure:"max_size"`
	SearchTTL   time.Duration `mapstructure:"search_ttl"`
	MediaTTL    time.Duration `mapstructure:"media_ttl"`
	RequestsTTL time.Duration `mapstructure:"requests_ttl"`
}

// RetryConfig holds the per-item retry policy of the batch executor.
type RetryConfig struct {
	MaxAttempts int   `mapstructure:"max_attempts"`
	BackoffMs   []int `mapstructure:"backoff_ms"`
}

// RequestsConfig holds request-creation defaults.
type RequestsConfig struct {
	ConfirmEpisodeThreshold int    `mapstructure:"confirm_episode_threshold"`
	DefaultLanguage         string `mapstructure:"default_language"`
}

// SchedulerConfig holds cron expressions for background tasks.
// An empty expression disables the task.
type SchedulerConfig struct {
	CachePruneCron  string `mapstructure:"cache_prune_cron"`
	CacheStatsCron  string `mapstructure:"cache_stats_cron"`
	HealthCheckCron string `mapstructure:"health_check_cron"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// APIConfig holds HTTP API access configuration.
type APIConfig struct {
	Key string `mapstructure:"key"` // empty disables the X-Api-Key guard
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8085,
		},
		Overseerr: OverseerrConfig{
			Timeout: 30,
		},
		Cache: CacheConfig{
			Enabled:     true,
			MaxSize:     1000,
			SearchTTL:   5 * time.Minute,
			MediaTTL:    30 * time.Minute,
			RequestsTTL: time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BackoffMs:   []int{100, 500, 1000},
		},
		Requests: RequestsConfig{
			ConfirmEpisodeThreshold: 24,
			DefaultLanguage:         "en",
		},
		Scheduler: SchedulerConfig{
			CachePruneCron:  "*/5 * * * *",
			CacheStatsCron:  "0 * * * *",
			HealthCheckCron: "*/15 * * * *",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.seerrcheck")
	}

	v.SetEnvPrefix("SEERRCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Overseerr.URL = strings.TrimRight(cfg.Overseerr.URL, "/")

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("overseerr.url", "")
	v.SetDefault("overseerr.api_key", "")
	v.SetDefault("overseerr.timeout", d.Overseerr.Timeout)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.max_size", d.Cache.MaxSize)
	v.SetDefault("cache.search_ttl", d.Cache.SearchTTL)
	v.SetDefault("cache.media_ttl", d.Cache.MediaTTL)
	v.SetDefault("cache.requests_ttl", d.Cache.RequestsTTL)

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.backoff_ms", d.Retry.BackoffMs)

	v.SetDefault("requests.confirm_episode_threshold", d.Requests.ConfirmEpisodeThreshold)
	v.SetDefault("requests.default_language", d.Requests.DefaultLanguage)

	v.SetDefault("scheduler.cache_prune_cron", d.Scheduler.CachePruneCron)
	v.SetDefault("scheduler.cache_stats_cron", d.Scheduler.CacheStatsCron)
	v.SetDefault("scheduler.health_check_cron", d.Scheduler.HealthCheckCron)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("api.key", "")
}

// bindLegacyEnv maps the unprefixed variable names used by existing
// deployments onto config keys.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"overseerr.url":     {"SEERRCHECK_OVERSEERR_URL", "OVERSEERR_URL"},
		"overseerr.api_key": {"SEERRCHECK_OVERSEERR_API_KEY", "OVERSEERR_API_KEY"},
		"cache.enabled":     {"SEERRCHECK_CACHE_ENABLED", "CACHE_ENABLED"},
		"cache.max_size":    {"SEERRCHECK_CACHE_MAX_SIZE", "CACHE_MAX_SIZE"},
		"server.port":       {"SEERRCHECK_SERVER_PORT", "PORT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	// TTLs were historically given in milliseconds.
	for key, env := range map[string]string{
		"cache.search_ttl":   "CACHE_SEARCH_TTL",
		"cache.media_ttl":    "CACHE_MEDIA_TTL",
		"cache.requests_ttl": "CACHE_REQUESTS_TTL",
	} {
		if err := v.BindEnv(key, "SEERRCHECK_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
		if raw := v.GetString(key); raw != "" && isDigits(raw) {
			v.Set(key, raw+"ms")
		}
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Validate checks the settings needed to talk to the downstream service.
func (c *Config) Validate() error {
	if c.Overseerr.URL == "" {
		return ErrOverseerrURLMissing
	}
	if c.Overseerr.APIKey == "" {
		return ErrOverseerrKeyMissing
	}
	return nil
}

// Backoff returns the retry delays as durations.
func (c *RetryConfig) Backoff() []time.Duration {
	out := make([]time.Duration, 0, len(c.BackoffMs))
	for _, ms := range c.BackoffMs {
		out = append(out, time.Duration(ms)*time.Millisecond)
	}
	return out
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
