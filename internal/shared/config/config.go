package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/omnimedia/server/internal/adapter/outbound/localfs"
	"github.com/omnimedia/server/internal/adapter/outbound/mediaprovider"
	"github.com/omnimedia/server/internal/adapter/outbound/s3"
	"github.com/omnimedia/server/internal/infra/httpclient"
	"github.com/omnimedia/server/internal/module/auth"
	"github.com/omnimedia/server/internal/module/generation"
	"github.com/omnimedia/server/internal/module/job"
	"github.com/omnimedia/server/internal/module/media"
)

// EnvPrefix prefixes every environment override, e.g. OMNI_MEDIA_SERVER_ADDRESS.
const EnvPrefix = "OMNI_MEDIA"

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig                 `mapstructure:"server"`
	Log          LogConfig                    `mapstructure:"log"`
	Redis        RedisConfig                  `mapstructure:"redis"`
	Auth         AuthConfig                   `mapstructure:"auth"`
	RateLimit    RateLimitConfig              `mapstructure:"ratelimit"`
	Worker       job.Config                   `mapstructure:"worker"`
	Backend      mediaprovider.BackendConfig  `mapstructure:"backend"`
	HTTPClient   httpclient.Config            `mapstructure:"http_client"`
	Provider     mediaprovider.ProviderConfig `mapstructure:"provider"`
	Fallback     generation.FallbackConfig    `mapstructure:"fallback"`
	Orchestrator media.Config                 `mapstructure:"orchestrator"`
	Profiles     []media.Profile              `mapstructure:"profiles"`
	Storage      StorageConfig                `mapstructure:"storage"`
	Hooks        media.HooksConfig            `mapstructure:"hooks"`
	Audit        AuditConfig                  `mapstructure:"audit"`
	Metrics      MetricsConfig                `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	EnableSwagger   bool          `mapstructure:"enable_swagger"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds admission configuration.
type AuthConfig struct {
	Keys             []string `mapstructure:"keys"`
	RequireKeys      bool     `mapstructure:"require_keys"`
	AdminIPAllowlist []string `mapstructure:"admin_ip_allowlist"`
}

// RateLimitConfig selects the limiter and its bucket limits.
type RateLimitConfig struct {
	Backend string                      `mapstructure:"backend"` // memory or redis
	Buckets map[string]auth.BucketLimit `mapstructure:"buckets"`
}

// StorageConfig selects where generated media is written.
type StorageConfig struct {
	Backend      string         `mapstructure:"backend"` // local or s3
	SignedURLTTL time.Duration  `mapstructure:"signed_url_ttl"`
	Local        localfs.Config `mapstructure:"local"`
	S3           s3.Config      `mapstructure:"s3"`
}

// AuditConfig controls the JSONL audit log.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads .env, then config.yaml from the usual paths, then environment
// variables.
func Load() (*Config, error) {
	return load("")
}

// LoadFile is Load with an explicit config file.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/omnimedia")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("ratelimit.backend must be memory or redis, got %q", c.RateLimit.Backend)
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend must be local or s3, got %q", c.Storage.Backend)
	}
	if c.Worker.Concurrency < 1 {
		return errors.New("worker.concurrency must be at least 1")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 300*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.enable_swagger", true)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Redis defaults
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.keys", []string{})
	v.SetDefault("auth.require_keys", false)
	v.SetDefault("auth.admin_ip_allowlist", []string{})

	// Rate limit defaults
	v.SetDefault("ratelimit.backend", "memory")
	for name, l := range auth.DefaultBucketLimits() {
		v.SetDefault("ratelimit.buckets."+name+".limit", l.Limit)
		v.SetDefault("ratelimit.buckets."+name+".window", l.Window)
	}

	// Worker defaults
	wc := job.DefaultConfig()
	v.SetDefault("worker.poll_interval", wc.PollInterval)
	v.SetDefault("worker.stop_timeout", wc.StopTimeout)
	v.SetDefault("worker.concurrency", wc.Concurrency)

	// Backend defaults
	v.SetDefault("backend.name", "http")
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.breaker_failures", 5)
	v.SetDefault("backend.breaker_timeout", 30*time.Second)
	v.SetDefault("backend.breaker_interval", 60*time.Second)

	hc := httpclient.DefaultConfig()
	v.SetDefault("http_client.max_idle_conns", hc.MaxIdleConns)
	v.SetDefault("http_client.max_idle_conns_per_host", hc.MaxIdleConnsPerHost)
	v.SetDefault("http_client.max_conns_per_host", hc.MaxConnsPerHost)
	v.SetDefault("http_client.idle_conn_timeout", hc.IdleConnTimeout)
	v.SetDefault("http_client.dial_timeout", hc.DialTimeout)
	v.SetDefault("http_client.tls_handshake_timeout", hc.TLSHandshakeTimeout)
	v.SetDefault("http_client.response_timeout", hc.ResponseTimeout)
	v.SetDefault("http_client.keep_alive", hc.KeepAlive)

	// External provider defaults
	v.SetDefault("provider.video_url", "")
	v.SetDefault("provider.health_url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.api_key_header", "x-api-key")
	v.SetDefault("provider.timeout", 90*time.Second)

	// Fallback defaults
	v.SetDefault("fallback.allow_placeholder", false)
	v.SetDefault("fallback.default_url", generation.DefaultFallbackURL)

	// Orchestrator defaults
	v.SetDefault("orchestrator.min_grounding_score", media.DefaultMinGroundingScore)
	v.SetDefault("orchestrator.blocked_terms", media.DefaultBlockedTerms)

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.signed_url_ttl", generation.DefaultSignedURLTTL)
	v.SetDefault("storage.local.root", "./data")
	v.SetDefault("storage.local.public_base_url", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "auto")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.key_prefix", "omni-media")

	// Hooks defaults
	hk := media.DefaultHooksConfig()
	v.SetDefault("hooks.max_output_bytes", hk.MaxOutputBytes)
	v.SetDefault("hooks.strict_max_video_bytes", hk.StrictMaxVideoBytes)
	v.SetDefault("hooks.watermark_mode", hk.WatermarkMode)

	// Audit defaults
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.path", "./data/audit/audit.jsonl")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
