package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Proximity ProximityConfig `mapstructure:"proximity"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	SeedPath    string `mapstructure:"seed_path"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type RoutingConfig struct {
	Provider  string        `mapstructure:"provider"`
	BaseURL   string        `mapstructure:"base_url"`
	Profile   string        `mapstructure:"profile"`
	APIKey    string        `mapstructure:"api_key"`
	RateLimit int           `mapstructure:"rate_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ProximityConfig struct {
	ArrivalThresholdMeters float64 `mapstructure:"arrival_threshold_meters"`
}

type SpeechConfig struct {
	APIKey  string `mapstructure:"api_key"`
	VoiceID string `mapstructure:"voice_id"`
	ModelID string `mapstructure:"model_id"`
}

// RetentionConfig bounds how long idle in-memory sessions and visits are kept.
type RetentionConfig struct {
	SessionIdle  time.Duration `mapstructure:"session_idle"`
	VisitIdle    time.Duration `mapstructure:"visit_idle"`
	ReapInterval time.Duration `mapstructure:"reap_interval"`
}

// Load reads configuration from defaults, an optional config file and TOUR_* environment variables.
func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("env", "local")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("database.url", "")
	v.SetDefault("database.seed_path", "data/seeds/tours.json")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "24h")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "tours")
	v.SetDefault("routing.provider", "osrm")
	v.SetDefault("routing.base_url", "")
	v.SetDefault("routing.profile", "foot")
	v.SetDefault("routing.api_key", "")
	v.SetDefault("routing.rate_limit", 1)
	v.SetDefault("routing.timeout", "15s")
	v.SetDefault("proximity.arrival_threshold_meters", 5.0)
	v.SetDefault("speech.api_key", "")
	v.SetDefault("speech.voice_id", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("speech.model_id", "eleven_multilingual_v2")
	v.SetDefault("retention.session_idle", "2h")
	v.SetDefault("retention.visit_idle", "4h")
	v.SetDefault("retention.reap_interval", "5m")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// TOUR_ROUTING_PROVIDER -> routing.provider
	v.SetEnvPrefix("TOUR")
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

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Routing.Provider {
	case "osrm", "straight":
	case "google", "ors":
		if c.Routing.APIKey == "" {
			errs = append(errs, fmt.Sprintf("routing.api_key is required for the %s provider", c.Routing.Provider))
		}
	default:
		errs = append(errs, fmt.Sprintf("routing.provider must be one of osrm, ors, google, straight; got %q", c.Routing.Provider))
	}
	if c.Routing.RateLimit < 0 {
		errs = append(errs, "routing.rate_limit must not be negative")
	}
	if c.Routing.Timeout <= 0 {
		errs = append(errs, "routing.timeout must be positive")
	}

	if c.Proximity.ArrivalThresholdMeters <= 0 {
		errs = append(errs, "proximity.arrival_threshold_meters must be positive")
	}
	if c.Retention.SessionIdle <= 0 || c.Retention.VisitIdle <= 0 || c.Retention.ReapInterval <= 0 {
		errs = append(errs, "retention.session_idle, visit_idle and reap_interval must be positive")
	}
	if c.Redis.DB < 0 {
		errs = append(errs, "redis.db must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
