package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig   `mapstructure:"server"`
	Log           LogConfig      `mapstructure:"log"`
	Database      DatabaseConfig `mapstructure:"database"`
	Redis         RedisConfig    `mapstructure:"redis"`
	Custody       CustodyConfig  `mapstructure:"custody"`
	Engine        EngineConfig   `mapstructure:"engine"`
	Metrics       MetricsConfig  `mapstructure:"metrics"`
	Audit         AuditConfig    `mapstructure:"audit"`
	Organizations []OrgConfig    `mapstructure:"organizations"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	DSN                string `mapstructure:"dsn"`
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
}

type RedisConfig struct {
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	SnapshotTTLSeconds int    `mapstructure:"snapshot_ttl_seconds"`
	AuditListKey       string `mapstructure:"audit_list_key"`
	AuditListMax       int    `mapstructure:"audit_list_max"`
}

type CustodyConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

// EngineConfig tunes the opportunity model. The defaults reproduce the
// published numbers; overriding them changes every derived APY.
type EngineConfig struct {
	RequiredAmountPct  float64 `mapstructure:"required_amount_pct"`
	MinRequiredAmount  float64 `mapstructure:"min_required_amount"`
	ConcentrationLimit float64 `mapstructure:"concentration_limit"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type AuditConfig struct {
	Dir string `mapstructure:"dir"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type OrgConfig struct {
	ID            string          `mapstructure:"id"`
	Name          string          `mapstructure:"name"`
	AllowedChains []string        `mapstructure:"allowed_chains"`
	Rate          RateLimitConfig `mapstructure:"rate_limit"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. FOLIOGATE_REDIS_ADDR
	viper.SetEnvPrefix("foliogate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("redis.snapshot_ttl_seconds", 30)
	viper.SetDefault("redis.audit_list_key", "audit_logs")
	viper.SetDefault("redis.audit_list_max", 10000)
	viper.SetDefault("database.audit_retention_days", 30)
	viper.SetDefault("custody.timeout_ms", 5000)
	viper.SetDefault("engine.required_amount_pct", 0.10)
	viper.SetDefault("engine.min_required_amount", 50)
	viper.SetDefault("engine.concentration_limit", 0.60)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("audit.dir", "./logs")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
