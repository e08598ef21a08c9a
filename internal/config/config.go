package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration is the full application configuration, loaded once at boot.
type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	CRM        CRMConfig        `mapstructure:"crm"`
	Benefits   BenefitsConfig   `mapstructure:"benefits"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

type DeploymentConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN renders the lib/pq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	ClientID    string   `mapstructure:"client_id"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type CRMConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// BenefitsConfig tunes the benefit rule resolver.
type BenefitsConfig struct {
	// PointsRatio is the number of reward points granted per whole currency
	// unit of package price (price floor x ratio).
	PointsRatio int64 `mapstructure:"points_ratio"`
	// MajorDrawID is the currently running recurring sweepstake credited by
	// subscription payments.
	MajorDrawID string `mapstructure:"major_draw_id"`
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Requests allowed per account per window on account-facing mutations.
	Requests int `mapstructure:"requests"`
	WindowS  int `mapstructure:"window_seconds"`
}

type AuthConfig struct {
	// AdminSecret signs admin JWTs guarding winner selection and exports.
	AdminSecret string `mapstructure:"admin_secret"`
}

// NewConfig loads configuration from config files and environment variables.
// Environment variables use underscores: DRAWCARD_POSTGRES_HOST etc.
func NewConfig() (*Configuration, error) {
	// Best effort; absence of a .env file is normal outside local dev.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("drawcard")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "api")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "drawcard")
	v.SetDefault("postgres.dbname", "drawcard")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open", 20)
	v.SetDefault("postgres.max_idle", 10)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.client_id", "drawcard")
	v.SetDefault("kafka.topic_prefix", "drawcard")
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("benefits.points_ratio", 1)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests", 10)
	v.SetDefault("ratelimit.window_seconds", 60)
}

// Validate checks the loaded configuration for fatal omissions.
func (c *Configuration) Validate() error {
	if c.Benefits.PointsRatio < 0 {
		return fmt.Errorf("benefits.points_ratio must be non-negative")
	}
	if c.RateLimit.Enabled && c.RateLimit.Requests <= 0 {
		return fmt.Errorf("ratelimit.requests must be positive when enabled")
	}
	return nil
}
