package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the application settings.
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	StorageDriver  string        `mapstructure:"STORAGE_DRIVER"`

	PostgresConn     string `mapstructure:"POSTGRES_CONN"`
	PostgresUser     string `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass     string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresDB       string `mapstructure:"POSTGRES_DATABASE"`
	PostgresMaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MigrationURL     string `mapstructure:"MIGRATION_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTIssuer string        `mapstructure:"JWT_ISSUER"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	AwardTimeout time.Duration `mapstructure:"AWARD_TIMEOUT"`

	LoginLimitPrefix        string `mapstructure:"RATE_LIMIT_LOGIN_PREFIX"`
	LoginLimitWindowSeconds int    `mapstructure:"RATE_LIMIT_LOGIN_WINDOW_SECONDS"`
	LoginLimitMaxAttempts   int    `mapstructure:"RATE_LIMIT_LOGIN_MAX_ATTEMPTS"`
	LoginLimitFailOpen      bool   `mapstructure:"RATE_LIMIT_LOGIN_FAIL_OPEN"`
	AwardLimitPrefix        string `mapstructure:"RATE_LIMIT_AWARD_PREFIX"`
	AwardLimitWindowSeconds int    `mapstructure:"RATE_LIMIT_AWARD_WINDOW_SECONDS"`
	AwardLimitMaxAttempts   int    `mapstructure:"RATE_LIMIT_AWARD_MAX_ATTEMPTS"`
	AwardLimitFailOpen      bool   `mapstructure:"RATE_LIMIT_AWARD_FAIL_OPEN"`
	TrustXForwardedFor      bool   `mapstructure:"TRUST_X_FORWARDED_FOR"`

	BroadcastDriver      string        `mapstructure:"BROADCAST_DRIVER"`
	NatsURL              string        `mapstructure:"NATS_URL"`
	NotifyQueueSize      int           `mapstructure:"NOTIFY_QUEUE_SIZE"`
	NotifyWorkers        int           `mapstructure:"NOTIFY_WORKERS"`
	NotifyPublishRPS     float64       `mapstructure:"NOTIFY_PUBLISH_RPS"`
	NotifyPublishTimeout time.Duration `mapstructure:"NOTIFY_PUBLISH_TIMEOUT"`

	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogFormat      string `mapstructure:"LOG_FORMAT"`
	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`
}

var keys = []string{
	"SERVER_ADDRESS", "REQUEST_TIMEOUT", "STORAGE_DRIVER",
	"POSTGRES_CONN", "POSTGRES_USERNAME", "POSTGRES_PASSWORD", "POSTGRES_HOST",
	"POSTGRES_PORT", "POSTGRES_DATABASE", "POSTGRES_MAX_CONNS", "MIGRATION_URL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"JWT_SECRET", "JWT_ISSUER", "JWT_TTL", "AWARD_TIMEOUT",
	"RATE_LIMIT_LOGIN_PREFIX", "RATE_LIMIT_LOGIN_WINDOW_SECONDS", "RATE_LIMIT_LOGIN_MAX_ATTEMPTS", "RATE_LIMIT_LOGIN_FAIL_OPEN",
	"RATE_LIMIT_AWARD_PREFIX", "RATE_LIMIT_AWARD_WINDOW_SECONDS", "RATE_LIMIT_AWARD_MAX_ATTEMPTS", "RATE_LIMIT_AWARD_FAIL_OPEN",
	"TRUST_X_FORWARDED_FOR",
	"BROADCAST_DRIVER", "NATS_URL", "NOTIFY_QUEUE_SIZE", "NOTIFY_WORKERS", "NOTIFY_PUBLISH_RPS", "NOTIFY_PUBLISH_TIMEOUT",
	"LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("STORAGE_DRIVER", "postgres")
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("MIGRATION_URL", "file://migrations")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ISSUER", "bid-award")
	v.SetDefault("JWT_TTL", 2*time.Hour)
	v.SetDefault("AWARD_TIMEOUT", 3*time.Second)
	v.SetDefault("RATE_LIMIT_LOGIN_PREFIX", "rl:login")
	v.SetDefault("RATE_LIMIT_LOGIN_WINDOW_SECONDS", 900)
	v.SetDefault("RATE_LIMIT_LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("RATE_LIMIT_LOGIN_FAIL_OPEN", false)
	v.SetDefault("RATE_LIMIT_AWARD_PREFIX", "rl:award")
	v.SetDefault("RATE_LIMIT_AWARD_WINDOW_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_AWARD_MAX_ATTEMPTS", 10)
	v.SetDefault("RATE_LIMIT_AWARD_FAIL_OPEN", true)
	v.SetDefault("TRUST_X_FORWARDED_FOR", false)
	v.SetDefault("BROADCAST_DRIVER", "redis")
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("NOTIFY_QUEUE_SIZE", 1024)
	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_PUBLISH_RPS", 200)
	v.SetDefault("NOTIFY_PUBLISH_TIMEOUT", 2*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("METRICS_ENABLED", true)
}

// LoadConfig loads the configuration from app.env in path, with environment overrides.
// A missing app.env is not an error; defaults and the environment are used instead.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)
	for _, k := range keys {
		if err = v.BindEnv(k); err != nil {
			return
		}
	}

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}
	err = v.Unmarshal(&cfg)
	return
}
