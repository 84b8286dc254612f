// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Keycloak   KeycloakConfig
	Redis      RedisConfig
	MQTT       MQTTConfig
	Monitoring MonitoringConfig
	Status     StatusConfig
	RateLimit  RateLimitConfig
	Retention  RetentionConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
	AppDB       PostgresConfig `mapstructure:"postgres_app"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MQTTConfig configures the optional broker-based ingestion path.
// Disabled by default; devices normally submit over plain HTTP.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
	QoS      int    `mapstructure:"qos"`
}

type MonitoringConfig struct {
	LogLevel           string `mapstructure:"log_level"`
	PrometheusEndpoint string `mapstructure:"prometheus_endpoint"`
	LokiEndpoint       string `mapstructure:"loki_endpoint"`
}

// StatusConfig holds the recency thresholds used to derive a facility's
// connection status from its latest reading. Below OnlineWithin the facility
// is online, between the two it is warning, above WarningWithin it is offline.
type StatusConfig struct {
	OnlineWithin  time.Duration `mapstructure:"online_within"`
	WarningWithin time.Duration `mapstructure:"warning_within"`
}

// RateLimitConfig bounds requests on the authenticated API surface.
// Monitoring endpoints are exempt so field devices are never throttled.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type RetentionConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Horizon  time.Duration `mapstructure:"horizon"`
	Interval time.Duration `mapstructure:"interval"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("FACHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database defaults
	viper.SetDefault("database.timescaledb.sslmode", "disable")
	viper.SetDefault("database.postgres_app.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.db", 0)

	// MQTT defaults
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.topic", "facilities/+/readings")
	viper.SetDefault("mqtt.client_id", "facilityhub-ingest")
	viper.SetDefault("mqtt.qos", 1)

	// Monitoring defaults
	viper.SetDefault("monitoring.log_level", "info")
	viper.SetDefault("monitoring.prometheus_endpoint", "http://localhost:9090")
	viper.SetDefault("monitoring.loki_endpoint", "http://localhost:3100")

	// Status thresholds
	viper.SetDefault("status.online_within", "1m")
	viper.SetDefault("status.warning_within", "5m")

	// Rate limiting
	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.requests", 100)
	viper.SetDefault("ratelimit.window", "15m")

	// Retention
	viper.SetDefault("retention.enabled", true)
	viper.SetDefault("retention.horizon", "2160h") // 90 days
	viper.SetDefault("retention.interval", "1h")
}

func validateConfig(config *Config) error {
	if config.Database.TimescaleDB.Host == "" {
		return fmt.Errorf("timescaledb host is required")
	}
	if config.Database.AppDB.Host == "" {
		return fmt.Errorf("postgres app host is required")
	}
	if config.Keycloak.URL == "" {
		return fmt.Errorf("keycloak URL is required")
	}
	if config.Status.OnlineWithin <= 0 || config.Status.WarningWithin <= 0 {
		return fmt.Errorf("status thresholds must be positive")
	}
	if config.Status.WarningWithin <= config.Status.OnlineWithin {
		return fmt.Errorf("status warning_within must be greater than online_within")
	}
	if config.MQTT.Enabled && config.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker is required when mqtt is enabled")
	}
	return nil
}
