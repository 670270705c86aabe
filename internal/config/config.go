package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// Driver is the database/sql driver name: "sqlite3" or "pgx".
	Driver          string
	DSN             string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	USGSBaseURL  string
	USGSTimeout  time.Duration
	USGSCacheTTL time.Duration

	// DefaultUserID is the principal used when no token identifies the caller.
	DefaultUserID string
	JWTSecret     string

	// StatusPolicyFile optionally overrides the temperature thresholds (YAML).
	StatusPolicyFile string

	// MQTTBroker empty disables favorite event publishing.
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTTopicPrefix string

	MetricsEnabled bool
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	driver := envDefault("DB_DRIVER", "sqlite3")
	switch driver {
	case "sqlite3", "pgx":
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, pgx)", driver)
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if driver == "pgx" && dsn == "" {
		return Config{}, fmt.Errorf("DB_DSN is required when DB_DRIVER=pgx")
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}
	logSQL, err := envBool("DB_LOG_SQL", "false")
	if err != nil {
		return Config{}, err
	}

	usgsTimeout, err := envDuration("USGS_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	usgsCacheTTL, err := envDuration("USGS_CACHE_TTL", "0s")
	if err != nil {
		return Config{}, err
	}

	mqttPort, err := envInt("MQTT_PORT", "1883")
	if err != nil {
		return Config{}, err
	}

	metricsEnabled, err := envBool("METRICS_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:           appEnv,
		LogLevel:         level,
		HTTPAddr:         envDefault("HTTP_ADDR", ":8080"),
		Driver:           driver,
		DSN:              dsn,
		SQLitePath:       envDefault("SQLITE_PATH", "../dev/sqlite/app.db"),
		MaxOpenConns:     maxOpenConns,
		MaxIdleConns:     maxIdleConns,
		ConnMaxLifetime:  connMaxLifetime,
		LogSQL:           logSQL,
		USGSBaseURL:      strings.TrimRight(envDefault("USGS_BASE_URL", "https://waterservices.usgs.gov/nwis"), "/"),
		USGSTimeout:      usgsTimeout,
		USGSCacheTTL:     usgsCacheTTL,
		DefaultUserID:    envDefault("DEFAULT_USER_ID", "user123"),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		StatusPolicyFile: strings.TrimSpace(os.Getenv("STATUS_POLICY_FILE")),
		MQTTBroker:       strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		MQTTPort:         mqttPort,
		MQTTClientID:     envDefault("MQTT_CLIENT_ID", "rivergauge-server"),
		MQTTTopicPrefix:  strings.Trim(envDefault("MQTT_TOPIC_PREFIX", "rivergauge"), "/"),
		MetricsEnabled:   metricsEnabled,
	}, nil
}

func envDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key, def string) (int, error) {
	s := envDefault(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envDuration(key, def string) (time.Duration, error) {
	s := envDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, s)
	}
	return d, nil
}

func envBool(key, def string) (bool, error) {
	s := envDefault(key, def)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
