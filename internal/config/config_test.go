package config

import (
	"log/slog"
	"testing"
	"time"
)

// clearEnv resets every variable LoadFromEnv reads so tests start from defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
		"DB_DRIVER", "DB_DSN", "SQLITE_PATH", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
		"DB_CONN_MAX_LIFETIME", "DB_LOG_SQL",
		"USGS_BASE_URL", "USGS_TIMEOUT", "USGS_CACHE_TTL",
		"DEFAULT_USER_ID", "JWT_SECRET", "STATUS_POLICY_FILE",
		"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_TOPIC_PREFIX",
		"METRICS_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.Driver != "sqlite3" {
		t.Errorf("Driver = %q, want %q", got.Driver, "sqlite3")
	}
	if got.MaxOpenConns != 1 || got.MaxIdleConns != 1 {
		t.Errorf("pool = %d/%d, want 1/1", got.MaxOpenConns, got.MaxIdleConns)
	}
	if got.USGSBaseURL != "https://waterservices.usgs.gov/nwis" {
		t.Errorf("USGSBaseURL = %q", got.USGSBaseURL)
	}
	if got.USGSTimeout != 30*time.Second {
		t.Errorf("USGSTimeout = %v, want 30s", got.USGSTimeout)
	}
	if got.USGSCacheTTL != 0 {
		t.Errorf("USGSCacheTTL = %v, want 0", got.USGSCacheTTL)
	}
	if got.DefaultUserID != "user123" {
		t.Errorf("DefaultUserID = %q, want %q", got.DefaultUserID, "user123")
	}
	if got.MQTTBroker != "" {
		t.Errorf("MQTTBroker = %q, want empty", got.MQTTBroker)
	}
	if got.MQTTPort != 1883 {
		t.Errorf("MQTTPort = %d, want 1883", got.MQTTPort)
	}
	if got.MQTTTopicPrefix != "rivergauge" {
		t.Errorf("MQTTTopicPrefix = %q, want %q", got.MQTTTopicPrefix, "rivergauge")
	}
	if !got.MetricsEnabled {
		t.Errorf("MetricsEnabled = false, want true")
	}
	if got.LogSQL {
		t.Errorf("LogSQL = true, want false")
	}
}

func TestLoadFromEnv_AppEnv_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
	}{
		{name: "staging", appEnv: "staging"},
		{name: "uppercase", appEnv: "DEV"},
		{name: "random", appEnv: "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_HTTPAddr(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "default when empty", in: "", want: ":8080"},
		{name: "trims whitespace", in: "  :9090  ", want: ":9090"},
		{name: "host:port", in: "127.0.0.1:8081", want: "127.0.0.1:8081"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("HTTP_ADDR", tt.in)

			got, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.HTTPAddr != tt.want {
				t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_Driver(t *testing.T) {
	t.Run("pgx requires DSN", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "pgx")

		if _, err := LoadFromEnv(); err == nil {
			t.Fatal("LoadFromEnv() error = nil, want non-nil")
		}
	})

	t.Run("pgx with DSN", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "pgx")
		t.Setenv("DB_DSN", "postgres://u:p@localhost:5432/app")

		got, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() error = %v, want nil", err)
		}
		if got.Driver != "pgx" || got.DSN != "postgres://u:p@localhost:5432/app" {
			t.Errorf("Driver/DSN = %q/%q", got.Driver, got.DSN)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "mysql")

		if _, err := LoadFromEnv(); err == nil {
			t.Fatal("LoadFromEnv() error = nil, want non-nil")
		}
	})
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "max open conns", key: "DB_MAX_OPEN_CONNS", value: "many"},
		{name: "max idle conns", key: "DB_MAX_IDLE_CONNS", value: "1.5"},
		{name: "conn lifetime", key: "DB_CONN_MAX_LIFETIME", value: "forever"},
		{name: "log sql", key: "DB_LOG_SQL", value: "sometimes"},
		{name: "usgs timeout", key: "USGS_TIMEOUT", value: "10"},
		{name: "negative cache ttl", key: "USGS_CACHE_TTL", value: "-1m"},
		{name: "mqtt port", key: "MQTT_PORT", value: "abc"},
		{name: "metrics enabled", key: "METRICS_ENABLED", value: "yes please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() with %s=%q error = nil, want non-nil", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("USGS_BASE_URL", "http://localhost:9999/nwis/")
	t.Setenv("USGS_CACHE_TTL", "2m")
	t.Setenv("DEFAULT_USER_ID", " alice ")
	t.Setenv("MQTT_BROKER", "broker.local")
	t.Setenv("MQTT_TOPIC_PREFIX", "/watch/")
	t.Setenv("DB_LOG_SQL", "true")
	t.Setenv("METRICS_ENABLED", "false")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.USGSBaseURL != "http://localhost:9999/nwis" {
		t.Errorf("USGSBaseURL = %q, want trailing slash trimmed", got.USGSBaseURL)
	}
	if got.USGSCacheTTL != 2*time.Minute {
		t.Errorf("USGSCacheTTL = %v, want 2m", got.USGSCacheTTL)
	}
	if got.DefaultUserID != "alice" {
		t.Errorf("DefaultUserID = %q, want %q", got.DefaultUserID, "alice")
	}
	if got.MQTTBroker != "broker.local" {
		t.Errorf("MQTTBroker = %q", got.MQTTBroker)
	}
	if got.MQTTTopicPrefix != "watch" {
		t.Errorf("MQTTTopicPrefix = %q, want %q", got.MQTTTopicPrefix, "watch")
	}
	if !got.LogSQL {
		t.Error("LogSQL = false, want true")
	}
	if got.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false")
	}
}

func TestParseLogLevel_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want slog.Level
	}{
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "info", in: "info", want: slog.LevelInfo},
		{name: "warn", in: "warn", want: slog.LevelWarn},
		{name: "warning", in: "warning", want: slog.LevelWarn},
		{name: "error", in: "error", want: slog.LevelError},
		{name: "case insensitive", in: "DeBuG", want: slog.LevelDebug},
		{name: "trims whitespace", in: "  warn \n", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if err != nil {
				t.Fatalf("parseLogLevel(%q) error = %v, want nil", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel_Invalid(t *testing.T) {
	for _, in := range []string{"", "nope", "warns", "1"} {
		got, err := parseLogLevel(in)
		if err == nil {
			t.Fatalf("parseLogLevel(%q) error = nil, want non-nil", in)
		}
		if got != slog.LevelInfo {
			t.Errorf("parseLogLevel(%q) = %v, want %v on error", in, got, slog.LevelInfo)
		}
	}
}
