package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	sqlite3 "github.com/mattn/go-sqlite3"

	"rivergauge-server/internal/config"
)

// Dialect selects the SQL flavour used by migrations and repositories.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DialectFor maps a database/sql driver name to its SQL dialect.
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "sqlite3":
		return SQLite, nil
	case "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported db driver %q", driverName)
	}
}

func Open(cfg config.Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL {
		drv, err := baseDriver(cfg.Driver)
		if err != nil {
			return nil, err
		}
		connector, err := NewLoggingConnector(drv, dsn, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func baseDriver(name string) (driver.Driver, error) {
	switch name {
	case "sqlite3":
		return &sqlite3.SQLiteDriver{}, nil
	case "pgx":
		return stdlib.GetDefaultDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", name)
	}
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Driver != "sqlite3" {
		return "", fmt.Errorf("db driver %q requires DB_DSN", cfg.Driver)
	}

	path := cfg.SQLitePath
	if path == ":memory:" {
		return "file::memory:?cache=shared&_foreign_keys=on", nil
	}
	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// WAL + busy_timeout keep concurrent favorite writes from failing with "database is locked".
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
