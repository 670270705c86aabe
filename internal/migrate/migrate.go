// Package migrate applies versioned schema migrations for the favorites store.
// Migration files live under sql/<dialect>/ and are named with a 4-digit
// prefix for order: 0001_name.sql, 0002_other.sql.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"rivergauge-server/internal/db"
)

//go:embed sql/sqlite/*.sql sql/postgres/*.sql
var sqlFS embed.FS

const tableName = "schema_migrations"

var (
	migrationFileRe = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)
	statementEndRe  = regexp.MustCompile(`;[ \t]*(\r?\n|$)`)
)

type migration struct {
	version string
	name    string
	body    string
}

// Run ensures the schema_migrations table exists, then applies any embedded
// migrations for dialect that have not yet been run, in order by version.
// Each migration runs in its own transaction.
func Run(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	if err := ensureMigrationsTable(ctx, conn, dialect); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}

	pending, err := pendingMigrations(dialect, applied)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if err := apply(ctx, conn, dialect, m); err != nil {
			return fmt.Errorf("apply %s: %w", m.version+"_"+m.name+".sql", err)
		}
		slog.Info("migration applied", "dialect", string(dialect), "version", m.version, "name", m.name)
	}

	return nil
}

func pendingMigrations(dialect db.Dialect, applied map[string]bool) ([]migration, error) {
	dir := "sql/" + string(dialect)
	entries, err := fs.ReadDir(sqlFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}

	var pending []migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		version, name, ok := parseMigrationFilename(e.Name())
		if !ok || applied[version] {
			continue
		}
		body, err := fs.ReadFile(sqlFS, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		pending = append(pending, migration{version: version, name: name, body: string(body)})
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })
	return pending, nil
}

func ensureMigrationsTable(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	var ddl string
	switch dialect {
	case db.SQLite:
		ddl = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			version    TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`
	case db.Postgres:
		ddl = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			version    TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	_, err := conn.ExecContext(ctx, ddl)
	return err
}

func appliedVersions(ctx context.Context, conn *sql.DB) (map[string]bool, error) {
	rows, err := conn.QueryContext(ctx, "SELECT version FROM "+tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}

func parseMigrationFilename(filename string) (version, name string, ok bool) {
	m := migrationFileRe.FindStringSubmatch(filename)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// splitStatements breaks a migration body into single statements. Drivers
// with prepared statements (pgx, the logging connector) run one at a time.
func splitStatements(body string) []string {
	var out []string
	for _, part := range statementEndRe.Split(body, -1) {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func apply(ctx context.Context, conn *sql.DB, dialect db.Dialect, m migration) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range splitStatements(m.body) {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	insert := "INSERT INTO " + tableName + " (version, name) VALUES (?, ?)"
	if dialect == db.Postgres {
		insert = "INSERT INTO " + tableName + " (version, name) VALUES ($1, $2)"
	}
	if _, err = tx.ExecContext(ctx, insert, m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}
