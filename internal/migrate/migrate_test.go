package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"rivergauge-server/internal/db"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migrate.db")
	conn, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRun_sqliteCreatesSchema(t *testing.T) {
	conn := openSQLite(t)
	ctx := context.Background()

	if err := Run(ctx, conn, db.SQLite); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM favorites`).Scan(&n); err != nil {
		t.Fatalf("favorites table missing: %v", err)
	}
	if err := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = '0001'`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("schema_migrations rows=%d want=1", n)
	}
}

func TestRun_idempotent(t *testing.T) {
	conn := openSQLite(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := Run(ctx, conn, db.SQLite); err != nil {
			t.Fatalf("Run #%d: %v", i+1, err)
		}
	}
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("schema_migrations rows=%d want=1", n)
	}
}

func TestRun_uniqueUserSite(t *testing.T) {
	conn := openSQLite(t)
	if err := Run(context.Background(), conn, db.SQLite); err != nil {
		t.Fatalf("Run: %v", err)
	}

	insert := `INSERT INTO favorites (user_id, site_id, site_name) VALUES (?, ?, ?)`
	if _, err := conn.Exec(insert, "user123", "01646500", "Potomac"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := conn.Exec(insert, "user123", "01646500", "Potomac"); err == nil {
		t.Fatal("duplicate (user_id, site_id) accepted, want constraint error")
	}
	if _, err := conn.Exec(insert, "other", "01646500", "Potomac"); err != nil {
		t.Fatalf("same site for another user: %v", err)
	}
}

func TestRun_unknownDialect(t *testing.T) {
	conn := openSQLite(t)
	if err := Run(context.Background(), conn, db.Dialect("oracle")); err == nil {
		t.Fatal("Run(oracle) error = nil, want non-nil")
	}
}

func TestSplitStatements(t *testing.T) {
	body := "CREATE TABLE a (x TEXT DEFAULT 'a;b');\n\nCREATE INDEX i ON a (x);\n  \n"
	got := splitStatements(body)
	if len(got) != 2 {
		t.Fatalf("statements=%d want=2 (%q)", len(got), got)
	}
	if got[0] != "CREATE TABLE a (x TEXT DEFAULT 'a;b')" {
		t.Errorf("got[0]=%q", got[0])
	}
	if got[1] != "CREATE INDEX i ON a (x)" {
		t.Errorf("got[1]=%q", got[1])
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in      string
		version string
		name    string
		ok      bool
	}{
		{"0001_favorites.sql", "0001", "favorites", true},
		{"0012_add_index.sql", "0012", "add_index", true},
		{"1_bad.sql", "", "", false},
		{"0001_favorites.txt", "", "", false},
	}
	for _, tt := range tests {
		v, n, ok := parseMigrationFilename(tt.in)
		if v != tt.version || n != tt.name || ok != tt.ok {
			t.Errorf("parse(%q)=(%q,%q,%v) want=(%q,%q,%v)", tt.in, v, n, ok, tt.version, tt.name, tt.ok)
		}
	}
}

func TestPendingMigrations_postgresEmbedded(t *testing.T) {
	got, err := pendingMigrations(db.Postgres, map[string]bool{})
	if err != nil {
		t.Fatalf("pendingMigrations: %v", err)
	}
	if len(got) == 0 || got[0].version != "0001" {
		t.Fatalf("postgres migrations=%v, want 0001 first", got)
	}
	skipped, err := pendingMigrations(db.Postgres, map[string]bool{"0001": true})
	if err != nil {
		t.Fatalf("pendingMigrations: %v", err)
	}
	for _, m := range skipped {
		if m.version == "0001" {
			t.Fatal("applied version 0001 returned as pending")
		}
	}
}
