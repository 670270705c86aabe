package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// captureHandler records log records for assertion in tests.
type captureHandler struct {
	mu    sync.Mutex
	attrs []map[string]slog.Value
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := make(map[string]slog.Value)
	m["msg"] = slog.StringValue(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.attrs = append(h.attrs, m)
	return nil
}

func (h *captureHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(_ string) slog.Handler { return h }

func (h *captureHandler) recordsFor(t *testing.T, msg string) []map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]slog.Value
	for _, m := range h.attrs {
		if m["msg"].String() == msg {
			out = append(out, m)
		}
	}
	return out
}

func (h *captureHandler) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attrs = nil
}

func openLogged(t *testing.T, handler *captureHandler) *sql.DB {
	t.Helper()
	connector, err := NewLoggingConnector(&sqlite3.SQLiteDriver{}, ":memory:", slog.New(handler))
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewLoggingConnector_nilDriver(t *testing.T) {
	if _, err := NewLoggingConnector(nil, ":memory:", nil); err == nil {
		t.Fatal("NewLoggingConnector(nil driver) error = nil, want non-nil")
	}
}

func TestNewLoggingConnector_nilLoggerUsesDefault(t *testing.T) {
	conn, err := NewLoggingConnector(&sqlite3.SQLiteDriver{}, ":memory:", nil)
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	lc := conn.(*loggingConnector)
	if lc.logger == nil {
		t.Fatal("logger is nil")
	}
	if _, ok := lc.Driver().(*sqlite3.SQLiteDriver); !ok {
		t.Fatalf("Driver() = %T, want *sqlite3.SQLiteDriver", lc.Driver())
	}
}

func TestLoggingConnector_ExecAndQueryLogged(t *testing.T) {
	handler := &captureHandler{}
	db := openLogged(t, handler)

	if _, err := db.Exec(`CREATE TABLE favorites (id INTEGER PRIMARY KEY, site_id TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected at least one sql log record for Exec")
	}
	got := recs[len(recs)-1]
	if got["op"].String() != "exec" {
		t.Errorf("op: got %q, want exec", got["op"].String())
	}
	if got["sql"].String() != `CREATE TABLE favorites (id INTEGER PRIMARY KEY, site_id TEXT)` {
		t.Errorf("sql: got %q", got["sql"].String())
	}
	if _, ok := got["duration_ms"]; !ok {
		t.Error("expected duration_ms attribute")
	}

	handler.reset()
	var one int
	if err := db.QueryRow(`SELECT 1`).Scan(&one); err != nil {
		t.Fatalf("query row: %v", err)
	}
	recs = handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log record for QueryRow")
	}
	got = recs[len(recs)-1]
	if got["op"].String() != "query" {
		t.Errorf("op: got %q, want query", got["op"].String())
	}
}

func TestLoggingConnector_ArgsLogged(t *testing.T) {
	handler := &captureHandler{}
	db := openLogged(t, handler)

	if _, err := db.Exec(`CREATE TABLE favorites (user_id TEXT, site_id TEXT, latitude REAL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	handler.reset()

	var lat *float64
	if _, err := db.Exec(`INSERT INTO favorites (user_id, site_id, latitude) VALUES (?, ?, ?)`, "u1", "01646500", lat); err != nil {
		t.Fatalf("insert: %v", err)
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log for Exec with args")
	}
	args, ok := recs[len(recs)-1]["args"].Any().([]string)
	if !ok {
		t.Fatalf("args type = %T, want []string", recs[len(recs)-1]["args"].Any())
	}
	want := []string{"u1", "01646500", "NULL"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestLoggingConnector_ErrorLogged(t *testing.T) {
	handler := &captureHandler{}
	db := openLogged(t, handler)

	if _, err := db.Exec(`CREATE TABLE favorites (site_id TEXT UNIQUE)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO favorites (site_id) VALUES (?)`, "S1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	handler.reset()

	if _, err := db.Exec(`INSERT INTO favorites (site_id) VALUES (?)`, "S1"); err == nil {
		t.Fatal("duplicate insert error = nil, want constraint error")
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log for failed Exec")
	}
	if _, ok := recs[len(recs)-1]["error"]; !ok {
		t.Error("expected error attribute on failed statement")
	}
}

func TestLoggingConnector_TransactionsWork(t *testing.T) {
	handler := &captureHandler{}
	db := openLogged(t, handler)

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.Exec(`INSERT INTO t (id) VALUES (1)`); err != nil {
		t.Fatalf("tx exec: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("count=%d want=0 after rollback", n)
	}
}

func TestLoggingConnector_PingSucceeds(t *testing.T) {
	db := openLogged(t, &captureHandler{})
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
