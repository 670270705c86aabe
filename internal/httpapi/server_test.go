package httpapi

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rivergauge-server/internal/config"
	"rivergauge-server/internal/metrics"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newTestServer(t *testing.T, conn *sql.DB, m *metrics.Metrics) *httptest.Server {
	t.Helper()

	mux := NewMux(conn, m)
	srv := NewServer(config.Config{HTTPAddr: ":0"}, mux, m)
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(ts.Close)
	return ts
}

func mustGet(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, openTestDB(t), nil)

	resp := mustGet(t, ts.Client(), ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body.status=%q want=%q", body["status"], "ok")
	}
}

func TestHealthz_databaseDown(t *testing.T) {
	conn := openTestDB(t)
	ts := newTestServer(t, conn, nil)
	_ = conn.Close()

	resp := mustGet(t, ts.Client(), ts.URL+"/healthz")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusInternalServerError)
	}
}

func TestRouting_UnknownRoute(t *testing.T) {
	ts := newTestServer(t, openTestDB(t), nil)

	resp := mustGet(t, ts.Client(), ts.URL+"/does-not-exist")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestRouting_WrongMethod(t *testing.T) {
	ts := newTestServer(t, openTestDB(t), nil)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestMiddleware_CORSAndRequestID(t *testing.T) {
	ts := newTestServer(t, openTestDB(t), nil)

	resp := mustGet(t, ts.Client(), ts.URL+"/healthz")
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin=%q want=*", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "GET, POST, DELETE, OPTIONS" {
		t.Fatalf("allow-methods=%q", got)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatalf("missing generated %s", requestIDHeader)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp2, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer func() { _ = resp2.Body.Close() }()
	if got := resp2.Header.Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id=%q want=abc-123", got)
	}
}

func TestMetrics(t *testing.T) {
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	ts := newTestServer(t, openTestDB(t), m)

	mustGet(t, ts.Client(), ts.URL+"/healthz")
	mustGet(t, ts.Client(), ts.URL+"/nope")

	resp := mustGet(t, ts.Client(), ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusOK)
	}
	b, _ := io.ReadAll(resp.Body)
	body := string(b)
	for _, want := range []string{
		`rivergauge_http_requests_total{method="GET",route="GET /healthz",status="200"} 1`,
		`rivergauge_http_requests_total{method="GET",route="unmatched",status="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetrics_disabled(t *testing.T) {
	ts := newTestServer(t, openTestDB(t), nil)

	resp := mustGet(t, ts.Client(), ts.URL+"/metrics")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusNotFound)
	}
}
