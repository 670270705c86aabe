package httpapi

import (
	"database/sql"
	"net/http"

	"rivergauge-server/internal/metrics"
)

// NewMux returns a mux with /healthz and, when m is non-nil, /metrics.
// Feature modules register their own routes on it.
func NewMux(db *sql.DB, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}
