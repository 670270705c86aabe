package httpapi

import (
	"net/http"
	"time"

	"rivergauge-server/internal/config"
	"rivergauge-server/internal/metrics"
)

func NewServer(cfg config.Config, mux *http.ServeMux, m *metrics.Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(cors(instrument(m, mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
