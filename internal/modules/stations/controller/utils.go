package controller

import (
	"errors"
	"net/http"
	"strconv"

	"rivergauge-server/internal/modules/stations/service"
	"rivergauge-server/internal/modules/stations/types"
)

func parseSearchQuery(r *http.Request) types.SearchRequest {
	q := r.URL.Query()
	return types.SearchRequest{State: q.Get("state"), County: q.Get("county")}
}

// parseDays returns the history window; 0 means the service default.
func parseDays(r *http.Request) (int, error) {
	s := r.URL.Query().Get("days")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'days' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'days' must be > 0")
	}
	if n > service.MaxHistoryDays {
		return 0, errors.New("'days' must be <= " + strconv.Itoa(service.MaxHistoryDays))
	}
	return n, nil
}
