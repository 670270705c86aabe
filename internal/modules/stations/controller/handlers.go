package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"rivergauge-server/internal/modules/stations/service"
	"rivergauge-server/internal/modules/stations/views"
	"rivergauge-server/internal/utils"
	"rivergauge-server/pkg/usgs"
)

const (
	msgUpstream        = "Error loading stations. Please try again."
	msgInternal        = "Internal server error"
	msgFavoritesFailed = "Error loading favorites"
	msgRenderFailed    = "failed to render page"
	msgNoData          = "No data found for this site."
)

func (c *stationsControllerImpl) handleSearch(w http.ResponseWriter, r *http.Request) {
	cards, err := c.service.Search(r.Context(), parseSearchQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, cards, "")
}

func (c *stationsControllerImpl) handleDetails(w http.ResponseWriter, r *http.Request) {
	detail, err := c.service.Details(r.Context(), r.PathValue("site"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, detail, "")
}

func (c *stationsControllerImpl) handleHistory(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	points, err := c.service.History(r.Context(), r.PathValue("site"), days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, points, "")
}

func (c *stationsControllerImpl) handleHome(w http.ResponseWriter, r *http.Request) {
	userID := c.userID(r)
	data := views.HomeData{UserID: userID, Favorites: c.loadFavorites(r, userID)}

	var buf bytes.Buffer
	if err := views.RenderHome(&buf, &data); err != nil {
		slog.Error("home template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgRenderFailed, nil)
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *stationsControllerImpl) handleDetailsPage(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("site")
	data := views.DetailsData{UserID: c.userID(r), Days: service.DefaultHistoryDays}
	status := http.StatusOK

	detail, err := c.service.Details(r.Context(), site)
	switch {
	case err == nil:
		data.Detail = &detail
		points, herr := c.service.History(r.Context(), site, data.Days)
		if herr != nil {
			slog.Warn("details page: history failed", "site_id", site, "error", herr)
			data.HistoryMessage = "Error loading historical data."
		}
		data.History = points
	case errors.Is(err, service.ErrNoData):
		status = http.StatusNotFound
		data.Message = msgNoData
	case errors.Is(err, usgs.ErrUpstream):
		slog.Error("details page: upstream failed", "site_id", site, "error", err)
		status = http.StatusBadGateway
		data.Message = "Error loading station details. Please try again."
	default:
		slog.Error("details page failed", "site_id", site, "error", err)
		status = http.StatusInternalServerError
		data.Message = msgInternal
	}

	var buf bytes.Buffer
	if err := views.RenderDetails(&buf, &data); err != nil {
		slog.Error("details template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgRenderFailed, nil)
		return
	}
	utils.WriteHTML(w, status, buf.Bytes())
}

// handleStationsPartial always answers 200 so HTMX swaps the message in.
func (c *stationsControllerImpl) handleStationsPartial(w http.ResponseWriter, r *http.Request) {
	data := views.StationsData{}
	cards, err := c.service.Search(r.Context(), parseSearchQuery(r))
	var ve *service.ValidationError
	switch {
	case err == nil:
		data.Cards = cards
	case errors.As(err, &ve):
		data.Message = ve.Msg
	default:
		slog.Error("stations partial: search failed", "error", err)
		data.Message = msgUpstream
	}

	var buf bytes.Buffer
	if err := views.RenderStationsPartial(&buf, &data); err != nil {
		slog.Error("stations partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render", nil)
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *stationsControllerImpl) handleFavoritesPartial(w http.ResponseWriter, r *http.Request) {
	data := c.loadFavorites(r, c.userID(r))

	var buf bytes.Buffer
	if err := views.RenderFavoritesPartial(&buf, &data); err != nil {
		slog.Error("favorites partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render", nil)
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *stationsControllerImpl) userID(r *http.Request) string {
	id, err := c.identity.UserID(r)
	if err != nil {
		slog.Warn("identity lookup failed", "path", r.URL.Path, "error", err)
		return ""
	}
	return id
}

func (c *stationsControllerImpl) loadFavorites(r *http.Request, userID string) views.FavoritesData {
	if userID == "" {
		return views.FavoritesData{Message: "Sign in to see your favorites."}
	}
	favorites, err := c.favorites.List(r.Context(), userID)
	if err != nil {
		slog.Error("favorites list failed", "user_id", userID, "error", err)
		return views.FavoritesData{Message: msgFavoritesFailed}
	}
	return views.FavoritesData{Favorites: favorites}
}

// writeServiceError maps the stations error taxonomy onto the envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.WriteError(w, http.StatusBadRequest, ve.Msg, nil)
	case errors.Is(err, service.ErrNoData):
		utils.WriteError(w, http.StatusNotFound, msgNoData, nil)
	case errors.Is(err, usgs.ErrUpstream):
		slog.Error("usgs upstream failure", "error", err)
		utils.WriteError(w, http.StatusBadGateway, msgUpstream, err)
	default:
		slog.Error("stations unexpected failure", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgInternal, err)
	}
}
