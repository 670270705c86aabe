package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"rivergauge-server/internal/modules/favorites/types"
	"rivergauge-server/internal/utils"
)

const (
	msgFetchFailed  = "Error fetching favorites"
	msgSaveFailed   = "Error saving favorite"
	msgRemoveFailed = "Error removing favorite"
	msgAdded        = "Favorite added successfully"
	msgRemoved      = "Favorite removed successfully"
	msgBadBody      = "Invalid request body"
	msgInternal     = "Internal server error"
	msgDuplicate    = "This station is already in your favorites"
	msgNotAllowed   = "Method not allowed"
)

func (c *favoritesControllerImpl) handleFavorites(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("favorites handler panic",
				"method", r.Method,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			utils.WriteError(w, http.StatusInternalServerError, msgInternal, fmt.Errorf("%v", rec))
		}
	}()

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		c.handleList(w, r)
	case http.MethodPost:
		c.handleAdd(w, r)
	case http.MethodDelete:
		c.handleRemove(w, r)
	default:
		utils.WriteError(w, http.StatusMethodNotAllowed, msgNotAllowed, fmt.Errorf("%w: %s", types.ErrMethodNotAllowed, r.Method))
	}
}

func (c *favoritesControllerImpl) handleList(w http.ResponseWriter, r *http.Request) {
	favorites, err := c.service.List(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeServiceError(w, err, msgFetchFailed)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, favorites, "")
}

func (c *favoritesControllerImpl) handleAdd(w http.ResponseWriter, r *http.Request) {
	var nf types.NewFavorite
	if err := json.NewDecoder(r.Body).Decode(&nf); err != nil {
		utils.WriteError(w, http.StatusBadRequest, msgBadBody, err)
		return
	}

	fav, err := c.service.Add(r.Context(), nf)
	if err != nil {
		writeServiceError(w, err, msgSaveFailed)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, fav, msgAdded)
}

func (c *favoritesControllerImpl) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Remove(r.Context(), r.URL.Query().Get("id")); err != nil {
		writeServiceError(w, err, msgRemoveFailed)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, nil, msgRemoved)
}

// writeServiceError maps the favorites error taxonomy onto the envelope.
// persistMsg is the operation-specific message for store failures.
func writeServiceError(w http.ResponseWriter, err error, persistMsg string) {
	var (
		ve *types.ValidationError
		pe *types.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		utils.WriteError(w, http.StatusBadRequest, ve.Error(), nil)
	case errors.Is(err, types.ErrDuplicate):
		utils.WriteError(w, http.StatusBadRequest, msgDuplicate, nil)
	case errors.As(err, &pe):
		slog.Error("favorites store failure", "op", pe.Op, "error", pe.Err)
		utils.WriteError(w, http.StatusInternalServerError, persistMsg, pe.Err)
	default:
		slog.Error("favorites unexpected failure", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgInternal, err)
	}
}
