package controller

import (
	"net/http"

	"rivergauge-server/internal/modules/favorites/service"
)

type FavoritesController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type favoritesControllerImpl struct {
	service *service.Service
}

func NewFavoritesController(service *service.Service) FavoritesController {
	return &favoritesControllerImpl{service: service}
}

// RegisterRoutes mounts a single handler for every method so unsupported
// methods get the envelope 405 rather than the mux's plain-text one.
func (c *favoritesControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/favorites", c.handleFavorites)
}
