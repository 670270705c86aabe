package controller

import (
	"context"
	"net/http"

	"rivergauge-server/internal/identity"
	favtypes "rivergauge-server/internal/modules/favorites/types"
	"rivergauge-server/internal/modules/stations/service"
)

type StationsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// FavoritesLister is what the HTML pages need from the favorites module.
type FavoritesLister interface {
	List(ctx context.Context, userID string) ([]favtypes.Favorite, error)
}

type stationsControllerImpl struct {
	service   *service.Service
	favorites FavoritesLister
	identity  identity.Source
}

func NewStationsController(service *service.Service, favorites FavoritesLister, identity identity.Source) StationsController {
	return &stationsControllerImpl{service: service, favorites: favorites, identity: identity}
}

func (c *stationsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stations", c.handleSearch)
	mux.HandleFunc("GET /api/stations/{site}", c.handleDetails)
	mux.HandleFunc("GET /api/stations/{site}/history", c.handleHistory)

	mux.HandleFunc("GET /{$}", c.handleHome)
	mux.HandleFunc("GET /stations/{site}", c.handleDetailsPage)
	mux.HandleFunc("GET /partials/stations", c.handleStationsPartial)
	mux.HandleFunc("GET /partials/favorites", c.handleFavoritesPartial)
}
