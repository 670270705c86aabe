package favorites

import (
	"database/sql"
	"net/http"

	"rivergauge-server/internal/db"
	"rivergauge-server/internal/modules/favorites/controller"
	"rivergauge-server/internal/modules/favorites/repository"
	"rivergauge-server/internal/modules/favorites/service"
)

// RegisterFeature wires the favorites store, service and HTTP handler onto
// mux and returns the service for other modules (HTML pages) to use.
func RegisterFeature(mux *http.ServeMux, conn *sql.DB, dialect db.Dialect, opts ...service.Option) (*service.Service, error) {
	favoritesRepository, err := repository.NewRepository(conn, dialect)
	if err != nil {
		return nil, err
	}
	favoritesService := service.NewService(favoritesRepository, opts...)
	favoritesController := controller.NewFavoritesController(favoritesService)
	favoritesController.RegisterRoutes(mux)
	return favoritesService, nil
}
