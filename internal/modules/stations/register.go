package stations

import (
	"log/slog"
	"net/http"

	"rivergauge-server/internal/identity"
	"rivergauge-server/internal/modules/stations/controller"
	"rivergauge-server/internal/modules/stations/service"
	"rivergauge-server/internal/modules/stations/status"
	"rivergauge-server/internal/modules/stations/views"
)

// RegisterFeature loads the page templates and mounts the station search,
// details and history handlers on mux.
func RegisterFeature(
	mux *http.ServeMux,
	upstream service.Upstream,
	policies status.Policies,
	favorites controller.FavoritesLister,
	source identity.Source,
	logger *slog.Logger,
) (*service.Service, error) {
	if err := views.LoadTemplates(); err != nil {
		return nil, err
	}
	stationsService := service.NewService(upstream, policies, logger)
	stationsController := controller.NewStationsController(stationsService, favorites, source)
	stationsController.RegisterRoutes(mux)
	return stationsService, nil
}
