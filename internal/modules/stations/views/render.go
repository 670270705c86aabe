package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"

	favtypes "rivergauge-server/internal/modules/favorites/types"
	"rivergauge-server/internal/modules/stations/types"
)

var stationsTmpl *template.Template

// loadTemplatesFromFS loads explorer templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	stationsTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded explorer templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// FavoritesData is the view model for the favorites partial. Message
// replaces the list when set.
type FavoritesData struct {
	Favorites []favtypes.Favorite
	Message   string
}

type HomeData struct {
	UserID    string
	Favorites FavoritesData
}

// StationsData is the view model for the search results partial.
type StationsData struct {
	Cards   []types.Card
	Message string
}

type DetailsData struct {
	UserID string
	// Detail is nil when the site could not be loaded; Message says why.
	Detail         *types.Detail
	Message        string
	Days           int
	History        []types.ChartPoint
	HistoryMessage string
}

func RenderHome(w io.Writer, data *HomeData) error {
	if stationsTmpl == nil {
		return errors.New("home template not loaded: call views.LoadTemplates during startup")
	}
	return stationsTmpl.ExecuteTemplate(w, "home.html", data)
}

func RenderDetails(w io.Writer, data *DetailsData) error {
	if stationsTmpl == nil {
		return errors.New("details template not loaded: call views.LoadTemplates during startup")
	}
	return stationsTmpl.ExecuteTemplate(w, "details.html", data)
}

// RenderStationsPartial executes only the search results partial into w.
// Use for HTMX fragment refresh.
func RenderStationsPartial(w io.Writer, data *StationsData) error {
	if stationsTmpl == nil {
		return errors.New("stations template not loaded: call views.LoadTemplates during startup")
	}
	return stationsTmpl.ExecuteTemplate(w, "partials/stations.html", data)
}

// RenderFavoritesPartial executes only the favorites partial into w.
func RenderFavoritesPartial(w io.Writer, data *FavoritesData) error {
	if stationsTmpl == nil {
		return errors.New("favorites template not loaded: call views.LoadTemplates during startup")
	}
	return stationsTmpl.ExecuteTemplate(w, "partials/favorites.html", data)
}
