package types

import (
	"time"

	"rivergauge-server/internal/modules/stations/status"
)

// Parameter is the latest value of one measured variable at a site.
type Parameter struct {
	Variable string `json:"variable"`
	Value    string `json:"value"`
	Unit     string `json:"unit"`
}

// Snapshot is the per-site view built from an instantaneous-values response.
type Snapshot struct {
	SiteCode   string      `json:"siteCode"`
	SiteName   string      `json:"siteName"`
	Latitude   float64     `json:"latitude"`
	Longitude  float64     `json:"longitude"`
	Parameters []Parameter `json:"parameters"`
}

// Param returns the parameter for variable, if the site reported one.
func (s Snapshot) Param(variable string) (Parameter, bool) {
	for _, p := range s.Parameters {
		if p.Variable == variable {
			return p, true
		}
	}
	return Parameter{}, false
}

// Card is a search result entry.
type Card struct {
	Snapshot
	Status      status.Level `json:"status"`
	StatusClass string       `json:"statusClass"`
}

type SearchRequest struct {
	State  string `json:"state,omitempty"`
	County string `json:"county,omitempty"`
}

// Detail is the station details view.
type Detail struct {
	SiteCode      string       `json:"siteCode"`
	SiteName      string       `json:"siteName"`
	Latitude      float64      `json:"latitude"`
	Longitude     float64      `json:"longitude"`
	LatitudeText  string       `json:"latitudeText"`
	LongitudeText string       `json:"longitudeText"`
	County        string       `json:"county"`
	MapsURL       string       `json:"mapsUrl"`
	Temperature   string       `json:"temperature"`
	Discharge     string       `json:"discharge"`
	Status        status.Level `json:"status"`
	StatusClass   string       `json:"statusClass"`
}

// ChartPoint is one day of the temperature history.
type ChartPoint struct {
	Date       time.Time `json:"date"`
	Fahrenheit float64   `json:"fahrenheit"`
}
