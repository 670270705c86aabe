// Package aggregate groups USGS time series into per-site snapshots.
package aggregate

import (
	"rivergauge-server/internal/modules/stations/types"
	"rivergauge-server/pkg/usgs"
)

// Aggregate groups series by site code in first-seen order. A series with
// at least one value contributes its latest value; sites whose series carry
// no values still appear with an empty parameter list.
func Aggregate(series []usgs.TimeSeries) []types.Snapshot {
	out := make([]types.Snapshot, 0)
	index := make(map[string]int)

	for _, ts := range series {
		code := ts.SourceInfo.Code()
		i, ok := index[code]
		if !ok {
			geo := ts.SourceInfo.GeoLocation.GeogLocation
			out = append(out, types.Snapshot{
				SiteCode:   code,
				SiteName:   ts.SourceInfo.SiteName,
				Latitude:   geo.Latitude,
				Longitude:  geo.Longitude,
				Parameters: []types.Parameter{},
			})
			i = len(out) - 1
			index[code] = i
		}

		latest, ok := ts.Latest()
		if !ok {
			continue
		}
		out[i].Parameters = append(out[i].Parameters, types.Parameter{
			Variable: ts.VariableCode(),
			Value:    latest.Value,
			Unit:     ts.Unit(),
		})
	}
	return out
}
