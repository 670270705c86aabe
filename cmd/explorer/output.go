package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	favtypes "rivergauge-server/internal/modules/favorites/types"
	"rivergauge-server/internal/modules/stations/types"
	"rivergauge-server/pkg/usgs"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func reading(c types.Card, variable string) string {
	p, ok := c.Param(variable)
	if !ok {
		return "-"
	}
	return p.Value + " " + p.Unit
}

func printCards(w io.Writer, cards []types.Card) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(w, "No stations found for this location.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SITE\tNAME\tTEMPERATURE\tDISCHARGE\tSTATUS")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.SiteCode, c.SiteName,
			reading(c, usgs.ParamTemperature),
			reading(c, usgs.ParamDischarge),
			c.Status,
		)
	}
	return tw.Flush()
}

func printDetail(w io.Writer, d types.Detail) error {
	tw := newTable(w)
	rows := [][2]string{
		{"Site", d.SiteCode},
		{"Name", d.SiteName},
		{"Latitude", d.LatitudeText},
		{"Longitude", d.LongitudeText},
		{"County", d.County},
		{"Temperature", d.Temperature},
		{"Discharge", d.Discharge},
		{"Status", string(d.Status)},
		{"Map", d.MapsURL},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

func printHistory(w io.Writer, points []types.ChartPoint) error {
	if len(points) == 0 {
		_, err := fmt.Fprintln(w, "No historical data available for this site.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tTEMPERATURE (°F)")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%.1f\n", p.Date.Format("2006-01-02"), p.Fahrenheit)
	}
	return tw.Flush()
}

func printFavorites(w io.Writer, favorites []favtypes.Favorite) error {
	if len(favorites) == 0 {
		_, err := fmt.Fprintln(w, "No favorites saved yet.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSITE\tNAME\tSAVED")
	for _, f := range favorites {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", f.ID, f.SiteID, f.SiteName, f.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func printEvent(w io.Writer, ev favtypes.Event) error {
	_, err := fmt.Fprintf(w, "%s\t%s\tfavorite=%s\tuser=%s\tsite=%s\n",
		ev.At.Local().Format("2006-01-02 15:04:05"), ev.Action, ev.FavoriteID, ev.UserID, ev.SiteID)
	return err
}
