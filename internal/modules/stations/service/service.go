package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rivergauge-server/internal/modules/stations/aggregate"
	"rivergauge-server/internal/modules/stations/status"
	"rivergauge-server/internal/modules/stations/types"
	"rivergauge-server/pkg/usgs"
)

const (
	DefaultHistoryDays = 7
	MaxHistoryDays     = 366

	notAvailable = "N/A"
)

var (
	ErrValidation = errors.New("invalid station request")
	// ErrNoData is returned by Details when the site reports no series.
	ErrNoData = errors.New("no data for site")
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

var (
	errNoSelector   = &ValidationError{Msg: "Please select either a state or a county"}
	errTwoSelectors = &ValidationError{Msg: "Please select either a state OR a county, not both"}
)

// Upstream is the subset of the USGS client the service needs.
type Upstream interface {
	InstantValues(ctx context.Context, q usgs.Query) (*usgs.Response, error)
	DailyValues(ctx context.Context, site string, start, end time.Time, parameterCd string) (*usgs.Response, error)
}

type Service struct {
	upstream Upstream
	policies status.Policies
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(upstream Upstream, policies status.Policies, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{upstream: upstream, policies: policies, logger: logger, now: time.Now}
}

// Search lists active sites in a state or county with their latest
// temperature and discharge. Exactly one of State or County is required.
// No matching sites is an empty result.
func (s *Service) Search(ctx context.Context, req types.SearchRequest) ([]types.Card, error) {
	state := strings.TrimSpace(req.State)
	county := strings.TrimSpace(req.County)
	switch {
	case state == "" && county == "":
		return nil, errNoSelector
	case state != "" && county != "":
		return nil, errTwoSelectors
	}

	q := usgs.Query{
		StateCd:      state,
		CountyCd:     county,
		ActiveOnly:   true,
		ParameterCds: []string{usgs.ParamDischarge, usgs.ParamTemperature},
	}
	resp, err := s.upstream.InstantValues(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search stations: %w", err)
	}

	snapshots := aggregate.Aggregate(resp.Value.TimeSeries)
	cards := make([]types.Card, 0, len(snapshots))
	for _, snap := range snapshots {
		level := s.policies.List.ClassifyCelsius(celsius(snap))
		cards = append(cards, types.Card{Snapshot: snap, Status: level, StatusClass: level.Class()})
	}
	s.logger.Debug("station search", "state", state, "county", county, "sites", len(cards))
	return cards, nil
}

// Details returns the current readings and status for one site.
func (s *Service) Details(ctx context.Context, siteID string) (types.Detail, error) {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return types.Detail{}, &ValidationError{Msg: "site is required"}
	}

	resp, err := s.upstream.InstantValues(ctx, usgs.Query{Sites: []string{siteID}})
	if err != nil {
		return types.Detail{}, fmt.Errorf("station details %s: %w", siteID, err)
	}
	series := resp.Value.TimeSeries
	if len(series) == 0 {
		return types.Detail{}, ErrNoData
	}

	info := series[0].SourceInfo
	geo := info.GeoLocation.GeogLocation
	d := types.Detail{
		SiteCode:      siteID,
		SiteName:      info.SiteName,
		Latitude:      geo.Latitude,
		Longitude:     geo.Longitude,
		LatitudeText:  fmt.Sprintf("%.6f", geo.Latitude),
		LongitudeText: fmt.Sprintf("%.6f", geo.Longitude),
		County:        notAvailable,
		MapsURL:       fmt.Sprintf("https://www.google.com/maps?q=%v,%v", geo.Latitude, geo.Longitude),
		Temperature:   notAvailable,
		Discharge:     notAvailable,
		Status:        status.Normal,
	}
	if county, ok := info.Property("countyCd"); ok {
		d.County = county
	}

	// Later series for the same variable replace earlier ones.
	for _, ts := range series {
		latest, ok := ts.Latest()
		if !ok {
			continue
		}
		switch ts.VariableCode() {
		case usgs.ParamTemperature:
			c, err := latest.Float()
			if err != nil {
				s.logger.Warn("station details: bad temperature value", "site_id", siteID, "value", latest.Value)
				continue
			}
			d.Temperature = fmt.Sprintf("%.1f °F", status.FahrenheitFromCelsius(c))
			d.Status = s.policies.Detail.ClassifyCelsius(&c)
		case usgs.ParamDischarge:
			d.Discharge = latest.Value + " " + ts.Unit()
		}
	}
	d.StatusClass = d.Status.Class()
	return d, nil
}

// History returns daily mean water temperature in Fahrenheit for the last
// days days (DefaultHistoryDays when days <= 0).
func (s *Service) History(ctx context.Context, siteID string, days int) ([]types.ChartPoint, error) {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return nil, &ValidationError{Msg: "site is required"}
	}
	if days <= 0 {
		days = DefaultHistoryDays
	}
	if days > MaxHistoryDays {
		return nil, &ValidationError{Msg: fmt.Sprintf("days must be <= %d", MaxHistoryDays)}
	}

	end := s.now().UTC()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	resp, err := s.upstream.DailyValues(ctx, siteID, start, end, usgs.ParamTemperature)
	if err != nil {
		return nil, fmt.Errorf("station history %s: %w", siteID, err)
	}

	points := []types.ChartPoint{}
	if len(resp.Value.TimeSeries) == 0 {
		return points, nil
	}
	for _, p := range resp.Value.TimeSeries[0].Points() {
		c, err := p.Float()
		if err != nil {
			continue
		}
		at, err := p.Time()
		if err != nil {
			continue
		}
		points = append(points, types.ChartPoint{Date: at, Fahrenheit: status.FahrenheitFromCelsius(c)})
	}
	return points, nil
}

func celsius(snap types.Snapshot) *float64 {
	p, ok := snap.Param(usgs.ParamTemperature)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(p.Value, 64)
	if err != nil {
		return nil
	}
	return &v
}
