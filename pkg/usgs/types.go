package usgs

import (
	"fmt"
	"strconv"
	"time"
)

// Parameter codes used by the station explorer.
const (
	ParamTemperature = "00010" // water temperature, degrees Celsius
	ParamDischarge   = "00060" // discharge, cubic feet per second
)

// Response is the WaterML-JSON document returned by the iv and dv services.
type Response struct {
	Value struct {
		TimeSeries []TimeSeries `json:"timeSeries"`
	} `json:"value"`
}

type TimeSeries struct {
	Name       string     `json:"name"`
	SourceInfo SourceInfo `json:"sourceInfo"`
	Variable   Variable   `json:"variable"`
	Values     []ValueSet `json:"values"`
}

type SourceInfo struct {
	SiteName     string         `json:"siteName"`
	SiteCode     []SiteCode     `json:"siteCode"`
	GeoLocation  GeoLocation    `json:"geoLocation"`
	SiteProperty []SiteProperty `json:"siteProperty"`
}

type SiteCode struct {
	Value      string `json:"value"`
	AgencyCode string `json:"agencyCode"`
}

type GeoLocation struct {
	GeogLocation struct {
		SRS       string  `json:"srs"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geogLocation"`
}

type SiteProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Variable struct {
	VariableName string         `json:"variableName"`
	VariableCode []VariableCode `json:"variableCode"`
	Unit         struct {
		UnitCode string `json:"unitCode"`
	} `json:"unit"`
}

type VariableCode struct {
	Value string `json:"value"`
}

type ValueSet struct {
	Value []Point `json:"value"`
}

// Point is a single observation. USGS sends values as strings.
type Point struct {
	Value      string   `json:"value"`
	DateTime   string   `json:"dateTime"`
	Qualifiers []string `json:"qualifiers"`
}

// Code returns the first site code, or "" when the series has none.
func (s SourceInfo) Code() string {
	if len(s.SiteCode) == 0 {
		return ""
	}
	return s.SiteCode[0].Value
}

// Property returns the named site property, e.g. "countyCd".
func (s SourceInfo) Property(name string) (string, bool) {
	for _, p := range s.SiteProperty {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (ts TimeSeries) VariableCode() string {
	if len(ts.Variable.VariableCode) == 0 {
		return ""
	}
	return ts.Variable.VariableCode[0].Value
}

func (ts TimeSeries) Unit() string {
	return ts.Variable.Unit.UnitCode
}

// Points returns the observations of the first value set.
func (ts TimeSeries) Points() []Point {
	if len(ts.Values) == 0 {
		return nil
	}
	return ts.Values[0].Value
}

// Latest returns the last observation of the first value set.
func (ts TimeSeries) Latest() (Point, bool) {
	pts := ts.Points()
	if len(pts) == 0 {
		return Point{}, false
	}
	return pts[len(pts)-1], true
}

func (p Point) Float() (float64, error) {
	return strconv.ParseFloat(p.Value, 64)
}

var pointTimeLayouts = []string{
	"2006-01-02T15:04:05.000-07:00",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time parses DateTime. iv values carry an offset, dv values do not.
func (p Point) Time() (time.Time, error) {
	for _, layout := range pointTimeLayouts {
		if t, err := time.Parse(layout, p.DateTime); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse dateTime %q", p.DateTime)
}
