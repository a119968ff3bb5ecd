// Package itinerary holds the request-scoped data model of a travel itinerary,
// the error kinds shared by every upstream-facing component, and the Planner that
// turns a list of place names into a route with weather and recommendations.
package itinerary

import (
	"encoding/json"
	"strings"
)

// TransportationMode is the way a segment or step is travelled.
type TransportationMode string

const (
	ModeWalking TransportationMode = "walking"
	ModeTransit TransportationMode = "transit"
	ModeDriving TransportationMode = "driving"
)

// ParseMode maps a requested mode to a supported one. Unknown values,
// including "mixed", resolve to driving.
func ParseMode(s string) TransportationMode {
	switch TransportationMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWalking:
		return ModeWalking
	case ModeTransit:
		return ModeTransit
	default:
		return ModeDriving
	}
}

// CurrentLocationName labels the stop synthesised from the caller's position.
const CurrentLocationName = "Current Location"

// Coordinate is a bare latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a resolved stop.
type Location struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Coordinate returns the location's position.
func (l Location) Coordinate() Coordinate {
	return Coordinate{Lat: l.Lat, Lng: l.Lng}
}

// RouteStep is a single plain-text direction within a segment.
type RouteStep struct {
	Instruction        string             `json:"instruction"`
	Distance           int                `json:"distance"`
	Duration           int                `json:"duration"`
	TransportationMode TransportationMode `json:"transportationMode,omitempty"`
}

// RouteSegment is the leg between two consecutive stops.
// Distance is in meters, Duration in seconds.
type RouteSegment struct {
	From               Location           `json:"from"`
	To                 Location           `json:"to"`
	Distance           int                `json:"distance"`
	Duration           int                `json:"duration"`
	TransportationMode TransportationMode `json:"transportationMode"`
	Steps              []RouteStep        `json:"steps"`
	Polyline           string             `json:"polyline,omitempty"`
}

// CurrentWeather holds observed conditions: °C, %, m/s.
type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
}

// ForecastWeather holds the forecast closest to 24 hours ahead. Precipitation is in mm.
type ForecastWeather struct {
	Temperature   float64 `json:"temperature"`
	Condition     string  `json:"condition"`
	Precipitation float64 `json:"precipitation"`
}

// WeatherInfo is the weather at one stop.
type WeatherInfo struct {
	Location Location         `json:"location"`
	Current  CurrentWeather   `json:"current"`
	Forecast *ForecastWeather `json:"forecast,omitempty"`
}

// RecommendedSpot is an additional stop suggested for the caller's mood.
type RecommendedSpot struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	Reason      string   `json:"reason"`
}

// Preferences tune route computation.
type Preferences struct {
	TransportationMode string `json:"transportationMode,omitempty"`
	AvoidTolls         bool   `json:"avoidTolls,omitempty"`
	AvoidHighways      bool   `json:"avoidHighways,omitempty"`
}

// Mode returns the resolved transportation mode, driving when unset.
func (p *Preferences) Mode() TransportationMode {
	if p == nil {
		return ModeDriving
	}
	return ParseMode(p.TransportationMode)
}

// UnmarshalJSON accepts the legacy "transportation" key as an alias of
// "transportationMode".
func (p *Preferences) UnmarshalJSON(data []byte) error {
	var raw struct {
		TransportationMode string `json:"transportationMode"`
		Transportation     string `json:"transportation"`
		AvoidTolls         bool   `json:"avoidTolls"`
		AvoidHighways      bool   `json:"avoidHighways"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.TransportationMode = raw.TransportationMode
	if p.TransportationMode == "" {
		p.TransportationMode = raw.Transportation
	}
	p.AvoidTolls = raw.AvoidTolls
	p.AvoidHighways = raw.AvoidHighways
	return nil
}

// RouteRequest is the input of a planning call.
type RouteRequest struct {
	Locations       []string     `json:"locations"`
	Mood            string       `json:"mood,omitempty"`
	CurrentLocation *Coordinate  `json:"currentLocation,omitempty"`
	Preferences     *Preferences `json:"preferences,omitempty"`
}

// RouteResponse is the consolidated itinerary.
// RecommendedSpots is nil, and omitted on the wire, when there are none.
type RouteResponse struct {
	Route            []RouteSegment    `json:"route"`
	TotalDuration    int               `json:"totalDuration"`
	TotalDistance    int               `json:"totalDistance"`
	Weather          []WeatherInfo     `json:"weather"`
	RecommendedSpots []RecommendedSpot `json:"recommendedSpots,omitempty"`
}
