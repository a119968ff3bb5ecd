package openrouteservice

import "encoding/json"

// orsRequest represents the ORS directions API request body.
type orsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
	Units        string      `json:"units"`
	Language     string      `json:"language"`
	Options      *orsOptions `json:"options,omitempty"`
}

// orsOptions holds advanced route options.
type orsOptions struct {
	AvoidFeatures []string `json:"avoid_features,omitempty"`
}

// featureCollection is the GeoJSON envelope shared by the directions and geocode endpoints.
type featureCollection[P any] struct {
	Features []feature[P] `json:"features"`
}

type feature[P any] struct {
	Geometry   geometry `json:"geometry"`
	Properties P        `json:"properties"`
}

// geometry holds either a LineString (directions) or a Point (geocode).
type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// routeProperties are the properties of a directions feature.
type routeProperties struct {
	Summary  routeSummary   `json:"summary"`
	Segments []routeSegment `json:"segments,omitempty"`
}

// routeSummary contains summary information for a route.
type routeSummary struct {
	Distance float64 `json:"distance"` // Distance in meters
	Duration float64 `json:"duration"` // Duration in seconds
}

// routeSegment represents the part of the route between two way points.
type routeSegment struct {
	Distance float64     `json:"distance"`
	Duration float64     `json:"duration"`
	Steps    []routeStep `json:"steps,omitempty"`
}

// routeStep represents a single step (instruction) in a segment.
type routeStep struct {
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Type        int     `json:"type"`
	Instruction string  `json:"instruction"`
	Name        string  `json:"name"`
}

// placeProperties are the properties of a geocode feature.
type placeProperties struct {
	Label      string  `json:"label"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// orsErrorResponse represents an error response from ORS.
type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ORS error codes for error mapping.
const (
	orsErrorCodeRouteNotFound = 2009
	orsErrorCodePointNotFound = 2010
)
