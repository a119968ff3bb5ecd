package googlemaps

import "encoding/json"

// Google Maps web service status codes.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusNotFound    = "NOT_FOUND"
	statusOverLimit   = "OVER_QUERY_LIMIT"
	statusDenied      = "REQUEST_DENIED"
)

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type textValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// geocodeResponse is the Geocoding API response.
type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location latLng `json:"location"`
	} `json:"geometry"`
}

// directionsResponse is the Directions API response.
type directionsResponse struct {
	Status       string           `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Routes       []directionRoute `json:"routes"`
}

type directionRoute struct {
	Summary          string `json:"summary"`
	OverviewPolyline struct {
		Points string `json:"points"`
	} `json:"overview_polyline"`
	Legs []directionLeg `json:"legs"`
}

type directionLeg struct {
	Distance textValue       `json:"distance"`
	Duration textValue       `json:"duration"`
	Steps    []directionStep `json:"steps"`
}

type directionStep struct {
	HTMLInstructions string          `json:"html_instructions"`
	Distance         textValue       `json:"distance"`
	Duration         textValue       `json:"duration"`
	TravelMode       string          `json:"travel_mode"`
	StartLocation    latLng          `json:"start_location"`
	EndLocation      latLng          `json:"end_location"`
	TransitDetails   json.RawMessage `json:"transit_details,omitempty"`
}
