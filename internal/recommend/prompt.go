package recommend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/moodroute/moodroute/internal/itinerary"
)

const spotPromptTemplate = `You are a travel concierge for foreign tourists visiting Japan. Based on the user's mood and the locations they want to visit, recommend 2-3 additional spots that would enhance their experience.

User's mood/preference: %q
Planned locations:
%s
%s
Please recommend spots that:
1. Match the user's mood/preference
2. Are near the planned locations or along the route
3. Are popular with foreign tourists
4. Enhance the overall travel experience

Respond with a JSON array of recommendations in this exact format:
[
  {
    "name": "Spot name",
    "description": "Brief description",
    "lat": 35.6762,
    "lng": 139.6503,
    "address": "Full address",
    "reason": "Why this spot was recommended"
  }
]

Return only the JSON array, no other text.`

const analyzePromptTemplate = `You are a travel assistant. Analyze the following user request and extract:
1. Specific location names or places they want to visit (as a JSON array)
2. Their mood or preferences (as a string, optional)

User request: %q

Respond ONLY with a valid JSON object in this format:
{
  "locations": ["location1", "location2", ...],
  "mood": "optional mood description"
}

If no specific locations are mentioned, return an empty array for locations.`

// SpotPrompt builds the recommendation prompt for a mood and the planned stops.
func SpotPrompt(mood string, stops []itinerary.Location, current *itinerary.Location) string {
	var list strings.Builder
	for i, stop := range stops {
		if i > 0 {
			list.WriteByte('\n')
		}
		list.WriteString("- ")
		list.WriteString(describe(stop))
	}

	var currentLine string
	if current != nil {
		currentLine = "Current location: " + describe(*current) + "\n"
	}

	return fmt.Sprintf(spotPromptTemplate, mood, list.String(), currentLine)
}

// AnalyzePrompt builds the prompt that splits a free-text request into places and a mood.
func AnalyzePrompt(request string) string {
	return fmt.Sprintf(analyzePromptTemplate, request)
}

// describe renders "Name (address)", falling back to "Name (lat, lng)".
func describe(loc itinerary.Location) string {
	where := loc.Address
	if where == "" {
		where = strconv.FormatFloat(loc.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(loc.Lng, 'f', -1, 64)
	}
	return loc.Name + " (" + where + ")"
}
