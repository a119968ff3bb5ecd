// Package recommend turns a mood and the planned stops into suggested extra
// spots using a text generation model, and splits free-text trip requests into
// place names and a mood.
package recommend

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moodroute/moodroute/internal/itinerary"
	"github.com/moodroute/moodroute/internal/llm"
)

// Generator produces a free-text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ServiceConfig holds configuration for the recommendation service.
type ServiceConfig struct {
	Generator Generator
	Logger    zerolog.Logger
}

// Service recommends spots and analyzes trip requests.
type Service struct {
	generator Generator
	logger    zerolog.Logger
}

// NewService creates a new recommendation service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		generator: cfg.Generator,
		logger:    cfg.Logger,
	}
}

// Recommend asks the model for spots matching mood near the planned stops.
//
// Output without a parseable JSON array yields an empty, non-nil slice and no
// error. A failed generation call returns an itinerary.ErrUpstream error.
func (s *Service) Recommend(ctx context.Context, mood string, stops []itinerary.Location, current *itinerary.Location) ([]itinerary.RecommendedSpot, error) {
	text, err := s.generator.Generate(ctx, SpotPrompt(mood, stops, current))
	if err != nil {
		return nil, itinerary.Upstream("failed to generate recommendations", err)
	}

	spots := ParseSpots(text)
	if len(spots) == 0 {
		s.logger.Warn().
			Str("mood", mood).
			Int("response_chars", len(text)).
			Msg("no recommendations parsed from model output")
	}
	return spots, nil
}

// rawSpot is one model-produced recommendation. Coordinates are accepted as
// numbers or numeric strings.
type rawSpot struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Lat         any    `json:"lat"`
	Lng         any    `json:"lng"`
	Address     string `json:"address"`
	Reason      string `json:"reason"`
}

// ParseSpots extracts recommendations from model output. Entries that are not
// objects or have no name are dropped; missing description and reason are "".
func ParseSpots(text string) []itinerary.RecommendedSpot {
	spots := []itinerary.RecommendedSpot{}

	raw := llm.ExtractJSONArray(text)
	if raw == "" {
		return spots
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return spots
	}

	for _, entry := range entries {
		var r rawSpot
		if err := json.Unmarshal(entry, &r); err != nil {
			continue
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		spots = append(spots, itinerary.RecommendedSpot{
			Name:        name,
			Description: r.Description,
			Location: itinerary.Location{
				Name:    name,
				Lat:     coordinate(r.Lat),
				Lng:     coordinate(r.Lng),
				Address: r.Address,
			},
			Reason: r.Reason,
		})
	}
	return spots
}

func coordinate(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return f
		}
	}
	return 0
}
