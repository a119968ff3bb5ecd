package recommend

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/moodroute/moodroute/internal/llm"
)

// Analysis is a free-text trip request split into place names and a mood.
type Analysis struct {
	Locations []string `json:"locations"`
	Mood      string   `json:"mood,omitempty"`
}

// Analyze extracts place names and a mood from a natural-language request.
//
// It never fails: output without a JSON object yields no locations, and a
// failed generation or unparseable object falls back to the request itself as
// the only location.
func (s *Service) Analyze(ctx context.Context, request string) Analysis {
	fallback := Analysis{Locations: []string{request}}

	text, err := s.generator.Generate(ctx, AnalyzePrompt(request))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to analyze request, using it as a location")
		return fallback
	}

	raw := llm.ExtractJSON(text)
	if raw == "" {
		return Analysis{Locations: []string{}}
	}

	var parsed struct {
		Locations []any `json:"locations"`
		Mood      any   `json:"mood"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		s.logger.Warn().Err(err).Msg("failed to parse request analysis, using it as a location")
		return fallback
	}

	analysis := Analysis{Locations: make([]string, 0, len(parsed.Locations))}
	for _, loc := range parsed.Locations {
		if name, ok := loc.(string); ok && strings.TrimSpace(name) != "" {
			analysis.Locations = append(analysis.Locations, strings.TrimSpace(name))
		}
	}
	if mood, ok := parsed.Mood.(string); ok {
		analysis.Mood = strings.TrimSpace(mood)
	}
	return analysis
}
