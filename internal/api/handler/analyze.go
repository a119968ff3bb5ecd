package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/moodroute/moodroute/internal/api/models"
	"github.com/moodroute/moodroute/internal/api/response"
	"github.com/moodroute/moodroute/internal/recommend"
)

// Analyzer splits a free-text trip request into places and a mood.
type Analyzer interface {
	Analyze(ctx context.Context, request string) recommend.Analysis
}

// AnalyzeHandler handles request analysis.
type AnalyzeHandler struct {
	analyzer Analyzer
}

// NewAnalyzeHandler creates an AnalyzeHandler.
func NewAnalyzeHandler(analyzer Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer}
}

// Analyze handles POST /api/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var input models.AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body")
		return
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		response.BadRequest(w, r, "text is required")
		return
	}

	response.JSON(w, r, http.StatusOK, h.analyzer.Analyze(r.Context(), text))
}
