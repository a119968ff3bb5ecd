package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moodroute/moodroute/internal/api/middleware"
	"github.com/moodroute/moodroute/internal/api/response"
	"github.com/moodroute/moodroute/internal/itinerary"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Planner plans an itinerary.
type Planner interface {
	Plan(ctx context.Context, req itinerary.RouteRequest) (*itinerary.RouteResponse, error)
}

// RouteHandler handles itinerary planning.
type RouteHandler struct {
	planner Planner
	debug   bool
	logger  zerolog.Logger
}

// NewRouteHandler creates a RouteHandler. With debug set, error bodies carry
// the chain of wrapped error messages.
func NewRouteHandler(planner Planner, debug bool, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{
		planner: planner,
		debug:   debug,
		logger:  logger,
	}
}

// PlanRoute handles POST /api/route.
func (h *RouteHandler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var input itinerary.RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && strings.HasPrefix(typeErr.Field, "locations") {
			response.BadRequest(w, r, "locations must be an array of strings")
			return
		}
		response.BadRequest(w, r, "invalid JSON body")
		return
	}

	if len(input.Locations) == 0 {
		response.BadRequest(w, r, "locations must be a non-empty array")
		return
	}
	for _, name := range input.Locations {
		if strings.TrimSpace(name) == "" {
			response.BadRequest(w, r, "locations must not contain blank names")
			return
		}
	}

	resp, err := h.planner.Plan(r.Context(), input)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Strs("locations", input.Locations).
			Msg("failed to plan itinerary")
		response.Error(w, r, err, h.debug)
		return
	}

	response.JSON(w, r, http.StatusOK, resp)
}
