// Package response writes JSON bodies and maps itinerary errors to HTTP
// statuses.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moodroute/moodroute/internal/api/middleware"
	"github.com/moodroute/moodroute/internal/api/models"
	"github.com/moodroute/moodroute/internal/itinerary"
)

// JSON writes data as a JSON body with the given status code and echoes the
// request ID.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set(middleware.RequestIDHeader, requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// BadRequest writes a 400 {error} body.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	JSON(w, r, http.StatusBadRequest, models.ErrorResponse{Error: message})
}

// Error writes err with the status StatusFor picks. With debug set the body
// also carries the chain of wrapped messages.
func Error(w http.ResponseWriter, r *http.Request, err error, debug bool) {
	body := models.ErrorResponse{Error: err.Error()}
	if debug {
		body.Stack = ErrorChain(err)
	}
	JSON(w, r, StatusFor(err), body)
}

// StatusFor maps an error to its HTTP status: 404 for not-found errors, 400 for
// invalid input and 500 for everything else.
func StatusFor(err error) int {
	switch {
	case itinerary.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, itinerary.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorChain lists the messages of err and every error it wraps, depth first,
// outermost first.
func ErrorChain(err error) []string {
	var chain []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		chain = append(chain, e.Error())
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return chain
}
