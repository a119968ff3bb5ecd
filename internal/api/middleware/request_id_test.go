package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moodroute/moodroute/internal/api/middleware"
)

func serveRequestID(t *testing.T, inbound string) (ctxID, headerID string) {
	t.Helper()

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/route", http.NoBody)
	if inbound != "" {
		req.Header.Set(middleware.RequestIDHeader, inbound)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	return ctxID, w.Header().Get(middleware.RequestIDHeader)
}

func TestRequestID_Generated(t *testing.T) {
	ctxID, headerID := serveRequestID(t, "")

	assert.True(t, strings.HasPrefix(ctxID, "req_"))
	assert.Equal(t, ctxID, headerID)
}

func TestRequestID_PropagatesInbound(t *testing.T) {
	ctxID, headerID := serveRequestID(t, "trip-42")

	assert.Equal(t, "trip-42", ctxID)
	assert.Equal(t, "trip-42", headerID)
}

func TestRequestID_RejectsInvalidInbound(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
	}{
		{name: "too long", inbound: strings.Repeat("a", 129)},
		{name: "whitespace", inbound: "trip 42"},
		{name: "control character", inbound: "trip\x0142"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctxID, headerID := serveRequestID(t, tt.inbound)
			assert.True(t, strings.HasPrefix(ctxID, "req_"))
			assert.Equal(t, ctxID, headerID)
		})
	}
}

func TestRequestID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		_, id := serveRequestID(t, "")
		assert.False(t, seen[id], "duplicate request ID %s", id)
		seen[id] = true
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}
