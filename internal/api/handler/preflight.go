package handler

import "net/http"

// Preflight answers OPTIONS requests with 200 and an empty body, whether or not
// the caller sent Access-Control-Request-Method. The CORS headers come from
// middleware.AllowAnyOrigin.
func Preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
