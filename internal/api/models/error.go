package models

// ErrorResponse is the body of every non-2xx response.
// Stack holds the chain of wrapped error messages, outermost first, and is
// only populated outside production.
type ErrorResponse struct {
	Error string   `json:"error"`
	Stack []string `json:"stack,omitempty"`
}
