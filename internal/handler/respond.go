package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Decode reads a JSON request body into v, returning a domain error on
// malformed input.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Invalid("handler.decode", "Request body must be valid JSON")
	}
	return nil
}
