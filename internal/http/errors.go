// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/fairyhunter13/vending-machine-simulator/internal/coins"
	"github.com/fairyhunter13/vending-machine-simulator/internal/inventory"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, jsonError{Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps machine and inventory errors to a status code and error code.
func statusFor(err error) (int, string) {
	var unknown *inventory.UnknownProductError
	var soldOut *inventory.SoldOutError
	switch {
	case errors.As(err, &unknown):
		return http.StatusNotFound, "unknown_product"
	case errors.As(err, &soldOut):
		return http.StatusConflict, "sold_out"
	case errors.Is(err, inventory.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, coins.ErrChangeNotRepresentable):
		return http.StatusUnprocessableEntity, "change_not_representable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, http.StatusNotFound, "not_found", "")
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
}

func duplicateRequestHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, http.StatusConflict, "duplicate_request", "Idempotency-Key already used")
}
