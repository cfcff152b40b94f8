package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/JoseEM26/StoreCollection-sub000/internal/api"
	"github.com/JoseEM26/StoreCollection-sub000/internal/cart"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleCartError maps synchronizer and backend errors to HTTP responses.
// Configuration and validation failures are the caller's fault; backend
// status errors keep their code so the SPA can branch on it.
func handleCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrNoSession):
		respondError(w, http.StatusBadRequest, "missing_session", "no session identifier resolvable")
	case errors.Is(err, cart.ErrNoStore):
		respondError(w, http.StatusBadRequest, "missing_store", "no store selected")
	case errors.Is(err, cart.ErrInvalidID):
		respondError(w, http.StatusBadRequest, "invalid_id", "identifier must be a positive integer")
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
	case errors.Is(err, cart.ErrCheckoutInFlight):
		respondError(w, http.StatusTooManyRequests, "checkout_in_flight", "a checkout is already in progress")
	case errors.Is(err, api.ErrMissingEmailConfig):
		respondError(w, http.StatusConflict, "missing_email_config", "seller has not configured outbound email")
	default:
		handleBackendError(w, err)
	}
}

func handleBackendError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	switch apiErr.Kind {
	case api.ErrKindTransport:
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "platform backend unreachable")
	case api.ErrKindBadResponse:
		respondError(w, http.StatusBadGateway, "bad_backend_response", "platform backend returned a malformed response")
	case api.ErrKindStatus:
		code := "backend_error"
		if apiErr.Code != "" {
			code = apiErr.Code
		}
		respondError(w, apiErr.StatusCode, code, apiErr.Message)
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
