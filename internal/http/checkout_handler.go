package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/JoseEM26/StoreCollection-sub000/internal/domain"
)

type CheckoutHandler struct {
	registry *SyncRegistry
	timeout  time.Duration
}

func NewCheckoutHandler(registry *SyncRegistry, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		registry: registry,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Notes    string `json:"notes"`
}

type WhatsAppCheckoutResponseDTO struct {
	Link string `json:"link"`
}

func (dto CheckoutRequestDTO) buyer() domain.BuyerDetails {
	return domain.BuyerDetails{
		Name:     dto.Name,
		Email:    dto.Email,
		Phone:    dto.Phone,
		Address:  dto.Address,
		City:     dto.City,
		District: dto.District,
		Notes:    dto.Notes,
	}
}

func (h *CheckoutHandler) Online(w http.ResponseWriter, r *http.Request) {
	sync := h.registry.For(getSessionFromContext(r.Context()), getStoreFromContext(r.Context()))

	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "missing_buyer_name", "buyer name is required")
		return
	}

	order, err := sync.CheckoutOnline(ctx, req.buyer())
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (h *CheckoutHandler) WhatsApp(w http.ResponseWriter, r *http.Request) {
	sync := h.registry.For(getSessionFromContext(r.Context()), getStoreFromContext(r.Context()))

	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "missing_buyer_name", "buyer name is required")
		return
	}

	link, err := sync.CheckoutWhatsApp(ctx, req.buyer())
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, WhatsAppCheckoutResponseDTO{Link: link})
}
