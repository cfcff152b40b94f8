// Package http exposes the storefront surface consumed by the SPA shell:
// cart, checkout and catalog endpoints over a per-session synchronizer.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JoseEM26/StoreCollection-sub000/internal/cart"
)

type CartHandler struct {
	registry *SyncRegistry
	timeout  time.Duration
}

func NewCartHandler(registry *SyncRegistry, timeout time.Duration) *CartHandler {
	return &CartHandler{
		registry: registry,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

func (h *CartHandler) syncFor(r *http.Request) (*cart.Synchronizer, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	session := getSessionFromContext(r.Context())
	store := getStoreFromContext(r.Context())
	return h.registry.For(session, store), ctx, cancel
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sync, ctx, cancel := h.syncFor(r)
	defer cancel()

	if err := sync.Refresh(ctx); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sync.Snapshot())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sync, ctx, cancel := h.syncFor(r)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.VariantID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_variant_id", "variant_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	line, err := sync.AddLine(ctx, req.VariantID, req.Quantity)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, line)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sync, ctx, cancel := h.syncFor(r)
	defer cancel()

	lineIDStr := chi.URLParam(r, "lineID")
	lineID, err := strconv.ParseInt(lineIDStr, 10, 64)
	if err != nil || lineID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "lineID must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// quantity 0 means the stepper hit the floor: that is a deletion and
	// must go through DELETE, never an update.
	if req.Quantity == 0 {
		respondError(w, http.StatusBadRequest, "quantity_is_deletion", "quantity 0 removes the line; use DELETE")
		return
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}
	if req.VariantID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_variant_id", "variant_id must be positive")
		return
	}

	if err := sync.UpdateQuantity(ctx, lineID, req.Quantity, req.VariantID); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sync.Snapshot())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sync, ctx, cancel := h.syncFor(r)
	defer cancel()

	lineIDStr := chi.URLParam(r, "lineID")
	lineID, err := strconv.ParseInt(lineIDStr, 10, 64)
	if err != nil || lineID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "lineID must be a positive integer")
		return
	}

	if err := sync.RemoveLine(ctx, lineID); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sync.Snapshot())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sync, ctx, cancel := h.syncFor(r)
	defer cancel()

	if err := sync.Clear(ctx); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sync.Snapshot())
}
