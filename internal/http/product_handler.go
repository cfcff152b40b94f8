package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JoseEM26/StoreCollection-sub000/internal/catalog"
	"github.com/JoseEM26/StoreCollection-sub000/internal/domain"
)

// Catalog is the slice of the platform API the product endpoints need.
type Catalog interface {
	ListProducts(ctx context.Context, store int64) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(catalog Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

// ProductDetailDTO is the product detail payload, pre-chewed for the
// variant picker: choice groups, the default selection and the resolved
// variant, so the SPA renders without re-deriving them.
type ProductDetailDTO struct {
	Product           domain.Product           `json:"product"`
	AttributeGroups   []catalog.AttributeGroup `json:"attribute_groups"`
	Selected          map[string]string        `json:"selected"`
	ResolvedVariantID *int64                   `json:"resolved_variant_id"`
	ImageURL          string                   `json:"image_url"`
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	store := getStoreFromContext(r.Context())
	if store == 0 {
		respondError(w, http.StatusBadRequest, "missing_store", "no store selected")
		return
	}

	products, err := h.catalog.ListProducts(ctx, store)
	if err != nil {
		handleBackendError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id must be a positive integer")
		return
	}

	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		handleBackendError(w, err)
		return
	}

	resolver := catalog.NewResolver(*product)
	dto := ProductDetailDTO{
		Product:         *product,
		AttributeGroups: resolver.Groups(),
		Selected:        resolver.Selected(),
		ImageURL:        resolver.ImageURL(),
	}
	if v := resolver.Resolved(); v != nil {
		dto.ResolvedVariantID = &v.ID
	}

	respondJSON(w, http.StatusOK, dto)
}
