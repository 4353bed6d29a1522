package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/storefront/internal/domain"
	"github.com/marketbay/storefront/internal/product"
)

// CatalogAdmin covers the seller-facing catalog mutations.
type CatalogAdmin interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	UpdatePrice(ctx context.Context, productID, userID string, price float64) error
	UpdateDescription(ctx context.Context, productID, userID, description string) error
	SetAvailability(ctx context.Context, productID string, availability domain.Availability) error
	AddImages(ctx context.Context, productID string, images []domain.ProductImage) error
	Delete(ctx context.Context, productID, userID string) error
}

type AdminHandler struct {
	catalog CatalogAdmin
	timeout time.Duration
}

func NewAdminHandler(catalog CatalogAdmin, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type CreateProductRequestDTO struct {
	CategoryID       string  `json:"category_id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	ShortDescription string  `json:"short_description"`
	Tag              string  `json:"tag"`
	Thumbnail        string  `json:"thumbnail"`
	ShippingTime     string  `json:"shipping_time"`
	Price            float64 `json:"price"`
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	userID := getUserID(r.Context())
	p, err := h.catalog.Create(ctx, &domain.Product{
		UserID:           *userID,
		CategoryID:       req.CategoryID,
		Name:             req.Name,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Tag:              req.Tag,
		Thumbnail:        req.Thumbnail,
		ShippingTime:     req.ShippingTime,
		Price:            req.Price,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

func (h *AdminHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.catalog.UpdatePrice(ctx, chi.URLParam(r, "product_id"), *getUserID(r.Context()), req.Price)
	h.respondMutation(w, err)
}

func (h *AdminHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.catalog.UpdateDescription(ctx, chi.URLParam(r, "product_id"), *getUserID(r.Context()), req.Description)
	h.respondMutation(w, err)
}

func (h *AdminHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req struct {
		Availability domain.Availability `json:"availability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.catalog.SetAvailability(ctx, chi.URLParam(r, "product_id"), req.Availability)
	h.respondMutation(w, err)
}

func (h *AdminHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req struct {
		Images []domain.ProductImage `json:"images"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(req.Images) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "at least one image is required")
		return
	}

	err := h.catalog.AddImages(ctx, chi.URLParam(r, "product_id"), req.Images)
	h.respondMutation(w, err)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err := h.catalog.Delete(ctx, chi.URLParam(r, "product_id"), *getUserID(r.Context()))
	h.respondMutation(w, err)
}

func (h *AdminHandler) respondMutation(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, product.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
	}
}
