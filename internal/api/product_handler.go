package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/storefront/internal/domain"
	"github.com/marketbay/storefront/internal/product"
)

type ProductService interface {
	Search(ctx context.Context, query string) ([]product.SearchResult, error)
	Featured(ctx context.Context) ([]product.SearchResult, error)
	ListInStock(ctx context.Context, take, skip int) ([]product.SearchResult, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	AddReview(ctx context.Context, review *domain.Review) error
	ListReviews(ctx context.Context, productID string) ([]*domain.Review, error)
}

type ProductHandler struct {
	products ProductService
	timeout  time.Duration
}

func NewProductHandler(products ProductService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

// ListProducts searches when a query is given and pages through in-stock
// products otherwise.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if query := r.URL.Query().Get("q"); query != "" {
		results, err := h.products.Search(ctx, query)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to search products")
			return
		}
		respondJSON(w, http.StatusOK, results)
		return
	}

	take, _ := strconv.Atoi(r.URL.Query().Get("take"))
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))

	results, err := h.products.ListInStock(ctx, take, skip)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list products")
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results, err := h.products.Featured(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load featured products")
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.products.GetProduct(ctx, chi.URLParam(r, "product_id"))
	if errors.Is(err, product.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load product")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

type AddReviewRequestDTO struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserID(r.Context())
	if userID == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddReviewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	review := &domain.Review{
		ProductID: chi.URLParam(r, "product_id"),
		UserID:    *userID,
		Rating:    req.Rating,
		Review:    req.Review,
	}
	err := h.products.AddReview(ctx, review)
	switch {
	case errors.Is(err, product.ErrInvalidRating):
		respondError(w, http.StatusBadRequest, "invalid_rating", "rating must be between 1 and 5")
	case errors.Is(err, product.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add review")
	default:
		respondJSON(w, http.StatusCreated, review)
	}
}

func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reviews, err := h.products.ListReviews(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list reviews")
		return
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	respondJSON(w, http.StatusOK, reviews)
}
