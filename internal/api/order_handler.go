package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/storefront/internal/checkout"
	"github.com/marketbay/storefront/internal/domain"
	"github.com/marketbay/storefront/internal/order"
	"github.com/marketbay/storefront/internal/payment"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req *order.PlaceOrderRequest) (*order.PlaceOrderResult, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, []domain.OrderItem, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

type OrderHandler struct {
	orders  OrderService
	store   CheckoutStore
	carts   CartService
	timeout time.Duration
}

func NewOrderHandler(orders OrderService, store CheckoutStore, carts CartService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		store:   store,
		carts:   carts,
		timeout: timeout,
	}
}

type PlaceOrderRequestDTO struct {
	CheckoutID string                 `json:"checkout_id"`
	Form       domain.ShippingForm    `json:"form"`
	Payment    *domain.PaymentDetails `json:"payment,omitempty"`
}

type PlaceOrderResponseDTO struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CheckoutID == "" {
		respondError(w, http.StatusBadRequest, "invalid_checkout_id", "checkout_id is required")
		return
	}

	// Consuming the snapshot is destructive, so every failure after this
	// point means the shopper has to check out again.
	session, err := h.store.Take(ctx, req.CheckoutID)
	if errors.Is(err, checkout.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "checkout_not_found", "checkout session not found or already used")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load checkout session")
		return
	}

	result, err := h.orders.PlaceOrder(ctx, &order.PlaceOrderRequest{
		Form:    req.Form,
		Session: session,
		UserID:  getUserID(r.Context()),
		Payment: req.Payment,
	})
	if err != nil {
		handleOrderError(w, err)
		return
	}

	// Best effort. The order is already placed; a stale cart self-heals
	// on the next write.
	_ = h.carts.ClearCart(ctx, getSessionID(r.Context()))

	respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{
		Success: true,
		OrderID: result.OrderID,
	})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	ord, items, err := h.orders.GetOrder(ctx, orderID)
	if errors.Is(err, order.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order")
		return
	}

	userID := getUserID(r.Context())
	if ord.UserID != nil && (userID == nil || *userID != *ord.UserID) {
		respondError(w, http.StatusForbidden, "permission_denied", "order belongs to another user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"order": ord,
		"items": items,
	})
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserID(r.Context())
	if userID == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrders(ctx, *userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

func handleOrderError(w http.ResponseWriter, err error) {
	var notFound *order.ProductNotFoundError
	switch {
	case errors.Is(err, order.ErrInvalidOrderData):
		respondError(w, http.StatusBadRequest, "invalid_order", err.Error())
	case errors.Is(err, payment.ErrSignatureMismatch):
		respondError(w, http.StatusBadRequest, "signature_mismatch", "payment signature verification failed")
	case errors.Is(err, order.ErrVerificationUnavailable):
		respondError(w, http.StatusServiceUnavailable, "payment_unavailable", "payment verification is not configured")
	case errors.As(err, &notFound):
		respondError(w, http.StatusUnprocessableEntity, "product_not_found", notFound.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to place order")
	}
}
