package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/marketbay/storefront/internal/checkout"
	"github.com/marketbay/storefront/internal/domain"
	"github.com/marketbay/storefront/internal/payment"
)

// CheckoutStore persists snapshots between the checkout call and order
// placement.
type CheckoutStore interface {
	Put(ctx context.Context, session *domain.CheckoutSession) error
	Take(ctx context.Context, id string) (*domain.CheckoutSession, error)
}

type CheckoutHandler struct {
	carts      CartService
	store      CheckoutStore
	gateway    payment.Gateway // optional
	successURL string
	cancelURL  string
	timeout    time.Duration
}

func NewCheckoutHandler(carts CartService, store CheckoutStore, gateway payment.Gateway, successURL, cancelURL string, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		carts:      carts,
		store:      store,
		gateway:    gateway,
		successURL: successURL,
		cancelURL:  cancelURL,
		timeout:    timeout,
	}
}

type CheckoutResponseDTO struct {
	CheckoutID string `json:"checkout_id"`
	HostedURL  string `json:"hosted_url,omitempty"`
}

// Checkout snapshots the current cart into a read-once session. When a
// payment gateway is configured it also opens a hosted payment page.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.GetCart(ctx, getSessionID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	session, err := checkout.BuildSession(cart)
	if errors.Is(err, checkout.ErrEmptyCart) {
		respondError(w, http.StatusBadRequest, "empty_cart", "cannot check out an empty cart")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to build checkout session")
		return
	}

	if err := h.store.Put(ctx, session); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to store checkout session")
		return
	}

	resp := CheckoutResponseDTO{CheckoutID: session.ID}
	if h.gateway != nil {
		hosted, err := h.gateway.CreateSession(ctx, session, h.successURL, h.cancelURL)
		if err != nil {
			respondError(w, http.StatusBadGateway, "payment_unavailable", "payment provider is unavailable")
			return
		}
		resp.HostedURL = hosted.URL
	}

	respondJSON(w, http.StatusCreated, resp)
}
