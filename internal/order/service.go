package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/marketbay/storefront/internal/domain"
	"github.com/marketbay/storefront/internal/payment"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOrderData        = errors.New("invalid order data")
	ErrVerificationUnavailable = errors.New("payment verification is not configured")
)

const (
	paymentMethodRazorpay = "razorpay"

	EventTypeOrderPlaced = "order.placed"
)

type PlaceOrderRequest struct {
	Form    domain.ShippingForm
	Session *domain.CheckoutSession
	UserID  *string // nil places a guest order
	Payment *domain.PaymentDetails
}

type PlaceOrderResult struct {
	OrderID string
}

type Service struct {
	store    Store
	verifier *payment.SignatureVerifier
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(store Store, verifier *payment.SignatureVerifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		validate: validator.New(),
		logger:   logger,
	}
}

// PlaceOrder persists an address, an order and its line items in one
// transaction. Validation and payment-signature failures abort before
// any write; a referential failure rolls the whole placement back.
func (s *Service) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResult, error) {
	if req.Session == nil || len(req.Session.LineItems) == 0 {
		return nil, fmt.Errorf("%w: empty checkout session", ErrInvalidOrderData)
	}

	if err := s.validate.Struct(req.Form); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrderData, err)
	}
	if req.Form.Country[0] == "" {
		return nil, fmt.Errorf("%w: country is required", ErrInvalidOrderData)
	}

	// Payment details without a verifier cannot be trusted, so placement
	// fails closed rather than recording an unchecked payment.
	if req.Payment != nil {
		if s.verifier == nil {
			return nil, ErrVerificationUnavailable
		}
		if err := s.verifier.Verify(req.Payment.OrderID, req.Payment.PaymentID, req.Payment.Signature); err != nil {
			return nil, err
		}
	}

	total := decimal.Zero
	for _, item := range req.Session.LineItems {
		total = total.Add(decimal.NewFromInt(item.UnitAmount).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	// minor units to major, divided exactly once
	total = total.Div(decimal.NewFromInt(100))

	orderID := uuid.NewString()

	err := s.store.ExecTx(ctx, func(tx Tx) error {
		addressID, err := tx.CreateAddress(ctx, addressFromForm(&req.Form))
		if err != nil {
			return err
		}

		ord := &domain.Order{
			ID:        orderID,
			UserID:    req.UserID,
			AddressID: addressID,
			Total:     total.InexactFloat64(),
		}
		if req.Payment != nil {
			ord.PaymentMethod = paymentMethodRazorpay
			ord.PaymentOrderID = req.Payment.OrderID
			ord.PaymentID = req.Payment.PaymentID
		}
		if err := tx.CreateOrder(ctx, ord); err != nil {
			return err
		}

		for _, item := range req.Session.LineItems {
			productID, err := tx.FindProductIDByName(ctx, item.ProductName)
			if err != nil {
				return err
			}

			price := decimal.NewFromInt(item.UnitAmount).Div(decimal.NewFromInt(100))
			if err := tx.CreateOrderItem(ctx, &domain.OrderItem{
				OrderID:   orderID,
				ProductID: productID,
				Quantity:  item.Quantity,
				Price:     price.InexactFloat64(),
			}); err != nil {
				return err
			}
		}

		payload, err := json.Marshal(orderPlacedPayload{
			OrderID:  orderID,
			UserID:   req.UserID,
			Total:    total.InexactFloat64(),
			Currency: req.Session.Currency,
			PlacedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("marshal order placed payload: %w", err)
		}

		return tx.InsertOutboxEvent(ctx, &OutboxEvent{
			AggregateID: orderID,
			EventType:   EventTypeOrderPlaced,
			Payload:     payload,
		})
	})
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("order placement failed")
		return nil, err
	}

	return &PlaceOrderResult{OrderID: orderID}, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, []domain.OrderItem, error) {
	return s.store.GetOrderByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

type orderPlacedPayload struct {
	OrderID  string    `json:"order_id"`
	UserID   *string   `json:"user_id"`
	Total    float64   `json:"total"`
	Currency string    `json:"currency"`
	PlacedAt time.Time `json:"placed_at"`
}

func addressFromForm(form *domain.ShippingForm) *domain.Address {
	return &domain.Address{
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Phone:      form.Mobile,
		Address:    form.Address,
		Area:       form.Area,
		Landmark:   form.Landmark,
		PostalCode: form.PinCode,
		Country:    form.Country[0],
		State:      form.Country[1],
	}
}
