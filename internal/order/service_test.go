package order

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/storefront/internal/domain"
	"github.com/marketbay/storefront/internal/payment"
)

// fakeStore stages writes inside ExecTx and only commits them into the
// visible fields when the transaction function returns nil.
type fakeStore struct {
	products map[string]string // name -> id

	addresses []*domain.Address
	orders    []*domain.Order
	items     []*domain.OrderItem
	events    []*OutboxEvent
}

type fakeTx struct {
	store *fakeStore

	addresses []*domain.Address
	orders    []*domain.Order
	items     []*domain.OrderItem
	events    []*OutboxEvent
}

func (s *fakeStore) ExecTx(_ context.Context, fn func(Tx) error) error {
	tx := &fakeTx{store: s}
	if err := fn(tx); err != nil {
		return err // staged writes are discarded
	}
	s.addresses = append(s.addresses, tx.addresses...)
	s.orders = append(s.orders, tx.orders...)
	s.items = append(s.items, tx.items...)
	s.events = append(s.events, tx.events...)
	return nil
}

func (s *fakeStore) GetOrderByID(_ context.Context, id string) (*domain.Order, []domain.OrderItem, error) {
	for _, o := range s.orders {
		if o.ID == id {
			var items []domain.OrderItem
			for _, it := range s.items {
				if it.OrderID == id {
					items = append(items, *it)
				}
			}
			return o, items, nil
		}
	}
	return nil, nil, ErrOrderNotFound
}

func (s *fakeStore) ListOrdersByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range s.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) GetUnprocessedEvents(context.Context, int) ([]*OutboxEvent, error) {
	return s.events, nil
}

func (s *fakeStore) MarkEventAsProcessed(context.Context, string) error { return nil }

func (t *fakeTx) CreateAddress(_ context.Context, addr *domain.Address) (string, error) {
	addr.ID = uuid.NewString()
	t.addresses = append(t.addresses, addr)
	return addr.ID, nil
}

func (t *fakeTx) CreateOrder(_ context.Context, o *domain.Order) error {
	t.orders = append(t.orders, o)
	return nil
}

func (t *fakeTx) FindProductIDByName(_ context.Context, name string) (string, error) {
	if id, ok := t.store.products[name]; ok {
		return id, nil
	}
	return "", &ProductNotFoundError{Name: name}
}

func (t *fakeTx) CreateOrderItem(_ context.Context, item *domain.OrderItem) error {
	t.items = append(t.items, item)
	return nil
}

func (t *fakeTx) InsertOutboxEvent(_ context.Context, event *OutboxEvent) error {
	t.events = append(t.events, event)
	return nil
}

func validForm() domain.ShippingForm {
	return domain.ShippingForm{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Mobile:    "5551234567",
		PinCode:   "110011",
		Address:   "12 Analytical Way",
		Area:      "Midtown",
		Landmark:  "Opposite the clock tower",
		Country:   [2]string{"IN", "Delhi"},
	}
}

func validSession() *domain.CheckoutSession {
	return &domain.CheckoutSession{
		ID:       "chk-1",
		Currency: "usd",
		LineItems: []domain.LineItem{
			{ProductName: "Walnut Desk", UnitAmount: 1999, Quantity: 2},
		},
		Mode: domain.CheckoutModePayment,
	}
}

func signPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestService(store Store, secret string) *Service {
	var verifier *payment.SignatureVerifier
	if secret != "" {
		verifier = payment.NewSignatureVerifier(secret)
	}
	return NewService(store, verifier, zerolog.Nop())
}

func TestPlaceOrder_Success(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "")

	userID := "user-42"
	result, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: validSession(),
		UserID:  &userID,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.OrderID)

	require.Len(t, store.orders, 1)
	ord := store.orders[0]
	assert.Equal(t, result.OrderID, ord.ID)
	require.NotNil(t, ord.UserID)
	assert.Equal(t, "user-42", *ord.UserID)
	// 1999 minor units x 2, divided by 100 exactly once
	assert.InDelta(t, 39.98, ord.Total, 0.0001)

	require.Len(t, store.items, 1)
	assert.Equal(t, "prod-1", store.items[0].ProductID)
	assert.Equal(t, 2, store.items[0].Quantity)
	assert.InDelta(t, 19.99, store.items[0].Price, 0.0001)

	require.Len(t, store.addresses, 1)
	assert.Equal(t, "Ada", store.addresses[0].FirstName)
	assert.Equal(t, "IN", store.addresses[0].Country)
	assert.Equal(t, ord.AddressID, store.addresses[0].ID)
}

func TestPlaceOrder_GuestOrder(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "")

	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: validSession(),
		UserID:  nil,
	})
	require.NoError(t, err)
	require.Len(t, store.orders, 1)
	assert.Nil(t, store.orders[0].UserID)

	// The outbox payload marks the guest explicitly
	var payload struct {
		UserID *string `json:"user_id"`
	}
	require.Len(t, store.events, 1)
	require.NoError(t, json.Unmarshal(store.events[0].Payload, &payload))
	assert.Nil(t, payload.UserID)
}

func TestPlaceOrder_EmptySession(t *testing.T) {
	store := &fakeStore{}
	sut := newTestService(store, "")

	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: &domain.CheckoutSession{},
	})
	assert.ErrorIs(t, err, ErrInvalidOrderData)
	assert.Empty(t, store.orders)

	_, err = sut.PlaceOrder(context.Background(), &PlaceOrderRequest{Form: validForm()})
	assert.ErrorIs(t, err, ErrInvalidOrderData)
}

func TestPlaceOrder_InvalidForm_NoWrites(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "")

	form := validForm()
	form.Mobile = ""

	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    form,
		Session: validSession(),
	})
	assert.ErrorIs(t, err, ErrInvalidOrderData)
	assert.Empty(t, store.addresses)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.events)
}

func TestPlaceOrder_MissingCountry(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "")

	form := validForm()
	form.Country = [2]string{"", ""}

	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    form,
		Session: validSession(),
	})
	assert.ErrorIs(t, err, ErrInvalidOrderData)
	assert.Empty(t, store.orders)
}

func TestPlaceOrder_SignatureMismatch_NoWrites(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "real-secret")

	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: validSession(),
		Payment: &domain.PaymentDetails{
			OrderID:   "order_abc",
			PaymentID: "pay_xyz",
			Signature: signPayment("wrong-secret", "order_abc", "pay_xyz"),
		},
	})
	assert.ErrorIs(t, err, payment.ErrSignatureMismatch)
	assert.Empty(t, store.addresses)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
	assert.Empty(t, store.events)
}

func TestPlaceOrder_PaymentWithoutVerifier_FailsClosed(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "")

	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: validSession(),
		Payment: &domain.PaymentDetails{
			OrderID:   "order_abc",
			PaymentID: "pay_xyz",
			Signature: "totally-bogus-signature",
		},
	})
	assert.ErrorIs(t, err, ErrVerificationUnavailable)
	assert.Empty(t, store.addresses)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
	assert.Empty(t, store.events)
}

func TestPlaceOrder_NoPayment_NoVerifierNeeded(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "")

	result, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: validSession(),
	})
	require.NoError(t, err)
	require.Len(t, store.orders, 1)
	assert.Equal(t, result.OrderID, store.orders[0].ID)
	assert.Empty(t, store.orders[0].PaymentMethod)
}

func TestPlaceOrder_ValidSignature_RecordsPaymentFields(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "real-secret")

	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: validSession(),
		Payment: &domain.PaymentDetails{
			OrderID:   "order_abc",
			PaymentID: "pay_xyz",
			Signature: signPayment("real-secret", "order_abc", "pay_xyz"),
		},
	})
	require.NoError(t, err)
	require.Len(t, store.orders, 1)
	assert.Equal(t, "razorpay", store.orders[0].PaymentMethod)
	assert.Equal(t, "order_abc", store.orders[0].PaymentOrderID)
	assert.Equal(t, "pay_xyz", store.orders[0].PaymentID)
}

func TestPlaceOrder_UnknownProduct_RollsBackAll(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "")

	session := validSession()
	session.LineItems = append(session.LineItems, domain.LineItem{
		ProductName: "Discontinued Chair",
		UnitAmount:  500,
		Quantity:    1,
	})

	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: session,
	})

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Discontinued Chair", notFound.Name)

	// First item resolved fine, but nothing may survive the rollback
	assert.Empty(t, store.addresses)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
	assert.Empty(t, store.events)
}

func TestPlaceOrder_WritesOutboxEvent(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "")

	result, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: validSession(),
	})
	require.NoError(t, err)

	require.Len(t, store.events, 1)
	event := store.events[0]
	assert.Equal(t, EventTypeOrderPlaced, event.EventType)
	assert.Equal(t, result.OrderID, event.AggregateID)

	var payload struct {
		OrderID  string  `json:"order_id"`
		Total    float64 `json:"total"`
		Currency string  `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, result.OrderID, payload.OrderID)
	assert.InDelta(t, 39.98, payload.Total, 0.0001)
	assert.Equal(t, "usd", payload.Currency)
}

func TestPlaceOrder_MultipleItems_TotalSums(t *testing.T) {
	store := &fakeStore{products: map[string]string{
		"Walnut Desk": "prod-1",
		"Lamp":        "prod-2",
	}}
	sut := newTestService(store, "")

	session := validSession()
	session.LineItems = append(session.LineItems, domain.LineItem{
		ProductName: "Lamp",
		UnitAmount:  550,
		Quantity:    3,
	})

	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form:    validForm(),
		Session: session,
	})
	require.NoError(t, err)

	// 19.99*2 + 5.50*3
	require.Len(t, store.orders, 1)
	assert.InDelta(t, 56.48, store.orders[0].Total, 0.0001)
	assert.Len(t, store.items, 2)
}

func TestGetOrder_NotFound(t *testing.T) {
	store := &fakeStore{}
	sut := newTestService(store, "")

	_, _, err := sut.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders_FiltersByUser(t *testing.T) {
	store := &fakeStore{products: map[string]string{"Walnut Desk": "prod-1"}}
	sut := newTestService(store, "")

	alice := "alice"
	_, err := sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form: validForm(), Session: validSession(), UserID: &alice,
	})
	require.NoError(t, err)
	_, err = sut.PlaceOrder(context.Background(), &PlaceOrderRequest{
		Form: validForm(), Session: validSession(),
	})
	require.NoError(t, err)

	orders, err := sut.ListOrders(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	orders, err = sut.ListOrders(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, orders)
}
