package cart

import (
	"context"
	"errors"

	"github.com/marketbay/storefront/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// Repository is the durable backing store for carts, narrow enough that
// the merge/update/remove logic stays testable without a real database.
type Repository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	AddItem(ctx context.Context, sessionID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, sessionID, productID string, quantity int) error
	RemoveItem(ctx context.Context, sessionID, productID string) error
	SetOpen(ctx context.Context, sessionID string, open bool) error
	DeleteCart(ctx context.Context, sessionID string) error
}
