package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marketbay/storefront/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// ProductNotFoundError is a referential failure: a checkout line item
// whose product name resolves to no catalog row at placement time.
type ProductNotFoundError struct {
	Name string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.Name)
}

// OutboxEvent is a pending domain event written in the same transaction
// as the state change it describes.
type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Tx is the set of writes available inside one placement transaction.
// A failure in any of them rolls back everything written so far, so a
// referential failure on item N leaves no orphaned Address/Order pair.
type Tx interface {
	CreateAddress(ctx context.Context, addr *domain.Address) (string, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	FindProductIDByName(ctx context.Context, name string) (string, error)
	CreateOrderItem(ctx context.Context, item *domain.OrderItem) error
	InsertOutboxEvent(ctx context.Context, event *OutboxEvent) error
}

type Store interface {
	ExecTx(ctx context.Context, fn func(Tx) error) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, []domain.OrderItem, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
}
