package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketbay/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ExecTx runs fn inside a single transaction and rolls everything back
// if fn returns an error.
func (r *Repository) ExecTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) CreateAddress(ctx context.Context, addr *domain.Address) (string, error) {
	if addr.ID == "" {
		addr.ID = uuid.NewString()
	}

	query := `INSERT INTO addresses (id, first_name, last_name, phone, address, area, landmark, postal_code, country, state, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`

	_, err := t.tx.ExecContext(ctx, query,
		addr.ID,
		addr.FirstName,
		addr.LastName,
		addr.Phone,
		addr.Address,
		addr.Area,
		addr.Landmark,
		addr.PostalCode,
		addr.Country,
		addr.State)
	if err != nil {
		return "", fmt.Errorf("insert address: %w", err)
	}

	return addr.ID, nil
}

func (t *pgTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (id, user_id, address_id, total, payment_method, payment_order_id, payment_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`

	_, err := t.tx.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.AddressID,
		order.Total,
		order.PaymentMethod,
		order.PaymentOrderID,
		order.PaymentID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// FindProductIDByName resolves by exact, case-sensitive name match.
func (t *pgTx) FindProductIDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM products WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &ProductNotFoundError{Name: name}
	}
	if err != nil {
		return "", fmt.Errorf("query product by name: %w", err)
	}
	return id, nil
}

func (t *pgTx) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	query := `INSERT INTO order_items (id, order_id, product_id, quantity, price)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := t.tx.ExecContext(ctx, query,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.Quantity,
		item.Price)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (t *pgTx) InsertOutboxEvent(ctx context.Context, event *OutboxEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	query := `INSERT INTO outbox_events (id, aggregate_id, event_type, payload, processed, created_at)
	          VALUES ($1, $2, $3, $4, FALSE, NOW())`

	_, err := t.tx.ExecContext(ctx, query,
		event.ID,
		event.AggregateID,
		event.EventType,
		event.Payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id string) (*domain.Order, []domain.OrderItem, error) {
	query := `SELECT id, user_id, address_id, total, payment_method, payment_order_id, payment_id, created_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.AddressID,
		&order.Total,
		&order.PaymentMethod,
		&order.PaymentOrderID,
		&order.PaymentID,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query order by id: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, price FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &order, items, nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT id, user_id, address_id, total, payment_method, payment_order_id, payment_id, created_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.AddressID,
			&order.Total,
			&order.PaymentMethod,
			&order.PaymentOrderID,
			&order.PaymentID,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events WHERE processed = FALSE ORDER BY created_at LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var event OutboxEvent
		if err := rows.Scan(&event.ID, &event.AggregateID, &event.EventType, &event.Payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event as processed: %w", err)
	}
	return nil
}
