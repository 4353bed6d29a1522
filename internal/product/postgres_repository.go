package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketbay/storefront/internal/domain"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, user_id, category_id, name, description, short_description, tag, thumbnail, shipping_time, price, availability, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.CategoryID,
		&p.Name,
		&p.Description,
		&p.ShortDescription,
		&p.Tag,
		&p.Thumbnail,
		&p.ShippingTime,
		&p.Price,
		&p.Availability,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Search matches name, description, tag and category, case-insensitively.
func (r *postgresRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM products
		WHERE name ILIKE $1 OR description ILIKE $1 OR tag ILIKE $1 OR category_id ILIKE $1
		ORDER BY name`, productColumns), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *postgresRepository) ListInStock(ctx context.Context, take, skip int) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM products
		WHERE availability = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, productColumns), domain.AvailabilityInStock, take, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query in-stock products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]*domain.Product, error) {
	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns), id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return p, nil
}

func (r *postgresRepository) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	query := `INSERT INTO products (id, user_id, category_id, name, description, short_description, tag, thumbnail, shipping_time, price, availability, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.CategoryID,
		p.Name,
		p.Description,
		p.ShortDescription,
		p.Tag,
		p.Thumbnail,
		p.ShippingTime,
		p.Price,
		p.Availability)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpdatePrice is owner-scoped: only the user that created the product
// can reprice it.
func (r *postgresRepository) UpdatePrice(ctx context.Context, productID, userID string, price float64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET price = $1 WHERE id = $2 AND user_id = $3`, price, productID, userID)
	if err != nil {
		return fmt.Errorf("update product price: %w", err)
	}
	return requireRow(result)
}

func (r *postgresRepository) UpdateDescription(ctx context.Context, productID, userID string, description string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET description = $1 WHERE id = $2 AND user_id = $3`, description, productID, userID)
	if err != nil {
		return fmt.Errorf("update product description: %w", err)
	}
	return requireRow(result)
}

func (r *postgresRepository) SetAvailability(ctx context.Context, productID string, availability domain.Availability) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET availability = $1 WHERE id = $2`, availability, productID)
	if err != nil {
		return fmt.Errorf("update product availability: %w", err)
	}
	return requireRow(result)
}

func (r *postgresRepository) AddImages(ctx context.Context, productID string, images []domain.ProductImage) error {
	for _, img := range images {
		id := img.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO product_images (id, product_id, url, is_main) VALUES ($1, $2, $3, $4)`,
			id, productID, img.URL, img.IsMain)
		if err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, productID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1 AND user_id = $2`, productID, userID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireRow(result)
}

func (r *postgresRepository) CreateReview(ctx context.Context, review *domain.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}

	query := `INSERT INTO reviews (id, product_id, user_id, rating, review, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW())`

	_, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Review)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListReviews(ctx context.Context, productID string) ([]*domain.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, user_id, rating, review, created_at FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		rev := &domain.Review{}
		if err := rows.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating, &rev.Review, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return reviews, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
