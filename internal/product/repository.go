package product

import (
	"context"
	"errors"

	"github.com/marketbay/storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	Search(ctx context.Context, query string) ([]*domain.Product, error)
	ListInStock(ctx context.Context, take, skip int) ([]*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	UpdatePrice(ctx context.Context, productID, userID string, price float64) error
	UpdateDescription(ctx context.Context, productID, userID string, description string) error
	SetAvailability(ctx context.Context, productID string, availability domain.Availability) error
	AddImages(ctx context.Context, productID string, images []domain.ProductImage) error
	Delete(ctx context.Context, productID, userID string) error
	CreateReview(ctx context.Context, review *domain.Review) error
	ListReviews(ctx context.Context, productID string) ([]*domain.Review, error)
}
