package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/marketbay/storefront/internal/domain"
)

const (
	featuredProductsKey   = "featured-products"
	productDetailsKeyBase = "product-basic-details:"

	featuredPageSize = 10
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Cache abstracts the KV store so the service can be tested without Redis.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// SearchResult is the trimmed product view returned by catalog queries.
// Price is preformatted with two decimal places.
type SearchResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail"`
	Price     string `json:"price"`
}

type Service struct {
	repo   Repository
	cache  Cache
	logger zerolog.Logger
	sfg    singleflight.Group
}

func NewService(repo Repository, cache Cache, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (s *Service) Search(ctx context.Context, query string) ([]SearchResult, error) {
	products, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return toSearchResults(products), nil
}

// Featured returns the first page of in-stock products, served from the
// cache when possible. Concurrent misses for the same key share a single
// repository query.
func (s *Service) Featured(ctx context.Context) ([]SearchResult, error) {
	var cached []SearchResult
	if err := s.cache.Get(ctx, featuredProductsKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn().Err(err).Msg("featured products cache read failed")
	}

	v, err, _ := s.sfg.Do(featuredProductsKey, func() (any, error) {
		products, err := s.repo.ListInStock(ctx, featuredPageSize, 0)
		if err != nil {
			return nil, err
		}
		results := toSearchResults(products)
		if err := s.cache.Set(ctx, featuredProductsKey, results); err != nil {
			s.logger.Warn().Err(err).Msg("featured products cache write failed")
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]SearchResult), nil
}

func (s *Service) ListInStock(ctx context.Context, take, skip int) ([]SearchResult, error) {
	if take <= 0 || take > 100 {
		take = featuredPageSize
	}
	if skip < 0 {
		skip = 0
	}
	products, err := s.repo.ListInStock(ctx, take, skip)
	if err != nil {
		return nil, err
	}
	return toSearchResults(products), nil
}

// GetProduct is a read-through on the product details key.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	key := productDetailsKeyBase + id

	var cached domain.Product
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn().Err(err).Str("product_id", id).Msg("product cache read failed")
	}

	v, err, _ := s.sfg.Do(key, func() (any, error) {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, p); err != nil {
			s.logger.Warn().Err(err).Str("product_id", id).Msg("product cache write failed")
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// Create registers a product out of stock. Sellers flip availability once
// images and details are complete.
func (s *Service) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if p.Price < 0 {
		return nil, fmt.Errorf("product price cannot be negative")
	}
	p.Availability = domain.AvailabilityOutOfStock
	p.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, featuredProductsKey)
	return p, nil
}

func (s *Service) UpdatePrice(ctx context.Context, productID, userID string, price float64) error {
	if price < 0 {
		return fmt.Errorf("product price cannot be negative")
	}
	if err := s.repo.UpdatePrice(ctx, productID, userID, price); err != nil {
		return err
	}
	s.invalidate(ctx, featuredProductsKey, productDetailsKeyBase+productID)
	return nil
}

func (s *Service) UpdateDescription(ctx context.Context, productID, userID, description string) error {
	if err := s.repo.UpdateDescription(ctx, productID, userID, description); err != nil {
		return err
	}
	s.invalidate(ctx, productDetailsKeyBase+productID)
	return nil
}

func (s *Service) SetAvailability(ctx context.Context, productID string, availability domain.Availability) error {
	if availability != domain.AvailabilityInStock && availability != domain.AvailabilityOutOfStock {
		return fmt.Errorf("unknown availability %q", availability)
	}
	if err := s.repo.SetAvailability(ctx, productID, availability); err != nil {
		return err
	}
	s.invalidate(ctx, featuredProductsKey, productDetailsKeyBase+productID)
	return nil
}

// AddImages attaches images to an existing product. The lookup runs first
// so a missing product surfaces as ErrProductNotFound rather than an
// orphaned image row.
func (s *Service) AddImages(ctx context.Context, productID string, images []domain.ProductImage) error {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return err
	}
	for i := range images {
		images[i].ProductID = productID
	}
	if err := s.repo.AddImages(ctx, productID, images); err != nil {
		return err
	}
	s.invalidate(ctx, productDetailsKeyBase+productID)
	return nil
}

func (s *Service) Delete(ctx context.Context, productID, userID string) error {
	if err := s.repo.Delete(ctx, productID, userID); err != nil {
		return err
	}
	s.invalidate(ctx, featuredProductsKey, productDetailsKeyBase+productID)
	return nil
}

func (s *Service) AddReview(ctx context.Context, review *domain.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return ErrInvalidRating
	}
	if _, err := s.repo.GetByID(ctx, review.ProductID); err != nil {
		return err
	}
	review.CreatedAt = time.Now().UTC()
	return s.repo.CreateReview(ctx, review)
}

func (s *Service) ListReviews(ctx context.Context, productID string) ([]*domain.Review, error) {
	return s.repo.ListReviews(ctx, productID)
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

func toSearchResults(products []*domain.Product) []SearchResult {
	results := make([]SearchResult, 0, len(products))
	for _, p := range products {
		results = append(results, SearchResult{
			ID:        p.ID,
			Name:      p.Name,
			Thumbnail: p.Thumbnail,
			Price:     decimal.NewFromFloat(p.Price).StringFixed(2),
		})
	}
	return results
}
