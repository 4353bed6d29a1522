package product

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/storefront/internal/domain"
)

type mockRepository struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	reviews  []*domain.Review
	err      error

	listCalls int
}

func newMockRepository(products ...*domain.Product) *mockRepository {
	m := &mockRepository{products: map[string]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockRepository) Search(_ context.Context, query string) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		if p.Name == query || p.Tag == query {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepository) ListInStock(_ context.Context, take, skip int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		if p.Availability == domain.AvailabilityInStock {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, ErrProductNotFound
}

func (m *mockRepository) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockRepository) UpdatePrice(_ context.Context, productID, userID string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.UserID != userID {
		return ErrProductNotFound
	}
	p.Price = price
	return nil
}

func (m *mockRepository) UpdateDescription(_ context.Context, productID, userID, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.UserID != userID {
		return ErrProductNotFound
	}
	p.Description = description
	return nil
}

func (m *mockRepository) SetAvailability(_ context.Context, productID string, availability domain.Availability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	p.Availability = availability
	return nil
}

func (m *mockRepository) AddImages(_ context.Context, productID string, images []domain.ProductImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[productID]; !ok {
		return ErrProductNotFound
	}
	return nil
}

func (m *mockRepository) Delete(_ context.Context, productID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.UserID != userID {
		return ErrProductNotFound
	}
	delete(m.products, productID)
	return nil
}

func (m *mockRepository) CreateReview(_ context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *mockRepository) ListReviews(_ context.Context, productID string) ([]*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

// mapCache is an in-memory stand-in for the Redis KV.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	raw, ok := c.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func inStockProduct(id, name string, price float64) *domain.Product {
	return &domain.Product{
		ID:           id,
		UserID:       "seller-1",
		Name:         name,
		Thumbnail:    "https://cdn.example.com/" + id + ".jpg",
		Price:        price,
		Availability: domain.AvailabilityInStock,
	}
}

func newTestService(repo Repository, cache Cache) *Service {
	return NewService(repo, cache, zerolog.Nop())
}

func TestSearch_FormatsPrices(t *testing.T) {
	repo := newMockRepository(inStockProduct("p1", "Walnut Desk", 19.9))
	sut := newTestService(repo, newMapCache())

	results, err := sut.Search(context.Background(), "Walnut Desk")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)
	// Prices are strings with two decimal places
	assert.Equal(t, "19.90", results[0].Price)
}

func TestFeatured_CachesResults(t *testing.T) {
	repo := newMockRepository(
		inStockProduct("p1", "Walnut Desk", 19.99),
		inStockProduct("p2", "Lamp", 5.00),
	)
	cache := newMapCache()
	sut := newTestService(repo, cache)

	first, err := sut.Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.True(t, cache.has(featuredProductsKey))
	assert.Equal(t, 1, repo.listCalls)

	// Second call is served from the cache
	second, err := sut.Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, 1, repo.listCalls)
}

func TestFeatured_RepoError(t *testing.T) {
	repo := newMockRepository()
	repo.err = fmt.Errorf("database error")
	sut := newTestService(repo, newMapCache())

	_, err := sut.Featured(context.Background())
	require.ErrorContains(t, err, "database error")
}

func TestGetProduct_ReadThrough(t *testing.T) {
	repo := newMockRepository(inStockProduct("p1", "Walnut Desk", 19.99))
	cache := newMapCache()
	sut := newTestService(repo, cache)

	p, err := sut.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Walnut Desk", p.Name)
	assert.True(t, cache.has(productDetailsKeyBase+"p1"))

	// Served from cache even after the repo copy changes
	repo.products["p1"].Name = "Renamed"
	p, err = sut.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Walnut Desk", p.Name)
}

func TestGetProduct_NotFound(t *testing.T) {
	sut := newTestService(newMockRepository(), newMapCache())

	_, err := sut.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreate_DefaultsToOutOfStock(t *testing.T) {
	repo := newMockRepository()
	sut := newTestService(repo, newMapCache())

	p, err := sut.Create(context.Background(), &domain.Product{
		ID:     "p1",
		UserID: "seller-1",
		Name:   "Walnut Desk",
		Price:  19.99,
		// Callers cannot force availability at creation
		Availability: domain.AvailabilityInStock,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilityOutOfStock, p.Availability)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestCreate_Invalid(t *testing.T) {
	sut := newTestService(newMockRepository(), newMapCache())

	_, err := sut.Create(context.Background(), &domain.Product{Name: ""})
	assert.Error(t, err)

	_, err = sut.Create(context.Background(), &domain.Product{Name: "Desk", Price: -1})
	assert.Error(t, err)
}

func TestUpdatePrice_OwnerScoped(t *testing.T) {
	repo := newMockRepository(inStockProduct("p1", "Walnut Desk", 19.99))
	cache := newMapCache()
	sut := newTestService(repo, cache)

	// Warm the caches first
	_, err := sut.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	_, err = sut.Featured(context.Background())
	require.NoError(t, err)

	err = sut.UpdatePrice(context.Background(), "p1", "seller-1", 24.99)
	require.NoError(t, err)
	assert.Equal(t, 24.99, repo.products["p1"].Price)

	// Both cached views were invalidated
	assert.False(t, cache.has(productDetailsKeyBase+"p1"))
	assert.False(t, cache.has(featuredProductsKey))

	// A different seller cannot touch the product
	err = sut.UpdatePrice(context.Background(), "p1", "other-seller", 1.00)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSetAvailability_RejectsUnknownValue(t *testing.T) {
	repo := newMockRepository(inStockProduct("p1", "Walnut Desk", 19.99))
	sut := newTestService(repo, newMapCache())

	err := sut.SetAvailability(context.Background(), "p1", "MAYBE")
	assert.Error(t, err)

	err = sut.SetAvailability(context.Background(), "p1", domain.AvailabilityOutOfStock)
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilityOutOfStock, repo.products["p1"].Availability)
}

func TestAddImages_RequiresExistingProduct(t *testing.T) {
	sut := newTestService(newMockRepository(), newMapCache())

	err := sut.AddImages(context.Background(), "missing", []domain.ProductImage{{URL: "x"}})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAddReview_ValidatesRating(t *testing.T) {
	repo := newMockRepository(inStockProduct("p1", "Walnut Desk", 19.99))
	sut := newTestService(repo, newMapCache())

	for _, rating := range []int{0, -1, 6} {
		err := sut.AddReview(context.Background(), &domain.Review{ProductID: "p1", Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating)
	}

	err := sut.AddReview(context.Background(), &domain.Review{
		ProductID: "p1",
		UserID:    "user-1",
		Rating:    5,
		Review:    "solid desk",
	})
	require.NoError(t, err)
	require.Len(t, repo.reviews, 1)
	assert.False(t, repo.reviews[0].CreatedAt.IsZero())
}

func TestAddReview_UnknownProduct(t *testing.T) {
	sut := newTestService(newMockRepository(), newMapCache())

	err := sut.AddReview(context.Background(), &domain.Review{ProductID: "missing", Rating: 4})
	assert.ErrorIs(t, err, ErrProductNotFound)
}
