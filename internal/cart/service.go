package cart

import (
	"context"
	"errors"
	"time"

	"github.com/marketbay/storefront/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo   Repository
	cache  Cache
	logger zerolog.Logger
	sfg    singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cache Cache, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (s *Service) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("cache get error") // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errGet != nil && errors.Is(errGet, ErrCartNotFound) { // not found cart return empty cart
			return &domain.Cart{
				SessionID: sessionID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), sessionID, cart)
			if errSet != nil {
				s.logger.Warn().Err(errSet).Msg("cache set error")
			}
		}()

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem always succeeds in the business sense: an item that is already
// in the cart has its quantity incremented rather than being duplicated,
// and the cart is marked open as a side effect.
func (s *Service) AddItem(ctx context.Context, sessionID string, item domain.CartItem) error {
	errAdd := s.repo.AddItem(ctx, sessionID, item)
	if errAdd != nil {
		s.logger.Error().Err(errAdd).Msg("repo add item error")
		return errAdd
	}

	s.invalidateCache(sessionID)
	return nil
}

// UpdateQuantity sets an absolute quantity. A quantity of zero or below
// behaves exactly as RemoveItem. Unknown products are a no-op.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, productID)
	}

	errUpdate := s.repo.UpdateItemQuantity(ctx, sessionID, productID, quantity)
	if errUpdate != nil {
		if errors.Is(errUpdate, ErrItemNotFound) || errors.Is(errUpdate, ErrCartNotFound) {
			return nil
		}
		s.logger.Error().Err(errUpdate).Msg("repo update item quantity error")
		return errUpdate
	}

	s.invalidateCache(sessionID)
	return nil
}

// RemoveItem is a no-op when the product is not in the cart.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) error {
	errRemove := s.repo.RemoveItem(ctx, sessionID, productID)
	if errRemove != nil {
		if errors.Is(errRemove, ErrItemNotFound) || errors.Is(errRemove, ErrCartNotFound) {
			return nil
		}
		s.logger.Error().Err(errRemove).Msg("repo remove item error")
		return errRemove
	}

	s.invalidateCache(sessionID)
	return nil
}

// ClearCart empties the cart and resets the open flag; clearing an
// absent cart is not an error.
func (s *Service) ClearCart(ctx context.Context, sessionID string) error {
	errDelete := s.repo.DeleteCart(ctx, sessionID)
	if errDelete != nil {
		if errors.Is(errDelete, ErrCartNotFound) {
			return nil
		}
		s.logger.Error().Err(errDelete).Msg("repo delete cart error")
		return errDelete
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *Service) SetOpen(ctx context.Context, sessionID string, open bool) error {
	errSet := s.repo.SetOpen(ctx, sessionID, open)
	if errSet != nil {
		if errors.Is(errSet, ErrCartNotFound) {
			return nil
		}
		s.logger.Error().Err(errSet).Msg("repo set open error")
		return errSet
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *Service) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, sessionID)
	if errInvalidate != nil {
		s.logger.Warn().Err(errInvalidate).Msg("cache invalidate error")
	}
}
