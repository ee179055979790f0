package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/imperionite/fm-core/internal/cache"
	"github.com/imperionite/fm-core/internal/catalog"
	"github.com/imperionite/fm-core/internal/domain"
	"github.com/imperionite/fm-core/internal/repository"
)

type CartService interface {
	GetCart(ctx context.Context, user *domain.User) (*domain.Cart, error)
	AddItem(ctx context.Context, user *domain.User, serviceID string) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, user *domain.User, serviceID string) error
	ClearCart(ctx context.Context, user *domain.User) error
}

type catalogClient interface {
	FetchService(ctx context.Context, serviceID string) (*catalog.Service, error)
}

type cartService struct {
	users   repository.UserRepository
	carts   repository.CartRepository
	catalog catalogClient
	cache   cache.Store
	logger  *zap.Logger
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCartService(
	users repository.UserRepository,
	carts repository.CartRepository,
	catalog catalogClient,
	store cache.Store,
	logger *zap.Logger,
) CartService {
	return &cartService{
		users:   users,
		carts:   carts,
		catalog: catalog,
		cache:   store,
		logger:  logger,
	}
}

func (s *cartService) GetCart(ctx context.Context, user *domain.User) (*domain.Cart, error) {
	key := cache.CartKey(user.ID)

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		if data, errGet := s.cache.Get(ctx, key); errGet == nil {
			var cart domain.Cart
			if err2 := json.Unmarshal(data, &cart); err2 == nil {
				return &cart, nil
			}
			s.logger.Warn("dropping undecodable cart cache entry", zap.String("key", key))
		} else if !errors.Is(errGet, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.String("key", key), zap.Error(errGet))
		}

		if errEnsure := s.users.EnsureUser(ctx, user); errEnsure != nil {
			return nil, errEnsure
		}

		cart, errCart := s.carts.GetOrCreateCart(ctx, user.ID)
		if errCart != nil {
			return nil, errCart
		}

		cacheSet(ctx, s.cache, s.logger, key, cart, cache.CartTTL)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

func (s *cartService) AddItem(ctx context.Context, user *domain.User, serviceID string) (*domain.CartItem, error) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return nil, ErrMissingServiceID
	}

	if err := s.users.EnsureUser(ctx, user); err != nil {
		return nil, err
	}
	cart, err := s.carts.GetOrCreateCart(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	// Catalog failure aborts the add; nothing has been written yet.
	svc, err := s.catalog.FetchService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		ServiceID:   serviceID,
		ServiceName: svc.Name,
		Price:       svc.Price,
	}
	if err := s.carts.AddCartItem(ctx, cart.ID, item); err != nil {
		if errors.Is(err, repository.ErrDuplicateItem) {
			return nil, ErrDuplicateItem
		}
		return nil, err
	}

	invalidate(s.cache, s.logger, cache.CartKey(user.ID))
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, user *domain.User, serviceID string) error {
	cart, err := s.carts.GetCartByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return ErrCartNotFound
		}
		return err
	}

	if err := s.carts.RemoveCartItem(ctx, cart.ID, serviceID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return ErrItemNotFound
		}
		return err
	}

	invalidate(s.cache, s.logger, cache.CartKey(user.ID))
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, user *domain.User) error {
	cart, err := s.carts.GetCartByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return ErrCartNotFound
		}
		return err
	}

	// idempotent: clearing an already-empty cart is a no-op
	if err := s.carts.ClearCartItems(ctx, cart.ID); err != nil {
		return err
	}

	invalidate(s.cache, s.logger, cache.CartKey(user.ID))
	return nil
}

func cacheSet(ctx context.Context, store cache.Store, logger *zap.Logger, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := store.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate deletes cache entries after the durable write committed. It is
// best-effort: a failed delete only widens the staleness window up to the TTL.
func invalidate(store cache.Store, logger *zap.Logger, keys ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			logger.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
		}
	}
}
