package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/imperionite/fm-core/internal/cache"
	"github.com/imperionite/fm-core/internal/domain"
	"github.com/imperionite/fm-core/internal/notify"
	"github.com/imperionite/fm-core/internal/repository"
)

type OrderService interface {
	Checkout(ctx context.Context, user *domain.User) (*domain.Order, error)
	Pay(ctx context.Context, user *domain.User, orderID uuid.UUID, method domain.PaymentMethod, referenceID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, user *domain.User, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	ListOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error)
	GetOrder(ctx context.Context, user *domain.User, orderID uuid.UUID) (*domain.Order, error)
}

type orderService struct {
	users  repository.UserRepository
	carts  repository.CartRepository
	orders repository.OrderRepository
	cache  cache.Store
	queue  notify.Queue
	logger *zap.Logger
	sfg    singleflight.Group
}

func NewOrderService(
	users repository.UserRepository,
	carts repository.CartRepository,
	orders repository.OrderRepository,
	store cache.Store,
	queue notify.Queue,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		users:  users,
		carts:  carts,
		orders: orders,
		cache:  store,
		queue:  queue,
		logger: logger,
	}
}

func (s *orderService) Checkout(ctx context.Context, user *domain.User) (*domain.Order, error) {
	cart, err := s.carts.GetCartByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	order := domain.NewOrderFromCart(user.ID, cart)
	if err := s.orders.CreateOrderFromCart(ctx, order, cart.ID); err != nil {
		return nil, err
	}

	s.logger.Info("checkout completed",
		zap.String("order_id", order.ID.String()),
		zap.Int64("user_id", user.ID),
		zap.String("total", order.TotalPrice.StringFixed(2)))

	invalidate(s.cache, s.logger, cache.CartKey(user.ID), cache.OrderListKey(user.ID))
	return order, nil
}

func (s *orderService) Pay(ctx context.Context, user *domain.User, orderID uuid.UUID, method domain.PaymentMethod, referenceID string) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if domain.RoleFor(user, order) == domain.RoleNone {
		return nil, ErrPermissionDenied
	}
	if order.Status != domain.OrderStatusConfirmed {
		return nil, ErrOrderNotPayable
	}
	if !domain.ValidPaymentMethod(method) {
		return nil, ErrInvalidMethod
	}

	// Amount is captured from the order total, not re-summed from line
	// items, so a concurrent mutation cannot skew the charge.
	payment := &domain.Payment{
		ID:          uuid.New(),
		OrderID:     order.ID,
		Method:      method,
		Amount:      order.TotalPrice,
		ReferenceID: referenceID,
		PaidAt:      time.Now().UTC(),
	}
	if err := s.orders.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			return nil, ErrOrderNotPayable
		}
		return nil, err
	}
	order.Status = domain.OrderStatusPaid

	s.logger.Info("order paid",
		zap.String("order_id", order.ID.String()),
		zap.String("method", string(method)),
		zap.String("amount", payment.Amount.StringFixed(2)))

	invalidate(s.cache, s.logger,
		cache.OrderKey(order.ID),
		cache.OrderListKey(order.UserID),
		cache.OrderListKey(user.ID))

	s.dispatchNotification(ctx, order)
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, user *domain.User, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	role := domain.RoleFor(user, order)
	if err := domain.CanTransition(role, order.Status, status); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateOrderStatus(ctx, order.ID, status); err != nil {
		return nil, err
	}
	order.Status = status

	s.logger.Info("order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(status)),
		zap.Int64("by_user", user.ID))

	invalidate(s.cache, s.logger,
		cache.OrderKey(order.ID),
		cache.OrderListKey(order.UserID),
		cache.OrderListKey(user.ID))
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	key := cache.OrderListKey(user.ID)

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		if data, errGet := s.cache.Get(ctx, key); errGet == nil {
			var orders []*domain.Order
			if err2 := json.Unmarshal(data, &orders); err2 == nil {
				return orders, nil
			}
			s.logger.Warn("dropping undecodable order list cache entry", zap.String("key", key))
		} else if !errors.Is(errGet, cache.ErrCacheMiss) {
			s.logger.Warn("order list cache get failed", zap.String("key", key), zap.Error(errGet))
		}

		var orders []*domain.Order
		var errList error
		if user.Staff {
			orders, errList = s.orders.ListAllOrders(ctx)
		} else {
			orders, errList = s.orders.ListOrdersByUserID(ctx, user.ID)
		}
		if errList != nil {
			return nil, errList
		}

		cacheSet(ctx, s.cache, s.logger, key, orders, cache.OrderListTTL)
		return orders, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Order), nil
}

func (s *orderService) GetOrder(ctx context.Context, user *domain.User, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Object-level authorization: non-owners see the same 404 as a missing
	// order, so order IDs cannot be probed.
	if domain.RoleFor(user, order) == domain.RoleNone {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// getOrder is the cached lookup shared by every order operation. The
// authorization decision always happens on the caller side, whether the
// order came from cache or from postgres.
func (s *orderService) getOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	key := cache.OrderKey(orderID)

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		if data, errGet := s.cache.Get(ctx, key); errGet == nil {
			var order domain.Order
			if err2 := json.Unmarshal(data, &order); err2 == nil {
				return &order, nil
			}
			s.logger.Warn("dropping undecodable order cache entry", zap.String("key", key))
		} else if !errors.Is(errGet, cache.ErrCacheMiss) {
			s.logger.Warn("order cache get failed", zap.String("key", key), zap.Error(errGet))
		}

		order, errGet := s.orders.GetOrderByID(ctx, orderID)
		if errGet != nil {
			if errors.Is(errGet, repository.ErrOrderNotFound) {
				return nil, ErrOrderNotFound
			}
			return nil, errGet
		}

		cacheSet(ctx, s.cache, s.logger, key, order, cache.OrderTTL)
		return order, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Order), nil
}

// dispatchNotification hands the confirmation off to the queue. The payment
// is already committed; a full queue or missing owner row only costs the
// email, never the payment.
func (s *orderService) dispatchNotification(ctx context.Context, order *domain.Order) {
	owner, err := s.users.GetUserByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("owner lookup for notification failed",
			zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}

	items := make([]notify.TaskItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, notify.TaskItem{Name: item.ServiceName, Price: item.Price})
	}

	task := notify.Task{
		Email:   owner.Email,
		OrderID: order.ID,
		Items:   items,
		Total:   order.TotalPrice,
	}
	if err := s.queue.Enqueue(task); err != nil {
		s.logger.Error("payment notification enqueue failed",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}
