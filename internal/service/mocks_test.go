package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imperionite/fm-core/internal/cache"
	"github.com/imperionite/fm-core/internal/catalog"
	"github.com/imperionite/fm-core/internal/domain"
	"github.com/imperionite/fm-core/internal/notify"
	"github.com/imperionite/fm-core/internal/repository"
)

// memStore is an in-memory cache.Store so tests can assert on exactly which
// keys were populated and invalidated.
type memStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	deletes []string
}

func newMemStore() *memStore {
	return &memStore{entries: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.deletes = append(m.deletes, key)
	return nil
}

func (m *memStore) has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok
}

type mockUserRepo struct {
	mu    sync.RWMutex
	users map[int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[int64]*domain.User{}}
}

func (m *mockUserRepo) EnsureUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := *user
	m.users[user.ID] = &u
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

// mockCartRepo keys carts by user ID and reuses it as the cart ID.
type mockCartRepo struct {
	mu         sync.RWMutex
	carts      map[int64]*domain.Cart
	nextItemID int64
	getCalls   int
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: map[int64]*domain.Cart{}}
}

func (m *mockCartRepo) GetOrCreateCart(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if cart, ok := m.carts[userID]; ok {
		c := *cart
		return &c, nil
	}
	cart := &domain.Cart{ID: userID, UserID: userID, CreatedAt: time.Now(), Items: []domain.CartItem{}}
	m.carts[userID] = cart
	c := *cart
	return &c, nil
}

func (m *mockCartRepo) GetCartByUserID(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	cart, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	c := *cart
	c.Items = append([]domain.CartItem(nil), cart.Items...)
	return &c, nil
}

func (m *mockCartRepo) AddCartItem(_ context.Context, cartID int64, item *domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for _, existing := range cart.Items {
		if existing.ServiceID == item.ServiceID {
			return repository.ErrDuplicateItem
		}
	}
	m.nextItemID++
	item.ID = m.nextItemID
	item.AddedAt = time.Now()
	cart.Items = append(cart.Items, *item)
	return nil
}

func (m *mockCartRepo) RemoveCartItem(_ context.Context, cartID int64, serviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for i, item := range cart.Items {
		if item.ServiceID == serviceID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockCartRepo) ClearCartItems(_ context.Context, cartID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cart, ok := m.carts[cartID]; ok {
		cart.Items = []domain.CartItem{}
	}
	return nil
}

func (m *mockCartRepo) itemCount(userID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if cart, ok := m.carts[userID]; ok {
		return len(cart.Items)
	}
	return 0
}

type mockCatalog struct {
	mu       sync.RWMutex
	services map[string]*catalog.Service
	calls    int
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{services: map[string]*catalog.Service{}}
}

func (m *mockCatalog) FetchService(_ context.Context, serviceID string) (*catalog.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	svc, ok := m.services[serviceID]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return svc, nil
}

// mockOrderRepo shares the cart repo so CreateOrderFromCart can clear the
// cart the way the real transaction does.
type mockOrderRepo struct {
	mu        sync.RWMutex
	carts     *mockCartRepo
	orders    map[uuid.UUID]*domain.Order
	payments  map[uuid.UUID]*domain.Payment
	listCalls int
	getCalls  int
}

func newMockOrderRepo(carts *mockCartRepo) *mockOrderRepo {
	return &mockOrderRepo{
		carts:    carts,
		orders:   map[uuid.UUID]*domain.Order{},
		payments: map[uuid.UUID]*domain.Payment{},
	}
}

func (m *mockOrderRepo) CreateOrderFromCart(ctx context.Context, order *domain.Order, cartID int64) error {
	m.mu.Lock()
	o := *order
	o.Items = append([]domain.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &o
	m.mu.Unlock()
	return m.carts.ClearCartItems(ctx, cartID)
}

func (m *mockOrderRepo) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o := *order
	o.Items = append([]domain.OrderItem(nil), order.Items...)
	return &o, nil
}

func (m *mockOrderRepo) ListOrdersByUserID(_ context.Context, userID int64) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var orders []*domain.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			o := *order
			orders = append(orders, &o)
		}
	}
	sortOrders(orders)
	return orders, nil
}

func (m *mockOrderRepo) ListAllOrders(_ context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var orders []*domain.Order
	for _, order := range m.orders {
		o := *order
		orders = append(orders, &o)
	}
	sortOrders(orders)
	return orders, nil
}

func (m *mockOrderRepo) UpdateOrderStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepo) CreatePayment(_ context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payments[payment.OrderID]; exists {
		return repository.ErrDuplicatePayment
	}
	p := *payment
	m.payments[payment.OrderID] = &p
	if order, ok := m.orders[payment.OrderID]; ok {
		order.Status = domain.OrderStatusPaid
	}
	return nil
}

func (m *mockOrderRepo) GetPaymentByOrderID(_ context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	p := *payment
	return &p, nil
}

func sortOrders(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderedAt.After(orders[j].OrderedAt)
	})
}

type mockQueue struct {
	mu    sync.Mutex
	tasks []notify.Task
	err   error
}

func (m *mockQueue) Enqueue(task notify.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockQueue) enqueued() []notify.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Task(nil), m.tasks...)
}
