package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/imperionite/fm-core/internal/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func seedUser(t *testing.T, repo *Repository, id int64, staff bool) *domain.User {
	user := &domain.User{ID: id, Email: uuid.NewString() + "@example.com", Staff: staff}
	require.NoError(t, repo.EnsureUser(context.Background(), user))
	return user
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGetOrCreateCart_Idempotent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, 1, false)

	first, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)

	second, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.Items)
}

func TestAddCartItem_DuplicateService(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, 1, false)
	cart, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)

	item := &domain.CartItem{ServiceID: "svc-1", ServiceName: "Premium Plan", Price: price("999.99")}
	require.NoError(t, repo.AddCartItem(ctx, cart.ID, item))
	assert.NotZero(t, item.ID)
	assert.False(t, item.AddedAt.IsZero())

	dup := &domain.CartItem{ServiceID: "svc-1", ServiceName: "Premium Plan", Price: price("999.99")}
	err = repo.AddCartItem(ctx, cart.ID, dup)
	assert.ErrorIs(t, err, ErrDuplicateItem)

	cart, err = repo.GetCartByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestRemoveCartItem_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, 1, false)
	cart, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)

	err = repo.RemoveCartItem(ctx, cart.ID, "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestGetCartByUserID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedUser(t, repo, 1, false)
	_, err := repo.GetCartByUserID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCreateOrderFromCart_Atomic(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, 1, false)
	cart, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, repo.AddCartItem(ctx, cart.ID, &domain.CartItem{
		ServiceID: "svc-1", ServiceName: "Premium Plan", Price: price("999.99")}))
	require.NoError(t, repo.AddCartItem(ctx, cart.ID, &domain.CartItem{
		ServiceID: "svc-2", ServiceName: "Basic Plan", Price: price("100.00")}))

	cart, err = repo.GetCartByUserID(ctx, 1)
	require.NoError(t, err)

	order := domain.NewOrderFromCart(1, cart)
	require.NoError(t, repo.CreateOrderFromCart(ctx, order, cart.ID))

	// order persisted with its items and total
	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, fetched.Status)
	require.Len(t, fetched.Items, 2)
	assert.True(t, fetched.TotalPrice.Equal(price("1099.99")))

	// and the cart was cleared in the same transaction
	cart, err = repo.GetCartByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCreatePayment_AdvancesOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, 1, false)
	cart, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, repo.AddCartItem(ctx, cart.ID, &domain.CartItem{
		ServiceID: "svc-1", ServiceName: "Premium Plan", Price: price("999.99")}))

	cart, err = repo.GetCartByUserID(ctx, 1)
	require.NoError(t, err)
	order := domain.NewOrderFromCart(1, cart)
	require.NoError(t, repo.CreateOrderFromCart(ctx, order, cart.ID))

	payment := &domain.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Method:  domain.PaymentMethodMaya,
		Amount:  order.TotalPrice,
		PaidAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.CreatePayment(ctx, payment))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, fetched.Status)

	stored, err := repo.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(price("999.99")))
	assert.Equal(t, domain.PaymentMethodMaya, stored.Method)
	assert.Empty(t, stored.ReferenceID)

	// one payment per order
	dup := &domain.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Method:  domain.PaymentMethodCard,
		Amount:  order.TotalPrice,
		PaidAt:  time.Now().UTC(),
	}
	err = repo.CreatePayment(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicatePayment)
}

func TestListOrdersByUserID_SortedDesc(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, 1, false)
	seedUser(t, repo, 2, false)

	mkOrder := func(userID int64, orderedAt time.Time) uuid.UUID {
		cart, err := repo.GetOrCreateCart(ctx, userID)
		require.NoError(t, err)
		require.NoError(t, repo.AddCartItem(ctx, cart.ID, &domain.CartItem{
			ServiceID: uuid.NewString(), ServiceName: "Plan", Price: price("10.00")}))
		cart, err = repo.GetCartByUserID(ctx, userID)
		require.NoError(t, err)
		order := domain.NewOrderFromCart(userID, cart)
		order.OrderedAt = orderedAt
		require.NoError(t, repo.CreateOrderFromCart(ctx, order, cart.ID))
		return order.ID
	}

	older := mkOrder(1, time.Now().UTC().Add(-time.Hour))
	newer := mkOrder(1, time.Now().UTC())
	mkOrder(2, time.Now().UTC())

	mine, err := repo.ListOrdersByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer, mine[0].ID)
	assert.Equal(t, older, mine[1].ID)
	require.Len(t, mine[0].Items, 1)

	all, err := repo.ListAllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateOrderStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedUser(t, repo, 1, false)
	cart, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, repo.AddCartItem(ctx, cart.ID, &domain.CartItem{
		ServiceID: "svc-1", ServiceName: "Plan", Price: price("10.00")}))
	cart, err = repo.GetCartByUserID(ctx, 1)
	require.NoError(t, err)
	order := domain.NewOrderFromCart(1, cart)
	require.NoError(t, repo.CreateOrderFromCart(ctx, order, cart.ID))

	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, fetched.Status)

	err = repo.UpdateOrderStatus(ctx, uuid.New(), domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
