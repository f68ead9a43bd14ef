package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/catalog/internal/adapter/storage"
	"github.com/rl1809/catalog/internal/core/domain"
)

type fixture struct {
	orders   *storage.MemoryOrderRepository
	products *storage.MemoryProductRepository
	users    *storage.MemoryUserRepository
	cache    *storage.MemoryCache

	orderSvc   *OrderService
	productSvc *ProductService
	userSvc    *UserService
}

func newFixture() *fixture {
	f := &fixture{
		orders:   storage.NewMemoryOrderRepository(),
		products: storage.NewMemoryProductRepository(),
		users:    storage.NewMemoryUserRepository(),
		cache:    storage.NewMemoryCache(0),
	}
	f.orderSvc = NewOrderService(f.orders, f.products, f.users, f.cache, nil)
	f.productSvc = NewProductService(f.products, nil)
	f.userSvc = NewUserService(f.users, nil)
	return f
}

func (f *fixture) seed(t *testing.T, stock int) (UserDTO, ProductDTO) {
	t.Helper()
	ctx := context.Background()
	u, err := f.userSvc.Register(ctx, RegisterUserInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	p, err := f.productSvc.Create(ctx, CreateProductInput{Name: "Widget", Price: 99.99, Stock: stock})
	require.NoError(t, err)
	return u, p
}

func (f *fixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.productSvc.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 10)

	order, err := f.orderSvc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, "PENDING", order.Status)
	assert.Equal(t, "pending", order.Outcome)
	assert.Equal(t, 99.99, order.UnitPrice)
	assert.Equal(t, 299.97, order.TotalPrice)
	assert.Equal(t, "USD", order.Currency)
	assert.ElementsMatch(t, []string{"CONFIRMED", "CANCELLED"}, order.AllowedTransitions)
	assert.Equal(t, 7, f.stockOf(t, p.ID))
}

func TestPlaceOrder_UnknownUser(t *testing.T) {
	f := newFixture()
	_, p := f.seed(t, 10)

	_, err := f.orderSvc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: "ghost", ProductID: p.ID, Quantity: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 10, f.stockOf(t, p.ID))
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture()
	u, _ := f.seed(t, 10)

	_, err := f.orderSvc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: u.ID, ProductID: "ghost", Quantity: 1})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 10)

	_, err := f.orderSvc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 0})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))

	var argErr *domain.InvalidArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "quantity", argErr.Field)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 2)

	_, err := f.orderSvc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Equal(t, 2, f.stockOf(t, p.ID))

	orders, err := f.orderSvc.List(context.Background(), ListOrdersInput{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_Idempotency(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 10)
	ctx := context.Background()
	in := PlaceOrderInput{RequestID: "req-1", UserID: u.ID, ProductID: p.ID, Quantity: 1}

	_, err := f.orderSvc.PlaceOrder(ctx, in)
	require.NoError(t, err)

	_, err = f.orderSvc.PlaceOrder(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	assert.Equal(t, 9, f.stockOf(t, p.ID))
}

func TestPlaceOrder_FailureReleasesRequestID(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 1)
	ctx := context.Background()
	in := PlaceOrderInput{RequestID: "req-retry", UserID: u.ID, ProductID: p.ID, Quantity: 2}

	_, err := f.orderSvc.PlaceOrder(ctx, in)
	require.ErrorIs(t, err, ErrInsufficientStock)

	in.Quantity = 1
	_, err = f.orderSvc.PlaceOrder(ctx, in)
	assert.NoError(t, err)
}

type failingOrderRepo struct {
	*storage.MemoryOrderRepository
}

func (failingOrderRepo) Save(context.Context, domain.Order) (domain.Order, error) {
	return domain.Order{}, errors.New("disk full")
}

func TestPlaceOrder_SaveFailureRestoresStock(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 4)
	svc := NewOrderService(failingOrderRepo{f.orders}, f.products, f.users, f.cache, nil)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, domain.KindUnknown, domain.KindOf(err))
	assert.Equal(t, 4, f.stockOf(t, p.ID))
}

// slowProductRepo widens the window between concurrent placements.
type slowProductRepo struct {
	*storage.MemoryProductRepository
	delay time.Duration
}

func (r slowProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := r.MemoryProductRepository.FindByID(ctx, id)
	time.Sleep(r.delay)
	return p, err
}

func (r slowProductRepo) ReserveStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	time.Sleep(r.delay)
	return r.MemoryProductRepository.ReserveStock(ctx, id, quantity)
}

func TestPlaceOrder_ConcurrentPlacementNeverOversells(t *testing.T) {
	const (
		stock  = 5
		buyers = 50
	)
	f := newFixture()
	u, p := f.seed(t, stock)
	svc := NewOrderService(f.orders, slowProductRepo{f.products, time.Millisecond}, f.users, f.cache, nil)

	var (
		wg      sync.WaitGroup
		placed  atomic.Int32
		soldOut atomic.Int32
		start   = make(chan struct{})
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 1})
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, ErrInsufficientStock):
				soldOut.Add(1)
			default:
				t.Errorf("place order: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(stock), placed.Load())
	assert.Equal(t, int32(buyers-stock), soldOut.Load())
	assert.Equal(t, 0, f.stockOf(t, p.ID))

	orders, err := f.orderSvc.List(context.Background(), ListOrdersInput{ProductID: p.ID})
	require.NoError(t, err)
	assert.Len(t, orders, stock)
}

func TestCancelOrder_ConcurrentWithPlacement(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 3)
	ctx := context.Background()

	first, err := f.orderSvc.PlaceOrder(ctx, PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := f.orderSvc.Cancel(ctx, first.ID); err != nil {
			t.Errorf("cancel: %v", err)
		}
	}()
	var second error
	go func() {
		defer wg.Done()
		_, second = f.orderSvc.PlaceOrder(ctx, PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 2})
	}()
	wg.Wait()

	if second == nil {
		assert.Equal(t, 1, f.stockOf(t, p.ID))
	} else {
		assert.ErrorIs(t, second, ErrInsufficientStock)
		assert.Equal(t, 3, f.stockOf(t, p.ID))
	}
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 10)
	ctx := context.Background()

	placed, err := f.orderSvc.PlaceOrder(ctx, PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	confirmed, err := f.orderSvc.Confirm(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", confirmed.Status)

	shipped, err := f.orderSvc.Ship(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", shipped.Status)
	assert.Equal(t, []string{"DELIVERED"}, shipped.AllowedTransitions)

	delivered, err := f.orderSvc.Deliver(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", delivered.Status)
	assert.Equal(t, "completed", delivered.Outcome)
	assert.Empty(t, delivered.AllowedTransitions)

	_, err = f.orderSvc.Cancel(ctx, placed.ID)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidTransition))
	assert.Equal(t, 8, f.stockOf(t, p.ID))

	stored, err := f.orderSvc.Get(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", stored.Status)
}

func TestCancelOrder_ReleasesStock(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 10)
	ctx := context.Background()

	placed, err := f.orderSvc.PlaceOrder(ctx, PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, 6, f.stockOf(t, p.ID))

	cancelled, err := f.orderSvc.Cancel(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "cancelled", cancelled.Outcome)
	assert.Equal(t, 10, f.stockOf(t, p.ID))

	_, err = f.orderSvc.Cancel(ctx, placed.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already cancelled")
	assert.Equal(t, 10, f.stockOf(t, p.ID))
}

func TestCancelOrder_ProductGone(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 10)
	ctx := context.Background()

	placed, err := f.orderSvc.PlaceOrder(ctx, PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, f.productSvc.Delete(ctx, p.ID))

	cancelled, err := f.orderSvc.Cancel(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
}

func TestTransition(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 10)
	ctx := context.Background()

	placed, err := f.orderSvc.PlaceOrder(ctx, PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = f.orderSvc.Transition(ctx, placed.ID, "shipped")
	require.Error(t, err)
	var transErr *domain.TransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, "PENDING", transErr.From)
	assert.Equal(t, "SHIPPED", transErr.To)

	_, err = f.orderSvc.Transition(ctx, placed.ID, "bogus")
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))

	confirmed, err := f.orderSvc.Transition(ctx, placed.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", confirmed.Status)

	cancelled, err := f.orderSvc.Transition(ctx, placed.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, 10, f.stockOf(t, p.ID))
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.orderSvc.Get(context.Background(), "missing")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = f.orderSvc.Confirm(context.Background(), "missing")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestListOrders_Filters(t *testing.T) {
	f := newFixture()
	u, p := f.seed(t, 10)
	ctx := context.Background()

	first, err := f.orderSvc.PlaceOrder(ctx, PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.orderSvc.PlaceOrder(ctx, PlaceOrderInput{UserID: u.ID, ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.orderSvc.Confirm(ctx, first.ID)
	require.NoError(t, err)

	all, err := f.orderSvc.List(ctx, ListOrdersInput{UserID: u.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := f.orderSvc.List(ctx, ListOrdersInput{Status: "confirmed"})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.ID, confirmed[0].ID)

	none, err := f.orderSvc.List(ctx, ListOrdersInput{UserID: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.orderSvc.List(ctx, ListOrdersInput{Status: "lost"})
	assert.Error(t, err)
}
