package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/core/result"
	"github.com/rl1809/catalog/internal/port"
)

var (
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type OrderService struct {
	orders   port.OrderRepository
	products port.ProductRepository
	users    port.UserRepository
	cache    port.CacheRepository
	logger   *slog.Logger
	opts     []domain.Option
}

func NewOrderService(orders port.OrderRepository, products port.ProductRepository, users port.UserRepository, cache port.CacheRepository, logger *slog.Logger, opts ...domain.Option) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		users:    users,
		cache:    cache,
		logger:   orDiscard(logger),
		opts:     opts,
	}
}

type PlaceOrderInput struct {
	// RequestID makes the call idempotent when set
	RequestID string
	UserID    string
	ProductID string
	Quantity  int
}

// PlaceOrder atomically reserves stock on the product and records a PENDING
// order at the product's current price. A failed placement releases its idempotency
// key so the client can retry with the same request id.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (dto OrderDTO, err error) {
	if key := strings.TrimSpace(in.RequestID); key != "" {
		idempotencyKey := "order:" + key
		ok, setErr := s.cache.SetIdempotency(ctx, idempotencyKey)
		if setErr != nil {
			return OrderDTO{}, fmt.Errorf("idempotency check failed: %w", setErr)
		}
		if !ok {
			return OrderDTO{}, ErrDuplicateRequest
		}
		defer func() {
			if err == nil {
				return
			}
			if clearErr := s.cache.ClearIdempotency(ctx, idempotencyKey); clearErr != nil {
				s.logger.Error("order.idempotency_release_failed", "key", idempotencyKey, "error", clearErr)
			}
		}()
	}

	exists, err := s.users.Exists(ctx, in.UserID)
	if err != nil {
		return OrderDTO{}, fmt.Errorf("load user: %w", err)
	}
	if !exists {
		return OrderDTO{}, domain.NewNotFound("user", in.UserID)
	}

	product, err := s.products.ReserveStock(ctx, in.ProductID, in.Quantity)
	if domain.IsKind(err, domain.KindValidation) {
		return OrderDTO{}, fmt.Errorf("%w: %w", ErrInsufficientStock, err)
	}
	if domain.IsKind(err, domain.KindInvalidArgument) {
		return OrderDTO{}, err
	}
	if err != nil {
		return OrderDTO{}, fmt.Errorf("reserve stock: %w", err)
	}
	if product == nil {
		return OrderDTO{}, domain.NewNotFound("product", in.ProductID)
	}

	order, err := domain.NewOrder(domain.NewOrderParams{
		UserID:    in.UserID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		UnitPrice: product.Price().Amount(),
		Currency:  product.Price().Currency(),
	}, s.opts...).Get()
	if err != nil {
		s.restock(ctx, "", in.ProductID, in.Quantity)
		return OrderDTO{}, err
	}

	if _, err := s.orders.Save(ctx, order); err != nil {
		s.logger.Error("order.save_failed", "order_id", order.ID(), "error", err)
		s.restock(ctx, order.ID(), order.ProductID(), order.Quantity())
		return OrderDTO{}, fmt.Errorf("save order: %w", err)
	}

	s.logger.Info("order.placed",
		"order_id", order.ID(),
		"user_id", order.UserID(),
		"product_id", order.ProductID(),
		"quantity", order.Quantity(),
		"total", order.TotalPrice().String(),
	)
	return ToOrderDTO(order), nil
}

func (s *OrderService) Get(ctx context.Context, id string) (OrderDTO, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return OrderDTO{}, err
	}
	return ToOrderDTO(o), nil
}

type ListOrdersInput struct {
	UserID    string
	ProductID string
	Status    string
}

func (s *OrderService) List(ctx context.Context, in ListOrdersInput) ([]OrderDTO, error) {
	filter := port.OrderFilter{UserID: in.UserID, ProductID: in.ProductID}
	if strings.TrimSpace(in.Status) != "" {
		status, err := domain.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	orders, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return mapSlice(orders, ToOrderDTO), nil
}

func (s *OrderService) Confirm(ctx context.Context, id string) (OrderDTO, error) {
	return toDTO(s.transition(ctx, id, domain.Order.Confirm))
}

func (s *OrderService) Ship(ctx context.Context, id string) (OrderDTO, error) {
	return toDTO(s.transition(ctx, id, domain.Order.Ship))
}

func (s *OrderService) Deliver(ctx context.Context, id string) (OrderDTO, error) {
	return toDTO(s.transition(ctx, id, domain.Order.Deliver))
}

// Cancel returns the order's quantity to the product's stock.
func (s *OrderService) Cancel(ctx context.Context, id string) (OrderDTO, error) {
	cancelled, err := s.transition(ctx, id, domain.Order.Cancel)
	if err != nil {
		return OrderDTO{}, err
	}
	s.restock(ctx, cancelled.ID(), cancelled.ProductID(), cancelled.Quantity())
	return ToOrderDTO(cancelled), nil
}

// Transition applies the transition into the named status.
func (s *OrderService) Transition(ctx context.Context, id, status string) (OrderDTO, error) {
	target, err := domain.ParseStatus(status)
	if err != nil {
		return OrderDTO{}, err
	}
	if target == domain.StatusCancelled {
		return s.Cancel(ctx, id)
	}
	return toDTO(s.transition(ctx, id, func(o domain.Order) result.Result[domain.Order, error] {
		return o.TransitionTo(target)
	}))
}

func (s *OrderService) transition(ctx context.Context, id string, apply func(domain.Order) result.Result[domain.Order, error]) (domain.Order, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	next, err := apply(current).Get()
	if err != nil {
		return domain.Order{}, err
	}

	if _, err := s.orders.Save(ctx, next); err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.logger.Info("order.transitioned", "order_id", id, "from", current.Status().String(), "to", next.Status().String())
	return next, nil
}

func (s *OrderService) load(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return domain.Order{}, domain.NewNotFound("order", id)
	}
	return *o, nil
}

// restock is best effort: the order outcome stands even when the product is
// gone or the write fails.
func (s *OrderService) restock(ctx context.Context, orderID, productID string, quantity int) {
	product, err := s.products.ReleaseStock(ctx, productID, quantity)
	switch {
	case err != nil:
		s.logger.Error("order.stock_release_failed", "order_id", orderID, "product_id", productID, "error", err)
	case product == nil:
		s.logger.Warn("order.stock_release_skipped", "order_id", orderID, "product_id", productID)
	default:
		s.logger.Info("order.stock_released", "order_id", orderID, "product_id", productID, "quantity", quantity)
	}
}

func toDTO(o domain.Order, err error) (OrderDTO, error) {
	if err != nil {
		return OrderDTO{}, err
	}
	return ToOrderDTO(o), nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
