package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/catalog/internal/core/result"
)

// DefaultCurrency is used when a price is given without a currency.
const DefaultCurrency = "USD"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var orderTransitions = transitionTable[Status]{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseStatus accepts any casing and surrounding space.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := orderTransitions[s]; !ok {
		return "", NewInvalidArgument("status", fmt.Sprintf("unknown order status %q", raw))
	}
	return s, nil
}

func (s Status) String() string { return string(s) }

func (s Status) IsTerminal() bool { return orderTransitions.terminal(s) }

// Outcome collapses the lifecycle into the settlement status.
func (s Status) Outcome() OrderStatus {
	switch s {
	case StatusDelivered:
		return CompletedOrderStatus()
	case StatusCancelled:
		return CancelledOrderStatus()
	default:
		return PendingOrderStatus()
	}
}

// Order is an immutable purchase of a quantity of one product by one user.
// Transitions return a new Order and leave the receiver untouched.
type Order struct {
	id         string
	userID     string
	productID  string
	quantity   int
	unitPrice  Money
	totalPrice Money
	status     Status
	createdAt  time.Time
	updatedAt  time.Time
	clock      func() time.Time
}

type NewOrderParams struct {
	UserID    string
	ProductID string
	Quantity  int
	UnitPrice float64
	Currency  string
}

// OrderSnapshot is the full persisted state of an order.
type OrderSnapshot struct {
	ID         string
	UserID     string
	ProductID  string
	Quantity   int
	UnitPrice  Money
	TotalPrice Money
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder validates p and creates a PENDING order priced at
// Quantity × UnitPrice.
func NewOrder(p NewOrderParams, opts ...Option) result.Result[Order, error] {
	userID, err := NewUserID(p.UserID).Get()
	if err != nil {
		return result.Fail[Order](err)
	}
	productID := strings.TrimSpace(p.ProductID)
	if productID == "" {
		return result.Fail[Order](error(NewInvalidArgument("productId", "cannot be empty")))
	}
	if p.Quantity <= 0 {
		return result.Fail[Order](error(NewInvalidArgument("quantity", "must be greater than 0")))
	}
	if p.UnitPrice < 0 {
		return result.Fail[Order](error(NewInvalidArgument("unitPrice", "cannot be negative")))
	}

	currency := p.Currency
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	unit, err := NewMoney(p.UnitPrice, currency).Get()
	if err != nil {
		return result.Fail[Order](err)
	}
	total, err := unit.Multiply(float64(p.Quantity)).Get()
	if err != nil {
		return result.Fail[Order](err)
	}

	f := newFactory(opts)
	now := f.timestamp()
	return result.Ok[Order, error](Order{
		id:         f.newID(),
		userID:     userID.String(),
		productID:  productID,
		quantity:   p.Quantity,
		unitPrice:  unit,
		totalPrice: total,
		status:     StatusPending,
		createdAt:  now,
		updatedAt:  now,
		clock:      f.now,
	})
}

// RestoreOrder rebuilds an order from trusted storage without validation.
func RestoreOrder(s OrderSnapshot, opts ...Option) Order {
	f := newFactory(opts)
	return Order{
		id:         s.ID,
		userID:     s.UserID,
		productID:  s.ProductID,
		quantity:   s.Quantity,
		unitPrice:  s.UnitPrice,
		totalPrice: s.TotalPrice,
		status:     s.Status,
		createdAt:  s.CreatedAt,
		updatedAt:  s.UpdatedAt,
		clock:      f.now,
	}
}

func (o Order) ID() string { return o.id }
func (o Order) UserID() string { return o.userID }
func (o Order) ProductID() string { return o.productID }
func (o Order) Quantity() int { return o.quantity }
func (o Order) UnitPrice() Money { return o.unitPrice }
func (o Order) TotalPrice() Money { return o.totalPrice }
func (o Order) Status() Status { return o.status }
func (o Order) CreatedAt() time.Time { return o.createdAt }
func (o Order) UpdatedAt() time.Time { return o.updatedAt }
func (o Order) IsTerminal() bool { return o.status.IsTerminal() }
func (o Order) Outcome() OrderStatus { return o.status.Outcome() }
func (o Order) Equals(other Order) bool { return o.id == other.id }

func (o Order) Snapshot() OrderSnapshot {
	return OrderSnapshot{
		ID:         o.id,
		UserID:     o.userID,
		ProductID:  o.productID,
		Quantity:   o.quantity,
		UnitPrice:  o.unitPrice,
		TotalPrice: o.totalPrice,
		Status:     o.status,
		CreatedAt:  o.createdAt,
		UpdatedAt:  o.updatedAt,
	}
}

func (o Order) CanTransitionTo(target Status) bool {
	return orderTransitions.allows(o.status, target)
}

func (o Order) AllowedTransitions() []Status {
	return orderTransitions.next(o.status)
}

func (o Order) Confirm() result.Result[Order, error] { return o.moveTo(StatusConfirmed) }

func (o Order) Ship() result.Result[Order, error] { return o.moveTo(StatusShipped) }

func (o Order) Deliver() result.Result[Order, error] { return o.moveTo(StatusDelivered) }

// Cancel is allowed until the order is delivered.
func (o Order) Cancel() result.Result[Order, error] {
	switch o.status {
	case StatusDelivered:
		return result.Fail[Order](o.transitionError(StatusCancelled, "Cannot cancel a delivered order"))
	case StatusCancelled:
		return result.Fail[Order](o.transitionError(StatusCancelled, "Order is already cancelled"))
	}
	return o.moveTo(StatusCancelled)
}

// TransitionTo dispatches to the method owning the edge into target.
func (o Order) TransitionTo(target Status) result.Result[Order, error] {
	switch target {
	case StatusConfirmed:
		return o.Confirm()
	case StatusShipped:
		return o.Ship()
	case StatusDelivered:
		return o.Deliver()
	case StatusCancelled:
		return o.Cancel()
	default:
		return result.Fail[Order](o.transitionError(target, ""))
	}
}

func (o Order) moveTo(target Status) result.Result[Order, error] {
	if !o.CanTransitionTo(target) {
		return result.Fail[Order](o.transitionError(target, ""))
	}
	next := o
	next.status = target
	next.updatedAt = advance(o.clock, o.updatedAt)
	return result.Ok[Order, error](next)
}

func (o Order) transitionError(target Status, msg string) error {
	return &TransitionError{
		Entity:  "order",
		From:    o.status.String(),
		To:      target.String(),
		Allowed: orderTransitions.names(o.status),
		Msg:     msg,
	}
}
