package domain

import (
	"strings"

	"github.com/rl1809/catalog/internal/core/result"
)

type orderStatusValue string

const (
	orderStatusPending   orderStatusValue = "pending"
	orderStatusCompleted orderStatusValue = "completed"
	orderStatusCancelled orderStatusValue = "cancelled"
)

var orderStatusTransitions = transitionTable[orderStatusValue]{
	orderStatusPending:   {orderStatusCompleted, orderStatusCancelled},
	orderStatusCompleted: {},
	orderStatusCancelled: {},
}

// OrderStatus is the coarse settlement status of an order: pending until it
// is either completed or cancelled.
type OrderStatus struct {
	value orderStatusValue
}

// NewOrderStatus parses raw case-insensitively, ignoring surrounding space.
func NewOrderStatus(raw string) result.Result[OrderStatus, error] {
	v := orderStatusValue(strings.ToLower(strings.TrimSpace(raw)))
	if v == "" {
		return result.Fail[OrderStatus](error(NewInvalidArgument("status", "cannot be empty")))
	}
	if _, ok := orderStatusTransitions[v]; !ok {
		return result.Fail[OrderStatus](error(NewInvalidArgument("status", "must be one of: pending, completed, cancelled")))
	}
	return result.Ok[OrderStatus, error](OrderStatus{value: v})
}

func PendingOrderStatus() OrderStatus   { return OrderStatus{value: orderStatusPending} }
func CompletedOrderStatus() OrderStatus { return OrderStatus{value: orderStatusCompleted} }
func CancelledOrderStatus() OrderStatus { return OrderStatus{value: orderStatusCancelled} }

func (s OrderStatus) String() string { return string(s.value) }

func (s OrderStatus) Equals(other OrderStatus) bool { return s.value == other.value }

func (s OrderStatus) IsPending() bool   { return s.value == orderStatusPending }
func (s OrderStatus) IsCompleted() bool { return s.value == orderStatusCompleted }
func (s OrderStatus) IsCancelled() bool { return s.value == orderStatusCancelled }

func (s OrderStatus) IsTerminal() bool { return orderStatusTransitions.terminal(s.value) }

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return orderStatusTransitions.allows(s.value, target.value)
}

// TransitionTo returns target when the edge exists.
func (s OrderStatus) TransitionTo(target OrderStatus) result.Result[OrderStatus, error] {
	if !s.CanTransitionTo(target) {
		return result.Fail[OrderStatus](error(&TransitionError{
			Entity:  "order",
			From:    s.String(),
			To:      target.String(),
			Allowed: orderStatusTransitions.names(s.value),
		}))
	}
	return result.Ok[OrderStatus, error](target)
}

// AllowedTransitions is empty for terminal statuses.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	next := orderStatusTransitions.next(s.value)
	out := make([]OrderStatus, 0, len(next))
	for _, v := range next {
		out = append(out, OrderStatus{value: v})
	}
	return out
}
