package domain

import (
	"strings"

	apperrors "zippty/order-service/internal/errors"
)

// Effect is what the caller must persist after a transition.
type Effect int

const (
	// EffectNone means the order already is in the requested state.
	EffectNone Effect = iota
	// EffectUpdate means the order status changed and must be written back.
	EffectUpdate
	// EffectDelete means the order must be removed. Cancellation deletes the order.
	EffectDelete
)

// transitions lists the forward moves allowed from each order status. Cancellation is not
// listed: it is allowed from any status of an unpaid order.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPlaced:     {StatusProcessing, StatusShipped, StatusDelivered},
	StatusProcessing: {StatusShipped, StatusDelivered},
	StatusShipped:    {StatusDelivered, StatusReturn},
	StatusDelivered:  {StatusReturn},
	StatusReturn:     {},
	StatusCancelled:  {},
}

// ParseOrderStatus accepts only the enumerated order statuses.
func ParseOrderStatus(s string) (OrderStatus, error) {
	v := OrderStatus(strings.TrimSpace(s))
	for _, st := range OrderStatuses {
		if st == v {
			return st, nil
		}
	}
	return "", apperrors.Validation("invalid order status %q", s)
}

// Transition decides how order moves to target. It never mutates order; on EffectUpdate
// the caller sets OrderStatus to target.
func Transition(order *Order, target OrderStatus) (Effect, error) {
	if order.OrderStatus == target {
		return EffectNone, nil
	}
	if target == StatusCancelled {
		// Payment is the only precondition; the fulfilment stage does not matter.
		if order.IsPaid() {
			return EffectNone, apperrors.Conflict("cannot cancel a paid order")
		}
		return EffectDelete, nil
	}
	for _, next := range transitions[order.OrderStatus] {
		if next == target {
			return EffectUpdate, nil
		}
	}
	return EffectNone, apperrors.Conflict("cannot move order from %s to %s", order.OrderStatus, target)
}
