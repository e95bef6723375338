package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Routing keys published on the order exchange.
const (
	EventOrderCreated       = "order.created"
	EventOrderPaid          = "order.paid"
	EventOrderPaymentFailed = "order.payment_failed"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	OrderID       string          `json:"orderId"`
	UserID        string          `json:"userId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	OrderStatus   OrderStatus     `json:"orderStatus"`
	PaymentID     string          `json:"paymentId,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

func NewOrderEvent(o *Order) OrderEvent {
	evt := OrderEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		OccurredAt:    time.Now().UTC(),
	}
	if o.PaymentID != nil {
		evt.PaymentID = *o.PaymentID
	}
	return evt
}
