package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type OrderStatus string

const (
	StatusPlaced     OrderStatus = "placed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusReturn     OrderStatus = "return"
)

// OrderStatuses is the closed set accepted by status updates.
var OrderStatuses = []OrderStatus{
	StatusPlaced,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusReturn,
}

// LineItem captures the product, quantity and unit price at order time. The price is a
// snapshot and never follows later catalog changes.
type LineItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

// Subtotal is quantity times unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Order struct {
	ID                string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID            string            `json:"user" gorm:"type:varchar(64);not null;index:idx_orders_user_created,priority:1"`
	Items             []LineItem        `json:"products" gorm:"serializer:json;type:json;not null"`
	TotalAmount       decimal.Decimal   `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	ShippingAddressID string            `json:"shippingAddress" gorm:"type:varchar(64);not null"`
	PaymentStatus     PaymentStatus     `json:"paymentStatus" gorm:"type:enum('pending','paid','failed');default:'pending'"`
	OrderStatus       OrderStatus       `json:"orderStatus" gorm:"type:enum('placed','processing','shipped','delivered','cancelled','return');default:'placed'"`
	PaymentMethod     string            `json:"paymentMethod" gorm:"type:varchar(64)"`
	PaymentID         *string           `json:"paymentId,omitempty" gorm:"type:varchar(128)"`
	PaymentDetails    datatypes.JSONMap `json:"paymentDetails,omitempty" gorm:"type:json"`
	Version           int64             `json:"version" gorm:"not null;default:1"`
	CreatedAt         time.Time         `json:"createdAt" gorm:"autoCreateTime;index:idx_orders_user_created,priority:2,sort:desc"`
	UpdatedAt         time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
}

// IsPaid reports whether the payment dimension reached its terminal state.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentPaid
}

// IntentID returns the provider intent recorded at creation, if any.
func (o *Order) IntentID() string {
	if o.PaymentDetails == nil {
		return ""
	}
	id, _ := o.PaymentDetails[DetailIntentID].(string)
	return id
}

// MergeDetails copies kv into the payment detail blob.
func (o *Order) MergeDetails(kv map[string]any) {
	if o.PaymentDetails == nil {
		o.PaymentDetails = datatypes.JSONMap{}
	}
	for k, v := range kv {
		o.PaymentDetails[k] = v
	}
}

// Payment detail keys written by the service.
const (
	DetailIntentID       = "intentId"
	DetailIntentAmount   = "intentAmount"
	DetailIntentCurrency = "currency"
	DetailReceipt        = "receipt"
	DetailPaymentID      = "paymentId"
	DetailSignature      = "signature"
	DetailOrderID        = "orderId"
)
