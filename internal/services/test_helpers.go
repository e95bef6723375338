package services

import (
	"time"

	"github.com/shopspring/decimal"

	"zippty/order-service/internal/domain"
)

func CreateMockOrder(id, userID string, total int64, payment domain.PaymentStatus, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:     id,
		UserID: userID,
		Items: []domain.LineItem{
			{ProductID: TestProductID, Quantity: 1, Price: decimal.NewFromInt(total), Image: "img.png"},
		},
		TotalAmount:       decimal.NewFromInt(total),
		ShippingAddressID: TestAddressID,
		PaymentStatus:     payment,
		OrderStatus:       status,
		PaymentMethod:     "razorpay",
		Version:           1,
		CreatedAt:         time.Now().UTC(),
	}
}

const (
	TestUserID    = "user-1"
	TestOrderID   = "order-1"
	TestAddressID = "address-1"
	TestProductID = "product-1"
	TestIntentID  = "intent_abc"
	TestPaymentID = "pay_123"
	TestSecret    = "s3cret"
	TestCurrency  = "INR"
)
