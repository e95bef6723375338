package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"zippty/order-service/internal/domain"
)

func TestOrderDocument_KeepsExactAmounts(t *testing.T) {
	pid := "pay_123"
	o := &domain.Order{
		ID:     "o1",
		UserID: "u1",
		Items: []domain.LineItem{
			{ProductID: "p1", Quantity: 3, Price: decimal.RequireFromString("19.99"), Image: "a.png"},
		},
		TotalAmount:       decimal.RequireFromString("59.97"),
		ShippingAddressID: "a1",
		PaymentStatus:     domain.PaymentPaid,
		OrderStatus:       domain.StatusPlaced,
		PaymentID:         &pid,
		PaymentDetails:    map[string]any{domain.DetailIntentID: "intent_abc"},
		Version:           3,
		CreatedAt:         time.Now().UTC(),
	}

	got := newOrderDocument(o).toDomain()

	assert.True(t, got.TotalAmount.Equal(o.TotalAmount))
	assert.True(t, got.Items[0].Price.Equal(o.Items[0].Price))
	assert.Equal(t, "intent_abc", got.IntentID())
	assert.Equal(t, "pay_123", *got.PaymentID)
	assert.Equal(t, int64(3), got.Version)
}

func TestIdMatch(t *testing.T) {
	assert.Equal(t, "not-an-oid", idMatch("not-an-oid"))

	m, ok := idMatch("65a1f0c2e4b0a1b2c3d4e5f6").(bson.M)
	assert.True(t, ok)
	assert.Len(t, m["$in"], 2)
}
