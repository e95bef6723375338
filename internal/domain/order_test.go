package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "zippty/order-service/internal/errors"
)

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
		want  string
		minor int64
	}{
		{
			name: "two items",
			items: []LineItem{
				{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(100)},
				{ProductID: "p2", Quantity: 1, Price: decimal.NewFromInt(50)},
			},
			want:  "250",
			minor: 25000,
		},
		{
			name: "no float drift",
			items: []LineItem{
				{ProductID: "p1", Quantity: 3, Price: decimal.RequireFromString("0.10")},
				{ProductID: "p2", Quantity: 1, Price: decimal.RequireFromString("0.20")},
			},
			want:  "0.5",
			minor: 50,
		},
		{
			name:  "empty",
			items: nil,
			want:  "0",
			minor: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := ComputeTotal(tt.items)
			assert.True(t, total.Equal(decimal.RequireFromString(tt.want)), "got %s", total)
			assert.Equal(t, tt.minor, MinorUnits(total))
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, st := range OrderStatuses {
		got, err := ParseOrderStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseOrderStatus("archived")
	assert.True(t, apperrors.IsValidation(err))

	_, err = ParseOrderStatus("")
	assert.True(t, apperrors.IsValidation(err))
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  OrderStatus
		payment  PaymentStatus
		target   OrderStatus
		effect   Effect
		conflict bool
	}{
		{name: "placed to processing", current: StatusPlaced, payment: PaymentPaid, target: StatusProcessing, effect: EffectUpdate},
		{name: "processing to shipped", current: StatusProcessing, payment: PaymentPaid, target: StatusShipped, effect: EffectUpdate},
		{name: "shipped to delivered", current: StatusShipped, payment: PaymentPaid, target: StatusDelivered, effect: EffectUpdate},
		{name: "delivered to return", current: StatusDelivered, payment: PaymentPaid, target: StatusReturn, effect: EffectUpdate},
		{name: "same status is a no-op", current: StatusShipped, payment: PaymentPaid, target: StatusShipped, effect: EffectNone},
		{name: "cancel unpaid deletes", current: StatusPlaced, payment: PaymentPending, target: StatusCancelled, effect: EffectDelete},
		{name: "cancel processing unpaid deletes", current: StatusProcessing, payment: PaymentPending, target: StatusCancelled, effect: EffectDelete},
		{name: "cancel paid conflicts", current: StatusPlaced, payment: PaymentPaid, target: StatusCancelled, conflict: true},
		{name: "cancel shipped unpaid deletes", current: StatusShipped, payment: PaymentPending, target: StatusCancelled, effect: EffectDelete},
		{name: "cancel delivered unpaid deletes", current: StatusDelivered, payment: PaymentPending, target: StatusCancelled, effect: EffectDelete},
		{name: "cancel return unpaid deletes", current: StatusReturn, payment: PaymentFailed, target: StatusCancelled, effect: EffectDelete},
		{name: "cancel delivered paid conflicts", current: StatusDelivered, payment: PaymentPaid, target: StatusCancelled, conflict: true},
		{name: "backward conflicts", current: StatusDelivered, payment: PaymentPaid, target: StatusPlaced, conflict: true},
		{name: "return is terminal", current: StatusReturn, payment: PaymentPaid, target: StatusShipped, conflict: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{ID: "o1", OrderStatus: tt.current, PaymentStatus: tt.payment}
			effect, err := Transition(order, tt.target)
			if tt.conflict {
				assert.True(t, apperrors.IsConflict(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.effect, effect)
			assert.Equal(t, tt.current, order.OrderStatus)
		})
	}
}

func TestOrder_MergeDetails(t *testing.T) {
	o := &Order{}
	assert.Equal(t, "", o.IntentID())

	o.MergeDetails(map[string]any{DetailIntentID: "intent_abc"})
	o.MergeDetails(map[string]any{DetailPaymentID: "pay_123"})

	assert.Equal(t, "intent_abc", o.IntentID())
	assert.Equal(t, "pay_123", o.PaymentDetails[DetailPaymentID])
}
