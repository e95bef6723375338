package infra

import "context"

// PaymentProvider creates payment intents on the external gateway. Amounts are in the
// smallest currency unit.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency, receipt string) (*PaymentIntent, error)
}

var _ PaymentProvider = (*RazorpayClient)(nil)
