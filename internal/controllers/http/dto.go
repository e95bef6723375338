package http

import (
	"github.com/shopspring/decimal"

	"zippty/order-service/internal/domain"
	"zippty/order-service/internal/infra"
	"zippty/order-service/internal/repository"
)

type LineItemRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

type CreateOrderRequest struct {
	Products        []LineItemRequest `json:"products" binding:"required,min=1,dive"`
	TotalAmount     *decimal.Decimal  `json:"totalAmount"`
	ShippingAddress string            `json:"shippingAddress" binding:"required"`
	PaymentMethod   string            `json:"paymentMethod"`
}

func (r CreateOrderRequest) items() []domain.LineItem {
	items := make([]domain.LineItem, 0, len(r.Products))
	for _, p := range r.Products {
		items = append(items, domain.LineItem{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Price:     p.Price,
			Image:     p.Image,
		})
	}
	return items
}

// VerifyPaymentRequest carries the gateway callback fields. razorpayOrderId is the
// provider's intent id.
type VerifyPaymentRequest struct {
	IntentID  string `json:"razorpayOrderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
	OrderID   string `json:"orderId"`
}

type UpdateStatusRequest struct {
	OrderStatus string `json:"orderStatus"`
}

type ListQuery struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	User  string `form:"user"`
}

func (q ListQuery) page() repository.Page {
	return repository.Page{Number: q.Page, Limit: q.Limit}.Normalize()
}

type PaymentIntentResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

func newPaymentIntentResponse(in *infra.PaymentIntent) *PaymentIntentResponse {
	if in == nil {
		return nil
	}
	return &PaymentIntentResponse{ID: in.ID, Amount: in.Amount, Currency: in.Currency, Receipt: in.Receipt}
}

type CreateOrderResponse struct {
	Order         *domain.Order          `json:"order"`
	PaymentIntent *PaymentIntentResponse `json:"paymentIntent,omitempty"`
}

type Pagination struct {
	TotalOrders int64 `json:"totalOrders"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

func newPagination(total int64, page repository.Page, n int) *Pagination {
	limit := int64(page.Limit)
	return &Pagination{
		TotalOrders: total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page.Number,
		HasNextPage: int64(page.Offset()+n) < total,
		HasPrevPage: page.Number > 1,
	}
}

// Response is the envelope of every endpoint. Error holds the machine error kind.
type Response struct {
	Status     bool        `json:"status"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      string      `json:"error,omitempty"`
}
