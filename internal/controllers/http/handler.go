package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	apperrors "zippty/order-service/internal/errors"
	"zippty/order-service/internal/repository"
	"zippty/order-service/internal/services"
)

type Handler struct {
	service *services.OrderService
	secret  []byte
}

func NewHandler(s *services.OrderService, jwtSecret string) *Handler {
	return &Handler{service: s, secret: []byte(jwtSecret)}
}

// NewRouter builds the gin engine with the shared middleware chain.
func NewRouter(h *Handler, logger log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(logger))
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	orders := r.Group("/api/orders", Auth(h.secret))
	orders.POST("/create", h.CreateOrder)
	orders.POST("/verify-payment", h.VerifyPayment)
	orders.GET("/user-orders", h.GetUserOrders)
	orders.GET("/", AdminOnly(), h.ListOrders)
	orders.GET("/:orderId", h.GetOrder)
	orders.POST("/:orderId/payment-intent", h.RetryPaymentIntent)
	orders.DELETE("/:orderId/cancel", h.CancelOrder)
	orders.PATCH("/:orderId/status", AdminOnly(), h.UpdateOrderStatus)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Status: true, Message: "ok"})
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.Validation("invalid request: %v", err), nil)
		return
	}

	res, err := h.service.CreateOrder(c.Request.Context(), services.CreateOrderInput{
		UserID:            c.GetString(ctxUserID),
		Items:             req.items(),
		TotalAmount:       req.TotalAmount,
		ShippingAddressID: req.ShippingAddress,
		PaymentMethod:     req.PaymentMethod,
	})
	if err != nil {
		var data any
		if res != nil {
			// The order is stored; the client may retry the payment intent later.
			data = CreateOrderResponse{Order: res.Order}
		}
		writeError(c, err, data)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Status:  true,
		Message: "Order created successfully",
		Data: CreateOrderResponse{
			Order:         res.Order,
			PaymentIntent: newPaymentIntentResponse(res.Intent),
		},
	})
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.Validation("invalid request: %v", err), nil)
		return
	}

	order, err := h.service.VerifyPayment(c.Request.Context(), services.VerifyPaymentInput{
		UserID:    c.GetString(ctxUserID),
		OrderID:   req.OrderID,
		IntentID:  req.IntentID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{Status: true, Message: "Payment verified successfully", Data: order})
}

func (h *Handler) GetUserOrders(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, apperrors.Validation("invalid query: %v", err), nil)
		return
	}
	page := q.page()

	orders, total, err := h.service.ListUserOrders(c.Request.Context(), c.GetString(ctxUserID), page)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{
		Status:     true,
		Message:    "Orders fetched successfully",
		Data:       orders,
		Pagination: newPagination(total, page, len(orders)),
	})
}

func (h *Handler) ListOrders(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, apperrors.Validation("invalid query: %v", err), nil)
		return
	}
	page := q.page()

	orders, total, err := h.service.ListOrders(c.Request.Context(), repository.OrderFilter{UserID: q.User}, page)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{
		Status:     true,
		Message:    "Orders fetched successfully",
		Data:       orders,
		Pagination: newPagination(total, page, len(orders)),
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), actor(c), c.Param("orderId"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{Status: true, Message: "Order fetched successfully", Data: order})
}

func (h *Handler) RetryPaymentIntent(c *gin.Context) {
	res, err := h.service.RetryPaymentIntent(c.Request.Context(), actor(c), c.Param("orderId"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{
		Status:  true,
		Message: "Payment intent created",
		Data: CreateOrderResponse{
			Order:         res.Order,
			PaymentIntent: newPaymentIntentResponse(res.Intent),
		},
	})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	if err := h.service.CancelOrder(c.Request.Context(), actor(c), c.Param("orderId")); err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{Status: true, Message: "Order cancelled successfully"})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.Validation("invalid request: %v", err), nil)
		return
	}

	order, deleted, err := h.service.UpdateStatus(c.Request.Context(), c.Param("orderId"), req.OrderStatus)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	msg := "Order status updated successfully"
	if deleted {
		msg = "Order cancelled and removed"
	}
	c.JSON(http.StatusOK, Response{Status: true, Message: msg, Data: order})
}

func actor(c *gin.Context) services.Actor {
	return services.Actor{
		UserID: c.GetString(ctxUserID),
		Admin:  c.GetString(ctxRole) == roleAdmin,
	}
}

// writeError maps taxonomy errors to their status code and kind. Anything else is a 500
// without detail.
func writeError(c *gin.Context, err error, data any) {
	e := kerrors.FromError(err)
	if e.Reason == kerrors.UnknownReason {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, Response{Status: false, Message: "internal server error", Error: "INTERNAL"})
		return
	}
	c.JSON(int(e.Code), Response{Status: false, Message: e.Message, Data: data, Error: e.Reason})
}
