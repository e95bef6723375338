package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"zippty/order-service/internal/domain"
	apperrors "zippty/order-service/internal/errors"
	"zippty/order-service/internal/infra"
	"zippty/order-service/internal/infra/cache"
	"zippty/order-service/internal/infra/events"
	"zippty/order-service/internal/infra/lock"
	"zippty/order-service/internal/infra/payment"
	"zippty/order-service/internal/repository"
)

const publishTimeout = 2 * time.Second

// Actor is the authenticated caller. Admins may act on any order; everyone else only on
// their own.
type Actor struct {
	UserID string
	Admin  bool
}

type CreateOrderInput struct {
	UserID string
	Items  []domain.LineItem
	// TotalAmount is the client's view of the total. When set it must equal the sum of
	// the line items.
	TotalAmount       *decimal.Decimal
	ShippingAddressID string
	PaymentMethod     string
}

type CreateOrderResult struct {
	Order *domain.Order
	// Intent is nil when the provider call failed; the order is kept pending.
	Intent *infra.PaymentIntent
}

type VerifyPaymentInput struct {
	UserID    string
	OrderID   string
	IntentID  string
	PaymentID string
	Signature string
}

type OrderService struct {
	repo      repository.OrderRepository
	accounts  repository.AccountRepository
	provider  infra.PaymentProvider
	verifier  *payment.Verifier
	locker    lock.Locker
	publisher events.Publisher
	cache     cache.OrderCache
	currency  string
	lists     singleflight.Group
	log       *log.Helper
}

func NewOrderService(
	r repository.OrderRepository,
	a repository.AccountRepository,
	p infra.PaymentProvider,
	v *payment.Verifier,
	l lock.Locker,
	pub events.Publisher,
	currency string,
	logger log.Logger,
) *OrderService {
	return &OrderService{
		repo:      r,
		accounts:  a,
		provider:  p,
		verifier:  v,
		locker:    l,
		publisher: pub,
		cache:     cache.NewNoopCache(),
		currency:  currency,
		log:       log.NewHelper(log.With(logger, "module", "services/order")),
	}
}

func (s *OrderService) SetCache(c cache.OrderCache) {
	s.cache = c
}

// CreateOrder persists a pending order and then asks the provider for a payment intent.
// Persistence is authoritative: history, cart and provider failures never undo it. A
// provider failure returns the stored order together with a provider error.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	total := domain.ComputeTotal(in.Items)
	if !total.IsPositive() {
		return nil, apperrors.Validation("total amount must be greater than zero")
	}
	if in.TotalAmount != nil && !in.TotalAmount.Round(domain.MinorUnitPlaces).Equal(total) {
		return nil, apperrors.Validation("totalAmount %s does not match line items total %s",
			in.TotalAmount.String(), total.StringFixed(domain.MinorUnitPlaces))
	}

	ok, err := s.accounts.AddressExists(ctx, in.UserID, in.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("shipping address %s not found", in.ShippingAddressID)
	}

	order := &domain.Order{
		ID:                uuid.NewString(),
		UserID:            in.UserID,
		Items:             append([]domain.LineItem(nil), in.Items...),
		TotalAmount:       total,
		ShippingAddressID: in.ShippingAddressID,
		PaymentStatus:     domain.PaymentPending,
		OrderStatus:       domain.StatusPlaced,
		PaymentMethod:     in.PaymentMethod,
		Version:           1,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Infof("order %s created for user %s, total %s", order.ID, order.UserID, total.StringFixed(domain.MinorUnitPlaces))

	if err := s.accounts.AppendOrder(ctx, order.UserID, order.ID); err != nil {
		s.log.WithContext(ctx).Warnf("append order %s to user %s history: %v", order.ID, order.UserID, err)
	}
	if err := s.accounts.ClearCart(ctx, order.UserID); err != nil {
		s.log.WithContext(ctx).Warnf("clear cart of user %s after order %s: %v", order.UserID, order.ID, err)
	}
	s.cache.InvalidateUser(ctx, order.UserID)
	s.publish(ctx, domain.EventOrderCreated, domain.NewOrderEvent(order))

	intent, err := s.requestIntent(ctx, order)
	return &CreateOrderResult{Order: order, Intent: intent}, err
}

// RetryPaymentIntent requests a fresh intent for an order whose payment has not completed.
func (s *OrderService) RetryPaymentIntent(ctx context.Context, actor Actor, orderID string) (*CreateOrderResult, error) {
	unlock, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.loadOwned(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return nil, apperrors.Conflict("order %s is already paid", orderID)
	}
	intent, err := s.requestIntent(ctx, order)
	return &CreateOrderResult{Order: order, Intent: intent}, err
}

func (s *OrderService) requestIntent(ctx context.Context, order *domain.Order) (*infra.PaymentIntent, error) {
	amount := domain.MinorUnits(order.TotalAmount)
	intent, err := s.provider.CreatePaymentIntent(ctx, amount, s.currency, order.ID)
	if err != nil {
		s.log.WithContext(ctx).Errorf("payment intent for order %s: %v; order kept pending", order.ID, err)
		return nil, apperrors.Provider(err)
	}

	order.MergeDetails(map[string]any{
		domain.DetailIntentID:       intent.ID,
		domain.DetailIntentAmount:   amount,
		domain.DetailIntentCurrency: s.currency,
		domain.DetailReceipt:        order.ID,
	})
	if err := s.repo.Update(ctx, order); err != nil {
		// The client can still pay; verification accepts any intent when none is stored.
		s.log.WithContext(ctx).Errorf("record intent %s on order %s: %v", intent.ID, order.ID, err)
	}
	return intent, nil
}

// VerifyPayment checks the gateway signature for an order. A valid signature marks it
// paid; an invalid one deletes the pending order. Verifying a paid order again with the
// same payment id succeeds without changes.
func (s *OrderService) VerifyPayment(ctx context.Context, in VerifyPaymentInput) (*domain.Order, error) {
	if in.IntentID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, apperrors.Validation("intent id, payment id, and signature are required")
	}
	if in.OrderID == "" {
		return nil, apperrors.Validation("order id is required")
	}

	var out outbox
	defer s.flush(ctx, &out)
	unlock, err := s.lock(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.loadOwned(ctx, Actor{UserID: in.UserID}, in.OrderID)
	if err != nil {
		return nil, err
	}

	valid := s.verifier.Verify(in.IntentID, in.PaymentID, in.Signature)
	if order.IsPaid() {
		if valid && order.PaymentID != nil && *order.PaymentID == in.PaymentID {
			return order, nil
		}
		return nil, apperrors.Conflict("order %s is already paid", order.ID)
	}
	if stored := order.IntentID(); stored != "" && stored != in.IntentID {
		valid = false
	}

	if !valid {
		if err := s.repo.Delete(ctx, order.ID, order.Version); err != nil {
			return nil, s.storeErr(order.ID, err)
		}
		s.log.WithContext(ctx).Warnf("payment verification failed for order %s, order removed", order.ID)
		s.cache.InvalidateUser(ctx, order.UserID)
		out.add(domain.EventOrderPaymentFailed, order)
		return nil, apperrors.PaymentVerification("payment verification failed, order removed")
	}

	paymentID := in.PaymentID
	order.PaymentStatus = domain.PaymentPaid
	order.PaymentID = &paymentID
	order.MergeDetails(map[string]any{
		domain.DetailIntentID:  in.IntentID,
		domain.DetailPaymentID: in.PaymentID,
		domain.DetailSignature: in.Signature,
		domain.DetailOrderID:   in.OrderID,
	})
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, s.storeErr(order.ID, err)
	}
	s.log.WithContext(ctx).Infof("order %s paid with payment %s", order.ID, paymentID)
	s.cache.InvalidateUser(ctx, order.UserID)
	out.add(domain.EventOrderPaid, order)
	return order, nil
}

// CancelOrder is the owner-facing cancellation. It follows the same transition as an
// admin moving the order to cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID string) error {
	var out outbox
	defer s.flush(ctx, &out)
	unlock, err := s.lock(ctx, orderID)
	if err != nil {
		return err
	}
	defer unlock()

	order, err := s.loadOwned(ctx, actor, orderID)
	if err != nil {
		return err
	}
	_, _, err = s.transition(ctx, &out, order, domain.StatusCancelled)
	return err
}

// UpdateStatus moves an order to status. deleted is true when the move was a
// cancellation, which removes the order.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (order *domain.Order, deleted bool, err error) {
	target, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, false, err
	}

	var out outbox
	defer s.flush(ctx, &out)
	unlock, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	order, err = s.loadOwned(ctx, Actor{Admin: true}, orderID)
	if err != nil {
		return nil, false, err
	}
	return s.transition(ctx, &out, order, target)
}

func (s *OrderService) transition(ctx context.Context, out *outbox, order *domain.Order, target domain.OrderStatus) (*domain.Order, bool, error) {
	effect, err := domain.Transition(order, target)
	if err != nil {
		return nil, false, err
	}

	switch effect {
	case domain.EffectUpdate:
		from := order.OrderStatus
		order.OrderStatus = target
		if err := s.repo.Update(ctx, order); err != nil {
			return nil, false, s.storeErr(order.ID, err)
		}
		s.log.WithContext(ctx).Infof("order %s moved from %s to %s", order.ID, from, target)
		s.cache.InvalidateUser(ctx, order.UserID)
		out.add(domain.EventOrderStatusChanged, order)
		return order, false, nil
	case domain.EffectDelete:
		if err := s.repo.Delete(ctx, order.ID, order.Version); err != nil {
			return nil, false, s.storeErr(order.ID, err)
		}
		order.OrderStatus = domain.StatusCancelled
		s.log.WithContext(ctx).Infof("order %s cancelled and removed", order.ID)
		s.cache.InvalidateUser(ctx, order.UserID)
		out.add(domain.EventOrderCancelled, order)
		return order, true, nil
	default:
		return order, false, nil
	}
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	return s.loadOwned(ctx, actor, orderID)
}

// ListUserOrders returns one page of the user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page repository.Page) ([]domain.Order, int64, error) {
	page = page.Normalize()
	cached, gen, ok := s.cache.GetUserPage(ctx, userID, page)
	if ok {
		return cached.Orders, cached.Total, nil
	}

	// Callers that missed under different generations must not share a fill.
	key := fmt.Sprintf("%s:%d:%d:%d", userID, gen, page.Number, page.Limit)
	v, err, _ := s.lists.Do(key, func() (any, error) {
		orders, total, err := s.repo.FindByUser(ctx, userID, page)
		if err != nil {
			return nil, err
		}
		p := &cache.OrderPage{Orders: orders, Total: total}
		s.cache.SetUserPage(ctx, userID, gen, page, p)
		return p, nil
	})
	if err != nil {
		return nil, 0, err
	}
	p := v.(*cache.OrderPage)
	return p.Orders, p.Total, nil
}

// ListOrders is the admin listing across all users.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]domain.Order, int64, error) {
	return s.repo.FindAll(ctx, filter, page.Normalize())
}

func (s *OrderService) loadOwned(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperrors.Validation("order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || (!actor.Admin && order.UserID != actor.UserID) {
		return nil, apperrors.NotFound("order %s not found", orderID)
	}
	return order, nil
}

func (s *OrderService) lock(ctx context.Context, orderID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "order:"+orderID)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, apperrors.ConcurrentModification(orderID)
		}
		return nil, err
	}
	return unlock, nil
}

func (s *OrderService) storeErr(orderID string, err error) error {
	if errors.Is(err, repository.ErrStaleVersion) {
		return apperrors.ConcurrentModification(orderID)
	}
	return err
}

// outbox collects events produced while an order lock is held. flush publishes them
// after the lock is released.
type outbox struct {
	keys   []string
	events []domain.OrderEvent
}

func (o *outbox) add(key string, order *domain.Order) {
	o.keys = append(o.keys, key)
	o.events = append(o.events, domain.NewOrderEvent(order))
}

func (s *OrderService) flush(ctx context.Context, o *outbox) {
	for i, key := range o.keys {
		s.publish(ctx, key, o.events[i])
	}
}

func (s *OrderService) publish(ctx context.Context, key string, evt domain.OrderEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, key, evt); err != nil {
		s.log.WithContext(ctx).Warnf("publish %s for order %s: %v", key, evt.OrderID, err)
	}
}

func validateCreate(in CreateOrderInput) error {
	if in.UserID == "" {
		return apperrors.Validation("user is required")
	}
	if len(in.Items) == 0 {
		return apperrors.Validation("at least one product is required")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return apperrors.Validation("products[%d]: productId is required", i)
		}
		if it.Quantity <= 0 {
			return apperrors.Validation("products[%d]: quantity must be greater than zero", i)
		}
		if !it.Price.IsPositive() {
			return apperrors.Validation("products[%d]: price must be greater than zero", i)
		}
	}
	if strings.TrimSpace(in.ShippingAddressID) == "" {
		return apperrors.Validation("shipping address is required")
	}
	return nil
}
