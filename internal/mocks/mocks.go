package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"zippty/order-service/internal/domain"
	"zippty/order-service/internal/infra"
	"zippty/order-service/internal/infra/cache"
	"zippty/order-service/internal/repository"
)

type MockOrderRepository struct {
	mock.Mock
}

type MockAccountRepository struct {
	mock.Mock
}

type MockPaymentProvider struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

type MockOrderCache struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID string, page repository.Page) ([]domain.Order, int64, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]domain.Order, int64, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string, version int64) error {
	args := m.Called(ctx, id, version)
	return args.Error(0)
}

func (m *MockAccountRepository) AddressExists(ctx context.Context, userID, addressID string) (bool, error) {
	args := m.Called(ctx, userID, addressID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) AppendOrder(ctx context.Context, userID, orderID string) error {
	args := m.Called(ctx, userID, orderID)
	return args.Error(0)
}

func (m *MockAccountRepository) ClearCart(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockPaymentProvider) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency, receipt string) (*infra.PaymentIntent, error) {
	args := m.Called(ctx, amountMinor, currency, receipt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.PaymentIntent), args.Error(1)
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, message any) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockOrderCache) GetUserPage(ctx context.Context, userID string, page repository.Page) (*cache.OrderPage, int64, bool) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Bool(2)
	}
	return args.Get(0).(*cache.OrderPage), args.Get(1).(int64), args.Bool(2)
}

func (m *MockOrderCache) SetUserPage(ctx context.Context, userID string, gen int64, page repository.Page, v *cache.OrderPage) {
	m.Called(ctx, userID, gen, page, v)
}

func (m *MockOrderCache) InvalidateUser(ctx context.Context, userID string) {
	m.Called(ctx, userID)
}
