package repository

import (
	"context"
	"errors"

	"zippty/order-service/internal/domain"
)

// ErrStaleVersion is returned when a conditional write finds a different version than the
// one the caller read.
var ErrStaleVersion = errors.New("stale order version")

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Page struct {
	Number int
	Limit  int
}

// Normalize applies defaults and bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

type OrderFilter struct {
	UserID string
}

// OrderRepository stores orders. Lists are ordered newest first. FindByID returns
// (nil, nil) when the order does not exist.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByUser(ctx context.Context, userID string, page Page) ([]domain.Order, int64, error)
	FindAll(ctx context.Context, filter OrderFilter, page Page) ([]domain.Order, int64, error)
	// Update writes order if the stored version equals order.Version and bumps the
	// version on success.
	Update(ctx context.Context, order *domain.Order) error
	// Delete removes the order if the stored version equals version.
	Delete(ctx context.Context, id string, version int64) error
}

// AccountRepository is the read-mostly view of users, addresses and carts owned by other
// parts of the backend.
type AccountRepository interface {
	AddressExists(ctx context.Context, userID, addressID string) (bool, error)
	AppendOrder(ctx context.Context, userID, orderID string) error
	ClearCart(ctx context.Context, userID string) error
}
