package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"

	"zippty/order-service/internal/domain"
	"zippty/order-service/internal/repository"
)

type orderRepo struct {
	db  *gorm.DB
	log *log.Helper
}

func NewOrderRepository(db *gorm.DB, logger log.Logger) repository.OrderRepository {
	return &orderRepo{db: db, log: log.NewHelper(log.With(logger, "module", "repository/mysql"))}
}

func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	if order.Version == 0 {
		order.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		r.log.Errorf("create order %s: %v", order.ID, err)
		return err
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("find order %s: %v", id, err)
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByUser(ctx context.Context, userID string, page repository.Page) ([]domain.Order, int64, error) {
	return r.FindAll(ctx, repository.OrderFilter{UserID: userID}, page)
}

func (r *orderRepo) FindAll(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]domain.Order, int64, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		r.log.Errorf("count orders: %v", err)
		return nil, 0, err
	}

	var out []domain.Order
	err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&out).Error
	if err != nil {
		r.log.Errorf("list orders: %v", err)
		return nil, 0, err
	}
	return out, total, nil
}

func (r *orderRepo) Update(ctx context.Context, order *domain.Order) error {
	next := order.Version + 1
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"payment_status":  order.PaymentStatus,
			"order_status":    order.OrderStatus,
			"payment_id":      order.PaymentID,
			"payment_details": order.PaymentDetails,
			"version":         next,
			"updated_at":      now,
		})
	if res.Error != nil {
		r.log.Errorf("update order %s: %v", order.ID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrStaleVersion
	}
	order.Version = next
	order.UpdatedAt = now
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id string, version int64) error {
	res := r.db.WithContext(ctx).Where("id = ? AND version = ?", id, version).Delete(&domain.Order{})
	if res.Error != nil {
		r.log.Errorf("delete order %s: %v", id, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrStaleVersion
	}
	return nil
}
