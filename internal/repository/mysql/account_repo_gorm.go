package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zippty/order-service/internal/domain"
	"zippty/order-service/internal/repository"
)

// Address, Cart and CartItem are owned by the account and cart modules; only the columns
// the order flow touches are mapped here.
type Address struct {
	ID      string `gorm:"primaryKey;type:varchar(64)"`
	UserID  string `gorm:"type:varchar(64);not null;index"`
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

type UserOrder struct {
	UserID    string    `gorm:"primaryKey;type:varchar(64)"`
	OrderID   string    `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type Cart struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID string `gorm:"type:varchar(64);uniqueIndex"`
	Items  []CartItem
}

type CartItem struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	CartID    uint64 `gorm:"not null;index"`
	ProductID string `gorm:"type:varchar(64);not null"`
	Quantity  int    `gorm:"not null;default:1"`
}

// Models lists every table this service migrates.
func Models() []any {
	return []any{&domain.Order{}, &Address{}, &UserOrder{}, &Cart{}, &CartItem{}}
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) AddressExists(ctx context.Context, userID, addressID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Address{}).
		Where("id = ? AND user_id = ?", addressID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *accountRepo) AppendOrder(ctx context.Context, userID, orderID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&UserOrder{UserID: userID, OrderID: orderID}).Error
}

func (r *accountRepo) ClearCart(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&Cart{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("cart_id IN (?)", sub).Delete(&CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&Cart{}).Error
	})
}
