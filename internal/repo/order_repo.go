// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - CreateOrder returns ErrDuplicate when the order ID already exists. The
//     check is the primary-key constraint, so two racing inserts with the
//     same ID cannot both succeed.
//   - GetOrder returns ErrNotFound when the order does not exist.
//   - UpdateOrderStatus and DeleteOrder are unconditional: touching a missing
//     order is a no-op, not an error.
//   - On other DB errors the raw gorm error is propagated.
//
// Functions:
//
//   - CreateOrder(ctx, db, order) -> error
//   - GetOrder(ctx, db, id) -> *domain.Order, error
//   - UpdateOrderStatus(ctx, db, id, status) -> error
//   - DeleteOrder(ctx, db, id) -> error
//   - ListOrders(ctx, db, mobile) -> []domain.Order, error
//   - ListOrderItems(ctx, db, mobile) -> []string, error
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/domain"
)

// CreateOrder inserts o. CreatedAt is set to the current UTC time when the
// caller left it zero. Items defaults to an empty JSON object.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.Items == "" {
		o.Items = "{}"
	}
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetOrder fetches a single order by ID, or ErrNotFound if missing.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus sets the status of order id. It does not require the
// order to exist; zero affected rows is not an error.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, id, status string) error {
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// DeleteOrder permanently removes order id.
func DeleteOrder(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Order{}).Error
}

// ListOrders returns orders newest first. An empty mobile lists every order.
func ListOrders(ctx context.Context, db *gorm.DB, mobile string) ([]domain.Order, error) {
	out := []domain.Order{}
	q := db.WithContext(ctx).Order("created_at DESC, id DESC")
	if mobile != "" {
		q = q.Where("mobile = ?", mobile)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListOrderItems returns the raw item content of every order (or of one
// owner's orders), oldest first so aggregation sees history in order.
func ListOrderItems(ctx context.Context, db *gorm.DB, mobile string) ([]string, error) {
	var out []string
	q := db.WithContext(ctx).Model(&domain.Order{}).Order("created_at ASC, id ASC")
	if mobile != "" {
		q = q.Where("mobile = ?", mobile)
	}
	err := q.Pluck("items", &out).Error
	return out, err
}
