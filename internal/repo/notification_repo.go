// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// append-only Notification log.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/domain"
)

// CreateNotification appends a message for userMobile. orderID and eta are
// optional.
func CreateNotification(ctx context.Context, db *gorm.DB, userMobile, message string, orderID *string, eta *int) (*domain.Notification, error) {
	n := &domain.Notification{
		UserMobile: userMobile,
		Message:    message,
		OrderID:    orderID,
		ETAMinutes: eta,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications returns the notifications of userMobile, newest first.
// The ID breaks ties between rows written within the same instant.
func ListNotifications(ctx context.Context, db *gorm.DB, userMobile string) ([]domain.Notification, error) {
	out := []domain.Notification{}
	err := db.WithContext(ctx).
		Where("user_mobile = ?", userMobile).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// GetNotification fetches a notification by ID.
func GetNotification(ctx context.Context, db *gorm.DB, id int64) (*domain.Notification, error) {
	var n domain.Notification
	if err := db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkNotificationRead flips the read flag of notification id owned by
// userMobile. Returns ErrNotFound when no such notification exists.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, userMobile string, id int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_mobile = ?", id, userMobile).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
