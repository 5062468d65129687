// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) on endpoints clients poll.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/domain"
)

// NotificationStats summarizes a recipient's notification log.
type NotificationStats struct {
	Count  int64
	Unread int64
	MaxID  int64
}

// NotificationsStats returns aggregate metadata for userMobile's
// notifications: total rows, unread rows and the highest ID. Any append or
// read-flag change alters at least one of the three.
func NotificationsStats(ctx context.Context, db *gorm.DB, userMobile string) (NotificationStats, error) {
	var st NotificationStats
	q := db.WithContext(ctx).Model(&domain.Notification{}).Where("user_mobile = ?", userMobile)

	if err := q.Count(&st.Count).Error; err != nil {
		return NotificationStats{}, err
	}
	if st.Count == 0 {
		return st, nil
	}
	if err := db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_mobile = ? AND read = ?", userMobile, false).
		Count(&st.Unread).Error; err != nil {
		return NotificationStats{}, err
	}
	var row struct{ ID int64 }
	if err := db.WithContext(ctx).Model(&domain.Notification{}).
		Select("id").
		Where("user_mobile = ?", userMobile).
		Order("id DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return NotificationStats{}, err
	}
	st.MaxID = row.ID
	return st, nil
}
