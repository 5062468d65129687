// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for favorites.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-order-backend/internal/domain"
)

// AddFavorite inserts (userMobile, item) unless it already exists. A
// duplicate is silently ignored (ON CONFLICT DO NOTHING).
func AddFavorite(ctx context.Context, db *gorm.DB, userMobile, item string) error {
	f := &domain.Favorite{
		UserMobile: userMobile,
		ItemName:   item,
		CreatedAt:  time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(f).Error
}

// ListFavorites returns the favorite item names of userMobile, newest first.
func ListFavorites(ctx context.Context, db *gorm.DB, userMobile string) ([]string, error) {
	out := []string{}
	err := db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_mobile = ?", userMobile).
		Order("created_at DESC, id DESC").
		Pluck("item_name", &out).Error
	return out, err
}

// RemoveFavorite deletes (userMobile, item). Removing a missing favorite is
// a no-op.
func RemoveFavorite(ctx context.Context, db *gorm.DB, userMobile, item string) error {
	return db.WithContext(ctx).
		Where("user_mobile = ? AND item_name = ?", userMobile, item).
		Delete(&domain.Favorite{}).Error
}
