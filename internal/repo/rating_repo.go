// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for item ratings.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/domain"
)

// CreateRating inserts r with the current UTC time. Range validation lives in
// the service layer; the table's CHECK constraint is the last line.
func CreateRating(ctx context.Context, db *gorm.DB, r *domain.Rating) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// ListRatings returns all ratings newest first.
func ListRatings(ctx context.Context, db *gorm.DB) ([]domain.Rating, error) {
	out := []domain.Rating{}
	err := db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// ListItemRatings returns the ratings of one item newest first.
func ListItemRatings(ctx context.Context, db *gorm.DB, item string) ([]domain.Rating, error) {
	out := []domain.Rating{}
	err := db.WithContext(ctx).
		Where("item_name = ?", item).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
