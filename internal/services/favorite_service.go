package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/identity"
	"github.com/tbourn/go-order-backend/internal/repo"
)

// FavoriteService manages per-user favorite items.
type FavoriteService struct {
	DB         *gorm.DB
	Normalizer identity.Normalizer
}

func (s *FavoriteService) args(mobile, item string) (string, string, error) {
	mobile = s.Normalizer.Normalize(strings.TrimSpace(mobile))
	if mobile == "" {
		return "", "", ErrMissingRecipient
	}
	item = strings.TrimSpace(item)
	if item == "" {
		return "", "", ErrMissingItem
	}
	return mobile, item, nil
}

// Add marks item as a favorite of mobile. Adding it twice is a no-op.
func (s *FavoriteService) Add(ctx context.Context, mobile, item string) error {
	mobile, item, err := s.args(mobile, item)
	if err != nil {
		return err
	}
	return repo.AddFavorite(ctx, s.DB, mobile, item)
}

// List returns the favorite item names of mobile, newest first.
func (s *FavoriteService) List(ctx context.Context, mobile string) ([]string, error) {
	mobile = s.Normalizer.Normalize(strings.TrimSpace(mobile))
	if mobile == "" {
		return nil, ErrMissingRecipient
	}
	return repo.ListFavorites(ctx, s.DB, mobile)
}

// Remove unmarks item. Removing a missing favorite is a no-op.
func (s *FavoriteService) Remove(ctx context.Context, mobile, item string) error {
	mobile, item, err := s.args(mobile, item)
	if err != nil {
		return err
	}
	return repo.RemoveFavorite(ctx, s.DB, mobile, item)
}
