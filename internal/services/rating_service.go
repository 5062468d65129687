package services

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/domain"
	"github.com/tbourn/go-order-backend/internal/identity"
	"github.com/tbourn/go-order-backend/internal/repo"
)

// RatingInput is one review submission.
type RatingInput struct {
	Mobile string
	Name   string
	Item   string
	Rating int
	Review string
}

// ItemRatingSummary aggregates the ratings of one item.
type ItemRatingSummary struct {
	Item      string          `json:"item"`
	AvgRating float64         `json:"avg_rating"`
	Count     int             `json:"count"`
	Ratings   []domain.Rating `json:"ratings"`
}

// RatingService stores and summarizes item ratings.
type RatingService struct {
	DB         *gorm.DB
	Normalizer identity.Normalizer
}

// Create validates and stores a rating.
func (s *RatingService) Create(ctx context.Context, in RatingInput, sess *Session) (*domain.Rating, error) {
	name, mobile := in.Name, in.Mobile
	if sess != nil {
		name, mobile = sess.Name, sess.Mobile
	}
	mobile = s.Normalizer.Normalize(strings.TrimSpace(mobile))
	if mobile == "" {
		return nil, ErrMissingRecipient
	}
	item := strings.TrimSpace(in.Item)
	if item == "" {
		return nil, ErrMissingItem
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}

	r := &domain.Rating{
		UserMobile: mobile,
		UserName:   strings.TrimSpace(name),
		ItemName:   item,
		Rating:     in.Rating,
		Review:     strings.TrimSpace(in.Review),
	}
	if err := repo.CreateRating(ctx, s.DB, r); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns every rating newest first.
func (s *RatingService) List(ctx context.Context) ([]domain.Rating, error) {
	return repo.ListRatings(ctx, s.DB)
}

// ItemSummary returns the ratings of item with their mean rounded to one
// decimal. An unrated item yields a zero average and count.
func (s *RatingService) ItemSummary(ctx context.Context, item string) (*ItemRatingSummary, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return nil, ErrMissingItem
	}
	rs, err := repo.ListItemRatings(ctx, s.DB, item)
	if err != nil {
		return nil, err
	}
	sum := 0
	for _, r := range rs {
		sum += r.Rating
	}
	out := &ItemRatingSummary{Item: item, Count: len(rs), Ratings: rs}
	if len(rs) > 0 {
		out.AvgRating = math.Round(float64(sum)/float64(len(rs))*10) / 10
	}
	return out, nil
}
