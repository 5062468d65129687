// Package handlers exposes the ordering API over HTTP.
//
// Handlers are transport-thin: they bind and validate input, resolve the
// caller's session, delegate to application services, and translate results
// into HTTP responses (including conditional and idempotent responses).
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/domain"
	"github.com/tbourn/go-order-backend/internal/http/middleware"
	"github.com/tbourn/go-order-backend/internal/repo"
	"github.com/tbourn/go-order-backend/internal/services"
)

// Service contracts (context-aware)

// OrderService defines the order lifecycle consumed by HTTP handlers.
type OrderService interface {
	Create(ctx context.Context, in services.CreateOrderInput, sess *services.Session) (*domain.Order, error)
	List(ctx context.Context, mobile string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Notification, error)
	Cancel(ctx context.Context, id string) (*domain.Notification, error)
	Delete(ctx context.Context, id string) error
}

// NotificationService defines notification log operations.
type NotificationService interface {
	Append(ctx context.Context, in services.NotificationInput) (*domain.Notification, error)
	List(ctx context.Context, recipient string) ([]domain.Notification, error)
	Get(ctx context.Context, id int64) (*domain.Notification, error)
	Stats(ctx context.Context, recipient string) (repo.NotificationStats, error)
	MarkRead(ctx context.Context, recipient string, id int64) error
}

// RecommendationService ranks previously ordered items.
type RecommendationService interface {
	Recommend(ctx context.Context, mobile string) ([]string, error)
}

// FavoriteService manages favorite items.
type FavoriteService interface {
	Add(ctx context.Context, mobile, item string) error
	List(ctx context.Context, mobile string) ([]string, error)
	Remove(ctx context.Context, mobile, item string) error
}

// RatingService stores and summarizes item ratings.
type RatingService interface {
	Create(ctx context.Context, in services.RatingInput, sess *services.Session) (*domain.Rating, error)
	List(ctx context.Context) ([]domain.Rating, error)
	ItemSummary(ctx context.Context, item string) (*services.ItemRatingSummary, error)
}

// Handler wiring

// Deps carries everything New needs.
type Deps struct {
	Orders          OrderService
	Notifications   NotificationService
	Recommendations RecommendationService
	Favorites       FavoriteService
	Ratings         RatingService

	// IdemDB stores Idempotency-Key records; nil disables replay. Replays are
	// only served for requests IdempotencyValidator flagged.
	IdemDB *gorm.DB
	// IdemTTL is how long a recorded result can be replayed.
	IdemTTL time.Duration
}

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	orderSvc  OrderService
	notifSvc  NotificationService
	recSvc    RecommendationService
	favSvc    FavoriteService
	ratingSvc RatingService

	idemDB  *gorm.DB
	idemTTL time.Duration
}

// New constructs a Handlers bound to the given services.
func New(d Deps) *Handlers {
	if err := RegisterValidators(); err != nil {
		log.Error().Err(err).Msg("register binding validators")
	}
	ttl := d.IdemTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{
		orderSvc:  d.Orders,
		notifSvc:  d.Notifications,
		recSvc:    d.Recommendations,
		favSvc:    d.Favorites,
		ratingSvc: d.Ratings,
		idemDB:    d.IdemDB,
		idemTTL:   ttl,
	}
}

// callerMobile returns the verified session mobile, falling back to the
// client-supplied value for anonymous callers.
func callerMobile(c *gin.Context, supplied string) string {
	if s := middleware.SessionFrom(c); s != nil {
		return s.Mobile
	}
	return strings.TrimSpace(supplied)
}
