// Package services – NotificationService
//
// This file implements NotificationService, the owner of the per-user
// notification log. Notifications are appended as a side effect of order
// status transitions (see OrderService) or directly by collaborators through
// the explicit notify endpoint. Only the read flag is mutable afterwards.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/domain"
	"github.com/tbourn/go-order-backend/internal/identity"
	"github.com/tbourn/go-order-backend/internal/observability"
	"github.com/tbourn/go-order-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NotificationInput describes one notification to append.
type NotificationInput struct {
	Recipient  string
	Message    string
	OrderID    *string
	ETAMinutes *int
	// Source labels the origin for metrics; empty means an API caller.
	Source string
}

// Notifier appends notifications. OrderService depends on it rather than on
// NotificationService so tests can observe or fail appends.
type Notifier interface {
	Append(ctx context.Context, in NotificationInput) (*domain.Notification, error)
}

// NotificationService reads and writes the notification log.
type NotificationService struct {
	DB         *gorm.DB
	Normalizer identity.Normalizer
}

// Append normalizes the recipient and stores a new unread notification.
func (s *NotificationService) Append(ctx context.Context, in NotificationInput) (*domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(attribute.String("notification.source", in.Source)),
	)
	defer span.End()

	recipient := s.Normalizer.Normalize(strings.TrimSpace(in.Recipient))
	if recipient == "" {
		return nil, ErrMissingRecipient
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, ErrMissingMessage
	}

	n, err := repo.CreateNotification(ctx, s.DB, recipient, msg, in.OrderID, in.ETAMinutes)
	if err != nil {
		return nil, err
	}
	source := in.Source
	if source == "" {
		source = observability.SourceAPI
	}
	observability.NotificationsCreated.WithLabelValues(source).Inc()
	return n, nil
}

// List returns the recipient's notifications newest first.
func (s *NotificationService) List(ctx context.Context, recipient string) ([]domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	recipient = s.Normalizer.Normalize(strings.TrimSpace(recipient))
	if recipient == "" {
		return nil, ErrMissingRecipient
	}
	return repo.ListNotifications(ctx, s.DB, recipient)
}

// Get returns a notification by ID; used to replay idempotent notify calls.
func (s *NotificationService) Get(ctx context.Context, id int64) (*domain.Notification, error) {
	n, err := repo.GetNotification(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	return n, err
}

// Stats returns aggregate metadata used to build ETags for polling clients.
func (s *NotificationService) Stats(ctx context.Context, recipient string) (repo.NotificationStats, error) {
	recipient = s.Normalizer.Normalize(strings.TrimSpace(recipient))
	if recipient == "" {
		return repo.NotificationStats{}, ErrMissingRecipient
	}
	return repo.NotificationsStats(ctx, s.DB, recipient)
}

// MarkRead flips the read flag of one of the recipient's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, recipient string, id int64) error {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "MarkRead",
		trace.WithAttributes(attribute.Int64("notification.id", id)),
	)
	defer span.End()

	recipient = s.Normalizer.Normalize(strings.TrimSpace(recipient))
	if recipient == "" {
		return ErrMissingRecipient
	}
	if err := repo.MarkNotificationRead(ctx, s.DB, recipient, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
