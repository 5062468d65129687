// Package services – OrderService
//
// This file implements OrderService, the order lifecycle engine. It validates
// order creation (including the pre-order lead-time rule), writes status
// transitions and derives the customer notification for each transition.
//
// Transitions are open: any status string is accepted and written
// unconditionally. Notification derivation is best-effort; a failed append is
// logged and never fails the transition.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/domain"
	"github.com/tbourn/go-order-backend/internal/identity"
	"github.com/tbourn/go-order-backend/internal/observability"
	"github.com/tbourn/go-order-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultETAMinutes  = 30
	defaultMinLeadTime = 24 * time.Hour
)

// deliveryLayouts are tried in order when parsing a pre-order delivery date.
// Zone-less layouts are interpreted in OrderService.Location.
var deliveryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Session is the authenticated caller, if any. Its name and mobile override
// client-supplied values on order creation.
type Session struct {
	Name   string
	Mobile string
}

// CreateOrderInput carries the client payload for Create.
type CreateOrderInput struct {
	ID           string
	Name         string
	Mobile       string
	Payment      string
	PreOrder     bool
	DeliveryDate *string
	DeliveryTime *string
	Items        map[string]any
	Status       string
}

// OrderService implements the order lifecycle.
type OrderService struct {
	DB         *gorm.DB
	Notifier   Notifier
	Normalizer identity.Normalizer

	// Now is the clock; nil means time.Now.
	Now func() time.Time
	// Location interprets zone-less delivery dates; nil means UTC.
	Location *time.Location
	// ETAMinutes is reported on non-pre-order acceptance.
	ETAMinutes int
	// MinLeadTime is the minimum distance between now and a pre-order delivery.
	MinLeadTime time.Duration
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *OrderService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *OrderService) etaMinutes() int {
	if s.ETAMinutes > 0 {
		return s.ETAMinutes
	}
	return defaultETAMinutes
}

func (s *OrderService) minLeadTime() time.Duration {
	if s.MinLeadTime > 0 {
		return s.MinLeadTime
	}
	return defaultMinLeadTime
}

// Create validates and persists a new order. No notification is generated.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput, sess *Session) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("order.id", in.ID),
			attribute.Bool("order.pre_order", in.PreOrder),
		),
	)
	defer span.End()

	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, ErrMissingOrderID
	}

	name, mobile := in.Name, in.Mobile
	if sess != nil {
		name, mobile = sess.Name, sess.Mobile
	}
	mobile = s.Normalizer.Normalize(strings.TrimSpace(mobile))

	if in.PreOrder && in.DeliveryDate != nil {
		if err := s.checkLeadTime(*in.DeliveryDate); err != nil {
			return nil, err
		}
	}

	items := "{}"
	if len(in.Items) > 0 {
		b, err := json.Marshal(in.Items)
		if err != nil {
			return nil, fmt.Errorf("encode items: %w", err)
		}
		items = string(b)
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = domain.StatusPending
	}

	o := &domain.Order{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Mobile:    mobile,
		Payment:   in.Payment,
		PreOrder:  in.PreOrder,
		Items:     items,
		Status:    status,
		CreatedAt: s.now().UTC(),
	}
	if in.PreOrder {
		o.DeliveryDate = in.DeliveryDate
		o.DeliveryTime = in.DeliveryTime
	}

	if err := repo.CreateOrder(ctx, s.DB, o); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrOrderExists
		}
		return nil, err
	}
	observability.OrdersCreated.Inc()
	return o, nil
}

// checkLeadTime rejects a delivery date closer than MinLeadTime. Dates that
// match none of the accepted layouts pass.
func (s *OrderService) checkLeadTime(raw string) error {
	at, ok := parseDelivery(strings.TrimSpace(raw), s.location())
	if !ok {
		return nil
	}
	if at.Sub(s.now()) < s.minLeadTime() {
		return ErrPreOrderTooSoon
	}
	return nil
}

func parseDelivery(raw string, loc *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range deliveryLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UpdateStatus writes status to order id and appends the derived
// notification. It returns the appended notification, or nil when none was
// produced (unknown order, no owner, or a failed append).
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*domain.Notification, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.String("order.id", id),
			attribute.String("order.status", status),
		),
	)
	defer span.End()

	status = strings.TrimSpace(status)
	if status == "" {
		return nil, ErrMissingStatus
	}

	if err := repo.UpdateOrderStatus(ctx, s.DB, id, status); err != nil {
		return nil, err
	}
	observability.StatusTransitions.WithLabelValues(observability.StatusLabel(status)).Inc()

	logger := zerolog.Ctx(ctx)
	o, err := repo.GetOrder(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Debug().Str("order_id", id).Err(ErrOrderNotFound).Msg("status written for unknown order")
		} else {
			logger.Warn().Str("order_id", id).Err(err).Msg("order lookup after status write failed")
		}
		return nil, nil
	}
	if o.Mobile == "" || s.Notifier == nil {
		return nil, nil
	}

	in := s.notificationFor(o, status)
	n, err := s.Notifier.Append(ctx, in)
	if err != nil {
		logger.Warn().Str("order_id", id).Str("status", status).Err(err).Msg("notification append failed")
		return nil, nil
	}
	return n, nil
}

// notificationFor derives the message for a transition of o to status.
func (s *OrderService) notificationFor(o *domain.Order, status string) NotificationInput {
	orderID := o.ID
	in := NotificationInput{
		Recipient: o.Mobile,
		OrderID:   &orderID,
		Source:    observability.SourceLifecycle,
	}
	switch status {
	case domain.StatusAccepted:
		if o.PreOrder {
			in.Message = strings.TrimSpace(fmt.Sprintf(
				"Your pre-order %s has been accepted. Scheduled delivery: %s %s",
				o.ID, deref(o.DeliveryDate), deref(o.DeliveryTime),
			))
		} else {
			eta := s.etaMinutes()
			in.Message = fmt.Sprintf("Your order %s has been accepted. Estimated delivery in %d minutes.", o.ID, eta)
			in.ETAMinutes = &eta
		}
	case domain.StatusDeclined:
		in.Message = fmt.Sprintf("Your order %s was declined. Please contact support.", o.ID)
	default:
		in.Message = fmt.Sprintf("Order %s status updated to %s.", o.ID, status)
	}
	return in
}

// Cancel transitions order id to CANCELLED.
func (s *OrderService) Cancel(ctx context.Context, id string) (*domain.Notification, error) {
	return s.UpdateStatus(ctx, id, domain.StatusCancelled)
}

// Delete removes order id. Deleting a missing order is a no-op.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	defer span.End()

	return repo.DeleteOrder(ctx, s.DB, id)
}

// List returns orders newest first, optionally filtered to one owner.
func (s *OrderService) List(ctx context.Context, mobile string) ([]domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	if mobile = strings.TrimSpace(mobile); mobile != "" {
		// A filter without digits matches nobody rather than everybody.
		if mobile = s.Normalizer.Normalize(mobile); mobile == "" {
			return []domain.Order{}, nil
		}
	}
	return repo.ListOrders(ctx, s.DB, mobile)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
