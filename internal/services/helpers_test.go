package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-order-backend/internal/domain"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Order{}, &domain.Notification{}, &domain.Favorite{}, &domain.Rating{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// recordingNotifier captures appends and can be told to fail.
type recordingNotifier struct {
	mu   sync.Mutex
	got  []NotificationInput
	fail bool
}

func (r *recordingNotifier) Append(_ context.Context, in NotificationInput) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errors.New("boom")
	}
	r.got = append(r.got, in)
	return &domain.Notification{ID: int64(len(r.got)), UserMobile: in.Recipient, Message: in.Message, OrderID: in.OrderID, ETAMinutes: in.ETAMinutes}, nil
}

func (r *recordingNotifier) calls() []NotificationInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationInput, len(r.got))
	copy(out, r.got)
	return out
}

func strp(s string) *string { return &s }
