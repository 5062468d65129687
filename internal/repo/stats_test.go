package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-order-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestNotificationsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, err := NotificationsStats(context.Background(), db, "+911111111111")
	if err == nil {
		t.Fatalf("expected error due to missing notifications table")
	}
}

func TestNotificationsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Notification{})
	st, err := NotificationsStats(context.Background(), db, "+911111111111")
	if err != nil {
		t.Fatalf("NotificationsStats error: %v", err)
	}
	if st != (NotificationStats{}) {
		t.Fatalf("expected zero stats, got %+v", st)
	}
}

func TestNotificationsStats_FilterUnreadAndMax(t *testing.T) {
	db := newTestDB(t, &domain.Notification{})
	ctx := context.Background()

	u1, u2 := "+911111111111", "+912222222222"
	if _, err := CreateNotification(ctx, db, u1, "a", nil, nil); err != nil {
		t.Fatalf("seed a: %v", err)
	}
	if _, err := CreateNotification(ctx, db, u2, "x", nil, nil); err != nil {
		t.Fatalf("seed x: %v", err)
	}
	last, err := CreateNotification(ctx, db, u1, "b", nil, nil)
	if err != nil {
		t.Fatalf("seed b: %v", err)
	}

	st, err := NotificationsStats(ctx, db, u1)
	if err != nil {
		t.Fatalf("NotificationsStats error: %v", err)
	}
	if st.Count != 2 || st.Unread != 2 || st.MaxID != last.ID {
		t.Fatalf("unexpected stats: %+v (last id %d)", st, last.ID)
	}

	if err := MarkNotificationRead(ctx, db, u1, last.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	st2, err := NotificationsStats(ctx, db, u1)
	if err != nil {
		t.Fatalf("NotificationsStats error: %v", err)
	}
	if st2.Unread != 1 || st2 == st {
		t.Fatalf("expected stats to change after read flag flip: before=%+v after=%+v", st, st2)
	}
}

// Force the follow-up unread count to fail by renaming the column.
func TestNotificationsStats_Unread_ErrorPath(t *testing.T) {
	db := newTestDB(t, &domain.Notification{})
	ctx := context.Background()
	if _, err := CreateNotification(ctx, db, "+913333333333", "m", nil, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Exec(`ALTER TABLE notifications RENAME COLUMN read TO read_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}
	if _, err := NotificationsStats(ctx, db, "+913333333333"); err == nil {
		t.Fatalf("expected error from unread count after column rename")
	}
}
