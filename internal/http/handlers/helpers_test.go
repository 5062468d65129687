package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-order-backend/internal/http/middleware"
	"github.com/tbourn/go-order-backend/internal/identity"
	"github.com/tbourn/go-order-backend/internal/repo"
	"github.com/tbourn/go-order-backend/internal/services"
)

var (
	testSecret = []byte("handlers-test-secret")
	// fixedNow is the server clock for order rules.
	fixedNow = time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
)

type testEnv struct {
	db *gorm.DB
	r  *gin.Engine
}

func newHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newTestEnv wires real services over a fresh in-memory database and mounts
// every endpoint behind RequestID, Session and IdempotencyValidator.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlersDB(t)
	norm := identity.New("+91")
	notif := &services.NotificationService{DB: db, Normalizer: norm}

	h := New(Deps{
		Orders: &services.OrderService{
			DB:         db,
			Notifier:   notif,
			Normalizer: norm,
			Now:        func() time.Time { return fixedNow },
		},
		Notifications:   notif,
		Recommendations: &services.RecommendationService{DB: db, Normalizer: norm},
		Favorites:       &services.FavoriteService{DB: db, Normalizer: norm},
		Ratings:         &services.RatingService{DB: db, Normalizer: norm},
		IdemDB:          db,
		IdemTTL:         time.Hour,
	})

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Session(middleware.SessionOptions{Secret: testSecret}),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idempotencyLookup(db)),
	)
	mount(r, h)
	return &testEnv{db: db, r: r}
}

func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, actor, scope, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, actor, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}

func mount(r gin.IRouter, h *Handlers) {
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders", h.ListOrders)
	r.PUT("/orders/:id/status", h.UpdateOrderStatus)
	r.POST("/orders/:id/cancel", h.CancelOrder)
	r.DELETE("/orders/:id", h.DeleteOrder)
	r.GET("/recommendations", h.Recommend)
	r.GET("/notifications", h.ListNotifications)
	r.POST("/notifications", h.CreateNotification)
	r.PUT("/notifications/:id/read", h.MarkNotificationRead)
	r.GET("/favorites", h.ListFavorites)
	r.POST("/favorites", h.AddFavorite)
	r.DELETE("/favorites", h.RemoveFavorite)
	r.GET("/ratings", h.ListRatings)
	r.POST("/ratings", h.CreateRating)
	r.GET("/ratings/item/:name", h.ItemRatings)
}

// bearer signs a session token for name/mobile.
func bearer(t *testing.T, name, mobile string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.SessionClaims{
		Name:   name,
		Mobile: mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok
}

// do performs a request; body may be nil, a string, or a value to encode.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v (body=%s)", err, w.Body.String())
	}
	return out
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status=%d want %d body=%s", w.Code, code, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	wantStatus(t, w, status)
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code=%q want %q (%+v)", er.Code, code, er)
	}
	if er.RequestID == "" {
		t.Fatalf("missing request_id in %+v", er)
	}
	return er
}
