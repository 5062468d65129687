package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-order-backend/internal/domain"
	"github.com/tbourn/go-order-backend/internal/services"
)

func TestRatings_CreateListSummary(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/ratings", map[string]any{
		"user_mobile": "9876543210", "user_name": "Asha", "item_name": "Idly", "rating": 5, "review": "Soft",
	})
	wantStatus(t, w, http.StatusCreated)
	r := decode[domain.Rating](t, w)
	if r.UserMobile != "+919876543210" || r.ItemName != "Idly" || r.Rating != 5 {
		t.Fatalf("unexpected rating: %+v", r)
	}

	// session identity wins over the payload
	w = e.do(t, http.MethodPost, "/ratings", map[string]any{
		"user_mobile": "1", "user_name": "x", "item_name": "Idly", "rating": 4,
	}, "Authorization", bearer(t, "Ravi", "+919123456780"))
	wantStatus(t, w, http.StatusCreated)
	if r := decode[domain.Rating](t, w); r.UserName != "Ravi" || r.UserMobile != "+919123456780" {
		t.Fatalf("session not applied: %+v", r)
	}
	wantStatus(t, e.do(t, http.MethodPost, "/ratings", map[string]any{
		"user_mobile": "9876543210", "item_name": "Idly", "rating": 4,
	}), http.StatusCreated)

	all := decode[ListRatingsResponse](t, e.do(t, http.MethodGet, "/ratings", nil))
	if len(all.Ratings) != 3 {
		t.Fatalf("want 3 ratings, got %d", len(all.Ratings))
	}

	sum := decode[services.ItemRatingSummary](t, e.do(t, http.MethodGet, "/ratings/item/Idly", nil))
	if sum.Item != "Idly" || sum.Count != 3 || sum.AvgRating != 4.3 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	empty := decode[services.ItemRatingSummary](t, e.do(t, http.MethodGet, "/ratings/item/Vada", nil))
	if empty.Count != 0 || empty.AvgRating != 0 || len(empty.Ratings) != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

func TestRatings_Validation(t *testing.T) {
	e := newTestEnv(t)
	er := wantError(t, e.do(t, http.MethodPost, "/ratings", map[string]any{
		"user_mobile": "9876543210", "item_name": "Idly", "rating": 6,
	}), http.StatusBadRequest, ErrCodeBadRequest)
	if er.Message != "rating must be between 1 and 5" {
		t.Fatalf("message=%q", er.Message)
	}
	wantError(t, e.do(t, http.MethodPost, "/ratings", map[string]any{"item_name": "Idly", "rating": 3}), http.StatusBadRequest, ErrCodeBadRequest)
	wantError(t, e.do(t, http.MethodPost, "/ratings", map[string]any{"user_mobile": "9876543210", "rating": 3}), http.StatusBadRequest, ErrCodeBadRequest)
	wantError(t, e.do(t, http.MethodPost, "/ratings", `{"rating":"five"}`), http.StatusBadRequest, ErrCodeBadRequest)
}
