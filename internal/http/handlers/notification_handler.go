// Notification HTTP handlers.
//
// This file exposes REST endpoints for the notification log:
//   - GET  /notifications            (list for a recipient, ETag support)
//   - POST /notifications            (explicit notify, Idempotency-Key aware)
//   - PUT  /notifications/{id}/read  (mark read)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (actor, scope, key), the handler returns the recorded
// notification and sets `Idempotency-Replayed: true` instead of appending a
// second one. Reusing a key with a different payload is a 409.
package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-order-backend/internal/domain"
	"github.com/tbourn/go-order-backend/internal/http/middleware"
	"github.com/tbourn/go-order-backend/internal/repo"
	"github.com/tbourn/go-order-backend/internal/services"
)

// DTOs

// NotifyRequest is the JSON payload for the explicit notify operation.
type NotifyRequest struct {
	Mobile     string  `json:"mobile"      binding:"required,mobile" example:"+919876543210"`
	Message    string  `json:"message"     binding:"required" example:"Your table is ready."`
	OrderID    *string `json:"order_id"    example:"ORD-1001"`
	ETAMinutes *int    `json:"eta_minutes" example:"15"`
}

// ListNotificationsResponse wraps a recipient's notifications, newest first.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// NotificationResponse wraps a single notification.
type NotificationResponse struct {
	Notification *domain.Notification `json:"notification"`
}

// Handlers

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List notifications
// @Description Returns the recipient's notifications newest first. Anonymous
// @Description callers must pass ?mobile=; a session overrides it.
// @Description Supports conditional requests through ETag / If-None-Match.
// @Tags        Notifications
// @Produce     json
// @Param       mobile         query   string  false  "Recipient mobile"
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing mobile"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	mobile := callerMobile(c, c.Query("mobile"))

	// ETag pre-check (best effort).
	st, err := h.notifSvc.Stats(ctx, mobile)
	if err != nil {
		failFrom(c, err, ErrCodeListFailed)
		return
	}
	etag := fmt.Sprintf(`W/"notifications:%d:%d:%d"`, st.Count, st.Unread, st.MaxID)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	items, err := h.notifSvc.List(ctx, mobile)
	if err != nil {
		failFrom(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: items})
}

// CreateNotification godoc
// @ID          createNotification
// @Summary     Notify a user
// @Description Appends a notification to the recipient's log.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Notifications
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.NotifyRequest  true   "Notification payload"
// @Success     201  {object}  handlers.NotificationResponse  "Created"
// @Success     200  {object}  handlers.NotificationResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing mobile or message"
// @Failure     409  {object}  handlers.ErrorResponse  "Idempotency-Key reused with a different payload"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications [post]
func (h *Handlers) CreateNotification(c *gin.Context) {
	ctx := c.Request.Context()

	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mobile and message are required")
		return
	}

	actor, scope := middleware.IdempotencyActor(c), middleware.IdempotencyScope(c)
	idemKey, _ := middleware.GetIdempotencyKey(c)
	fp := fingerprint(req)

	if middleware.IsReplay(c) && idemKey != "" && h.idemDB != nil {
		prev, err := h.replayNotification(c, actor, scope, idemKey, fp)
		if errors.Is(err, errIdempotencyReuse) {
			fail(c, http.StatusConflict, ErrCodeIdempotencyReuse, "Idempotency-Key was already used with a different payload")
			return
		}
		if prev != nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, NotificationResponse{Notification: prev})
			return
		}
	}

	n, err := h.notifSvc.Append(ctx, services.NotificationInput{
		Recipient:  req.Mobile,
		Message:    req.Message,
		OrderID:    req.OrderID,
		ETAMinutes: req.ETAMinutes,
	})
	if err != nil {
		failFrom(c, err, ErrCodeCreateFailed)
		return
	}

	// Store path, best effort.
	if idemKey != "" && h.idemDB != nil {
		_, err := repo.CreateIdempotency(ctx, h.idemDB, actor, scope, idemKey,
			strconv.FormatInt(n.ID, 10), fp, http.StatusCreated, h.idemTTL)
		if err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
		}
	}

	ok(c, http.StatusCreated, NotificationResponse{Notification: n})
}

var errIdempotencyReuse = errors.New("idempotency key reused with a different payload")

// fingerprint is the hex SHA-256 of the bound payload.
func fingerprint(req NotifyRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// replayNotification returns the notification recorded under the key, or nil
// when there is nothing usable to replay. A record stored for a different
// payload yields errIdempotencyReuse.
func (h *Handlers) replayNotification(c *gin.Context, actor, scope, key, fp string) (*domain.Notification, error) {
	ctx := c.Request.Context()
	rec, err := repo.GetIdempotency(ctx, h.idemDB, actor, scope, key, time.Now().UTC())
	if err != nil {
		return nil, nil
	}
	if rec.Fingerprint != fp {
		return nil, errIdempotencyReuse
	}
	id, err := strconv.ParseInt(rec.ResourceID, 10, 64)
	if err != nil {
		return nil, nil
	}
	prev, err := h.notifSvc.Get(ctx, id)
	if err != nil {
		return nil, nil
	}
	return prev, nil
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark a notification read
// @Tags        Notifications
// @Param       id      path   int     true   "Notification ID"
// @Param       mobile  query  string  false  "Recipient mobile (ignored with a session)"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id or missing mobile"
// @Failure     404  {object}  handlers.ErrorResponse  "Notification not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/{id}/read [put]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "notification id must be a positive integer")
		return
	}
	mobile := callerMobile(c, c.Query("mobile"))
	if err := h.notifSvc.MarkRead(c.Request.Context(), mobile, id); err != nil {
		failFrom(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}
