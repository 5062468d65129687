// Rating HTTP handlers.
//
// This file exposes REST endpoints for item ratings:
//   - GET  /ratings              (list all, newest first)
//   - POST /ratings              (create, 1..5 stars)
//   - GET  /ratings/item/{name}  (per-item summary)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-order-backend/internal/domain"
	"github.com/tbourn/go-order-backend/internal/http/middleware"
	"github.com/tbourn/go-order-backend/internal/services"
)

// CreateRatingRequest is the JSON payload for rating an item. User fields
// are ignored when the caller has a session.
type CreateRatingRequest struct {
	UserMobile string `json:"user_mobile" example:"+919876543210"`
	UserName   string `json:"user_name"   example:"Asha"`
	ItemName   string `json:"item_name"   example:"Idly"`
	Rating     int    `json:"rating"      example:"5"`
	Review     string `json:"review"      example:"Soft and fresh."`
}

// ListRatingsResponse wraps every rating, newest first.
type ListRatingsResponse struct {
	Ratings []domain.Rating `json:"ratings"`
}

// ListRatings godoc
// @ID          listRatings
// @Summary     List ratings
// @Tags        Ratings
// @Produce     json
// @Success     200  {object}  handlers.ListRatingsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ratings [get]
func (h *Handlers) ListRatings(c *gin.Context) {
	rs, err := h.ratingSvc.List(c.Request.Context())
	if err != nil {
		failFrom(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListRatingsResponse{Ratings: rs})
}

// CreateRating godoc
// @ID          createRating
// @Summary     Rate an item
// @Tags        Ratings
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateRatingRequest  true  "Rating"
// @Success     201  {object}  domain.Rating
// @Failure     400  {object}  handlers.ErrorResponse  "Missing fields or rating out of range"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ratings [post]
func (h *Handlers) CreateRating(c *gin.Context) {
	var req CreateRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid rating payload")
		return
	}
	r, err := h.ratingSvc.Create(c.Request.Context(), services.RatingInput{
		Mobile: req.UserMobile,
		Name:   req.UserName,
		Item:   req.ItemName,
		Rating: req.Rating,
		Review: req.Review,
	}, middleware.SessionFrom(c))
	if err != nil {
		failFrom(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, r)
}

// ItemRatings godoc
// @ID          itemRatings
// @Summary     Item rating summary
// @Description Average (one decimal), count and the ratings of one item.
// @Tags        Ratings
// @Produce     json
// @Param       name  path  string  true  "Item name"
// @Success     200  {object}  services.ItemRatingSummary
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ratings/item/{name} [get]
func (h *Handlers) ItemRatings(c *gin.Context) {
	sum, err := h.ratingSvc.ItemSummary(c.Request.Context(), c.Param("name"))
	if err != nil {
		failFrom(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, sum)
}
