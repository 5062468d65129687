// Favorite HTTP handlers.
//
// This file exposes REST endpoints for per-user favorite items:
//   - GET    /favorites  (list, ?mobile=)
//   - POST   /favorites  (add; adding twice is a no-op)
//   - DELETE /favorites  (remove; JSON body or query parameters)
//
// A verified session always wins over a client-supplied mobile.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FavoriteRequest names a favorite item of a user.
type FavoriteRequest struct {
	Mobile string `json:"mobile" form:"mobile" example:"+919876543210"`
	Item   string `json:"item"   form:"item"   example:"Masala Dosa"`
}

// ListFavoritesResponse lists favorite item names, newest first.
type ListFavoritesResponse struct {
	Favorites []string `json:"favorites"`
}

// ListFavorites godoc
// @ID          listFavorites
// @Summary     List favorites
// @Tags        Favorites
// @Produce     json
// @Param       mobile  query  string  false  "User mobile (ignored with a session)"
// @Success     200  {object}  handlers.ListFavoritesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing mobile"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	items, err := h.favSvc.List(c.Request.Context(), callerMobile(c, c.Query("mobile")))
	if err != nil {
		failFrom(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListFavoritesResponse{Favorites: items})
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Add a favorite
// @Tags        Favorites
// @Accept      json
// @Param       body  body  handlers.FavoriteRequest  true  "Favorite"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing mobile or item"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /favorites [post]
func (h *Handlers) AddFavorite(c *gin.Context) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid favorite payload")
		return
	}
	if err := h.favSvc.Add(c.Request.Context(), callerMobile(c, req.Mobile), req.Item); err != nil {
		failFrom(c, err, ErrCodeCreateFailed)
		return
	}
	noContent(c)
}

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a favorite
// @Description Accepts a JSON body or query parameters, for clients that drop DELETE bodies.
// @Tags        Favorites
// @Accept      json
// @Param       mobile  query  string                    false  "User mobile"
// @Param       item    query  string                    false  "Item name"
// @Param       body    body   handlers.FavoriteRequest  false  "Favorite"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing mobile or item"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /favorites [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	var req FavoriteRequest
	if c.Request.ContentLength != 0 {
		// A malformed body falls back to the query string.
		_ = c.ShouldBindJSON(&req)
	}
	if req.Mobile == "" {
		req.Mobile = c.Query("mobile")
	}
	if req.Item == "" {
		req.Item = c.Query("item")
	}
	if err := h.favSvc.Remove(c.Request.Context(), callerMobile(c, req.Mobile), req.Item); err != nil {
		failFrom(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}
