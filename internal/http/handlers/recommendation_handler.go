package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RecommendationsResponse lists item names, most ordered first.
type RecommendationsResponse struct {
	Recommendations []string `json:"recommendations" example:"Idly,Dosa"`
}

// Recommend godoc
// @ID          recommend
// @Summary     Recommend items
// @Description Ranks items by total ordered quantity. With a session or
// @Description ?mobile= only that owner's orders count; otherwise all orders do.
// @Tags        Recommendations
// @Produce     json
// @Param       mobile  query  string  false  "Owner mobile"
// @Success     200  {object}  handlers.RecommendationsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /recommendations [get]
func (h *Handlers) Recommend(c *gin.Context) {
	names, err := h.recSvc.Recommend(c.Request.Context(), callerMobile(c, c.Query("mobile")))
	if err != nil {
		failFrom(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, RecommendationsResponse{Recommendations: names})
}
