// Order HTTP handlers.
//
// This file exposes REST endpoints for orders:
//   - POST   /orders              (create)
//   - GET    /orders              (list, optional ?mobile= filter)
//   - PUT    /orders/{id}/status  (transition)
//   - POST   /orders/{id}/cancel  (transition to CANCELLED)
//   - DELETE /orders/{id}         (delete)
//
// Status transitions are unconditional: a transition on an unknown id
// succeeds and simply produces no notification.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-order-backend/internal/domain"
	"github.com/tbourn/go-order-backend/internal/http/middleware"
	"github.com/tbourn/go-order-backend/internal/services"
)

// DTOs

// Delivery is the scheduled slot of a pre-order, stored verbatim.
type Delivery struct {
	Date *string `json:"date" example:"2025-07-03"`
	Time *string `json:"time" example:"19:30"`
}

// CreateOrderRequest is the JSON payload for placing an order. Name and
// mobile are ignored when the caller has a session. A mobile without digits
// normalizes to "" and the order is stored without an owner.
type CreateOrderRequest struct {
	ID       string         `json:"id"       binding:"required" example:"ORD-1001"`
	Name     string         `json:"name"     example:"Asha"`
	Mobile   string         `json:"mobile"   example:"98765 43210"`
	Payment  string         `json:"payment"  example:"cod"`
	PreOrder bool           `json:"preOrder" example:"false"`
	Delivery *Delivery      `json:"delivery,omitempty"`
	Items    map[string]any `json:"items"    swaggertype:"object,integer" example:"Idly:2,Dosa:1"`
	Status   string         `json:"status,omitempty" example:"PENDING"`
}

// UpdateStatusRequest is the JSON payload for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status" example:"ACCEPTED"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Mobile    string         `json:"mobile"`
	Payment   string         `json:"payment"`
	PreOrder  bool           `json:"preOrder"`
	Delivery  *Delivery      `json:"delivery"`
	Items     map[string]any `json:"items" swaggertype:"object,integer"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:        o.ID,
		Name:      o.Name,
		Mobile:    o.Mobile,
		Payment:   o.Payment,
		PreOrder:  o.PreOrder,
		Items:     o.ItemMap(),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
	if o.DeliveryDate != nil && *o.DeliveryDate != "" {
		resp.Delivery = &Delivery{Date: o.DeliveryDate, Time: o.DeliveryTime}
	}
	return resp
}

// Handlers

// CreateOrder godoc
// @ID          createOrder
// @Summary     Place an order
// @Description Stores a new order with status PENDING (or the supplied status).
// @Description Pre-orders must be scheduled at least one day ahead.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       Authorization  header  string  false  "Bearer session token"
// @Param       body           body    handlers.CreateOrderRequest  true  "Order payload"
// @Success     201  {object}  handlers.OrderResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing id or pre-order too soon"
// @Failure     409  {object}  handlers.ErrorResponse  "Order already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if strings.TrimSpace(req.ID) == "" {
			failFrom(c, services.ErrMissingOrderID, ErrCodeCreateFailed)
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid order payload")
		return
	}

	in := services.CreateOrderInput{
		ID:       req.ID,
		Name:     req.Name,
		Mobile:   req.Mobile,
		Payment:  req.Payment,
		PreOrder: req.PreOrder,
		Items:    req.Items,
		Status:   req.Status,
	}
	if req.Delivery != nil {
		in.DeliveryDate = req.Delivery.Date
		in.DeliveryTime = req.Delivery.Time
	}

	o, err := h.orderSvc.Create(c.Request.Context(), in, middleware.SessionFrom(c))
	if err != nil {
		failFrom(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, toOrderResponse(*o))
}

// ListOrders godoc
// @ID          listOrders
// @Summary     List orders
// @Description Returns orders newest first, optionally filtered to one owner.
// @Tags        Orders
// @Produce     json
// @Param       mobile  query  string  false  "Owner mobile (any format)"
// @Success     200  {array}   handlers.OrderResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := h.orderSvc.List(c.Request.Context(), c.Query("mobile"))
	if err != nil {
		failFrom(c, err, ErrCodeListFailed)
		return
	}
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	ok(c, http.StatusOK, out)
}

// UpdateOrderStatus godoc
// @ID          updateOrderStatus
// @Summary     Transition an order
// @Description Writes the status unconditionally and notifies the owner.
// @Tags        Orders
// @Accept      json
// @Param       id    path  string                         true  "Order ID"
// @Param       body  body  handlers.UpdateStatusRequest   true  "New status"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing status"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/status [put]
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		failFrom(c, services.ErrMissingStatus, ErrCodeUpdateFailed)
		return
	}
	if _, err := h.orderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		failFrom(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}

// CancelOrder godoc
// @ID          cancelOrder
// @Summary     Cancel an order
// @Tags        Orders
// @Param       id  path  string  true  "Order ID"
// @Success     204  {string}  string  "No Content"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/cancel [post]
func (h *Handlers) CancelOrder(c *gin.Context) {
	if _, err := h.orderSvc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		failFrom(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}

// DeleteOrder godoc
// @ID          deleteOrder
// @Summary     Delete an order
// @Tags        Orders
// @Param       id  path  string  true  "Order ID"
// @Success     204  {string}  string  "No Content"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id} [delete]
func (h *Handlers) DeleteOrder(c *gin.Context) {
	if err := h.orderSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failFrom(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}
