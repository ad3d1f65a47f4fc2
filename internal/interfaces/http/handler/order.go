package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/mlmshop/backend/internal/application/trade"
	"github.com/mlmshop/backend/internal/interfaces/http/middleware"
)

// OrderHandler serves the order lifecycle
type OrderHandler struct {
	BaseHandler
	orders *tradeapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *tradeapp.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create places an order for the calling member
// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	buyerID, ok := h.callerMember(c)
	if !ok {
		return
	}
	var req tradeapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.orders.Create(c.Request.Context(), buyerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListMine pages through the caller's orders
// GET /orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	buyerID, ok := h.callerMember(c)
	if !ok {
		return
	}
	var filter tradeapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.orders.ListByBuyer(c.Request.Context(), buyerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns one order to its buyer or an admin
// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !middleware.IsAdmin(c) && result.BuyerID != middleware.GetMemberID(c) {
		h.Forbidden(c, "You can only view your own orders")
		return
	}
	h.Success(c, result)
}

// Pay records the payment confirmation
// POST /orders/:id/pay
func (h *OrderHandler) Pay(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.PayOrderRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	result, err := h.orders.MarkPaid(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Complete finishes a paid order and distributes its commissions
// POST /orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.orders.Complete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refund reverses a completed order and cancels its pending commissions
// POST /orders/:id/refund
func (h *OrderHandler) Refund(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.RefundOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.orders.Refund(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
