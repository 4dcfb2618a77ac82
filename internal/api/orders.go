package api

import (
	"net/http"

	"qrtag-service/internal/service"
	"qrtag-service/internal/store"

	"github.com/gin-gonic/gin"
)

type fulfillmentRequest struct {
	Status string `json:"status"`
}

func (h *Handler) createStickerOrder(c *gin.Context) {
	var req service.StickerOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	// Get idempotency key from header if not in body
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	resp, err := h.orders.InitiateStickerOrder(c.Request.Context(), currentAccount(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) verifyStickerPayment(c *gin.Context) {
	var req service.PaymentConfirmation
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, err := h.orders.ConfirmStickerPayment(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verified",
		"order":   newOrderView(order),
	})
}

func (h *Handler) listMyOrders(c *gin.Context) {
	orders, err := h.orders.ListOrdersForUser(c.Request.Context(), currentAccount(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": newOrderViews(orders)})
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), currentAccount(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(order))
}

func (h *Handler) adminListOrders(c *gin.Context) {
	limit, offset := parsePage(c)
	orders, err := h.orders.ListOrders(c.Request.Context(), store.OrderFilter{
		PaymentStatus: c.Query("payment_status"),
		OrderStatus:   c.Query("order_status"),
		Kind:          c.Query("kind"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": newOrderViews(orders)})
}

func (h *Handler) adminSetOrderStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req fulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, err := h.orders.SetFulfillment(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(order))
}
