package api

import (
	"net/http"
	"strconv"

	"qrtag-service/internal/service"
	"qrtag-service/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listPartnerCommissions(c *gin.Context) {
	limit, offset := parsePage(c)
	commissions, err := h.commissions.ListForPartner(c.Request.Context(), currentAccount(c), c.Query("status"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissions": newCommissionViews(commissions)})
}

func (h *Handler) partnerSummary(c *gin.Context) {
	summary, err := h.commissions.Summary(c.Request.Context(), currentAccount(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) adminListCommissions(c *gin.Context) {
	limit, offset := parsePage(c)

	var shopkeeperID int64
	if raw := c.Query("shopkeeper_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid shopkeeper_id", err)
			return
		}
		shopkeeperID = id
	}

	commissions, err := h.commissions.List(c.Request.Context(), store.CommissionFilter{
		ShopkeeperID: shopkeeperID,
		Status:       c.Query("status"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissions": newCommissionViews(commissions)})
}

func (h *Handler) adminSettleCommission(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	commission, err := h.commissions.Settle(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommissionView(commission))
}

func (h *Handler) adminReconcile(c *gin.Context) {
	result, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
