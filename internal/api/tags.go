package api

import (
	"net/http"

	"qrtag-service/internal/service"

	"github.com/gin-gonic/gin"
)

// verifyTagRequest is the gateway confirmation plus the tag to store
type verifyTagRequest struct {
	service.PaymentConfirmation
	Tag service.TagInput `json:"tag"`
}

func (h *Handler) getPublicTag(c *gin.Context) {
	tag, err := h.tags.GetPublic(c.Request.Context(), c.Param("customId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *Handler) initiateTagCreation(c *gin.Context) {
	var input service.TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	resp, err := h.orders.InitiateTagCreation(c.Request.Context(), currentAccount(c), &input, c.GetHeader("Idempotency-Key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) verifyTagPayment(c *gin.Context) {
	var req verifyTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, tag, err := h.orders.ConfirmTagPayment(c.Request.Context(), &req.PaymentConfirmation, &req.Tag)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment verified, tag created",
		"order":   newOrderView(order),
		"tag":     tag,
	})
}

func (h *Handler) listMyTags(c *gin.Context) {
	tags, err := h.tags.ListMine(c.Request.Context(), currentAccount(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (h *Handler) getTag(c *gin.Context) {
	tag, err := h.tags.Get(c.Request.Context(), currentAccount(c), c.Param("customId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *Handler) updateTag(c *gin.Context) {
	var update service.TagUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	tag, err := h.tags.Update(c.Request.Context(), currentAccount(c), c.Param("customId"), &update)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *Handler) adminListTags(c *gin.Context) {
	limit, offset := parsePage(c)
	tags, err := h.tags.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (h *Handler) adminCreateTag(c *gin.Context) {
	var input service.TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	tag, err := h.tags.Create(c.Request.Context(), currentAccount(c), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *Handler) adminDeleteTag(c *gin.Context) {
	if err := h.tags.Delete(c.Request.Context(), currentAccount(c), c.Param("customId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
