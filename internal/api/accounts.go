package api

import (
	"net/http"

	"qrtag-service/internal/service"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newAccountView(account))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	resp, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt,
		"account":    newAccountView(resp.Account),
	})
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, newAccountView(currentAccount(c)))
}
