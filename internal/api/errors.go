package api

import (
	"errors"
	"net/http"

	"qrtag-service/internal/service"
	"qrtag-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, "Invalid status"
	case errors.Is(err, service.ErrVerificationFailed):
		return http.StatusBadRequest, "Payment verification failed"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "Already exists"
	case errors.Is(err, service.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, "Payment gateway unavailable, please retry"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func writeError(c *gin.Context, err error) {
	status, message := statusFor(err)

	details := err.Error()
	if status == http.StatusInternalServerError {
		util.GetLogger().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		details = ""
	}

	body := gin.H{"error": message}
	if details != "" {
		body["details"] = details
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
