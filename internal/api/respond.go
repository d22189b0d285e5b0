package api

import (
	"errors"
	"net/http"

	"dailyrise_engine/pkg/apperr"
	"dailyrise_engine/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeUnauthorized:
		return http.StatusForbidden
	case apperr.CodeInvalidState:
		return http.StatusConflict
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a service error onto an HTTP status. Only taxonomy
// messages reach the client; anything else stays in the logs.
func respondError(c *gin.Context, err error) {
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		if ae.Code == apperr.CodeTransient || ae.Cause != nil {
			logger.Logger().Error("request failed",
				zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.JSON(statusFor(ae.Code), gin.H{"error": ae.Message})
		return
	}

	logger.Logger().Error("request failed",
		zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
