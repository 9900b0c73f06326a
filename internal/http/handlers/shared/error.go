package shared

import (
	"errors"

	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog returns a logger carrying the request id.
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError writes an error envelope and logs the cause when present.
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// MappedHandlerError maps a business error to an API error response.
type MappedHandlerError struct {
	Target  error
	Code    int
	Message string
}

// RespondWithMappedError walks the rule table and falls back to the
// given code and message for unmapped errors.
func RespondWithMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Message, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackMsg, err)
}
