package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/apperr"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func toErrorBody(err error) (int, errorBody) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, errorBody{Error: "internal server error", Code: "INTERNAL"}
	}
	body := errorBody{Error: appErr.Message, Code: appErr.Code, Details: appErr.Details}
	return appErr.HTTPStatus(), body
}

// respondError writes err as JSON. Server-side failures are logged with
// the cause; client errors are not.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, body := toErrorBody(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the request body, answering 400 itself on failure.
func bindJSON(c *gin.Context, logger *zap.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, logger, apperr.ErrValidation.WithDetails(map[string]string{"body": err.Error()}))
		return false
	}
	return true
}
