package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/service"
	"go.uber.org/zap"
)

type CompletionHandler struct {
	svc    *service.CompletionService
	logger *zap.Logger
}

func NewCompletionHandler(svc *service.CompletionService, logger *zap.Logger) *CompletionHandler {
	return &CompletionHandler{svc: svc, logger: logger}
}

// File handles POST /v1/applications/:id/completion
func (h *CompletionHandler) File(c *gin.Context) {
	var req service.CompletionInput
	if !bindJSON(c, h.logger, &req) {
		return
	}

	completion, err := h.svc.FileCompletion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, completion)
}

// GetForApplication handles GET /v1/applications/:id/completion
func (h *CompletionHandler) GetForApplication(c *gin.Context) {
	completion, err := h.svc.GetCompletionForApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, completion)
}

// Get handles GET /v1/completions/:id
func (h *CompletionHandler) Get(c *gin.Context) {
	completion, err := h.svc.GetCompletion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, completion)
}

// Review handles POST /v1/completions/:id/review
//
// Body: {"rating", "feedback", "payment_method", "payment_confirmed"}.
// A completion is reviewed once. A second attempt gets 409 instead of
// overwriting the first rating.
func (h *CompletionHandler) Review(c *gin.Context) {
	var req service.ReviewInput
	if !bindJSON(c, h.logger, &req) {
		return
	}

	completion, err := h.svc.ReviewCompletion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, completion)
}
