package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/service"
	"go.uber.org/zap"
)

type MessageHandler struct {
	svc    *service.MessagingService
	logger *zap.Logger
}

func NewMessageHandler(svc *service.MessagingService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, logger: logger}
}

type createMessageRequest struct {
	Text string `json:"text"`
}

// Create handles POST /v1/conversations/:id/messages
//
// Body: {"text": "..."}. Blank text is rejected. The message bumps the
// other party's unread count and wakes any stream watching the
// conversation.
func (h *MessageHandler) Create(c *gin.Context) {
	var req createMessageRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	msg, err := h.svc.SendMessage(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// List handles GET /v1/conversations/:id/messages
//
// Messages come oldest first. A conversation holds one job's worth of
// chat, so there is no pagination.
func (h *MessageHandler) List(c *gin.Context) {
	msgs, err := h.svc.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
