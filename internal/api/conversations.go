package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/service"
	"go.uber.org/zap"
)

type ConversationHandler struct {
	svc    *service.MessagingService
	logger *zap.Logger
}

func NewConversationHandler(svc *service.MessagingService, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{svc: svc, logger: logger}
}

// createConversationRequest either names an application or spells out
// the parties and job. When application_id is present the other fields
// are ignored.
type createConversationRequest struct {
	ApplicationID string `json:"application_id"`
	service.ConversationParams
}

// Create handles POST /v1/conversations
//
// Either party can open the thread. With application_id the parties and
// job come from the application; otherwise both parties and the job are
// looked up and checked (roles, job ownership) before anything is written.
// Display names and the job title always come from storage.
//
// It answers 200 with the existing conversation when one is already there.
// The id is derived from (job seeker, employer, job), so a repeat, or two
// parties racing to open the same thread, lands on the same row.
func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	var (
		conv *models.Conversation
		err  error
	)
	if req.ApplicationID != "" {
		conv, err = h.svc.StartConversation(c.Request.Context(), req.ApplicationID)
	} else {
		conv, err = h.svc.GetOrCreateConversation(c.Request.Context(), req.ConversationParams)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// List handles GET /v1/conversations?q=
func (h *ConversationHandler) List(c *gin.Context) {
	var (
		convs []models.Conversation
		err   error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		convs, err = h.svc.SearchConversations(c.Request.Context(), q)
	} else {
		convs, err = h.svc.ListConversations(c.Request.Context())
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// Get handles GET /v1/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.svc.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Delete handles DELETE /v1/conversations/:id
func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkRead handles POST /v1/conversations/:id/read
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
