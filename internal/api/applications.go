package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/auth"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/service"
	"go.uber.org/zap"
)

// ApplicationHandler serves the application lifecycle: apply, review
// (accept or reject) and withdraw.
type ApplicationHandler struct {
	svc    *service.ApplicationService
	logger *zap.Logger
}

func NewApplicationHandler(svc *service.ApplicationService, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, logger: logger}
}

// Apply handles POST /v1/jobs/:id/applications
//
// The body is optional. When present it may carry a message and a cover
// letter; an empty request applies with neither.
func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req service.ApplyInput
	if c.Request.ContentLength != 0 && !bindJSON(c, h.logger, &req) {
		return
	}

	app, err := h.svc.Apply(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// statusQuery reads the optional ?status= filter.
func statusQuery(c *gin.Context) (models.ApplicationStatus, error) {
	status := models.ApplicationStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return "", apperr.Validation(map[string]string{"status": "application_status"})
	}
	return status, nil
}

// List handles GET /v1/applications?status=
//
// Employers see applications to their jobs; job seekers see their own.
func (h *ApplicationHandler) List(c *gin.Context) {
	status, err := statusQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	id, _ := auth.FromContext(ctx)

	var apps []models.Application
	if id.Role == models.RoleEmployer {
		apps, err = h.svc.ListForEmployer(ctx, status)
	} else {
		apps, err = h.svc.ListForApplicant(ctx, status)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// Get handles GET /v1/applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Accept handles POST /v1/applications/:id/accept
//
// Accepting is a compare-and-swap on the stored status. If the seeker
// cancels at the same moment, only one of the two requests wins and the
// other gets 409 INVALID_TRANSITION.
func (h *ApplicationHandler) Accept(c *gin.Context) {
	app, err := h.svc.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Reject handles POST /v1/applications/:id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	app, err := h.svc.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Cancel handles DELETE /v1/applications/:id
func (h *ApplicationHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
