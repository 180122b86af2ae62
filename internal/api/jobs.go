package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/service"
	"go.uber.org/zap"
)

// JobHandler serves job postings. Ownership and status rules live in
// service.JobService; the handler only binds input and maps errors.
type JobHandler struct {
	svc    *service.JobService
	logger *zap.Logger
}

func NewJobHandler(svc *service.JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{svc: svc, logger: logger}
}

// Create handles POST /v1/jobs
func (h *JobHandler) Create(c *gin.Context) {
	var req service.JobInput
	if !bindJSON(c, h.logger, &req) {
		return
	}

	job, err := h.svc.CreateJob(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// List handles GET /v1/jobs?category=
//
// Only open jobs are listed. An empty or missing category means every
// category.
func (h *JobHandler) List(c *gin.Context) {
	jobs, err := h.svc.ListOpenJobs(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// Mine handles GET /v1/jobs/mine
func (h *JobHandler) Mine(c *gin.Context) {
	jobs, err := h.svc.ListMyJobs(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// Get handles GET /v1/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.svc.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Update handles PUT /v1/jobs/:id
func (h *JobHandler) Update(c *gin.Context) {
	var req service.JobInput
	if !bindJSON(c, h.logger, &req) {
		return
	}

	job, err := h.svc.UpdateJob(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type setStatusRequest struct {
	Status models.JobStatus `json:"status"`
}

// SetStatus handles POST /v1/jobs/:id/status
//
// Body: {"status": "Closed"}. Only the owner may change it. Once a job is
// Completed its status is frozen, and setting the current status again is
// a no-op.
func (h *JobHandler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	job, err := h.svc.SetJobStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Delete handles DELETE /v1/jobs/:id
//
// Returns 204 on success. Applications to the job are kept so both
// parties keep their history.
func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteJob(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
