package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/middleware"
	"github.com/lalith-99/questboard/internal/repository"
	"github.com/lalith-99/questboard/internal/service"
	"go.uber.org/zap"
)

// UserHandler serves profiles and the per-party statistics.
type UserHandler struct {
	repo        repository.UserRepository
	jobs        *service.JobService
	completions *service.CompletionService
	logger      *zap.Logger
}

func NewUserHandler(repo repository.UserRepository, svc *service.Services, logger *zap.Logger) *UserHandler {
	return &UserHandler{repo: repo, jobs: svc.Jobs, completions: svc.Completions, logger: logger}
}

// GetMe handles GET /v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.repo.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, apperr.Transient(err))
		return
	}

	// A valid token for a user that no longer exists.
	if user == nil {
		respondError(c, h.logger, apperr.ErrUserNotFound)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SeekerStats handles GET /v1/users/:id/stats
//
// Any signed-in user may read a job seeker's stats. Employers use them to
// judge an applicant before accepting.
func (h *UserHandler) SeekerStats(c *gin.Context) {
	stats, err := h.completions.SeekerStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// EmployerStats handles GET /v1/employer/stats
//
// Always reports on the caller, so there is no :id to check ownership of.
func (h *UserHandler) EmployerStats(c *gin.Context) {
	stats, err := h.jobs.EmployerStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
