package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type bulkGenerationService interface {
	CreateJob(ctx context.Context, req dto.BulkGenerateRequest, actorID int64) (*dto.BulkJobResponse, error)
	GetStatus(ctx context.Context, id string, actorID int64, role models.UserRole) (*dto.BulkJobStatusResponse, error)
}

// BulkGenerationHandler exposes asynchronous multi-section generation.
type BulkGenerationHandler struct {
	service bulkGenerationService
}

// NewBulkGenerationHandler constructs the handler.
func NewBulkGenerationHandler(svc bulkGenerationService) *BulkGenerationHandler {
	return &BulkGenerationHandler{service: svc}
}

// Create godoc
// @Summary Queue timetable generation for several sections
// @Tags Timetables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BulkGenerateRequest true "Bulk payload"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetables/bulk [post]
func (h *BulkGenerationHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "bulk generation disabled"))
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.BulkGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Bulk generation job status
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/bulk/{id} [get]
func (h *BulkGenerationHandler) Status(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "bulk generation disabled"))
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
