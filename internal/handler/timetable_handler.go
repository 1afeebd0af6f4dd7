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

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest, actorID int64) (*dto.TimetableView, error)
	GetTimetable(ctx context.Context, logID string) (*dto.TimetableView, error)
	ListLogs(ctx context.Context, query dto.TimetableLogQuery) ([]models.GenerationLogSummary, *models.Pagination, error)
}

// TimetableHandler exposes generation and lookup endpoints.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Generate a section timetable
// @Description Runs the optimizer for one section, replaces its stored entries and returns the decoded timetable.
// @Tags Timetables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	view, err := h.service.Generate(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// ListLogs godoc
// @Summary List generation logs
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Param status query string false "Success or Partial"
// @Param sectionId query int false "Section ID"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetables/logs [get]
func (h *TimetableHandler) ListLogs(c *gin.Context) {
	var query dto.TimetableLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	logs, pagination, err := h.service.ListLogs(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// GetLog godoc
// @Summary Get a generated timetable
// @Tags Timetables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Generation log ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/logs/{id} [get]
func (h *TimetableHandler) GetLog(c *gin.Context) {
	view, err := h.service.GetTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
