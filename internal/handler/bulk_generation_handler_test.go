package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type bulkServiceMock struct {
	req   dto.BulkGenerateRequest
	actor int64
	role  models.UserRole
}

func (m *bulkServiceMock) CreateJob(ctx context.Context, req dto.BulkGenerateRequest, actorID int64) (*dto.BulkJobResponse, error) {
	m.req = req
	m.actor = actorID
	return &dto.BulkJobResponse{ID: "job-1", Status: models.JobStatusQueued}, nil
}

func (m *bulkServiceMock) GetStatus(ctx context.Context, id string, actorID int64, role models.UserRole) (*dto.BulkJobStatusResponse, error) {
	m.role = role
	if role == models.RoleFaculty && actorID != 7 {
		return nil, appErrors.ErrForbidden
	}
	return &dto.BulkJobStatusResponse{ID: id, Status: models.JobStatusProcessing, Progress: 50, Results: []models.JobSectionResult{}}, nil
}

func TestBulkGenerationHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bulkServiceMock{}
	router := gin.New()
	router.Use(withClaims(models.RoleAdmin, 7))
	router.POST("/timetables/bulk", NewBulkGenerationHandler(mockSvc).Create)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetables/bulk", bytes.NewReader([]byte(`{"sectionIds":[1,2],"weeks":3}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []int64{1, 2}, mockSvc.req.SectionIDs)
	assert.Equal(t, int64(7), mockSvc.actor)
	assert.Contains(t, w.Body.String(), `"job-1"`)
}

func TestBulkGenerationHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bulkServiceMock{}
	router := gin.New()
	router.Use(withClaims(models.RoleFaculty, 8))
	router.GET("/timetables/bulk/:id", NewBulkGenerationHandler(mockSvc).Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetables/bulk/job-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.RoleFaculty, mockSvc.role)
}

func TestBulkGenerationHandlerDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(withClaims(models.RoleAdmin, 1))
	router.GET("/timetables/bulk/:id", NewBulkGenerationHandler(nil).Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetables/bulk/job-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBulkGenerationHandlerRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/timetables/bulk", NewBulkGenerationHandler(&bulkServiceMock{}).Create)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetables/bulk", bytes.NewReader([]byte(`{"sectionIds":[1]}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
