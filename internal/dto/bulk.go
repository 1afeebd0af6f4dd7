package dto

import "github.com/noah-isme/timetable-api/internal/models"

// BulkGenerateRequest captures POST /timetables/bulk payload.
type BulkGenerateRequest struct {
	SectionIDs []int64 `json:"sectionIds" validate:"required,min=1,max=100,dive,min=1"`
	StartDate  string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	Weeks      int     `json:"weeks" validate:"omitempty,min=1,max=52"`
	Seed       *uint64 `json:"seed,omitempty" validate:"omitempty,max=9223372036854775807"`
}

// BulkJobResponse is returned after enqueueing a bulk generation.
type BulkJobResponse struct {
	ID       string           `json:"id"`
	Status   models.JobStatus `json:"status"`
	Progress int              `json:"progress"`
}

// BulkJobStatusResponse exposes job progress and per-section outcomes.
type BulkJobStatusResponse struct {
	ID       string                    `json:"id"`
	Status   models.JobStatus          `json:"status"`
	Progress int                       `json:"progress"`
	Results  []models.JobSectionResult `json:"results"`
	Error    *string                   `json:"error,omitempty"`
}
