package dto

import "time"

// ExportFormat enumerates supported export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportRequest captures POST /timetables/export payload.
type ExportRequest struct {
	LogIDs []string     `json:"logIds" validate:"required,min=1,max=50,dive,uuid"`
	Format ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportResponse points at the rendered file.
type ExportResponse struct {
	ID        string       `json:"id"`
	Format    ExportFormat `json:"format"`
	Rows      int          `json:"rows"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expiresAt"`
}
