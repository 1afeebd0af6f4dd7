package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus captures background job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusFinished   JobStatus = "FINISHED"
	JobStatusFailed     JobStatus = "FAILED"
)

// GenerationJob persists a bulk generation request across sections.
type GenerationJob struct {
	ID           string              `db:"id" json:"id"`
	Params       GenerationJobParams `db:"params" json:"params"`
	Status       JobStatus           `db:"status" json:"status"`
	Progress     int                 `db:"progress" json:"progress"`
	Results      JobResults          `db:"results" json:"results"`
	CreatedBy    int64               `db:"created_by" json:"created_by"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time          `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string             `db:"error_message" json:"error_message,omitempty"`
}

// GenerationJobParams stores the request options as JSONB.
type GenerationJobParams struct {
	SectionIDs []int64 `json:"section_ids"`
	StartDate  string  `json:"start_date,omitempty"`
	Weeks      int     `json:"weeks"`
	Seed       uint64  `json:"seed,omitempty"`
}

// JobSectionResult is the outcome of one section within a bulk job.
type JobSectionResult struct {
	SectionID int64            `json:"section_id"`
	LogID     string           `json:"log_id,omitempty"`
	Status    GenerationStatus `json:"status,omitempty"`
	Penalty   int              `json:"penalty"`
	Error     string           `json:"error,omitempty"`
}

// JobResults lists per-section outcomes, persisted as JSONB.
type JobResults []JobSectionResult

// Value marshals params to JSON for persistence.
func (p GenerationJobParams) Value() (driver.Value, error) {
	if p.SectionIDs == nil {
		p.SectionIDs = []int64{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal generation job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *GenerationJobParams) Scan(value interface{}) error {
	data, err := jsonBytes(value, "GenerationJobParams")
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*p = GenerationJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal generation job params: %w", err)
	}
	return nil
}

// Value marshals results to JSON for persistence.
func (r JobResults) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal([]JobSectionResult(r))
	if err != nil {
		return nil, fmt.Errorf("marshal job results: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the results slice.
func (r *JobResults) Scan(value interface{}) error {
	data, err := jsonBytes(value, "JobResults")
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*r = nil
		return nil
	}
	var out []JobSectionResult
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal job results: %w", err)
	}
	*r = out
	return nil
}

func jsonBytes(value interface{}, name string) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T for %s", value, name)
	}
}
