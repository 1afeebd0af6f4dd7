package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

// JobTypeBulkGeneration tags queue jobs that generate several sections.
const JobTypeBulkGeneration = "timetable.bulk_generate"

type generationJobStore interface {
	Create(ctx context.Context, job *models.GenerationJob) error
	GetByID(ctx context.Context, id string) (*models.GenerationJob, error)
	Update(ctx context.Context, id string, params repository.UpdateGenerationJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.GenerationJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type sectionGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest, actorID int64) (*dto.TimetableView, error)
}

// BulkGenerationService manages the lifecycle of multi-section generation jobs.
type BulkGenerationService struct {
	repo      generationJobStore
	queue     jobDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBulkGenerationService constructs the service.
func NewBulkGenerationService(repo generationJobStore, queue jobDispatcher, validate *validator.Validate, logger *zap.Logger) *BulkGenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkGenerationService{repo: repo, queue: queue, validator: validate, logger: logger}
}

// CreateJob validates the request, persists the job and enqueues it.
func (s *BulkGenerationService) CreateJob(ctx context.Context, req dto.BulkGenerateRequest, actorID int64) (*dto.BulkJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk generation payload")
	}
	params := models.GenerationJobParams{
		SectionIDs: dedupeIDs(req.SectionIDs),
		StartDate:  req.StartDate,
		Weeks:      req.Weeks,
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	}
	job := &models.GenerationJob{
		Params:    params,
		Status:    models.JobStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create generation job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeBulkGeneration}); err != nil {
		status := models.JobStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to enqueue generation job")
	}
	return &dto.BulkJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job progress. Faculty members only see their own jobs.
func (s *BulkGenerationService) GetStatus(ctx context.Context, id string, actorID int64, role models.UserRole) (*dto.BulkJobStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation job")
	}
	if role == models.RoleFaculty && job.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.BulkJobStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
		Results:  job.Results,
	}
	if resp.Results == nil {
		resp.Results = []models.JobSectionResult{}
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// RecoverPendingJobs replays queued jobs after a restart.
func (s *BulkGenerationService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued generation jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeBulkGeneration}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
		}
	}
	if len(pending) > 0 {
		s.logger.Info("requeued pending generation jobs", zap.Int("count", len(pending)))
	}
}

// BulkGenerationWorker runs queued jobs section by section.
type BulkGenerationWorker struct {
	repo      generationJobStore
	generator sectionGenerator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewBulkGenerationWorker constructs a worker.
func NewBulkGenerationWorker(repo generationJobStore, generator sectionGenerator, metrics *MetricsService, logger *zap.Logger) *BulkGenerationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkGenerationWorker{repo: repo, generator: generator, metrics: metrics, logger: logger}
}

// Handle processes a queue job. Per-section failures are recorded in the job
// results; only bookkeeping errors are returned so the queue retries them.
func (w *BulkGenerationWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("generation job vanished", zap.String("job_id", job.ID))
			return nil
		}
		return err
	}
	if record.Status == models.JobStatusFinished || record.Status == models.JobStatusFailed {
		return nil
	}

	processing := models.JobStatusProcessing
	progress := 0
	if err := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	sections := record.Params.SectionIDs
	results := make(models.JobResults, 0, len(sections))
	failures := 0
	for i, sectionID := range sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := dto.GenerateTimetableRequest{
			SectionID: sectionID,
			StartDate: record.Params.StartDate,
			Weeks:     record.Params.Weeks,
		}
		if record.Params.Seed != 0 {
			seed := record.Params.Seed
			req.Seed = &seed
		}
		result := models.JobSectionResult{SectionID: sectionID}
		view, genErr := w.generator.Generate(ctx, req, record.CreatedBy)
		if genErr != nil {
			failures++
			result.Error = appErrors.FromError(genErr).Message
			w.logger.Warn("section generation failed", zap.String("job_id", job.ID), zap.Int64("section_id", sectionID), zap.Error(genErr))
		} else {
			result.LogID = view.Log.ID
			result.Status = view.Log.Status
			result.Penalty = view.Log.Penalty
		}
		results = append(results, result)

		progress = (i + 1) * 100 / len(sections)
		if err := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{Progress: &progress, Results: results}); err != nil {
			return err
		}
	}

	status := models.JobStatusFinished
	var errMsg *string
	if len(sections) > 0 && failures == len(sections) {
		status = models.JobStatusFailed
		msg := "every section failed to generate"
		errMsg = &msg
	}
	done := 100
	now := time.Now().UTC()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
		Status:       &status,
		Progress:     &done,
		Results:      results,
		ErrorMessage: errMsg,
		FinishedAt:   &now,
	}); err != nil {
		return err
	}
	w.metrics.RecordBulkJob(string(status))
	w.logger.Info("generation job finished",
		zap.String("job_id", job.ID),
		zap.String("status", string(status)),
		zap.Int("sections", len(sections)),
		zap.Int("failures", failures),
	)
	return nil
}

// MarkFailed is the queue's exhaustion hook.
func (w *BulkGenerationWorker) MarkFailed(ctx context.Context, job jobs.Job, cause error) {
	failed := models.JobStatusFailed
	progress := 100
	msg := cause.Error()
	now := time.Now().UTC()
	if err := w.repo.Update(context.WithoutCancel(ctx), job.ID, repository.UpdateGenerationJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.ID, "error", err)
		return
	}
	w.metrics.RecordBulkJob(string(failed))
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
