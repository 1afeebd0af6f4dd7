package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/optimizer"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/events"
)

// EventTimetableGenerated is published after every persisted generation.
const EventTimetableGenerated = "timetable.generated"

// EntriesNotSavedViolation is appended to a log whose entries failed to persist.
const EntriesNotSavedViolation = "Failed to save timetable entries to database."

var errEntriesNotSaved = errors.New("timetable entries not saved")

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generationLogStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, log *models.GenerationLog) error
	UpdateGenerationTime(ctx context.Context, id string, seconds float64) error
	GetByID(ctx context.Context, id string) (*models.GenerationLog, error)
	List(ctx context.Context, filter models.GenerationLogFilter) ([]models.GenerationLogSummary, int, error)
}

type timetableEntryStore interface {
	DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID int64) (int64, error)
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
	ListByLog(ctx context.Context, logID string) ([]models.TimetableEntryDetail, error)
	CompletedSessionCounts(ctx context.Context, exec sqlx.ExtContext, sectionID int64, asOf time.Time) ([]models.CompletedSessions, error)
}

type lectureTrackerStore interface {
	UpsertConducted(ctx context.Context, exec sqlx.ExtContext, trackers []models.LectureTracker) error
}

// TimetableStores groups the repositories used by TimetableService.
type TimetableStores struct {
	Problems problemSource
	Logs     generationLogStore
	Entries  timetableEntryStore
	Trackers lectureTrackerStore
}

// TimetableServiceConfig tunes generation and caching.
type TimetableServiceConfig struct {
	OptimizerTimeout time.Duration
	CacheTTL         time.Duration
}

// TimetableService runs the optimizer for a section and persists the outcome.
type TimetableService struct {
	stores    TimetableStores
	tx        txProvider
	engine    *optimizer.Engine
	cache     *CacheService
	metrics   *MetricsService
	publisher events.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig
	now       func() time.Time
}

// NewTimetableService wires the generation pipeline.
func NewTimetableService(
	stores TimetableStores,
	tx txProvider,
	engine *optimizer.Engine,
	cache *CacheService,
	metrics *MetricsService,
	publisher events.Publisher,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = optimizer.NewEngine(optimizer.DefaultConfig(), logger)
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.OptimizerTimeout <= 0 {
		cfg.OptimizerTimeout = 2 * time.Minute
	}
	return &TimetableService{
		stores:    stores,
		tx:        tx,
		engine:    engine,
		cache:     cache,
		metrics:   metrics,
		publisher: publisher,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// GeneratedEvent is the payload of EventTimetableGenerated.
type GeneratedEvent struct {
	LogID       string                  `json:"log_id"`
	SectionID   int64                   `json:"section_id"`
	Status      models.GenerationStatus `json:"status"`
	Penalty     int                     `json:"penalty"`
	Assigned    int                     `json:"total_slots_assigned"`
	Required    int                     `json:"total_slots_required"`
	StartDate   string                  `json:"start_date"`
	Weeks       int                     `json:"weeks"`
	Interrupted bool                    `json:"interrupted"`
}

// Generate optimizes a timetable for the requested section, replaces the
// section's stored entries and returns the decoded view.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest, actorID int64) (*dto.TimetableView, error) {
	started := s.now()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}
	startDate := dateOnly(started)
	if req.StartDate != "" {
		parsed, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "startDate must be YYYY-MM-DD")
		}
		startDate = parsed
	}
	weeks := req.Weeks
	if weeks <= 0 {
		weeks = 1
	}

	loaded, err := loadProblem(ctx, s.stores.Problems, req.SectionID)
	if err != nil {
		return nil, err
	}

	engine := s.engine
	if req.Seed != nil && *req.Seed != 0 {
		cfg := engine.Config()
		cfg.Seed = *req.Seed
		engine = optimizer.NewEngine(cfg, s.logger)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.OptimizerTimeout)
	result, err := engine.Run(runCtx, loaded.problem, optimizer.DecodeOptions{StartDate: startDate, Weeks: weeks})
	cancel()
	if err != nil {
		if errors.Is(err, optimizer.ErrInvalidInput) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to run optimizer")
	}

	log := &models.GenerationLog{
		SectionID:           req.SectionID,
		Status:              models.GenerationStatus(result.Status),
		ConstraintsViolated: models.StringList(result.Violations),
		TotalSlotsAssigned:  result.Assigned,
		TotalSlotsRequired:  result.Required,
		Penalty:             result.Penalty,
		WorkloadVariance:    result.Variance,
		Seed:                int64(result.Seed),
		Generations:         result.Generations,
		Interrupted:         result.Interrupted,
		StartDate:           startDate,
		Weeks:               weeks,
	}
	if actorID > 0 {
		log.CreatedBy = &actorID
	}

	entries, err := s.persist(ctx, log, result.Rows)
	if err != nil {
		if !errors.Is(err, errEntriesNotSaved) {
			return nil, err
		}
		s.logger.Error("timetable entries not saved", zap.Int64("section_id", req.SectionID), zap.Error(err))
		log.ID = ""
		log.Status = models.GenerationStatusPartial
		log.ConstraintsViolated = append(log.ConstraintsViolated, EntriesNotSavedViolation)
		if err := s.stores.Logs.Create(ctx, nil, log); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save generation log")
		}
		entries = nil
	}

	elapsed := s.now().Sub(started)
	log.GenerationTimeSeconds = elapsed.Seconds()
	if err := s.stores.Logs.UpdateGenerationTime(ctx, log.ID, log.GenerationTimeSeconds); err != nil {
		s.logger.Warn("failed to record generation time", zap.String("log_id", log.ID), zap.Error(err))
	}
	s.metrics.ObserveGeneration(string(log.Status), log.Penalty, elapsed)
	_ = s.cache.Invalidate(ctx, sectionCachePattern(req.SectionID))

	event := GeneratedEvent{
		LogID:       log.ID,
		SectionID:   log.SectionID,
		Status:      log.Status,
		Penalty:     log.Penalty,
		Assigned:    log.TotalSlotsAssigned,
		Required:    log.TotalSlotsRequired,
		StartDate:   startDate.Format(dateLayout),
		Weeks:       weeks,
		Interrupted: log.Interrupted,
	}
	if err := s.publisher.Publish(ctx, EventTimetableGenerated, event); err != nil {
		s.logger.Warn("failed to publish generation event", zap.String("log_id", log.ID), zap.Error(err))
	}

	s.logger.Info("timetable generated",
		zap.Int64("section_id", req.SectionID),
		zap.String("log_id", log.ID),
		zap.String("status", string(log.Status)),
		zap.Int("penalty", log.Penalty),
		zap.Int("sessions", len(result.Rows)),
		zap.Duration("elapsed", elapsed),
	)

	var sessions []dto.TimetableSession
	if entries != nil {
		sessions = sessionsFromRows(result.Rows, entries, loaded.facultyNames)
	}
	view := &dto.TimetableView{
		Log:        *log,
		Violations: optimizer.TranslateViolations(log.ConstraintsViolated, result.TimeSlots),
		Sessions:   sessions,
		Grid:       buildTimetableGrid(sessions, timeslotLabels(loaded.problem.TimeSlots)),
	}
	if view.Violations == nil {
		view.Violations = []string{}
	}
	if view.Sessions == nil {
		view.Sessions = []dto.TimetableSession{}
	}
	return view, nil
}

// persist replaces the section's timetable inside one transaction. A failing
// entry insert rolls everything back and is reported as errEntriesNotSaved.
func (s *TimetableService) persist(ctx context.Context, log *models.GenerationLog, rows []optimizer.SessionRow) (entries []models.TimetableEntry, err error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	completed, err := s.stores.Entries.CompletedSessionCounts(ctx, tx, log.SectionID, dateOnly(s.now()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count completed sessions")
	}
	if err = s.stores.Trackers.UpsertConducted(ctx, tx, lectureTrackers(log.SectionID, rows, completed)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecture trackers")
	}
	if _, err = s.stores.Entries.DeleteBySection(ctx, tx, log.SectionID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete previous timetable")
	}
	if err = s.stores.Logs.Create(ctx, tx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save generation log")
	}
	entries = entriesFromRows(log.SectionID, log.ID, rows)
	if err = s.stores.Entries.BulkInsert(ctx, tx, entries); err != nil {
		err = fmt.Errorf("%w: %v", errEntriesNotSaved, err)
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
	}
	return entries, nil
}

// GetTimetable returns a stored generation with its sessions and grid.
func (s *TimetableService) GetTimetable(ctx context.Context, logID string) (*dto.TimetableView, error) {
	log, err := s.stores.Logs.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation log")
	}

	key := timetableCacheKey(log.SectionID, log.ID)
	var cached dto.TimetableView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	details, err := s.stores.Entries.ListByLog(ctx, log.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	slots, err := s.stores.Problems.ListActiveTimeslots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}
	index := timeSlotIndex(slots)
	refs := make([]optimizer.TimeSlotRef, 0, len(index))
	for _, ref := range index {
		refs = append(refs, ref)
	}

	sessions := sessionsFromEntries(details)
	view := &dto.TimetableView{
		Log:        *log,
		Violations: optimizer.TranslateViolations(log.ConstraintsViolated, index),
		Sessions:   sessions,
		Grid:       buildTimetableGrid(sessions, timeslotLabels(refs)),
	}
	if view.Violations == nil {
		view.Violations = []string{}
	}
	_ = s.cache.Set(ctx, key, view, s.cfg.CacheTTL)
	return view, nil
}

// ListLogs pages through generation logs, newest first.
func (s *TimetableService) ListLogs(ctx context.Context, query dto.TimetableLogQuery) ([]models.GenerationLogSummary, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid log query")
	}
	filter := models.GenerationLogFilter{Page: query.Page, PageSize: query.PageSize}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if query.Status != "" {
		status := models.GenerationStatus(query.Status)
		filter.Status = &status
	}
	if query.SectionID > 0 {
		sectionID := query.SectionID
		filter.SectionID = &sectionID
	}
	logs, total, err := s.stores.Logs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generation logs")
	}
	if logs == nil {
		logs = []models.GenerationLogSummary{}
	}
	return logs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}
