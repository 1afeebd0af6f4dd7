package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const generationLogColumns = `id, section_id, status, constraints_violated, total_slots_assigned, total_slots_required,
generation_time_seconds, penalty, workload_variance, seed, generations, interrupted, start_date, weeks, created_by, generated_at`

// GenerationLogRepository persists optimizer run records.
type GenerationLogRepository struct {
	db *sqlx.DB
}

// NewGenerationLogRepository constructs the repository.
func NewGenerationLogRepository(db *sqlx.DB) *GenerationLogRepository {
	return &GenerationLogRepository{db: db}
}

func (r *GenerationLogRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a log row, filling id and timestamp when absent.
func (r *GenerationLogRepository) Create(ctx context.Context, exec sqlx.ExtContext, log *models.GenerationLog) error {
	if log == nil {
		return fmt.Errorf("generation log payload is nil")
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.GeneratedAt.IsZero() {
		log.GeneratedAt = time.Now().UTC()
	}
	if log.ConstraintsViolated == nil {
		log.ConstraintsViolated = models.StringList{}
	}
	const query = `INSERT INTO timetable_generation_logs (` + generationLogColumns + `)
VALUES (:id, :section_id, :status, :constraints_violated, :total_slots_assigned, :total_slots_required,
:generation_time_seconds, :penalty, :workload_variance, :seed, :generations, :interrupted, :start_date, :weeks, :created_by, :generated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, log); err != nil {
		return fmt.Errorf("create generation log: %w", err)
	}
	return nil
}

// UpdateGenerationTime stores the wall-clock duration of a run.
func (r *GenerationLogRepository) UpdateGenerationTime(ctx context.Context, id string, seconds float64) error {
	const query = `UPDATE timetable_generation_logs SET generation_time_seconds = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, seconds, id)
	if err != nil {
		return fmt.Errorf("update generation time: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("generation time rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID loads a log. sql.ErrNoRows is returned unwrapped.
func (r *GenerationLogRepository) GetByID(ctx context.Context, id string) (*models.GenerationLog, error) {
	const query = `SELECT ` + generationLogColumns + ` FROM timetable_generation_logs WHERE id = $1`
	var log models.GenerationLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get generation log: %w", err)
	}
	return &log, nil
}

// List returns logs newest first with section context and the total count.
func (r *GenerationLogRepository) List(ctx context.Context, filter models.GenerationLogFilter) ([]models.GenerationLogSummary, int, error) {
	baseQuery := `FROM timetable_generation_logs l
JOIN sections s ON s.section_id = l.section_id
JOIN batches b ON b.batch_id = s.batch_id
JOIN departments d ON d.department_id = b.department_id
JOIN academic_years ay ON ay.academic_year_id = b.academic_year_id
WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("l.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.SectionID != nil {
		conditions = append(conditions, fmt.Sprintf("l.section_id = $%d", len(args)+1))
		args = append(args, *filter.SectionID)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT l.id, l.section_id, s.name AS section_name, d.name AS department_name, ay.year_name AS academic_year,
l.status, l.total_slots_assigned, l.total_slots_required, l.generation_time_seconds, l.generated_at
%s ORDER BY l.generated_at DESC LIMIT %d OFFSET %d`, baseQuery, pageSize, offset)

	var logs []models.GenerationLogSummary
	if err := r.db.SelectContext(ctx, &logs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list generation logs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count generation logs: %w", err)
	}
	return logs, total, nil
}
