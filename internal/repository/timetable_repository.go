package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-api/internal/models"
)

const timetableDetailSelect = `SELECT e.id, e.log_id, e.section_id, e.faculty_id, e.batch_subject_id, e.timeslot_id, e.day_of_week,
e.room_id, e.subsection_id, e.week_number, e.date, e.is_rescheduled, e.is_lab_session,
s.name AS section_name, d.name AS department_name, ay.year_name AS academic_year, b.semester,
sub.subject_id, sub.subject_code, sub.subject_name, u.name AS faculty_name, r.room_number,
t.start_time::text AS start_time, t.end_time::text AS end_time
FROM timetable_entries e
JOIN timeslots t ON t.timeslot_id = e.timeslot_id
JOIN batch_subjects bs ON bs.batch_subject_id = e.batch_subject_id
JOIN subjects sub ON sub.subject_id = bs.subject_id
JOIN users u ON u.user_id = e.faculty_id
LEFT JOIN rooms r ON r.room_id = e.room_id
JOIN sections s ON s.section_id = e.section_id
JOIN batches b ON b.batch_id = s.batch_id
JOIN departments d ON d.department_id = b.department_id
JOIN academic_years ay ON ay.academic_year_id = b.academic_year_id`

// TimetableRepository stores the sessions of generated timetables.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteBySection removes every stored session of a section.
func (r *TimetableRepository) DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID int64) (int64, error) {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM timetable_entries WHERE section_id = $1`, sectionID)
	if err != nil {
		return 0, fmt.Errorf("delete timetable entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("timetable entries rows affected: %w", err)
	}
	return affected, nil
}

// BulkInsert writes entries one by one on exec, assigning ids when absent.
func (r *TimetableRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	const query = `INSERT INTO timetable_entries (id, log_id, section_id, faculty_id, batch_subject_id, timeslot_id, day_of_week,
room_id, subsection_id, week_number, date, is_rescheduled, is_lab_session)
VALUES (:id, :log_id, :section_id, :faculty_id, :batch_subject_id, :timeslot_id, :day_of_week,
:room_id, :subsection_id, :week_number, :date, :is_rescheduled, :is_lab_session)`
	target := r.exec(exec)
	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	return nil
}

// ListByLog returns the sessions of one generation ordered by date and start time.
func (r *TimetableRepository) ListByLog(ctx context.Context, logID string) ([]models.TimetableEntryDetail, error) {
	query := timetableDetailSelect + ` WHERE e.log_id = $1 ORDER BY e.date ASC, t.start_time ASC, e.id ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, logID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListByLogs returns the sessions of several generations for export.
func (r *TimetableRepository) ListByLogs(ctx context.Context, logIDs []string) ([]models.TimetableEntryDetail, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	query := timetableDetailSelect + ` WHERE e.log_id = ANY($1) ORDER BY s.name ASC, e.date ASC, t.start_time ASC, e.id ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, pq.Array(logIDs)); err != nil {
		return nil, fmt.Errorf("list timetable entries by logs: %w", err)
	}
	return entries, nil
}

// CompletedSessionCounts counts stored sessions held on or before asOf, per batch subject.
func (r *TimetableRepository) CompletedSessionCounts(ctx context.Context, exec sqlx.ExtContext, sectionID int64, asOf time.Time) ([]models.CompletedSessions, error) {
	const query = `SELECT batch_subject_id, COUNT(*) AS completed_count FROM timetable_entries
WHERE section_id = $1 AND date <= $2 GROUP BY batch_subject_id ORDER BY batch_subject_id ASC`
	var counts []models.CompletedSessions
	if err := sqlx.SelectContext(ctx, r.exec(exec), &counts, query, sectionID, asOf); err != nil {
		return nil, fmt.Errorf("count completed sessions: %w", err)
	}
	return counts, nil
}
