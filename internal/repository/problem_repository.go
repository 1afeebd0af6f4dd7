package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ProblemRepository loads the catalog rows an optimizer run needs.
type ProblemRepository struct {
	db *sqlx.DB
}

// NewProblemRepository constructs the repository.
func NewProblemRepository(db *sqlx.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

// GetSection returns the section with its enrollment. sql.ErrNoRows is
// returned unwrapped when the section does not exist.
func (r *ProblemRepository) GetSection(ctx context.Context, sectionID int64) (*models.SectionInfo, error) {
	const query = `SELECT s.section_id, s.name, s.batch_id, d.name AS department_name, ay.year_name, b.semester,
se.total_students, se.max_subsection_size, s.theory_room_id
FROM sections s
JOIN batches b ON b.batch_id = s.batch_id
JOIN departments d ON d.department_id = b.department_id
JOIN academic_years ay ON ay.academic_year_id = b.academic_year_id
LEFT JOIN section_enrollment se ON se.section_id = s.section_id
WHERE s.section_id = $1`
	var section models.SectionInfo
	if err := r.db.GetContext(ctx, &section, query, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get section: %w", err)
	}
	return &section, nil
}

// ListFacultyAssignments returns every faculty-subject link of the section.
func (r *ProblemRepository) ListFacultyAssignments(ctx context.Context, sectionID int64) ([]models.FacultyAssignment, error) {
	const query = `SELECT fs.faculty_subject_id, fs.faculty_id, u.name AS faculty_name, fs.batch_subject_id,
sub.subject_id, sub.subject_code, sub.subject_name, sub.theory_sessions_per_week, sub.lab_sessions_per_week,
sub.lab_duration_hours, sub.is_lab_continuous, bs.preferred_lab_room_id
FROM faculty_subjects fs
JOIN batch_subjects bs ON bs.batch_subject_id = fs.batch_subject_id
JOIN subjects sub ON sub.subject_id = bs.subject_id
JOIN users u ON u.user_id = fs.faculty_id
WHERE fs.section_id = $1
ORDER BY fs.batch_subject_id ASC, fs.faculty_subject_id ASC`
	var rows []models.FacultyAssignment
	if err := r.db.SelectContext(ctx, &rows, query, sectionID); err != nil {
		return nil, fmt.Errorf("list faculty assignments: %w", err)
	}
	return rows, nil
}

// ListActiveRooms returns rooms available for scheduling.
func (r *ProblemRepository) ListActiveRooms(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT room_id, room_number, room_type, capacity FROM rooms WHERE is_active = TRUE ORDER BY room_id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}

// ListActiveTimeslots returns the active periods with times rendered as text.
func (r *ProblemRepository) ListActiveTimeslots(ctx context.Context) ([]models.Timeslot, error) {
	const query = `SELECT timeslot_id, day_of_week, start_time::text AS start_time, end_time::text AS end_time
FROM timeslots WHERE is_active = TRUE ORDER BY timeslot_id ASC`
	var slots []models.Timeslot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list active timeslots: %w", err)
	}
	return slots, nil
}

// ListFacultyConstraints returns stored limits for the given faculty members.
func (r *ProblemRepository) ListFacultyConstraints(ctx context.Context, facultyIDs []int64) ([]models.FacultyConstraint, error) {
	if len(facultyIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT faculty_id, max_hours_per_week, max_hours_per_day, available_days
FROM faculty_constraints WHERE faculty_id = ANY($1)`
	var constraints []models.FacultyConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, pq.Array(facultyIDs)); err != nil {
		return nil, fmt.Errorf("list faculty constraints: %w", err)
	}
	return constraints, nil
}

// ListFacultyUnavailability returns blocked windows for the given faculty members.
func (r *ProblemRepository) ListFacultyUnavailability(ctx context.Context, facultyIDs []int64) ([]models.FacultyUnavailability, error) {
	if len(facultyIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT faculty_id, day_of_week, start_time::text AS start_time, end_time::text AS end_time
FROM faculty_unavailability WHERE faculty_id = ANY($1) ORDER BY faculty_id ASC, start_time ASC`
	var windows []models.FacultyUnavailability
	if err := r.db.SelectContext(ctx, &windows, query, pq.Array(facultyIDs)); err != nil {
		return nil, fmt.Errorf("list faculty unavailability: %w", err)
	}
	return windows, nil
}
