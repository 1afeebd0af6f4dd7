package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// LectureTrackerRepository keeps conducted-session counters per section subject.
type LectureTrackerRepository struct {
	db *sqlx.DB
}

// NewLectureTrackerRepository constructs the repository.
func NewLectureTrackerRepository(db *sqlx.DB) *LectureTrackerRepository {
	return &LectureTrackerRepository{db: db}
}

func (r *LectureTrackerRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertConducted inserts trackers or overwrites the counts of existing ones.
func (r *LectureTrackerRepository) UpsertConducted(ctx context.Context, exec sqlx.ExtContext, trackers []models.LectureTracker) error {
	if len(trackers) == 0 {
		return nil
	}
	const query = `INSERT INTO lecture_trackers (id, section_id, batch_subject_id, total_required, conducted)
VALUES (:id, :section_id, :batch_subject_id, :total_required, :conducted)
ON CONFLICT (section_id, batch_subject_id) DO UPDATE
SET conducted = EXCLUDED.conducted,
    total_required = EXCLUDED.total_required`
	target := r.exec(exec)
	for i := range trackers {
		tracker := &trackers[i]
		if tracker.ID == "" {
			tracker.ID = uuid.NewString()
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, tracker); err != nil {
			return fmt.Errorf("upsert lecture tracker: %w", err)
		}
	}
	return nil
}
