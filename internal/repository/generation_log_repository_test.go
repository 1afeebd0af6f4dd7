package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestGenerationLogRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGenerationLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_generation_logs")).
		WithArgs(sqlmock.AnyArg(), int64(3), "Partial", []byte(`["Room double-booked on Monday at 09:00 AM - 10:00 AM."]`),
			10, 12, 0.0, 1000, 1.5, int64(42), 100, false, sqlmock.AnyArg(), 4, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.GenerationLog{
		SectionID:           3,
		Status:              models.GenerationStatusPartial,
		ConstraintsViolated: models.StringList{"Room double-booked on Monday at 09:00 AM - 10:00 AM."},
		TotalSlotsAssigned:  10,
		TotalSlotsRequired:  12,
		Penalty:             1000,
		WorkloadVariance:    1.5,
		Seed:                42,
		Generations:         100,
		StartDate:           time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Weeks:               4,
	}
	require.NoError(t, repo.Create(context.Background(), nil, log))
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.GeneratedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepositoryCreateInTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGenerationLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_generation_logs")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx, &models.GenerationLog{SectionID: 3, Status: models.GenerationStatusSuccess}))
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepositoryUpdateGenerationTime(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGenerationLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_generation_logs SET generation_time_seconds = $1 WHERE id = $2")).
		WithArgs(2.5, "log-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_generation_logs SET generation_time_seconds = $1 WHERE id = $2")).
		WithArgs(1.0, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateGenerationTime(context.Background(), "log-1", 2.5))
	assert.ErrorIs(t, repo.UpdateGenerationTime(context.Background(), "missing", 1.0), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGenerationLogRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "section_id", "status", "constraints_violated", "total_slots_assigned", "total_slots_required",
		"generation_time_seconds", "penalty", "workload_variance", "seed", "generations", "interrupted", "start_date", "weeks", "created_by", "generated_at"}).
		AddRow("log-1", int64(3), "Success", []byte(`[]`), 12, 12, 3.2, 0, 0.25, int64(7), 100, false, now, 2, int64(1), now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_generation_logs WHERE id = $1")).
		WithArgs("log-1").
		WillReturnRows(rows)

	log, err := repo.GetByID(context.Background(), "log-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusSuccess, log.Status)
	assert.Empty(t, log.ConstraintsViolated)
	require.NotNil(t, log.CreatedBy)
	assert.Equal(t, int64(1), *log.CreatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationLogRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGenerationLogRepository(db)

	status := models.GenerationStatusPartial
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "section_id", "section_name", "department_name", "academic_year", "status",
		"total_slots_assigned", "total_slots_required", "generation_time_seconds", "generated_at"}).
		AddRow("log-2", int64(3), "CSE-A", "Computer Science", "2024-2025", "Partial", 10, 12, 4.0, now)
	mock.ExpectQuery(`SELECT l\.id, .* FROM timetable_generation_logs l .* AND l\.status = \$1 ORDER BY l\.generated_at DESC LIMIT 10 OFFSET 10`).
		WithArgs(status).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM timetable_generation_logs l`).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	logs, total, err := repo.List(context.Background(), models.GenerationLogFilter{Status: &status, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "Computer Science", logs[0].DepartmentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
