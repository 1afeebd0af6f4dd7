package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestTimetableRepositoryDeleteBySection(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE section_id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 24))

	removed, err := repo.DeleteBySection(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(24), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WithArgs(sqlmock.AnyArg(), "log-1", int64(3), int64(20), int64(5), int64(109), "Monday", int64(1), nil, 1, date, false, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	entries := []models.TimetableEntry{
		{LogID: "log-1", SectionID: 3, FacultyID: 20, BatchSubjectID: 5, TimeslotID: 109, DayOfWeek: "Monday", RoomID: 1, WeekNumber: 1, Date: date},
		{LogID: "log-1", SectionID: 3, FacultyID: 20, BatchSubjectID: 5, TimeslotID: 110, DayOfWeek: "Monday", RoomID: 1, WeekNumber: 1, Date: date},
	}
	err = repo.BulkInsert(context.Background(), tx, entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert timetable entry")
	assert.NotEmpty(t, entries[0].ID)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListByLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "log_id", "section_id", "faculty_id", "batch_subject_id", "timeslot_id", "day_of_week",
		"room_id", "subsection_id", "week_number", "date", "is_rescheduled", "is_lab_session",
		"section_name", "department_name", "academic_year", "semester", "subject_id", "subject_code", "subject_name", "faculty_name", "room_number",
		"start_time", "end_time"}).
		AddRow("e-1", "log-1", int64(3), int64(20), int64(5), int64(109), "Monday", int64(9), 1, 1, date, false, true,
			"CSE-A", "Computer Science", "2024-2025", 5, int64(100), "CS301", "Operating Systems", "Dr. Rao", "LAB-2", "09:00:00", "10:00:00")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.log_id = $1 ORDER BY e.date ASC, t.start_time ASC")).
		WithArgs("log-1").
		WillReturnRows(rows)

	entries, err := repo.ListByLog(context.Background(), "log-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "e-1", entry.ID)
	assert.True(t, entry.IsLabSession)
	require.NotNil(t, entry.SubsectionID)
	assert.Equal(t, 1, *entry.SubsectionID)
	require.NotNil(t, entry.RoomNumber)
	assert.Equal(t, "LAB-2", *entry.RoomNumber)
	assert.Equal(t, "09:00:00", entry.StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListByLogsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	entries, err := repo.ListByLogs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCompletedSessionCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	asOf := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT batch_subject_id, COUNT(*) AS completed_count FROM timetable_entries WHERE section_id = $1 AND date <= $2")).
		WithArgs(int64(3), asOf).
		WillReturnRows(sqlmock.NewRows([]string{"batch_subject_id", "completed_count"}).AddRow(int64(5), 6).AddRow(int64(6), 2))

	counts, err := repo.CompletedSessionCounts(context.Background(), nil, 3, asOf)
	require.NoError(t, err)
	assert.Equal(t, []models.CompletedSessions{{BatchSubjectID: 5, Completed: 6}, {BatchSubjectID: 6, Completed: 2}}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
