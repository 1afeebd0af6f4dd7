package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/optimizer"
)

func TestBuildProblemMapsCatalogRows(t *testing.T) {
	students, maxWeek, lab := 40, 12, int64(7)
	section := &models.SectionInfo{ID: 1, Name: "CSE-A", TotalStudents: &students}
	hours := 2.0
	assignments := []models.FacultyAssignment{{
		FacultySubjectID: 1, FacultyID: 4, BatchSubjectID: 2, SubjectID: 3,
		SubjectCode: "EE1", SubjectName: "Circuits", LabSessionsPerWeek: &[]int{1}[0],
		LabDurationHours: &hours, PreferredLabRoomID: &lab,
	}}
	rooms := []models.Room{{ID: 7, Number: "LAB-1", Type: "Lab", Capacity: 30}}
	slots := []models.Timeslot{
		{ID: 1, DayOfWeek: "monday", StartTime: "09:00:00", EndTime: "10:00:00"},
		{ID: 2, DayOfWeek: "Sunday", StartTime: "09:00:00", EndTime: "10:00:00"},
	}
	constraints := []models.FacultyConstraint{{FacultyID: 4, MaxHoursPerWeek: &maxWeek, AvailableDays: models.StringList{"Monday", "Funday", "Friday"}}}
	blocks := []models.FacultyUnavailability{
		{FacultyID: 4, DayOfWeek: "Friday", StartTime: "13:00:00", EndTime: "15:30:00"},
		{FacultyID: 4, DayOfWeek: "Holiday", StartTime: "13:00:00", EndTime: "15:30:00"},
	}

	p, err := buildProblem(section, assignments, rooms, slots, constraints, blocks)
	require.NoError(t, err)

	assert.Equal(t, 40, p.Section.TotalStudents)
	assert.Equal(t, int64(0), p.Section.TheoryRoomID)
	require.Len(t, p.Assignments, 1)
	assert.Equal(t, 0, p.Assignments[0].TheorySessionsPerWeek)
	assert.Equal(t, 1, p.Assignments[0].LabSessionsPerWeek)
	assert.Equal(t, int64(7), p.Assignments[0].PreferredLabRoomID)
	assert.Equal(t, optimizer.RoomTypeLab, p.Rooms[0].Type)

	assert.Equal(t, optimizer.TimeSlotRef{ID: 1, Day: 0, Start: optimizer.Clock(9, 0), End: optimizer.Clock(10, 0)}, p.TimeSlots[0])
	assert.Equal(t, -1, p.TimeSlots[1].Day, "days outside the teaching week are left for the encoder")

	assert.Equal(t, optimizer.FacultyConstraint{MaxHoursPerWeek: 12, AvailableDays: []int{0, 4}}, p.Constraints[4])
	assert.Equal(t, []optimizer.Unavailability{
		{FacultyID: 4, Day: 4, Start: optimizer.Clock(13, 0), End: optimizer.Clock(15, 30)},
	}, p.Unavailability)
}

func TestBuildProblemRejectsMalformedTimes(t *testing.T) {
	section := &models.SectionInfo{ID: 1}
	slots := []models.Timeslot{{ID: 9, DayOfWeek: "Monday", StartTime: "nine", EndTime: "10:00:00"}}

	_, err := buildProblem(section, nil, nil, slots, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeslot 9")
}

func TestUniqueFacultyIDs(t *testing.T) {
	got := uniqueFacultyIDs([]models.FacultyAssignment{{FacultyID: 3}, {FacultyID: 1}, {FacultyID: 3}})
	assert.Equal(t, []int64{3, 1}, got)
}
