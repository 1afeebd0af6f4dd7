package optimizer

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTwoHourLab(t *testing.T) {
	p := baseProblem()
	p.Assignments = []AssignmentRow{labRow(1, 4, "EE1", 1, 2)}
	pc := mustEncode(t, p)
	ind := newIndividual([]Gene{gene(0, 2, 10, 3)})
	Evaluate(pc, ind)

	// 2024-07-01 is a Monday
	got := Decode(pc, ind, DecodeOptions{StartDate: time.Date(2024, 7, 1, 15, 30, 0, 0, time.UTC), Weeks: 1})

	wed := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)
	want := []SessionRow{
		{
			AssignmentID: 14, BatchSubjectID: 1, SubjectID: 1, SubjectCode: "EE1", SubjectName: "EE1 Lab",
			FacultyID: 4, RoomID: 3, RoomNumber: "LAB-1", TimeSlotID: slotID(2, 10), Day: 2, DayName: "Wednesday",
			Start: Clock(10, 0), End: Clock(11, 0), Date: wed, WeekNumber: 1, IsLab: true,
		},
		{
			AssignmentID: 14, BatchSubjectID: 1, SubjectID: 1, SubjectCode: "EE1", SubjectName: "EE1 Lab",
			FacultyID: 4, RoomID: 3, RoomNumber: "LAB-1", TimeSlotID: slotID(2, 11), Day: 2, DayName: "Wednesday",
			Start: Clock(11, 0), End: Clock(12, 0), Date: wed, WeekNumber: 1, IsLab: true,
		},
	}
	assert.Empty(t, cmp.Diff(want, got.Rows))
	assert.Equal(t, got.Rows[0].End, got.Rows[1].Start)
	assert.Equal(t, 1, got.Assigned)
	assert.Equal(t, 1, got.Required)
	assert.Empty(t, got.Violations)
}

func TestDecodeRepeatsAcrossWeeks(t *testing.T) {
	pc := twoTheoryContext(t)
	ind := newIndividual([]Gene{gene(0, 4, 9, 1), gene(1, 0, 9, 1)})
	Evaluate(pc, ind)

	// 2024-07-03 is a Wednesday
	got := Decode(pc, ind, DecodeOptions{StartDate: time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), Weeks: 3})

	require.Len(t, got.Rows, 6)
	var dates []string
	for _, row := range got.Rows {
		dates = append(dates, row.Date.Format("2006-01-02")+"/"+row.DayName)
	}
	assert.Equal(t, []string{
		"2024-07-08/Monday", "2024-07-05/Friday",
		"2024-07-15/Monday", "2024-07-12/Friday",
		"2024-07-22/Monday", "2024-07-19/Friday",
	}, dates)
	assert.Equal(t, 3, got.Rows[5].WeekNumber)
}

func TestDecodeWithoutStartDateLeavesDatesUnset(t *testing.T) {
	pc := twoTheoryContext(t)
	ind := newIndividual([]Gene{gene(0, 0, 9, 1), gene(1, 0, 9, 1)})
	Evaluate(pc, ind)

	got := Decode(pc, ind, DecodeOptions{})

	require.Len(t, got.Rows, 2)
	for _, row := range got.Rows {
		assert.True(t, row.Date.IsZero())
		assert.Equal(t, 1, row.WeekNumber)
	}
	assert.Contains(t, got.Violations, "Faculty double-booked on Monday at 09:00 AM - 10:00 AM.")
}

func TestSessionDate(t *testing.T) {
	sunday := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 7, 6, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), SessionDate(sunday, 0, 1))
	assert.Equal(t, saturday, SessionDate(saturday, 5, 1))
	assert.Equal(t, time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC), SessionDate(saturday, 0, 1))
	assert.Equal(t, time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC), SessionDate(saturday, 5, 3))
}
