package optimizer

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// slotID keeps fixture ids readable: Monday 09:00 is 109, Tuesday 14:00 is 214.
func slotID(day, hour int) int64 {
	return int64((day+1)*100 + hour)
}

func hourlySlots(days []int, hours ...int) []TimeSlotRef {
	var out []TimeSlotRef
	for _, day := range days {
		for _, h := range hours {
			out = append(out, TimeSlotRef{ID: slotID(day, h), Day: day, Start: Clock(h, 0), End: Clock(h+1, 0)})
		}
	}
	return out
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func theoryRow(batchID, facultyID int64, code string, sessions int) AssignmentRow {
	return AssignmentRow{
		FacultySubjectID:      batchID*10 + facultyID,
		FacultyID:             facultyID,
		BatchSubjectID:        batchID,
		SubjectID:             batchID,
		SubjectCode:           code,
		SubjectName:           code + " Theory",
		TheorySessionsPerWeek: sessions,
	}
}

func labRow(batchID, facultyID int64, code string, sessions int, hours float64) AssignmentRow {
	row := theoryRow(batchID, facultyID, code, 0)
	row.SubjectName = code + " Lab"
	row.LabSessionsPerWeek = sessions
	row.LabDurationHours = floatPtr(hours)
	return row
}

func baseProblem() Problem {
	return Problem{
		Section: SectionInfo{ID: 1, Name: "CSE-A", TotalStudents: 40},
		Rooms: []RoomRef{
			{ID: 1, Number: "L-101", Type: RoomTypeLecture, Capacity: 60},
			{ID: 2, Number: "L-102", Type: RoomTypeLecture, Capacity: 60},
			{ID: 3, Number: "LAB-1", Type: RoomTypeLab, Capacity: 40},
		},
		TimeSlots: hourlySlots([]int{0, 1, 2, 3, 4}, 9, 10, 11, 12),
	}
}

func mustEncode(t *testing.T, p Problem) *ProblemContext {
	t.Helper()
	pc, err := Encode(p, FacultyRoundRobin, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	return pc
}

func testRun(pc *ProblemContext, cfg Config) *run {
	cfg = cfg.withDefaults()
	if cfg.Seed == 0 {
		cfg.Seed = 7
	}
	return &run{pc: pc, cfg: cfg, rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)), logger: zap.NewNop()}
}

func gene(req int, day, hour int, room int64) Gene {
	return Gene{Requirement: req, Day: day, TimeSlotID: slotID(day, hour), RoomID: room}
}

func withObjectives(penalty int, variance float64) *Individual {
	return &Individual{Penalty: penalty, Variance: variance, evaluated: true}
}
