package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/optimizer"
)

const problemJSON = `{
  "section": {"id": 1, "name": "CSE-A", "total_students": 40},
  "assignments": [
    {"faculty_subject_id": 11, "faculty_id": 1, "batch_subject_id": 1, "subject_id": 1,
     "subject_code": "CS1", "subject_name": "Programming", "theory_sessions_per_week": 2}
  ],
  "rooms": [{"id": 1, "number": "L-101", "type": "Lecture", "capacity": 60}],
  "timeslots": [
    {"id": 109, "day": 0, "start": "09:00", "end": "10:00"},
    {"id": 110, "day": 0, "start": "10:00", "end": "11:00"},
    {"id": 209, "day": 1, "start": "09:00", "end": "10:00"},
    {"id": 210, "day": 1, "start": "10:00", "end": "11:00"}
  ],
  "constraints": {"1": {"max_hours_per_week": 10, "max_hours_per_day": 2, "available_days": [0, 1]}}
}`

func writeProblem(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunSolvePrintsReport(t *testing.T) {
	opts := &solveOptions{
		Input:       writeProblem(t, problemJSON),
		Seed:        5,
		Generations: 10,
		Population:  10,
		StartDate:   "2024-07-01",
		Weeks:       2,
	}
	var out bytes.Buffer

	require.NoError(t, runSolve(context.Background(), opts, &out))

	var rep report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, uint64(5), rep.Seed)
	assert.Equal(t, 10, rep.Generations)
	assert.Equal(t, 2, rep.Required)
	assert.Equal(t, optimizer.StatusSuccess, rep.Status)
	require.Len(t, rep.Rows, 4)
	for _, row := range rep.Rows {
		assert.Equal(t, "L-101", row.RoomNumber)
		assert.Contains(t, []int{1, 2}, row.WeekNumber)
	}
	assert.NotNil(t, rep.Violations)
}

func TestRunSolveRejectsBadInput(t *testing.T) {
	var out bytes.Buffer

	err := runSolve(context.Background(), &solveOptions{Input: writeProblem(t, `{"section":`)}, &out)
	assert.ErrorContains(t, err, "decode problem")

	err = runSolve(context.Background(), &solveOptions{Input: writeProblem(t, problemJSON), StartDate: "July"}, &out)
	assert.ErrorContains(t, err, "--start-date")

	err = runSolve(context.Background(), &solveOptions{Input: writeProblem(t, `{"section":{"id":1}}`)}, &out)
	assert.ErrorIs(t, err, optimizer.ErrInvalidInput)
}

const sharedSubjectJSON = `{
  "section": {"id": 1, "name": "CSE-A", "total_students": 40},
  "assignments": [
    {"faculty_subject_id": 11, "faculty_id": 1, "batch_subject_id": 1, "subject_id": 1,
     "subject_code": "CS1", "subject_name": "Programming", "theory_sessions_per_week": 4},
    {"faculty_subject_id": 12, "faculty_id": 2, "batch_subject_id": 1, "subject_id": 1,
     "subject_code": "CS1", "subject_name": "Programming", "theory_sessions_per_week": 4}
  ],
  "rooms": [{"id": 1, "number": "L-101", "type": "Lecture", "capacity": 60}],
  "timeslots": [
    {"id": 109, "day": 0, "start": "09:00", "end": "10:00"},
    {"id": 110, "day": 0, "start": "10:00", "end": "11:00"},
    {"id": 209, "day": 1, "start": "09:00", "end": "10:00"},
    {"id": 210, "day": 1, "start": "10:00", "end": "11:00"}
  ]
}`

func TestRunSolveRoundRobinFacultyStrategy(t *testing.T) {
	opts := &solveOptions{
		Input:           writeProblem(t, sharedSubjectJSON),
		Seed:            3,
		Generations:     5,
		Population:      8,
		FacultyStrategy: string(optimizer.FacultyRoundRobin),
		StartDate:       "2024-07-01",
		Weeks:           1,
	}
	var out bytes.Buffer

	require.NoError(t, runSolve(context.Background(), opts, &out))

	var rep report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	require.Len(t, rep.Rows, 4)
	perFaculty := map[int64]int{}
	for _, row := range rep.Rows {
		perFaculty[row.FacultyID]++
	}
	assert.Equal(t, map[int64]int{1: 2, 2: 2}, perFaculty)
}

func TestRunSolveRejectsUnknownFacultyStrategy(t *testing.T) {
	var out bytes.Buffer
	opts := &solveOptions{Input: writeProblem(t, problemJSON), FacultyStrategy: "alphabetical"}

	err := runSolve(context.Background(), opts, &out)

	assert.ErrorContains(t, err, "--faculty-strategy")
	assert.Zero(t, out.Len())
}

func TestSolveCommandWritesOutputFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "report.json")
	cmd := newRootCommand()
	cmd.SetArgs([]string{"solve", "--input", writeProblem(t, problemJSON), "--seed", "9", "--faculty-strategy", "round_robin", "--generations", "5", "--population", "8", "--output", output})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var rep report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, uint64(9), rep.Seed)
}

func TestSolveCommandRequiresInput(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"solve"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
