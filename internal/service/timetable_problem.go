package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/optimizer"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type problemSource interface {
	GetSection(ctx context.Context, sectionID int64) (*models.SectionInfo, error)
	ListFacultyAssignments(ctx context.Context, sectionID int64) ([]models.FacultyAssignment, error)
	ListActiveRooms(ctx context.Context) ([]models.Room, error)
	ListActiveTimeslots(ctx context.Context) ([]models.Timeslot, error)
	ListFacultyConstraints(ctx context.Context, facultyIDs []int64) ([]models.FacultyConstraint, error)
	ListFacultyUnavailability(ctx context.Context, facultyIDs []int64) ([]models.FacultyUnavailability, error)
}

// loadedProblem keeps the catalog rows next to the optimizer input built from them.
type loadedProblem struct {
	section      *models.SectionInfo
	problem      optimizer.Problem
	facultyNames map[int64]string
}

func loadProblem(ctx context.Context, src problemSource, sectionID int64) (*loadedProblem, error) {
	section, err := src.GetSection(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %d not found", sectionID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	assignments, err := src.ListFacultyAssignments(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty assignments")
	}
	rooms, err := src.ListActiveRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	slots, err := src.ListActiveTimeslots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}

	facultyIDs := uniqueFacultyIDs(assignments)
	constraints, err := src.ListFacultyConstraints(ctx, facultyIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty constraints")
	}
	blocks, err := src.ListFacultyUnavailability(ctx, facultyIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty unavailability")
	}

	problem, err := buildProblem(section, assignments, rooms, slots, constraints, blocks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable catalog")
	}
	names := make(map[int64]string, len(assignments))
	for _, a := range assignments {
		names[a.FacultyID] = a.FacultyName
	}
	return &loadedProblem{section: section, problem: problem, facultyNames: names}, nil
}

// buildProblem maps catalog rows onto the optimizer input. Unknown weekday
// names are kept as out-of-week indexes so the encoder can reject them.
func buildProblem(
	section *models.SectionInfo,
	assignments []models.FacultyAssignment,
	rooms []models.Room,
	slots []models.Timeslot,
	constraints []models.FacultyConstraint,
	blocks []models.FacultyUnavailability,
) (optimizer.Problem, error) {
	p := optimizer.Problem{
		Section: optimizer.SectionInfo{
			ID:                section.ID,
			Name:              section.Name,
			TotalStudents:     derefInt(section.TotalStudents),
			MaxSubsectionSize: section.MaxSubsectionSize,
			TheoryRoomID:      derefInt64(section.TheoryRoomID),
		},
	}

	for _, a := range assignments {
		p.Assignments = append(p.Assignments, optimizer.AssignmentRow{
			FacultySubjectID:      a.FacultySubjectID,
			FacultyID:             a.FacultyID,
			FacultyName:           a.FacultyName,
			BatchSubjectID:        a.BatchSubjectID,
			SubjectID:             a.SubjectID,
			SubjectCode:           a.SubjectCode,
			SubjectName:           a.SubjectName,
			TheorySessionsPerWeek: derefInt(a.TheorySessionsPerWeek),
			LabSessionsPerWeek:    derefInt(a.LabSessionsPerWeek),
			LabDurationHours:      a.LabDurationHours,
			PreferredLabRoomID:    derefInt64(a.PreferredLabRoomID),
			LabContinuous:         a.IsLabContinuous,
		})
	}

	for _, r := range rooms {
		p.Rooms = append(p.Rooms, optimizer.RoomRef{
			ID:       r.ID,
			Number:   r.Number,
			Type:     optimizer.RoomType(r.Type),
			Capacity: r.Capacity,
		})
	}

	for _, ts := range slots {
		ref, err := timeSlotRef(ts)
		if err != nil {
			return optimizer.Problem{}, err
		}
		p.TimeSlots = append(p.TimeSlots, ref)
	}

	if len(constraints) > 0 {
		p.Constraints = make(map[int64]optimizer.FacultyConstraint, len(constraints))
		for _, c := range constraints {
			var days []int
			for _, name := range c.AvailableDays {
				if day, ok := optimizer.DayIndex(name); ok {
					days = append(days, day)
				}
			}
			p.Constraints[c.FacultyID] = optimizer.FacultyConstraint{
				MaxHoursPerWeek: derefInt(c.MaxHoursPerWeek),
				MaxHoursPerDay:  derefInt(c.MaxHoursPerDay),
				AvailableDays:   days,
			}
		}
	}

	for _, b := range blocks {
		day, ok := optimizer.DayIndex(b.DayOfWeek)
		if !ok {
			continue
		}
		start, err := optimizer.ParseClock(b.StartTime)
		if err != nil {
			return optimizer.Problem{}, fmt.Errorf("unavailability of faculty %d: %w", b.FacultyID, err)
		}
		end, err := optimizer.ParseClock(b.EndTime)
		if err != nil {
			return optimizer.Problem{}, fmt.Errorf("unavailability of faculty %d: %w", b.FacultyID, err)
		}
		p.Unavailability = append(p.Unavailability, optimizer.Unavailability{
			FacultyID: b.FacultyID,
			Day:       day,
			Start:     start,
			End:       end,
		})
	}
	return p, nil
}

func timeSlotRef(ts models.Timeslot) (optimizer.TimeSlotRef, error) {
	day, _ := optimizer.DayIndex(ts.DayOfWeek)
	start, err := optimizer.ParseClock(ts.StartTime)
	if err != nil {
		return optimizer.TimeSlotRef{}, fmt.Errorf("timeslot %d: %w", ts.ID, err)
	}
	end, err := optimizer.ParseClock(ts.EndTime)
	if err != nil {
		return optimizer.TimeSlotRef{}, fmt.Errorf("timeslot %d: %w", ts.ID, err)
	}
	return optimizer.TimeSlotRef{ID: ts.ID, Day: day, Start: start, End: end}, nil
}

// timeSlotIndex indexes the parseable rows of slots by id.
func timeSlotIndex(slots []models.Timeslot) map[int64]optimizer.TimeSlotRef {
	index := make(map[int64]optimizer.TimeSlotRef, len(slots))
	for _, ts := range slots {
		ref, err := timeSlotRef(ts)
		if err != nil {
			continue
		}
		index[ref.ID] = ref
	}
	return index
}

func uniqueFacultyIDs(assignments []models.FacultyAssignment) []int64 {
	seen := make(map[int64]struct{}, len(assignments))
	ids := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.FacultyID]; ok {
			continue
		}
		seen[a.FacultyID] = struct{}{}
		ids = append(ids, a.FacultyID)
	}
	return ids
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
