// Package optimizer searches for university timetables with NSGA-II.
//
// A Problem is encoded into an immutable ProblemContext, a population of
// chromosomes is evolved under two objectives (constraint penalty and faculty
// workload variance) and the best non-dominated chromosome is decoded into
// dated session rows.
package optimizer

import (
	"errors"
	"strings"
)

// Penalty weights composing the scalar penalty objective.
const (
	PenaltyHard   = 1000
	PenaltyMedium = 50
	PenaltySoft   = 1
)

// ErrInvalidInput is returned by Encode when the problem cannot be searched.
var ErrInvalidInput = errors.New("invalid optimizer input")

// DayNames lists the teaching week; genes index into it.
var DayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayIndex resolves a weekday name case-insensitively.
func DayIndex(name string) (int, bool) {
	for i, day := range DayNames {
		if strings.EqualFold(day, strings.TrimSpace(name)) {
			return i, true
		}
	}
	return -1, false
}

// DayName returns the weekday name or "Unknown Day" for indexes outside the week.
func DayName(day int) string {
	if day < 0 || day >= len(DayNames) {
		return "Unknown Day"
	}
	return DayNames[day]
}

// RoomType distinguishes lecture halls from laboratories.
type RoomType string

const (
	RoomTypeLecture RoomType = "Lecture"
	RoomTypeLab     RoomType = "Lab"
)

// RoomRef describes an active room.
type RoomRef struct {
	ID       int64    `json:"id"`
	Number   string   `json:"number"`
	Type     RoomType `json:"type"`
	Capacity int      `json:"capacity"`
}

// TimeSlotRef describes a bookable period on a weekday.
type TimeSlotRef struct {
	ID    int64     `json:"id"`
	Day   int       `json:"day"`
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Label renders "HH:MM-HH:MM".
func (t TimeSlotRef) Label() string {
	return t.Start.String() + "-" + t.End.String()
}

// PossibleSlot is a (day, timeslot) pair a session may start at.
type PossibleSlot struct {
	Day        int
	TimeSlotID int64
}

// SectionInfo carries the section facts the encoder needs.
type SectionInfo struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	TotalStudents     int    `json:"total_students"`
	MaxSubsectionSize *int   `json:"max_subsection_size,omitempty"`
	TheoryRoomID      int64  `json:"theory_room_id,omitempty"`
}

// AssignmentRow is one faculty-subject link for a batch subject of the section.
type AssignmentRow struct {
	FacultySubjectID      int64    `json:"faculty_subject_id"`
	FacultyID             int64    `json:"faculty_id"`
	FacultyName           string   `json:"faculty_name,omitempty"`
	BatchSubjectID        int64    `json:"batch_subject_id"`
	SubjectID             int64    `json:"subject_id"`
	SubjectCode           string   `json:"subject_code"`
	SubjectName           string   `json:"subject_name"`
	TheorySessionsPerWeek int      `json:"theory_sessions_per_week"`
	LabSessionsPerWeek    int      `json:"lab_sessions_per_week"`
	LabDurationHours      *float64 `json:"lab_duration_hours,omitempty"`
	PreferredLabRoomID    int64    `json:"preferred_lab_room_id,omitempty"`
	LabContinuous         *bool    `json:"lab_continuous,omitempty"`
}

// FacultyConstraint bounds the teaching load of one faculty member.
type FacultyConstraint struct {
	MaxHoursPerWeek int   `json:"max_hours_per_week"`
	MaxHoursPerDay  int   `json:"max_hours_per_day"`
	AvailableDays   []int `json:"available_days"`
}

// DefaultFacultyConstraint is applied when a faculty member has no stored limits.
func DefaultFacultyConstraint() FacultyConstraint {
	return FacultyConstraint{
		MaxHoursPerWeek: 20,
		MaxHoursPerDay:  4,
		AvailableDays:   []int{0, 1, 2, 3, 4, 5},
	}
}

func (c FacultyConstraint) withDefaults() FacultyConstraint {
	def := DefaultFacultyConstraint()
	if c.MaxHoursPerWeek <= 0 {
		c.MaxHoursPerWeek = def.MaxHoursPerWeek
	}
	if c.MaxHoursPerDay <= 0 {
		c.MaxHoursPerDay = def.MaxHoursPerDay
	}
	if len(c.AvailableDays) == 0 {
		c.AvailableDays = def.AvailableDays
	}
	return c
}

func (c FacultyConstraint) availableOn(day int) bool {
	for _, d := range c.AvailableDays {
		if d == day {
			return true
		}
	}
	return false
}

// Unavailability blocks a faculty member for part of a weekday.
type Unavailability struct {
	FacultyID int64     `json:"faculty_id"`
	Day       int       `json:"day"`
	Start     ClockTime `json:"start"`
	End       ClockTime `json:"end"`
}

func (u Unavailability) overlaps(slot TimeSlotRef) bool {
	return u.Day == slot.Day && slot.Start < u.End && u.Start < slot.End
}

// Problem is the raw input of one optimization run.
type Problem struct {
	Section        SectionInfo                 `json:"section"`
	Assignments    []AssignmentRow             `json:"assignments"`
	Rooms          []RoomRef                   `json:"rooms"`
	TimeSlots      []TimeSlotRef               `json:"timeslots"`
	Constraints    map[int64]FacultyConstraint `json:"constraints,omitempty"`
	Unavailability []Unavailability            `json:"unavailability,omitempty"`
}

// Subsection tags a requirement with the part of the section it serves.
// FullClass means the whole section attends.
type Subsection int

const FullClass Subsection = 0

// IsFull reports whether the whole section attends.
func (s Subsection) IsFull() bool {
	return s == FullClass
}

// SessionRequirement is one weekly session that must be placed.
type SessionRequirement struct {
	ID               int
	AssignmentID     int64
	BatchSubjectID   int64
	SubjectID        int64
	SubjectCode      string
	SubjectName      string
	CandidateFaculty []int64
	FacultyID        int64
	IsLab            bool
	DurationHours    int
	Subsection       Subsection
	PreferredRoomID  int64
	Continuous       bool
}

// Gene places requirement Requirement at a starting slot in a room.
type Gene struct {
	Requirement int
	Day         int
	TimeSlotID  int64
	RoomID      int64
}

func (g Gene) slot() PossibleSlot {
	return PossibleSlot{Day: g.Day, TimeSlotID: g.TimeSlotID}
}

// Individual is a chromosome and its derived fitness data.
type Individual struct {
	Genes      []Gene
	Penalty    int
	Variance   float64
	Violations []string
	Rank       int
	Crowding   float64

	evaluated bool
}

func newIndividual(genes []Gene) *Individual {
	return &Individual{Genes: genes}
}

// Objectives returns the minimised objective vector.
func (ind *Individual) Objectives() [2]float64 {
	return [2]float64{float64(ind.Penalty), ind.Variance}
}

func (ind *Individual) cloneGenes() []Gene {
	out := make([]Gene, len(ind.Genes))
	copy(out, ind.Genes)
	return out
}
