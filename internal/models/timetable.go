package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GenerationStatus is the outcome recorded on a generation log.
type GenerationStatus string

const (
	GenerationStatusSuccess GenerationStatus = "Success"
	GenerationStatusPartial GenerationStatus = "Partial"
)

// SectionInfo is the section row joined with enrollment and batch details.
type SectionInfo struct {
	ID                int64  `db:"section_id" json:"section_id"`
	Name              string `db:"name" json:"name"`
	BatchID           int64  `db:"batch_id" json:"batch_id"`
	DepartmentName    string `db:"department_name" json:"department_name"`
	AcademicYear      string `db:"year_name" json:"academic_year"`
	Semester          int    `db:"semester" json:"semester"`
	TotalStudents     *int   `db:"total_students" json:"total_students"`
	MaxSubsectionSize *int   `db:"max_subsection_size" json:"max_subsection_size,omitempty"`
	TheoryRoomID      *int64 `db:"theory_room_id" json:"theory_room_id,omitempty"`
}

// FacultyAssignment links a faculty member to a batch subject of a section.
type FacultyAssignment struct {
	FacultySubjectID      int64    `db:"faculty_subject_id" json:"faculty_subject_id"`
	FacultyID             int64    `db:"faculty_id" json:"faculty_id"`
	FacultyName           string   `db:"faculty_name" json:"faculty_name"`
	BatchSubjectID        int64    `db:"batch_subject_id" json:"batch_subject_id"`
	SubjectID             int64    `db:"subject_id" json:"subject_id"`
	SubjectCode           string   `db:"subject_code" json:"subject_code"`
	SubjectName           string   `db:"subject_name" json:"subject_name"`
	TheorySessionsPerWeek *int     `db:"theory_sessions_per_week" json:"theory_sessions_per_week"`
	LabSessionsPerWeek    *int     `db:"lab_sessions_per_week" json:"lab_sessions_per_week"`
	LabDurationHours      *float64 `db:"lab_duration_hours" json:"lab_duration_hours,omitempty"`
	IsLabContinuous       *bool    `db:"is_lab_continuous" json:"is_lab_continuous,omitempty"`
	PreferredLabRoomID    *int64   `db:"preferred_lab_room_id" json:"preferred_lab_room_id,omitempty"`
}

// Room is an active teaching room.
type Room struct {
	ID       int64  `db:"room_id" json:"room_id"`
	Number   string `db:"room_number" json:"room_number"`
	Type     string `db:"room_type" json:"room_type"`
	Capacity int    `db:"capacity" json:"capacity"`
}

// Timeslot is an active period of the weekly grid. Times use the TIME
// column text form "15:04:05".
type Timeslot struct {
	ID        int64  `db:"timeslot_id" json:"timeslot_id"`
	DayOfWeek string `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// FacultyConstraint stores per-faculty teaching limits. Nil fields take defaults.
type FacultyConstraint struct {
	FacultyID       int64      `db:"faculty_id" json:"faculty_id"`
	MaxHoursPerWeek *int       `db:"max_hours_per_week" json:"max_hours_per_week,omitempty"`
	MaxHoursPerDay  *int       `db:"max_hours_per_day" json:"max_hours_per_day,omitempty"`
	AvailableDays   StringList `db:"available_days" json:"available_days,omitempty"`
}

// FacultyUnavailability blocks a faculty member for part of a day.
type FacultyUnavailability struct {
	FacultyID int64  `db:"faculty_id" json:"faculty_id"`
	DayOfWeek string `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// GenerationLog records one optimizer run for a section.
type GenerationLog struct {
	ID                    string           `db:"id" json:"id"`
	SectionID             int64            `db:"section_id" json:"section_id"`
	Status                GenerationStatus `db:"status" json:"status"`
	ConstraintsViolated   StringList       `db:"constraints_violated" json:"constraints_violated"`
	TotalSlotsAssigned    int              `db:"total_slots_assigned" json:"total_slots_assigned"`
	TotalSlotsRequired    int              `db:"total_slots_required" json:"total_slots_required"`
	GenerationTimeSeconds float64          `db:"generation_time_seconds" json:"generation_time_seconds"`
	Penalty               int              `db:"penalty" json:"penalty"`
	WorkloadVariance      float64          `db:"workload_variance" json:"workload_variance"`
	Seed                  int64            `db:"seed" json:"seed"`
	Generations           int              `db:"generations" json:"generations"`
	Interrupted           bool             `db:"interrupted" json:"interrupted"`
	StartDate             time.Time        `db:"start_date" json:"start_date"`
	Weeks                 int              `db:"weeks" json:"weeks"`
	CreatedBy             *int64           `db:"created_by" json:"created_by,omitempty"`
	GeneratedAt           time.Time        `db:"generated_at" json:"generated_at"`
}

// GenerationLogSummary is a list row with section context.
type GenerationLogSummary struct {
	ID                    string           `db:"id" json:"id"`
	SectionID             int64            `db:"section_id" json:"section_id"`
	SectionName           string           `db:"section_name" json:"section_name"`
	DepartmentName        string           `db:"department_name" json:"department_name"`
	AcademicYear          string           `db:"academic_year" json:"academic_year"`
	Status                GenerationStatus `db:"status" json:"status"`
	TotalSlotsAssigned    int              `db:"total_slots_assigned" json:"total_slots_assigned"`
	TotalSlotsRequired    int              `db:"total_slots_required" json:"total_slots_required"`
	GenerationTimeSeconds float64          `db:"generation_time_seconds" json:"generation_time_seconds"`
	GeneratedAt           time.Time        `db:"generated_at" json:"generated_at"`
}

// GenerationLogFilter narrows ListLogs.
type GenerationLogFilter struct {
	Status    *GenerationStatus
	SectionID *int64
	Page      int
	PageSize  int
}

// TimetableEntry is one persisted session of a generated timetable.
type TimetableEntry struct {
	ID             string    `db:"id" json:"id"`
	LogID          string    `db:"log_id" json:"log_id"`
	SectionID      int64     `db:"section_id" json:"section_id"`
	FacultyID      int64     `db:"faculty_id" json:"faculty_id"`
	BatchSubjectID int64     `db:"batch_subject_id" json:"batch_subject_id"`
	TimeslotID     int64     `db:"timeslot_id" json:"timeslot_id"`
	DayOfWeek      string    `db:"day_of_week" json:"day_of_week"`
	RoomID         int64     `db:"room_id" json:"room_id"`
	SubsectionID   *int      `db:"subsection_id" json:"subsection_id,omitempty"`
	WeekNumber     int       `db:"week_number" json:"week_number"`
	Date           time.Time `db:"date" json:"date"`
	IsRescheduled  bool      `db:"is_rescheduled" json:"is_rescheduled"`
	IsLabSession   bool      `db:"is_lab_session" json:"is_lab_session"`
}

// TimetableEntryDetail is an entry joined with display names.
type TimetableEntryDetail struct {
	TimetableEntry
	SectionName    string  `db:"section_name" json:"section_name"`
	DepartmentName string  `db:"department_name" json:"department_name"`
	AcademicYear   string  `db:"academic_year" json:"academic_year"`
	Semester       int     `db:"semester" json:"semester"`
	SubjectID      int64   `db:"subject_id" json:"subject_id"`
	SubjectCode    string  `db:"subject_code" json:"subject_code"`
	SubjectName    string  `db:"subject_name" json:"subject_name"`
	FacultyName    string  `db:"faculty_name" json:"faculty_name"`
	RoomNumber     *string `db:"room_number" json:"room_number,omitempty"`
	StartTime      string  `db:"start_time" json:"start_time"`
	EndTime        string  `db:"end_time" json:"end_time"`
}

// CompletedSessions counts sessions of a batch subject already held.
type CompletedSessions struct {
	BatchSubjectID int64 `db:"batch_subject_id"`
	Completed      int   `db:"completed_count"`
}

// LectureTracker keeps the conducted session count per section subject.
type LectureTracker struct {
	ID             string `db:"id" json:"id"`
	SectionID      int64  `db:"section_id" json:"section_id"`
	BatchSubjectID int64  `db:"batch_subject_id" json:"batch_subject_id"`
	TotalRequired  int    `db:"total_required" json:"total_required"`
	Conducted      int    `db:"conducted" json:"conducted"`
}

// StringList persists a string slice as a JSONB array.
type StringList []string

// Value marshals the list to JSON for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array. A non-JSON payload becomes a single element.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		*l = StringList{string(data)}
		return nil
	}
	*l = out
	return nil
}
