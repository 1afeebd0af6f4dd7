package dto

import "github.com/noah-isme/timetable-api/internal/models"

// GenerateTimetableRequest captures POST /timetables/generate payload.
type GenerateTimetableRequest struct {
	SectionID int64  `json:"sectionId" validate:"required,min=1"`
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	Weeks     int    `json:"weeks" validate:"omitempty,min=1,max=52"`
	// Seed pins the optimizer RNG. Omitted or zero draws a fresh seed. It is
	// stored as a signed BIGINT, hence the cap.
	Seed *uint64 `json:"seed,omitempty" validate:"omitempty,max=9223372036854775807"`
}

// TimetableLogQuery filters GET /timetables/logs.
type TimetableLogQuery struct {
	Status    string `form:"status" validate:"omitempty,oneof=Success Partial"`
	SectionID int64  `form:"sectionId" validate:"omitempty,min=1"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// TimetableSession is one occupied period of a stored or freshly generated timetable.
type TimetableSession struct {
	EntryID        string `json:"entryId,omitempty"`
	Date           string `json:"date,omitempty"`
	WeekNumber     int    `json:"weekNumber"`
	Day            string `json:"day"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	TimeslotID     int64  `json:"timeslotId"`
	BatchSubjectID int64  `json:"batchSubjectId"`
	SubjectCode    string `json:"subjectCode"`
	SubjectName    string `json:"subjectName"`
	FacultyID      int64  `json:"facultyId"`
	FacultyName    string `json:"facultyName"`
	RoomID         int64  `json:"roomId"`
	RoomNumber     string `json:"roomNumber"`
	Subsection     *int   `json:"subsection,omitempty"`
	IsLab          bool   `json:"isLab"`
}

// GridCell is the content of one day and period of the weekly grid.
type GridCell struct {
	Subject     string `json:"subject"`
	SubjectCode string `json:"subjectCode"`
	Faculty     string `json:"faculty"`
	Room        string `json:"room"`
	IsLab       bool   `json:"isLab"`
	Subsection  *int   `json:"subsection,omitempty"`
	Rowspan     int    `json:"rowspan"`
}

// TimetableGrid lays week one out by day and "HH:MM-HH:MM" period label.
// A nil cell is free; periods covered by a merged lab are absent from Cells[day].
type TimetableGrid struct {
	Days      []string                        `json:"days"`
	TimeSlots []string                        `json:"timeSlots"`
	Cells     map[string]map[string]*GridCell `json:"cells"`
}

// TimetableView is the response of generate and log lookups.
type TimetableView struct {
	Log        models.GenerationLog `json:"log"`
	Violations []string             `json:"violations"`
	Sessions   []TimetableSession   `json:"sessions"`
	Grid       TimetableGrid        `json:"grid"`
}
