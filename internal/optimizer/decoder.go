package optimizer

import (
	"sort"
	"time"
)

// SessionRow is one occupied period of the decoded timetable.
type SessionRow struct {
	Requirement    int        `json:"requirement"`
	AssignmentID   int64      `json:"assignment_id"`
	BatchSubjectID int64      `json:"batch_subject_id"`
	SubjectID      int64      `json:"subject_id"`
	SubjectCode    string     `json:"subject_code"`
	SubjectName    string     `json:"subject_name"`
	FacultyID      int64      `json:"faculty_id"`
	RoomID         int64      `json:"room_id"`
	RoomNumber     string     `json:"room_number"`
	TimeSlotID     int64      `json:"timeslot_id"`
	Day            int        `json:"day"`
	DayName        string     `json:"day_name"`
	Start          ClockTime  `json:"start"`
	End            ClockTime  `json:"end"`
	Date           time.Time  `json:"date"`
	WeekNumber     int        `json:"week_number"`
	Subsection     Subsection `json:"subsection"`
	IsLab          bool       `json:"is_lab"`
}

// DecodeOptions dates the decoded rows.
type DecodeOptions struct {
	// StartDate anchors week one. The zero value leaves Date unset.
	StartDate time.Time
	// Weeks repeats the weekly pattern; values below one mean one week.
	Weeks int
}

// Decoded is the human facing form of a chromosome.
type Decoded struct {
	Rows       []SessionRow
	Violations []string
	Assigned   int
	Required   int
}

// Decode expands each gene into its block of slots and emits one dated row
// per slot per week.
func Decode(pc *ProblemContext, ind *Individual, opts DecodeOptions) Decoded {
	weeks := opts.Weeks
	if weeks < 1 {
		weeks = 1
	}

	var weekly []SessionRow
	for _, gene := range ind.Genes {
		if gene.Requirement < 0 || gene.Requirement >= len(pc.Requirements) {
			continue
		}
		req := pc.Requirements[gene.Requirement]
		room, _ := pc.Room(gene.RoomID)
		for _, slot := range pc.Block(gene.slot(), req.DurationHours) {
			ts, ok := pc.TimeSlot(slot.TimeSlotID)
			if !ok {
				continue
			}
			weekly = append(weekly, SessionRow{
				Requirement:    req.ID,
				AssignmentID:   req.AssignmentID,
				BatchSubjectID: req.BatchSubjectID,
				SubjectID:      req.SubjectID,
				SubjectCode:    req.SubjectCode,
				SubjectName:    req.SubjectName,
				FacultyID:      req.FacultyID,
				RoomID:         gene.RoomID,
				RoomNumber:     room.Number,
				TimeSlotID:     ts.ID,
				Day:            slot.Day,
				DayName:        DayName(slot.Day),
				Start:          ts.Start,
				End:            ts.End,
				Subsection:     req.Subsection,
				IsLab:          req.IsLab,
			})
		}
	}
	sort.SliceStable(weekly, func(i, j int) bool {
		if weekly[i].Day != weekly[j].Day {
			return weekly[i].Day < weekly[j].Day
		}
		return weekly[i].Start < weekly[j].Start
	})

	rows := make([]SessionRow, 0, len(weekly)*weeks)
	for week := 1; week <= weeks; week++ {
		for _, row := range weekly {
			row.WeekNumber = week
			if !opts.StartDate.IsZero() {
				row.Date = SessionDate(opts.StartDate, row.Day, week)
			}
			rows = append(rows, row)
		}
	}

	return Decoded{
		Rows:       rows,
		Violations: TranslateViolations(ind.Violations, pc.TimeSlots()),
		Assigned:   len(ind.Genes),
		Required:   len(pc.Requirements),
	}
}

// SessionDate is the first date on or after start falling on day, shifted by
// whole weeks for week numbers above one.
func SessionDate(start time.Time, day, week int) time.Time {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	current := (int(start.Weekday()) + 6) % 7
	offset := (day - current + 7) % 7
	return start.AddDate(0, 0, offset+7*(week-1))
}
