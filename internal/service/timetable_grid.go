package service

import (
	"sort"
	"time"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/optimizer"
)

// periodLabel renders a period as "HH:MM-HH:MM".
func periodLabel(start, end string) string {
	return start + "-" + end
}

// timeslotLabels returns the sorted distinct period labels of slots.
func timeslotLabels(slots []optimizer.TimeSlotRef) []string {
	seen := make(map[string]struct{}, len(slots))
	labels := make([]string, 0, len(slots))
	for _, ts := range slots {
		label := periodLabel(ts.Start.String(), ts.End.String())
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// buildTimetableGrid lays week one of sessions into a day by period grid.
// The first session claiming a cell wins. A lab session directly followed on
// the same day by the same subject and faculty spans two rows and the second
// period is dropped from that day.
func buildTimetableGrid(sessions []dto.TimetableSession, labels []string) dto.TimetableGrid {
	days := optimizer.DayNames[:]
	grid := dto.TimetableGrid{
		Days:      append([]string(nil), days...),
		TimeSlots: labels,
		Cells:     make(map[string]map[string]*dto.GridCell, len(days)),
	}
	if grid.TimeSlots == nil {
		grid.TimeSlots = []string{}
	}
	for _, day := range days {
		row := make(map[string]*dto.GridCell, len(labels))
		for _, label := range labels {
			row[label] = nil
		}
		grid.Cells[day] = row
	}

	week := make([]dto.TimetableSession, 0, len(sessions))
	for _, s := range sessions {
		if s.WeekNumber <= 1 {
			week = append(week, s)
		}
	}
	sort.SliceStable(week, func(i, j int) bool {
		di, _ := optimizer.DayIndex(week[i].Day)
		dj, _ := optimizer.DayIndex(week[j].Day)
		if di != dj {
			return di < dj
		}
		return week[i].StartTime < week[j].StartTime
	})

	merged := make(map[int]bool)
	for i, cur := range week {
		if merged[i] {
			continue
		}
		row, ok := grid.Cells[cur.Day]
		if !ok {
			continue
		}
		label := periodLabel(cur.StartTime, cur.EndTime)
		existing, known := row[label]
		if !known || existing != nil {
			continue
		}
		cell := &dto.GridCell{
			Subject:     cur.SubjectName,
			SubjectCode: cur.SubjectCode,
			Faculty:     cur.FacultyName,
			Room:        cur.RoomNumber,
			IsLab:       cur.IsLab,
			Subsection:  cur.Subsection,
			Rowspan:     1,
		}
		if cur.IsLab && i+1 < len(week) {
			next := week[i+1]
			if next.IsLab && next.Day == cur.Day && next.BatchSubjectID == cur.BatchSubjectID &&
				next.FacultyID == cur.FacultyID && next.StartTime == cur.EndTime {
				cell.Rowspan = 2
				merged[i+1] = true
				delete(row, periodLabel(next.StartTime, next.EndTime))
			}
		}
		row[label] = cell
	}
	return grid
}

// sessionsFromRows pairs decoded rows with their persisted entries. entries
// may be nil when nothing was stored.
func sessionsFromRows(rows []optimizer.SessionRow, entries []models.TimetableEntry, facultyNames map[int64]string) []dto.TimetableSession {
	sessions := make([]dto.TimetableSession, 0, len(rows))
	for i, row := range rows {
		s := dto.TimetableSession{
			WeekNumber:     row.WeekNumber,
			Day:            row.DayName,
			StartTime:      row.Start.String(),
			EndTime:        row.End.String(),
			TimeslotID:     row.TimeSlotID,
			BatchSubjectID: row.BatchSubjectID,
			SubjectCode:    row.SubjectCode,
			SubjectName:    row.SubjectName,
			FacultyID:      row.FacultyID,
			FacultyName:    facultyNames[row.FacultyID],
			RoomID:         row.RoomID,
			RoomNumber:     row.RoomNumber,
			Subsection:     subsectionPtr(row.Subsection),
			IsLab:          row.IsLab,
		}
		if !row.Date.IsZero() {
			s.Date = row.Date.Format(dateLayout)
		}
		if i < len(entries) {
			s.EntryID = entries[i].ID
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// sessionsFromEntries converts stored entries to sessions ordered by week, day and start.
func sessionsFromEntries(entries []models.TimetableEntryDetail) []dto.TimetableSession {
	sessions := make([]dto.TimetableSession, 0, len(entries))
	for _, e := range entries {
		s := dto.TimetableSession{
			EntryID:        e.ID,
			WeekNumber:     e.WeekNumber,
			Day:            e.DayOfWeek,
			StartTime:      normalizeClock(e.StartTime),
			EndTime:        normalizeClock(e.EndTime),
			TimeslotID:     e.TimeslotID,
			BatchSubjectID: e.BatchSubjectID,
			SubjectCode:    e.SubjectCode,
			SubjectName:    e.SubjectName,
			FacultyID:      e.FacultyID,
			FacultyName:    e.FacultyName,
			RoomID:         e.RoomID,
			Subsection:     e.SubsectionID,
			IsLab:          e.IsLabSession,
		}
		if e.RoomNumber != nil {
			s.RoomNumber = *e.RoomNumber
		}
		if !e.Date.IsZero() {
			s.Date = e.Date.Format(dateLayout)
		}
		sessions = append(sessions, s)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.WeekNumber != b.WeekNumber {
			return a.WeekNumber < b.WeekNumber
		}
		da, _ := optimizer.DayIndex(a.Day)
		db, _ := optimizer.DayIndex(b.Day)
		if da != db {
			return da < db
		}
		return a.StartTime < b.StartTime
	})
	return sessions
}

// entriesFromRows builds the rows to persist for logID.
func entriesFromRows(sectionID int64, logID string, rows []optimizer.SessionRow) []models.TimetableEntry {
	entries := make([]models.TimetableEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.TimetableEntry{
			LogID:          logID,
			SectionID:      sectionID,
			FacultyID:      row.FacultyID,
			BatchSubjectID: row.BatchSubjectID,
			TimeslotID:     row.TimeSlotID,
			DayOfWeek:      row.DayName,
			RoomID:         row.RoomID,
			SubsectionID:   subsectionPtr(row.Subsection),
			WeekNumber:     row.WeekNumber,
			Date:           row.Date,
			IsLabSession:   row.IsLab,
		})
	}
	return entries
}

// lectureTrackers pairs the sessions now required per batch subject with the
// sessions already held.
func lectureTrackers(sectionID int64, rows []optimizer.SessionRow, completed []models.CompletedSessions) []models.LectureTracker {
	required := make(map[int64]int)
	for _, row := range rows {
		required[row.BatchSubjectID]++
	}
	conducted := make(map[int64]int, len(completed))
	for _, c := range completed {
		conducted[c.BatchSubjectID] = c.Completed
		if _, ok := required[c.BatchSubjectID]; !ok {
			required[c.BatchSubjectID] = 0
		}
	}
	ids := make([]int64, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	trackers := make([]models.LectureTracker, 0, len(ids))
	for _, id := range ids {
		trackers = append(trackers, models.LectureTracker{
			SectionID:      sectionID,
			BatchSubjectID: id,
			TotalRequired:  required[id],
			Conducted:      conducted[id],
		})
	}
	return trackers
}

func subsectionPtr(s optimizer.Subsection) *int {
	if s.IsFull() {
		return nil
	}
	v := int(s)
	return &v
}

func normalizeClock(raw string) string {
	c, err := optimizer.ParseClock(raw)
	if err != nil {
		return raw
	}
	return c.String()
}

const dateLayout = "2006-01-02"

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
