package optimizer

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"go.uber.org/multierr"
)

// ProblemContext is the encoded, read-only view of a Problem shared by every
// stage of a run.
type ProblemContext struct {
	Section      SectionInfo
	Requirements []SessionRequirement
	Slots        []PossibleSlot

	subsectionSize int
	timeline       *timeline
	rooms          []RoomRef
	roomByID       map[int64]RoomRef
	roomsByType    map[RoomType][]RoomRef
	constraints    map[int64]FacultyConstraint
	unavailability map[int64][]Unavailability
	facultyNames   map[int64]string
	// starting slots whose continuity walk yields a full block, per duration
	constructible map[int][]PossibleSlot
}

// Encode expands assignment rows into session requirements and enumerates the
// possible starting slots. Every structural problem is reported at once,
// wrapped in ErrInvalidInput.
func Encode(problem Problem, strategy FacultyStrategy, rng *rand.Rand) (*ProblemContext, error) {
	var errs error
	if len(problem.Assignments) == 0 {
		errs = multierr.Append(errs, errors.New("no faculty assignments for section"))
	}
	if len(problem.Rooms) == 0 {
		errs = multierr.Append(errs, errors.New("no active rooms"))
	}
	if len(problem.TimeSlots) == 0 {
		errs = multierr.Append(errs, errors.New("no active timeslots"))
	}

	pc := &ProblemContext{
		Section:        problem.Section,
		timeline:       newTimeline(problem.TimeSlots),
		rooms:          problem.Rooms,
		roomByID:       make(map[int64]RoomRef, len(problem.Rooms)),
		roomsByType:    make(map[RoomType][]RoomRef),
		constraints:    make(map[int64]FacultyConstraint, len(problem.Constraints)),
		unavailability: make(map[int64][]Unavailability),
		facultyNames:   make(map[int64]string),
		constructible:  make(map[int][]PossibleSlot),
	}

	pc.subsectionSize = problem.Section.TotalStudents
	if problem.Section.MaxSubsectionSize != nil && *problem.Section.MaxSubsectionSize > 0 {
		pc.subsectionSize = *problem.Section.MaxSubsectionSize
	}

	maxLabCapacity := 0
	for _, room := range problem.Rooms {
		pc.roomByID[room.ID] = room
		pc.roomsByType[room.Type] = append(pc.roomsByType[room.Type], room)
		if room.Type == RoomTypeLab && room.Capacity > maxLabCapacity {
			maxLabCapacity = room.Capacity
		}
	}
	for id, c := range problem.Constraints {
		pc.constraints[id] = c.withDefaults()
	}
	for _, u := range problem.Unavailability {
		pc.unavailability[u.FacultyID] = append(pc.unavailability[u.FacultyID], u)
	}

	for _, ts := range problem.TimeSlots {
		if _, ok := pc.timeline.byID[ts.ID]; !ok {
			continue
		}
		if ts.Day < 0 || ts.Day >= len(DayNames) {
			continue
		}
		pc.Slots = append(pc.Slots, PossibleSlot{Day: ts.Day, TimeSlotID: ts.ID})
	}
	if len(problem.TimeSlots) > 0 && len(pc.Slots) == 0 {
		errs = multierr.Append(errs, errors.New("no timeslot falls on a teaching day"))
	}

	pc.Requirements = expandRequirements(problem, pc, maxLabCapacity, strategy, rng)
	if len(problem.Assignments) > 0 && len(pc.Requirements) == 0 {
		errs = multierr.Append(errs, errors.New("no sessions could be generated from faculty assignments"))
	}

	if errs != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errs)
	}

	for _, req := range pc.Requirements {
		if _, done := pc.constructible[req.DurationHours]; done {
			continue
		}
		starts := make([]PossibleSlot, 0, len(pc.Slots))
		for _, slot := range pc.Slots {
			if len(pc.Block(slot, req.DurationHours)) == req.DurationHours {
				starts = append(starts, slot)
			}
		}
		pc.constructible[req.DurationHours] = starts
	}
	return pc, nil
}

func expandRequirements(problem Problem, pc *ProblemContext, maxLabCapacity int, strategy FacultyStrategy, rng *rand.Rand) []SessionRequirement {
	groups := make(map[int64][]AssignmentRow)
	var batchIDs []int64
	for _, row := range problem.Assignments {
		if _, seen := groups[row.BatchSubjectID]; !seen {
			batchIDs = append(batchIDs, row.BatchSubjectID)
		}
		groups[row.BatchSubjectID] = append(groups[row.BatchSubjectID], row)
		if row.FacultyName != "" {
			pc.facultyNames[row.FacultyID] = row.FacultyName
		}
	}
	sort.Slice(batchIDs, func(i, j int) bool { return batchIDs[i] < batchIDs[j] })

	total := problem.Section.TotalStudents
	maxSub := pc.subsectionSize

	var reqs []SessionRequirement
	for _, batchID := range batchIDs {
		rows := groups[batchID]
		first := rows[0]
		picker := newFacultyPicker(rows, strategy, rng)

		labDuration := 1
		if first.LabDurationHours != nil && int(*first.LabDurationHours) > 1 {
			labDuration = int(*first.LabDurationHours)
		}
		continuous := true
		if first.LabContinuous != nil {
			continuous = *first.LabContinuous
		}

		split := false
		if first.LabSessionsPerWeek > 0 && total > 0 {
			if maxSub > 0 && total > maxSub {
				split = true
			} else if maxLabCapacity > 0 && total > maxLabCapacity {
				split = true
			}
		}

		base := SessionRequirement{
			AssignmentID:     first.FacultySubjectID,
			BatchSubjectID:   batchID,
			SubjectID:        first.SubjectID,
			SubjectCode:      first.SubjectCode,
			SubjectName:      first.SubjectName,
			CandidateFaculty: picker.pool,
		}

		for i := 0; i < first.TheorySessionsPerWeek; i++ {
			req := base
			req.FacultyID = picker.next()
			req.DurationHours = 1
			req.Subsection = FullClass
			req.PreferredRoomID = problem.Section.TheoryRoomID
			reqs = append(reqs, req)
		}

		lab := base
		lab.IsLab = true
		lab.DurationHours = labDuration
		lab.PreferredRoomID = first.PreferredLabRoomID
		lab.Continuous = continuous
		if split {
			subsections := 1
			if maxSub > 0 {
				subsections = (total + maxSub - 1) / maxSub
			}
			for sub := 1; sub <= subsections; sub++ {
				for i := 0; i < first.LabSessionsPerWeek; i++ {
					req := lab
					req.FacultyID = picker.next()
					req.Subsection = Subsection(sub)
					reqs = append(reqs, req)
				}
			}
			continue
		}
		for i := 0; i < first.LabSessionsPerWeek; i++ {
			req := lab
			req.FacultyID = picker.next()
			req.Subsection = FullClass
			reqs = append(reqs, req)
		}
	}

	for i := range reqs {
		reqs[i].ID = i
	}
	return reqs
}

type facultyPicker struct {
	pool     []int64
	strategy FacultyStrategy
	rng      *rand.Rand
	cursor   int
}

func newFacultyPicker(rows []AssignmentRow, strategy FacultyStrategy, rng *rand.Rand) *facultyPicker {
	seen := make(map[int64]struct{}, len(rows))
	pool := make([]int64, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.FacultyID]; dup {
			continue
		}
		seen[row.FacultyID] = struct{}{}
		pool = append(pool, row.FacultyID)
	}
	return &facultyPicker{pool: pool, strategy: strategy, rng: rng}
}

func (p *facultyPicker) next() int64 {
	if p.strategy == FacultyRoundRobin {
		id := p.pool[p.cursor%len(p.pool)]
		p.cursor++
		return id
	}
	return p.pool[p.rng.IntN(len(p.pool))]
}

// Block returns the consecutive slots a session of the given duration
// occupies when started at start. A result shorter than duration means the
// day has no continuous run long enough.
func (pc *ProblemContext) Block(start PossibleSlot, duration int) []PossibleSlot {
	return pc.timeline.block(start, duration)
}

// TimeSlot looks up a catalog timeslot.
func (pc *ProblemContext) TimeSlot(id int64) (TimeSlotRef, bool) {
	ts, ok := pc.timeline.byID[id]
	return ts, ok
}

// Room looks up a catalog room.
func (pc *ProblemContext) Room(id int64) (RoomRef, bool) {
	room, ok := pc.roomByID[id]
	return room, ok
}

// TimeSlots returns the indexed timeslot catalog.
func (pc *ProblemContext) TimeSlots() map[int64]TimeSlotRef {
	return pc.timeline.byID
}

// Occupants is the head count a requirement must seat.
func (pc *ProblemContext) Occupants(req SessionRequirement) int {
	if req.Subsection.IsFull() {
		return pc.Section.TotalStudents
	}
	return pc.subsectionSize
}

func (pc *ProblemContext) constraintFor(facultyID int64) FacultyConstraint {
	if c, ok := pc.constraints[facultyID]; ok {
		return c
	}
	return DefaultFacultyConstraint()
}

// facultyAvailable reports whether the faculty member can teach at slot.
func (pc *ProblemContext) facultyAvailable(facultyID int64, slot PossibleSlot) bool {
	if !pc.constraintFor(facultyID).availableOn(slot.Day) {
		return false
	}
	windows := pc.unavailability[facultyID]
	if len(windows) == 0 {
		return true
	}
	ts, ok := pc.timeline.byID[slot.TimeSlotID]
	if !ok {
		return true
	}
	for _, w := range windows {
		if w.overlaps(ts) {
			return false
		}
	}
	return true
}

func (pc *ProblemContext) facultyLabel(facultyID int64) string {
	if name, ok := pc.facultyNames[facultyID]; ok {
		return name
	}
	return fmt.Sprintf("%d", facultyID)
}
