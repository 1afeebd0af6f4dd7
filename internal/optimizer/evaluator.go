package optimizer

import (
	"fmt"
	"sort"
)

// slotLedger groups values by slot and remembers the order slots were first
// seen, so violations come out in a reproducible order.
type slotLedger[T comparable] struct {
	order   []PossibleSlot
	entries map[PossibleSlot][]T
}

func newSlotLedger[T comparable]() *slotLedger[T] {
	return &slotLedger[T]{entries: make(map[PossibleSlot][]T)}
}

func (l *slotLedger[T]) add(slot PossibleSlot, v T) {
	if _, seen := l.entries[slot]; !seen {
		l.order = append(l.order, slot)
	}
	l.entries[slot] = append(l.entries[slot], v)
}

// excess counts entries beyond the first for each distinct value.
func excess[T comparable](values []T) int {
	distinct := make(map[T]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	return len(values) - len(distinct)
}

// Evaluate scores ind against pc and stores the penalty, the faculty workload
// variance and the violation log on it. It does not touch pc.
func Evaluate(pc *ProblemContext, ind *Individual) {
	penalty := 0
	var violations []string
	addf := func(weight int, format string, args ...any) {
		penalty += weight
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	blocks := make([][]PossibleSlot, len(ind.Genes))
	for i, gene := range ind.Genes {
		req := pc.Requirements[gene.Requirement]
		block := pc.Block(gene.slot(), req.DurationHours)
		if req.DurationHours > 1 && len(block) < req.DurationHours {
			addf(PenaltyHard, "Lab continuity broken for '%s'. Required %d hours.", req.SubjectName, req.DurationHours)
		}
		blocks[i] = block
	}

	sections := newSlotLedger[Subsection]()
	faculty := newSlotLedger[int64]()
	rooms := newSlotLedger[int64]()
	var facultyOrder []int64
	weekly := make(map[int64]int)
	daily := make(map[int64]*[len(DayNames)]int)
	var dayStarts [len(DayNames)]map[ClockTime]struct{}

	for i, gene := range ind.Genes {
		req := pc.Requirements[gene.Requirement]
		if _, seen := weekly[req.FacultyID]; !seen {
			facultyOrder = append(facultyOrder, req.FacultyID)
			daily[req.FacultyID] = new([len(DayNames)]int)
		}
		weekly[req.FacultyID] += req.DurationHours

		for _, slot := range blocks[i] {
			sections.add(slot, req.Subsection)
			faculty.add(slot, req.FacultyID)
			rooms.add(slot, gene.RoomID)
			if slot.Day < 0 || slot.Day >= len(DayNames) {
				continue
			}
			daily[req.FacultyID][slot.Day]++
			if ts, ok := pc.TimeSlot(slot.TimeSlotID); ok {
				if dayStarts[slot.Day] == nil {
					dayStarts[slot.Day] = make(map[ClockTime]struct{})
				}
				dayStarts[slot.Day][ts.Start] = struct{}{}
			}
			if !pc.facultyAvailable(req.FacultyID, slot) {
				addf(PenaltyMedium, "Faculty %s unavailable at slot (%d, %d).", pc.facultyLabel(req.FacultyID), slot.Day, slot.TimeSlotID)
			}
		}
	}

	for _, slot := range sections.order {
		subs := sections.entries[slot]
		hasFull := false
		var seen []Subsection
		counts := make(map[Subsection]int)
		for _, sub := range subs {
			if sub.IsFull() {
				hasFull = true
				continue
			}
			if counts[sub] == 0 {
				seen = append(seen, sub)
			}
			counts[sub]++
		}
		if len(subs) > 1 && hasFull {
			if len(seen) == 0 {
				addf(PenaltyHard, "Section conflict at slot (%d, %d): full class scheduled twice.", slot.Day, slot.TimeSlotID)
			} else {
				addf(PenaltyHard, "Section conflict at slot (%d, %d): full class scheduled with a subsection.", slot.Day, slot.TimeSlotID)
			}
		}
		for _, sub := range seen {
			if counts[sub] > 1 {
				addf(PenaltyHard, "Section conflict at slot (%d, %d): same subsection (%d) scheduled twice.", slot.Day, slot.TimeSlotID, int(sub))
			}
		}
	}

	for _, slot := range faculty.order {
		if n := excess(faculty.entries[slot]); n > 0 {
			addf(PenaltyHard*n, "Faculty double-booked at slot (%d, %d).", slot.Day, slot.TimeSlotID)
		}
	}
	for _, slot := range rooms.order {
		if n := excess(rooms.entries[slot]); n > 0 {
			addf(PenaltyHard*n, "Room double-booked at slot (%d, %d).", slot.Day, slot.TimeSlotID)
		}
	}

	for _, gene := range ind.Genes {
		req := pc.Requirements[gene.Requirement]
		room, ok := pc.Room(gene.RoomID)
		if !ok {
			continue
		}
		if req.IsLab && room.Type != RoomTypeLab {
			addf(PenaltyMedium, "Room type mismatch: Lab session in a Lecture room.")
		}
		if !req.IsLab && room.Type == RoomTypeLab {
			penalty += PenaltySoft
		}
		if seats := pc.Occupants(req); room.Capacity < seats {
			addf(PenaltyMedium, "Room capacity too small: %s (%d) for %d students.", room.Number, room.Capacity, seats)
		}
	}

	for _, id := range facultyOrder {
		limits := pc.constraintFor(id)
		label := pc.facultyLabel(id)
		if weekly[id] > limits.MaxHoursPerWeek {
			addf(PenaltyMedium, "Faculty %s over weekly limit.", label)
		}
		for _, hours := range daily[id] {
			if hours > limits.MaxHoursPerDay {
				addf(PenaltyMedium, "Faculty %s over daily limit.", label)
			}
		}
	}

	for _, starts := range dayStarts {
		if len(starts) < 2 {
			continue
		}
		hours := make([]int, 0, len(starts))
		for start := range starts {
			hours = append(hours, start.Hour())
		}
		sort.Ints(hours)
		if gaps := (hours[len(hours)-1] - hours[0]) - (len(hours) - 1); gaps > 0 {
			penalty += gaps * PenaltySoft
		}
	}

	ind.Penalty = penalty
	ind.Variance = workloadVariance(facultyOrder, weekly)
	ind.Violations = violations
	ind.evaluated = true
}

// workloadVariance is the population variance of weekly hours across the
// faculty members carrying load.
func workloadVariance(order []int64, weekly map[int64]int) float64 {
	if len(order) < 2 {
		return 0
	}
	var sum float64
	for _, id := range order {
		sum += float64(weekly[id])
	}
	mean := sum / float64(len(order))
	var sq float64
	for _, id := range order {
		d := float64(weekly[id]) - mean
		sq += d * d
	}
	return sq / float64(len(order))
}
