package optimizer

// timeline indexes timeslots by day and start time so consecutive periods
// can be walked one step at a time.
type timeline struct {
	byID    map[int64]TimeSlotRef
	byStart [len(DayNames)]map[ClockTime]TimeSlotRef
}

func newTimeline(slots []TimeSlotRef) *timeline {
	tl := &timeline{byID: make(map[int64]TimeSlotRef, len(slots))}
	for day := range tl.byStart {
		tl.byStart[day] = make(map[ClockTime]TimeSlotRef)
	}
	for _, ts := range slots {
		if ts.Day < 0 || ts.Day >= len(DayNames) {
			continue
		}
		if _, dup := tl.byID[ts.ID]; dup {
			continue
		}
		tl.byID[ts.ID] = ts
		// first catalog entry wins when two periods share a start
		if _, taken := tl.byStart[ts.Day][ts.Start]; !taken {
			tl.byStart[ts.Day][ts.Start] = ts
		}
	}
	return tl
}

// block returns up to duration consecutive slots beginning at start. The walk
// stops early when no period begins where the previous one ends.
func (tl *timeline) block(start PossibleSlot, duration int) []PossibleSlot {
	if duration < 1 {
		duration = 1
	}
	out := make([]PossibleSlot, 0, duration)
	out = append(out, start)
	cur, ok := tl.byID[start.TimeSlotID]
	if !ok || cur.Day != start.Day {
		return out
	}
	for len(out) < duration {
		next, ok := tl.byStart[cur.Day][cur.End]
		if !ok {
			break
		}
		out = append(out, PossibleSlot{Day: next.Day, TimeSlotID: next.ID})
		cur = next
	}
	return out
}
