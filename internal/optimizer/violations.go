package optimizer

import (
	"fmt"
	"regexp"
	"strconv"
)

var slotRef = regexp.MustCompile(`at slot \((\d+), (\d+)\)`)

// TranslateViolations rewrites "at slot (d, t)" references into
// "on <Day> at 09:00 AM - 10:00 AM". References to unknown timeslots are
// left untouched, so translating twice is a no-op.
func TranslateViolations(msgs []string, slots map[int64]TimeSlotRef) []string {
	if msgs == nil {
		return nil
	}
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = slotRef.ReplaceAllStringFunc(msg, func(match string) string {
			parts := slotRef.FindStringSubmatch(match)
			day, err := strconv.Atoi(parts[1])
			if err != nil {
				return match
			}
			id, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				return match
			}
			ts, ok := slots[id]
			if !ok {
				return match
			}
			return fmt.Sprintf("on %s at %s - %s", DayName(day), ts.Start.Kitchen(), ts.End.Kitchen())
		})
	}
	return out
}
