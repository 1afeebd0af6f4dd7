package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateViolations(t *testing.T) {
	slots := map[int64]TimeSlotRef{
		109: {ID: 109, Day: 0, Start: Clock(9, 0), End: Clock(10, 0)},
		214: {ID: 214, Day: 1, Start: Clock(14, 0), End: Clock(15, 0)},
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "morning slot",
			in:   "Room double-booked at slot (0, 109).",
			want: "Room double-booked on Monday at 09:00 AM - 10:00 AM.",
		},
		{
			name: "afternoon slot keeps suffix",
			in:   "Section conflict at slot (1, 214): full class scheduled with a subsection.",
			want: "Section conflict on Tuesday at 02:00 PM - 03:00 PM: full class scheduled with a subsection.",
		},
		{
			name: "unknown timeslot untouched",
			in:   "Faculty double-booked at slot (2, 999).",
			want: "Faculty double-booked at slot (2, 999).",
		},
		{
			name: "day outside the week",
			in:   "Room double-booked at slot (9, 109).",
			want: "Room double-booked on Unknown Day at 09:00 AM - 10:00 AM.",
		},
		{
			name: "no slot reference",
			in:   "Room type mismatch: Lab session in a Lecture room.",
			want: "Room type mismatch: Lab session in a Lecture room.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TranslateViolations([]string{tc.in}, slots)
			assert.Equal(t, []string{tc.want}, got)
			assert.Equal(t, got, TranslateViolations(got, slots), "translation is idempotent")
		})
	}
}

func TestTranslateViolationsNil(t *testing.T) {
	assert.Nil(t, TranslateViolations(nil, nil))
}
