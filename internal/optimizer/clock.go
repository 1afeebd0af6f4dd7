package optimizer

import (
	"fmt"
	"strings"
)

// ClockTime is a wall-clock time of day expressed in minutes since midnight.
type ClockTime int

// Clock builds a ClockTime from hour and minute components.
func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock accepts "15:04" and "15:04:05" layouts.
func ParseClock(raw string) (ClockTime, error) {
	raw = strings.TrimSpace(raw)
	var h, m, s int
	switch strings.Count(raw, ":") {
	case 1:
		if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("parse clock %q: %w", raw, err)
		}
	case 2:
		if _, err := fmt.Sscanf(raw, "%d:%d:%d", &h, &m, &s); err != nil {
			return 0, fmt.Errorf("parse clock %q: %w", raw, err)
		}
	default:
		return 0, fmt.Errorf("parse clock %q: unsupported layout", raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", raw)
	}
	return Clock(h, m), nil
}

// Hour returns the hour component.
func (c ClockTime) Hour() int {
	return int(c) / 60
}

// Minute returns the minute component.
func (c ClockTime) Minute() int {
	return int(c) % 60
}

// String renders the 24h "15:04" form.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// HMS renders the "15:04:05" form used by TIME columns.
func (c ClockTime) HMS() string {
	return fmt.Sprintf("%02d:%02d:00", c.Hour(), c.Minute())
}

// Kitchen renders the 12h "03:04 PM" form used in human readable messages.
func (c ClockTime) Kitchen() string {
	h := c.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, c.Minute(), suffix)
}

// MarshalText implements encoding.TextMarshaler.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ClockTime) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
