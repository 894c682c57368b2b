package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Minutes is a clock time expressed as minutes from midnight.
type Minutes int

var ErrInvalidClock = errors.New("invalid clock time")

// ParseClock parses a 12-hour clock string like "3:45 PM". Minutes may be
// omitted ("3 PM"). "12:00 AM" is midnight and "12:00 PM" is noon.
func ParseClock(value string) (Minutes, error) {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(value)))
	if len(fields) != 2 {
		return 0, ErrInvalidClock
	}

	meridiem := fields[1]
	if meridiem != "AM" && meridiem != "PM" {
		return 0, ErrInvalidClock
	}

	hourPart := fields[0]
	minutePart := "0"
	if idx := strings.Index(fields[0], ":"); idx >= 0 {
		hourPart = fields[0][:idx]
		minutePart = fields[0][idx+1:]
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 1 || hour > 12 {
		return 0, ErrInvalidClock
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return 0, ErrInvalidClock
	}

	if hour == 12 {
		hour = 0
	}
	if meridiem == "PM" {
		hour += 12
	}

	return Minutes(hour*60 + minute), nil
}

// Format renders the time as a 12-hour clock string, e.g. "3:45 PM".
func (m Minutes) Format() string {
	minute := int(m) % 60
	hour := int(m) / 60 % 24

	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}

	return fmt.Sprintf("%d:%02d %s", hour, minute, meridiem)
}

func (m Minutes) valid() bool {
	return m >= 0 && m <= 24*60
}
