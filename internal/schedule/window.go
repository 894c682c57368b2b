package schedule

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDay    = errors.New("invalid weekday")
	ErrInvalidWindow = errors.New("invalid availability window")
)

var weekdays = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// ParseDay canonicalizes a weekday name. Plural forms ("Mondays") and any
// casing are accepted.
func ParseDay(value string) (string, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(value)), "s")
	for _, day := range weekdays {
		if strings.ToLower(day) == trimmed {
			return day, nil
		}
	}
	return "", ErrInvalidDay
}

// Window is a weekly availability span at a location.
type Window struct {
	Location string  `json:"location"`
	Day      string  `json:"day"`
	Open     Minutes `json:"open"`
	Close    Minutes `json:"close"`
}

func NewWindow(location, day string, open, close Minutes) (Window, error) {
	canonicalDay, err := ParseDay(day)
	if err != nil {
		return Window{}, err
	}
	location = strings.TrimSpace(location)
	if location == "" || !open.valid() || !close.valid() || close <= open {
		return Window{}, ErrInvalidWindow
	}
	return Window{Location: location, Day: canonicalDay, Open: open, Close: close}, nil
}

func (w Window) Overlaps(other Window) bool {
	if w.Location != other.Location || w.Day != other.Day {
		return false
	}
	return w.Open < other.Close && other.Open < w.Close
}

func (w Window) Contains(other Window) bool {
	if w.Location != other.Location || w.Day != other.Day {
		return false
	}
	return w.Open <= other.Open && other.Close <= w.Close
}

func (w Window) Equal(other Window) bool {
	return w == other
}

func (w Window) Duration() Minutes {
	return w.Close - w.Open
}

// ParseWindowString parses the availability-string grammar, e.g.
// "Gunn Academic Center on Mondays from 2:45 PM to 3:45 PM". A trailing
// period is tolerated. Round-trips with FormatWindowString.
func ParseWindowString(value string) (Window, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), ".")

	head, times, ok := cutLast(trimmed, " from ")
	if !ok {
		return Window{}, ErrInvalidWindow
	}
	location, day, ok := cutLast(head, " on ")
	if !ok {
		return Window{}, ErrInvalidWindow
	}
	openStr, closeStr, ok := strings.Cut(times, " to ")
	if !ok {
		return Window{}, ErrInvalidWindow
	}

	open, err := ParseClock(openStr)
	if err != nil {
		return Window{}, err
	}
	close, err := ParseClock(closeStr)
	if err != nil {
		return Window{}, err
	}

	return NewWindow(location, day, open, close)
}

// FormatWindowString renders the window in the availability-string grammar.
func FormatWindowString(w Window) string {
	return fmt.Sprintf("%s on %ss from %s to %s", w.Location, w.Day, w.Open.Format(), w.Close.Format())
}

func cutLast(s, sep string) (before, after string, found bool) {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}
