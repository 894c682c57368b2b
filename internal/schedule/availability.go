package schedule

import (
	"errors"
	"sort"
)

var (
	ErrNotAvailable = errors.New("window is not open for booking")
	ErrNotBooked    = errors.New("window is not booked")
)

// Span is one open/close stretch on a single day, with a booked flag once a
// lesson occupies it.
type Span struct {
	Open   Minutes `json:"open"`
	Close  Minutes `json:"close"`
	Booked bool    `json:"booked,omitempty"`
}

// Availability maps location name to weekday to spans. The zero value of a
// missing key is simply empty availability, so lookups never need guarding.
type Availability map[string]map[string][]Span

func (a Availability) spans(location, day string) []Span {
	days, ok := a[location]
	if !ok {
		return nil
	}
	return days[day]
}

func (a Availability) setSpans(location, day string, spans []Span) {
	days, ok := a[location]
	if !ok {
		days = make(map[string][]Span)
		a[location] = days
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Open < spans[j].Open })
	days[day] = spans
}

// Add opens a window up for booking, coalescing with adjacent free spans.
func (a Availability) Add(w Window) error {
	if !w.Open.valid() || !w.Close.valid() || w.Close <= w.Open {
		return ErrInvalidWindow
	}
	for _, span := range a.spans(w.Location, w.Day) {
		if w.Open < span.Close && span.Open < w.Close {
			return ErrInvalidWindow
		}
	}
	spans := append(a.spans(w.Location, w.Day), Span{Open: w.Open, Close: w.Close})
	a.setSpans(w.Location, w.Day, mergeAdjacent(spans))
	return nil
}

// Remove drops a free window from the availability.
func (a Availability) Remove(w Window) error {
	spans := a.spans(w.Location, w.Day)
	for i, span := range spans {
		if span.Booked || span.Open != w.Open || span.Close != w.Close {
			continue
		}
		a.setSpans(w.Location, w.Day, append(spans[:i:i], spans[i+1:]...))
		return nil
	}
	return ErrNotAvailable
}

// MarkBooked flags the part of an open span covered by w as booked, splitting
// the span so any leading or trailing free fragments stay bookable.
func (a Availability) MarkBooked(w Window) error {
	spans := a.spans(w.Location, w.Day)
	for i, span := range spans {
		if span.Booked || span.Open > w.Open || span.Close < w.Close {
			continue
		}

		replaced := make([]Span, 0, len(spans)+2)
		replaced = append(replaced, spans[:i]...)
		if span.Open < w.Open {
			replaced = append(replaced, Span{Open: span.Open, Close: w.Open})
		}
		replaced = append(replaced, Span{Open: w.Open, Close: w.Close, Booked: true})
		if w.Close < span.Close {
			replaced = append(replaced, Span{Open: w.Close, Close: span.Close})
		}
		replaced = append(replaced, spans[i+1:]...)

		a.setSpans(w.Location, w.Day, replaced)
		return nil
	}
	return ErrNotAvailable
}

// MarkFree clears the booked flag on the span matching w and coalesces the
// freed span with its neighbors.
func (a Availability) MarkFree(w Window) error {
	spans := a.spans(w.Location, w.Day)
	for i, span := range spans {
		if !span.Booked || span.Open != w.Open || span.Close != w.Close {
			continue
		}
		spans[i].Booked = false
		a.setSpans(w.Location, w.Day, mergeAdjacent(spans))
		return nil
	}
	return ErrNotBooked
}

// OpenWindows lists every un-booked span as a Window, ordered by location,
// day, then opening time.
func (a Availability) OpenWindows() []Window {
	windows := make([]Window, 0)
	for location, days := range a {
		for day, spans := range days {
			for _, span := range spans {
				if span.Booked {
					continue
				}
				windows = append(windows, Window{
					Location: location,
					Day:      day,
					Open:     span.Open,
					Close:    span.Close,
				})
			}
		}
	}
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Location != windows[j].Location {
			return windows[i].Location < windows[j].Location
		}
		if windows[i].Day != windows[j].Day {
			return dayIndex(windows[i].Day) < dayIndex(windows[j].Day)
		}
		return windows[i].Open < windows[j].Open
	})
	return windows
}

// FitsWithin reports whether w lands entirely inside an open span for its
// location and day.
func (a Availability) FitsWithin(w Window) bool {
	if w.Close <= w.Open {
		return false
	}
	for _, span := range a.spans(w.Location, w.Day) {
		if !span.Booked && span.Open <= w.Open && w.Close <= span.Close {
			return true
		}
	}
	return false
}

// mergeAdjacent coalesces touching or overlapping free spans. Booked spans
// are never merged.
func mergeAdjacent(spans []Span) []Span {
	if len(spans) == 0 {
		return spans
	}

	sorted := append([]Span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Open < sorted[j].Open })

	merged := sorted[:1]
	for _, span := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !last.Booked && !span.Booked && span.Open <= last.Close {
			if span.Close > last.Close {
				last.Close = span.Close
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}

func dayIndex(day string) int {
	for i, name := range weekdays {
		if name == day {
			return i
		}
	}
	return len(weekdays)
}
