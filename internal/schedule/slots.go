package schedule

// Slots enumerates the bookable sub-windows of a window: every lesson-length
// span starting on a step boundary that still ends before the window closes.
func Slots(w Window, lessonMinutes, stepMinutes int) []Window {
	if lessonMinutes <= 0 || stepMinutes <= 0 {
		return nil
	}

	slots := make([]Window, 0)
	for start := w.Open; start+Minutes(lessonMinutes) <= w.Close; start += Minutes(stepMinutes) {
		slots = append(slots, Window{
			Location: w.Location,
			Day:      w.Day,
			Open:     start,
			Close:    start + Minutes(lessonMinutes),
		})
	}
	return slots
}
