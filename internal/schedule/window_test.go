package schedule

import "testing"

func TestParseWindowString(t *testing.T) {
	w, err := ParseWindowString("Gunn Academic Center on Mondays from 2:45 PM to 3:45 PM")
	if err != nil {
		t.Fatalf("ParseWindowString: %v", err)
	}
	if w.Location != "Gunn Academic Center" {
		t.Fatalf("expected location Gunn Academic Center, got %q", w.Location)
	}
	if w.Day != "Monday" {
		t.Fatalf("expected Monday, got %q", w.Day)
	}
	if w.Open != 885 || w.Close != 945 {
		t.Fatalf("expected 885-945, got %d-%d", w.Open, w.Close)
	}
}

func TestParseWindowStringToleratesTrailingPeriodAndLocationWithOn(t *testing.T) {
	w, err := ParseWindowString("Center on Main on Tuesdays from 9:00 AM to 10:00 AM.")
	if err != nil {
		t.Fatalf("ParseWindowString: %v", err)
	}
	if w.Location != "Center on Main" {
		t.Fatalf("expected location to keep its own ' on ', got %q", w.Location)
	}
	if w.Day != "Tuesday" {
		t.Fatalf("expected Tuesday, got %q", w.Day)
	}
}

func TestParseWindowStringRejectsBadInput(t *testing.T) {
	bad := []string{
		"",
		"Gunn Academic Center",
		"Gunn on Mondays from 3:45 PM to 2:45 PM",
		"Gunn on Mondays from 2:45 PM to 2:45 PM",
		"Gunn on Fundays from 2:45 PM to 3:45 PM",
		"Gunn on Mondays from 2:45 to 3:45",
		"on Mondays from 2:45 PM to 3:45 PM",
	}
	for _, in := range bad {
		if _, err := ParseWindowString(in); err == nil {
			t.Fatalf("ParseWindowString(%q): expected error", in)
		}
	}
}

func TestFormatWindowStringRoundTrips(t *testing.T) {
	original := "Gunn Academic Center on Mondays from 2:45 PM to 3:45 PM"
	w, err := ParseWindowString(original)
	if err != nil {
		t.Fatalf("ParseWindowString: %v", err)
	}
	if got := FormatWindowString(w); got != original {
		t.Fatalf("expected %q, got %q", original, got)
	}
}

func TestWindowOverlapsAndContains(t *testing.T) {
	base := Window{Location: "Gunn", Day: "Monday", Open: 600, Close: 720}

	overlapping := Window{Location: "Gunn", Day: "Monday", Open: 660, Close: 780}
	if !base.Overlaps(overlapping) {
		t.Fatalf("expected overlap")
	}

	adjacent := Window{Location: "Gunn", Day: "Monday", Open: 720, Close: 780}
	if base.Overlaps(adjacent) {
		t.Fatalf("touching windows must not overlap")
	}

	otherDay := Window{Location: "Gunn", Day: "Tuesday", Open: 600, Close: 720}
	if base.Overlaps(otherDay) {
		t.Fatalf("different days must not overlap")
	}

	otherLocation := Window{Location: "Paly", Day: "Monday", Open: 600, Close: 720}
	if base.Overlaps(otherLocation) {
		t.Fatalf("different locations must not overlap")
	}

	inner := Window{Location: "Gunn", Day: "Monday", Open: 630, Close: 690}
	if !base.Contains(inner) {
		t.Fatalf("expected base to contain inner")
	}
	if inner.Contains(base) {
		t.Fatalf("inner must not contain base")
	}
	if !base.Contains(base) || !base.Equal(base) {
		t.Fatalf("window must contain and equal itself")
	}
}

func TestNewWindowRejectsZeroLength(t *testing.T) {
	if _, err := NewWindow("Gunn", "Monday", 600, 600); err == nil {
		t.Fatalf("expected zero-length window rejection")
	}
	if _, err := NewWindow("Gunn", "Monday", 700, 600); err == nil {
		t.Fatalf("expected inverted window rejection")
	}
	if _, err := NewWindow("", "Monday", 600, 660); err == nil {
		t.Fatalf("expected empty location rejection")
	}
}
