package schedule

import "testing"

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want Minutes
	}{
		{"12:00 AM", 0},
		{"12:00 PM", 720},
		{"12:30 AM", 30},
		{"1:00 AM", 60},
		{"3:45 PM", 945},
		{"  3:45 pm  ", 945},
		{"9:05 am", 545},
		{"3 PM", 900},
		{"11:59 PM", 1439},
	}

	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseClockRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", "3:45", "25:00 PM", "0:30 AM", "13:00 PM", "3:60 PM", "noon", "3:45PM extra words"} {
		if _, err := ParseClock(in); err == nil {
			t.Fatalf("ParseClock(%q): expected error", in)
		}
	}
}

func TestFormatRoundTrips(t *testing.T) {
	for _, m := range []Minutes{0, 30, 60, 545, 720, 945, 1439} {
		parsed, err := ParseClock(m.Format())
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", m.Format(), err)
		}
		if parsed != m {
			t.Fatalf("round trip of %d gave %d via %q", m, parsed, m.Format())
		}
	}
}

func TestFormatMidnightAndNoon(t *testing.T) {
	if got := Minutes(0).Format(); got != "12:00 AM" {
		t.Fatalf("expected 12:00 AM, got %q", got)
	}
	if got := Minutes(720).Format(); got != "12:00 PM" {
		t.Fatalf("expected 12:00 PM, got %q", got)
	}
}
