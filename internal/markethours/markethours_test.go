package markethours

import (
	"testing"
	"time"
)

func taipei(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2026, month, day, hour, minute, 0, 0, Taipei)
}

func TestIsMarketOpen(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"mid session", taipei(time.March, 2, 10, 30), true}, // Monday
		{"at open", taipei(time.March, 2, 9, 0), true},
		{"before open", taipei(time.March, 2, 8, 59), false},
		{"at close", taipei(time.March, 2, 13, 30), false},
		{"just before close", taipei(time.March, 2, 13, 29), true},
		{"saturday", taipei(time.March, 7, 10, 0), false},
		{"sunday", taipei(time.March, 8, 10, 0), false},
		{"lunar new year", taipei(time.February, 17, 10, 0), false},
		{"labor day", taipei(time.May, 1, 10, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMarketOpen(tc.t); got != tc.want {
				t.Errorf("IsMarketOpen(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestIsMarketOpen_UTCInput(t *testing.T) {
	// 02:00 UTC on a Monday is 10:00 in Taipei
	utc := time.Date(2026, time.March, 2, 2, 0, 0, 0, time.UTC)
	if !IsMarketOpen(utc) {
		t.Error("UTC input should be converted to Taipei time")
	}
}

func TestNextOpen_SkipsWeekend(t *testing.T) {
	// Friday after close -> Monday 9:00
	friday := taipei(time.March, 6, 14, 0)
	next := NextOpen(friday)
	want := taipei(time.March, 9, 9, 0)
	if !next.Equal(want) {
		t.Errorf("NextOpen = %v, want %v", next, want)
	}
}

func TestNextOpen_SkipsLunarNewYear(t *testing.T) {
	// Feb 13 2026 is the last pre-holiday Friday; next session is Feb 23
	beforeBreak := taipei(time.February, 12, 14, 0)
	next := NextOpen(beforeBreak)
	want := taipei(time.February, 23, 9, 0)
	if !next.Equal(want) {
		t.Errorf("NextOpen = %v, want %v", next, want)
	}
}

func TestNextOpen_SameDayBeforeOpen(t *testing.T) {
	early := taipei(time.March, 2, 8, 0)
	next := NextOpen(early)
	want := taipei(time.March, 2, 9, 0)
	if !next.Equal(want) {
		t.Errorf("NextOpen = %v, want %v", next, want)
	}
}

func TestTimeUntilClose(t *testing.T) {
	at := taipei(time.March, 2, 13, 0)
	if d := TimeUntilClose(at); d != 30*time.Minute {
		t.Errorf("TimeUntilClose = %v, want 30m", d)
	}
	after := taipei(time.March, 2, 14, 0)
	if d := TimeUntilClose(after); d != 0 {
		t.Errorf("TimeUntilClose after close = %v, want 0", d)
	}
}
