package markethours

import "time"

// TWSE market closures for 2026.
// Source: TWSE official holiday schedule.
// Format: month, day pairs.
var twseHolidays2026 = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},    // New Year's Day
	{time.February, 13},  // Lunar New Year (no trading, settlement only)
	{time.February, 16},  // Lunar New Year's Eve
	{time.February, 17},  // Lunar New Year
	{time.February, 18},  // Lunar New Year
	{time.February, 19},  // Lunar New Year
	{time.February, 20},  // Lunar New Year (adjusted)
	{time.February, 27},  // 228 Peace Memorial Day (adjusted)
	{time.April, 3},      // Children's Day (adjusted)
	{time.April, 6},      // Tomb Sweeping Day (adjusted)
	{time.May, 1},        // Labor Day
	{time.June, 19},      // Dragon Boat Festival
	{time.September, 25}, // Mid-Autumn Festival
	{time.October, 9},    // National Day (adjusted)
}

// pre-compute for fast lookup
var holidaySet map[string]bool

func init() {
	holidaySet = make(map[string]bool, len(twseHolidays2026))
	for _, h := range twseHolidays2026 {
		key := dateKey(2026, h.month, h.day)
		holidaySet[key] = true
	}
}

// IsHoliday returns true if the date (in Taipei time) is a TWSE closure.
func IsHoliday(t time.Time) bool {
	tw := t.In(Taipei)
	return holidaySet[dateKey(tw.Year(), tw.Month(), tw.Day())]
}

func dateKey(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, Taipei).Format("2006-01-02")
}
