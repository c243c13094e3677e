package markethours

import (
	"fmt"
	"time"
)

// Taipei is the Taiwan Standard Time location (UTC+8).
var Taipei = time.FixedZone("CST", 8*3600)

// Market hours in Taipei time
const (
	OpenHour    = 9
	OpenMinute  = 0
	CloseHour   = 13
	CloseMinute = 30
)

// IsMarketOpen returns true if t falls within TWSE trading hours
// (9:00 AM – 1:30 PM Taipei, Mon–Fri, excluding holidays).
func IsMarketOpen(t time.Time) bool {
	tw := t.In(Taipei)
	wd := tw.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if IsHoliday(tw) {
		return false
	}
	hm := tw.Hour()*60 + tw.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsWeekday returns true if t is Mon–Fri.
func IsWeekday(t time.Time) bool {
	wd := t.In(Taipei).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not a holiday.
func IsTradingDay(t time.Time) bool {
	tw := t.In(Taipei)
	return IsWeekday(tw) && !IsHoliday(tw)
}

// NextOpen returns the next market open time (9:00 AM Taipei on the next
// trading day). If t is before today's open on a trading day, returns
// today's open.
func NextOpen(t time.Time) time.Time {
	tw := t.In(Taipei)

	todayOpen := time.Date(tw.Year(), tw.Month(), tw.Day(), OpenHour, OpenMinute, 0, 0, Taipei)
	if tw.Before(todayOpen) && IsTradingDay(tw) {
		return todayOpen
	}

	// Lunar New Year closes the exchange for more than a week
	d := tw.AddDate(0, 0, 1)
	for i := 0; i < 15; i++ {
		if IsTradingDay(d) {
			return time.Date(d.Year(), d.Month(), d.Day(), OpenHour, OpenMinute, 0, 0, Taipei)
		}
		d = d.AddDate(0, 0, 1)
	}
	// Fallback: next day
	return time.Date(tw.Year(), tw.Month(), tw.Day()+1, OpenHour, OpenMinute, 0, 0, Taipei)
}

// TodayClose returns today's market close time (1:30 PM Taipei).
func TodayClose(t time.Time) time.Time {
	tw := t.In(Taipei)
	return time.Date(tw.Year(), tw.Month(), tw.Day(), CloseHour, CloseMinute, 0, 0, Taipei)
}

// TimeUntilClose returns the duration until today's close.
// Returns 0 if the market is already closed.
func TimeUntilClose(t time.Time) time.Duration {
	cl := TodayClose(t)
	d := cl.Sub(t.In(Taipei))
	if d < 0 {
		return 0
	}
	return d
}

// TimeUntilOpen returns the duration until the next market open.
func TimeUntilOpen(t time.Time) time.Duration {
	return NextOpen(t).Sub(t.In(Taipei))
}

// StatusString returns a human-readable market status.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		d := TimeUntilClose(t)
		return fmt.Sprintf("Market Open — closes in %s", fmtDur(d))
	}
	next := NextOpen(t)
	d := next.Sub(t)
	tw := next.In(Taipei)
	return fmt.Sprintf("Market Closed — opens %s %s (%s)",
		tw.Weekday().String()[:3], tw.Format("15:04"), fmtDur(d))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
