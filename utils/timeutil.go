package utils

import "time"

// TimeRange describes a time window.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in [Start, End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Duration returns the length of the range.
func (r TimeRange) Duration() time.Duration { return r.End.Sub(r.Start) }

// WindowsPerDay is the number of beacon events scheduled per UTC day.
const WindowsPerDay = 6

// WindowLength is the duration of a single beacon event.
const WindowLength = 2 * time.Hour

// windowHours are the UTC start hours of the events of one day: beacons
// are announced at 04, 12, 20 and withdrawn at 06, 14, 22.
var windowHours = [WindowsPerDay]int{4, 6, 12, 14, 20, 22}

// WindowCount returns the number of events between two days, both included.
func WindowCount(initDay, endDay time.Time) int {
	days := int(endDay.Sub(initDay).Hours() / 24)
	if days < 0 {
		return 0
	}
	return WindowsPerDay * (days + 1)
}

// WindowRange returns the time range covered by event index w of an
// experiment starting on initDay.
func WindowRange(initDay time.Time, w int) TimeRange {
	y, m, d := initDay.Date()
	start := time.Date(y, m, d+w/WindowsPerDay, windowHours[w%WindowsPerDay], 0, 0, 0, time.UTC)
	return TimeRange{Start: start, End: start.Add(WindowLength)}
}

// ParseDay parses a YYYYMMDD day in UTC.
func ParseDay(yyyymmdd string) (time.Time, error) {
	return time.ParseInLocation("20060102", yyyymmdd, time.UTC)
}
