package domain

import "time"

// Clock supplies the current time. Services never call time.Now directly
// so day bucketing can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return SystemClock{Location: loc}
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayOf truncates t to midnight in the clock's location. Use it for times
// read back from storage, which come out in UTC.
func DayOf(c Clock, t time.Time) time.Time {
	return StartOfDay(t.In(c.Now().Location()))
}

// Today is StartOfDay of the clock's current time.
func Today(c Clock) time.Time {
	return StartOfDay(c.Now())
}

// WeekAnchor returns the Monday on or before t, at midnight.
func WeekAnchor(t time.Time) time.Time {
	day := StartOfDay(t)
	back := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		back = 6
	}
	return day.AddDate(0, 0, -back)
}
