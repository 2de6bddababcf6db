package services

import (
	"fmt"
	"time"
)

// Clock decides what "now" and "today" mean. Calendar days are taken in
// Location.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func NewClock(timeZone string) (*Clock, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", timeZone, err)
	}
	return &Clock{Now: time.Now, Location: loc}, nil
}

// StartOfDay returns midnight of the calendar day t falls on.
func (c *Clock) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location)
}

// Today returns [midnight, next midnight) for the current day.
func (c *Clock) Today() (time.Time, time.Time) {
	start := c.StartOfDay(c.Now())
	return start, start.AddDate(0, 0, 1)
}
