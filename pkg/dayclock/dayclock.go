package dayclock

import (
	"fmt"
	"time"
)

// DayFormat is how logical days are stored and compared. ISO dates sort
// lexicographically and make month filtering a prefix match.
const DayFormat = "2006-01-02"

// DisplayFormat is how logical days are rendered in user-facing text.
const DisplayFormat = "02/01/06"

// Clock provides current time in one fixed reference timezone and derives
// logical day boundaries from it. All streak bookkeeping goes through the
// reference timezone regardless of server-local time.
type Clock struct {
	loc   *time.Location
	nowFn func() time.Time
}

func New(tzName string) (*Clock, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("loading reference timezone %q: %w", tzName, err)
	}
	return &Clock{loc: loc, nowFn: time.Now}, nil
}

// NewFixed returns a clock frozen at the given instant. Test helper.
func NewFixed(tzName string, at time.Time) (*Clock, error) {
	c, err := New(tzName)
	if err != nil {
		return nil, err
	}
	c.nowFn = func() time.Time { return at }
	return c, nil
}

func (c *Clock) Now() time.Time {
	return c.nowFn().In(c.loc)
}

// Today returns the current logical day.
func (c *Clock) Today() string {
	return c.Now().Format(DayFormat)
}

// Yesterday returns the logical day immediately before today.
func (c *Clock) Yesterday() string {
	return c.Now().AddDate(0, 0, -1).Format(DayFormat)
}

// NextOccurrence computes the next instant the given wall time-of-day occurs
// in the reference timezone. If today's occurrence is not strictly in the
// future, tomorrow's is returned.
func (c *Clock) NextOccurrence(hour, minute int) time.Time {
	now := c.Now()
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, c.loc)
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// NextMidnight returns the start of the next logical day. The rollover job
// fires here, safely before the earliest configurable reminder time.
func (c *Clock) NextMidnight() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc).AddDate(0, 0, 1)
}

// Display re-renders a stored logical day for user-facing text. Unparseable
// input is returned as-is.
func Display(day string) string {
	t, err := time.Parse(DayFormat, day)
	if err != nil {
		return day
	}
	return t.Format(DisplayFormat)
}
