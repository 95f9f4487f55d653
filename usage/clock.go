package usage

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Day is a calendar day key in YYYY-MM-DD form.
type Day string

const dayLayout = "2006-01-02"

func DayOf(t time.Time) Day { return Day(t.Format(dayLayout)) }

// Prev returns the calendar day before d.
func (d Day) Prev() Day {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return d
	}
	return DayOf(t.AddDate(0, 0, -1))
}

// Clock turns wall-clock time into day keys for a fixed timezone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(tz string) (*Clock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// WithNow returns a copy of the clock that reads time from now.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	return &Clock{loc: c.loc, now: now}
}

func (c *Clock) Today() Day { return DayOf(c.now().In(c.loc)) }
