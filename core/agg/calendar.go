package agg

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/us"
)

// regionHolidays maps a region code to its public holiday set.
var regionHolidays = map[string][]*cal.Holiday{
	"US": us.Holidays,
	"GB": gb.Holidays,
	"DE": de.Holidays,
	"FR": fr.Holidays,
	"JP": jp.Holidays,
	"CA": ca.Holidays,
	"AU": au.HolidaysNSW,
}

// Workdays decides whether a calendar day counts as a working day.
type Workdays struct {
	calendar *cal.BusinessCalendar
}

// NewWorkdays returns a calendar for region. An empty or unknown region
// treats every weekday as a workday.
func NewWorkdays(region string) *Workdays {
	holidays, ok := regionHolidays[region]
	if !ok {
		return &Workdays{}
	}
	c := cal.NewBusinessCalendar()
	c.Name = region
	c.AddHoliday(holidays...)
	return &Workdays{calendar: c}
}

// IsWorkday reports whether day is a working day.
func (w *Workdays) IsWorkday(day time.Time) bool {
	if w == nil || w.calendar == nil {
		return !cal.IsWeekend(day)
	}
	return w.calendar.IsWorkday(day)
}
