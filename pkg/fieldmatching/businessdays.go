/*
Copyright 2026 Veriqan Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package fieldmatching

import "time"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
}

func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

// AddBusinessDays advances start by n business days, skipping Saturday,
// Sunday, and any date the calendar reports as a holiday. Exported so
// pkg/sla's deadline math (spec.md §4.9) can reuse the same walk rather than
// re-deriving it.
func AddBusinessDays(start time.Time, n int, calendar BusinessDayCalendar) time.Time {
	current := start
	added := 0
	for added < n {
		current = current.AddDate(0, 0, 1)
		if isBusinessDay(current, calendar) {
			added++
		}
	}
	return current
}

func addBusinessDays(start time.Time, n int, calendar BusinessDayCalendar) time.Time {
	return AddBusinessDays(start, n, calendar)
}

func isBusinessDay(t time.Time, calendar BusinessDayCalendar) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	if calendar == nil {
		return true
	}
	return calendar.IsBusinessDay(t.Year(), int(t.Month()), t.Day())
}

// HolidayCalendar implements BusinessDayCalendar over a fixed set of
// holiday dates, e.g. loaded from internal/config.ProcessingConfig.Holidays
// via internal/config.BusinessDaysHolidays.
type HolidayCalendar struct {
	holidays map[string]struct{}
}

// NewHolidayCalendar builds a HolidayCalendar from a list of holiday dates.
func NewHolidayCalendar(holidays []time.Time) HolidayCalendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.Format("2006-01-02")] = struct{}{}
	}
	return HolidayCalendar{holidays: set}
}

func (c HolidayCalendar) IsBusinessDay(year, month, day int) bool {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return false
	}
	_, isHoliday := c.holidays[date.Format("2006-01-02")]
	return !isHoliday
}
