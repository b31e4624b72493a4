package attendance

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/classcheck/classcheck/core/school"
)

var (
	ErrNoClassToday  = errors.New("no class scheduled today")
	ErrOutsideWindow = errors.New("outside the attendance window")
)

// clockOn anchors an "HH:MM" wall-clock string to the given date.
func clockOn(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing time %q", hhmm)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// eligibleSchedule picks the schedule whose marking window contains now.
// The window is the final markWindow stretch of the slot, boundaries
// inclusive. Candidates for the day are evaluated by start time then ID so
// identical slots resolve deterministically. With fallback enabled the
// first schedule of the day is accepted when no window matches; this is a
// testing escape hatch and stays off in normal operation.
func eligibleSchedule(schedules []school.Schedule, now time.Time, markWindow time.Duration, fallback bool) (school.Schedule, error) {
	day := now.Format("Mon")
	var today []school.Schedule
	for _, s := range schedules {
		if s.Day == day {
			today = append(today, s)
		}
	}
	if len(today) == 0 {
		return school.Schedule{}, ErrNoClassToday
	}

	sort.Slice(today, func(i, j int) bool {
		if today[i].StartTime != today[j].StartTime {
			return today[i].StartTime < today[j].StartTime
		}
		return today[i].ID < today[j].ID
	})

	for _, s := range today {
		end, err := clockOn(now, s.EndTime)
		if err != nil {
			return school.Schedule{}, err
		}
		opens := end.Add(-markWindow)
		if !now.Before(opens) && !now.After(end) {
			return s, nil
		}
	}

	if fallback {
		return today[0], nil
	}
	return school.Schedule{}, ErrOutsideWindow
}
