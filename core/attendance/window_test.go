package attendance

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classcheck/classcheck/core/school"
)

// 2026-09-07 is a Monday.
func monday(hour, min, sec int) time.Time {
	return time.Date(2026, 9, 7, hour, min, sec, 0, time.UTC)
}

func TestEligibleScheduleWindowBoundaries(t *testing.T) {
	schedules := []school.Schedule{
		{ID: "sched-1", SubjectID: "sub-1", Day: "Mon", StartTime: "10:00", EndTime: "11:00"},
	}
	window := 15 * time.Minute

	tt := []struct {
		name string
		now  time.Time
		ok   bool
	}{
		{"one second before the window opens", monday(10, 44, 59), false},
		{"window opens", monday(10, 45, 0), true},
		{"one second after the window opens", monday(10, 45, 1), true},
		{"mid window", monday(10, 52, 30), true},
		{"window closes", monday(11, 0, 0), true},
		{"one second after the window closes", monday(11, 0, 1), false},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			sched, err := eligibleSchedule(schedules, tc.now, window, false)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, "sched-1", sched.ID)
			} else {
				assert.Equal(t, ErrOutsideWindow, errors.Cause(err))
			}
		})
	}
}

func TestEligibleScheduleNoClassToday(t *testing.T) {
	schedules := []school.Schedule{
		{ID: "sched-1", Day: "Tue", StartTime: "10:00", EndTime: "11:00"},
	}
	_, err := eligibleSchedule(schedules, monday(10, 50, 0), 15*time.Minute, false)
	assert.Equal(t, ErrNoClassToday, errors.Cause(err))

	// the fallback never overrides a no-class day
	_, err = eligibleSchedule(schedules, monday(10, 50, 0), 15*time.Minute, true)
	assert.Equal(t, ErrNoClassToday, errors.Cause(err))
}

func TestEligibleScheduleFallback(t *testing.T) {
	schedules := []school.Schedule{
		{ID: "sched-2", Day: "Mon", StartTime: "14:00", EndTime: "15:00"},
		{ID: "sched-1", Day: "Mon", StartTime: "10:00", EndTime: "11:00"},
	}

	_, err := eligibleSchedule(schedules, monday(9, 0, 0), 15*time.Minute, false)
	assert.Equal(t, ErrOutsideWindow, errors.Cause(err))

	// fallback picks the first schedule of the day
	sched, err := eligibleSchedule(schedules, monday(9, 0, 0), 15*time.Minute, true)
	require.NoError(t, err)
	assert.Equal(t, "sched-1", sched.ID)
}

func TestEligibleScheduleDeterministicTieBreak(t *testing.T) {
	schedules := []school.Schedule{
		{ID: "sched-b", Day: "Mon", StartTime: "10:00", EndTime: "11:00"},
		{ID: "sched-a", Day: "Mon", StartTime: "10:00", EndTime: "11:00"},
	}
	sched, err := eligibleSchedule(schedules, monday(10, 50, 0), 15*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, "sched-a", sched.ID)
}

func TestEligibleScheduleEarlierWindowWins(t *testing.T) {
	schedules := []school.Schedule{
		{ID: "sched-late", Day: "Mon", StartTime: "10:00", EndTime: "11:00"},
		{ID: "sched-early", Day: "Mon", StartTime: "09:50", EndTime: "10:50"},
	}
	// both windows contain 10:45
	sched, err := eligibleSchedule(schedules, monday(10, 45, 0), 15*time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, "sched-early", sched.ID)
}
