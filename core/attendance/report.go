package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core/school"
	"github.com/classcheck/classcheck/core/user"
)

// Roster builds the read-only attendance grid for a calendar date: one
// column per class session held that day, one row per student enrolled in
// any of those sessions' subjects. A student not enrolled in a column's
// subject reads N/A; an enrolled student without an attendance row reads
// Unmarked.
func (svc *Service) Roster(ctx context.Context, date time.Time) (Roster, error) {
	date = dateOf(date)
	sessions, err := svc.repo.QuerySessionsByDate(ctx, date)
	if err != nil {
		return Roster{}, errors.Wrap(err, "listing sessions")
	}

	roster := Roster{Date: date.Format("2006-01-02")}

	// enrolled[studentID][subjectID]
	enrolled := make(map[string]map[string]bool)
	for _, sess := range sessions {
		sub, err := svc.school.GetSubjectByID(ctx, sess.SubjectID)
		if err != nil {
			if errors.Cause(err) == school.ErrNotFound {
				continue
			}
			return Roster{}, errors.Wrap(err, "resolving session subject")
		}
		roster.Columns = append(roster.Columns, RosterColumn{
			SessionID:   sess.ID,
			SubjectID:   sub.ID,
			SubjectName: sub.Name,
		})

		enrollments, err := svc.school.QueryEnrollmentsBySubject(ctx, sub.ID)
		if err != nil {
			return Roster{}, errors.Wrap(err, "listing enrollments")
		}
		for _, enr := range enrollments {
			if enrolled[enr.StudentID] == nil {
				enrolled[enr.StudentID] = make(map[string]bool)
			}
			enrolled[enr.StudentID][sub.ID] = true
		}
	}

	sort.Slice(roster.Columns, func(i, j int) bool {
		if roster.Columns[i].SubjectName != roster.Columns[j].SubjectName {
			return roster.Columns[i].SubjectName < roster.Columns[j].SubjectName
		}
		return roster.Columns[i].SessionID < roster.Columns[j].SessionID
	})

	for studentID, subjects := range enrolled {
		row := RosterRow{StudentID: studentID}
		if usr, err := svc.users.GetUserByID(ctx, studentID); err == nil {
			row.StudentName = usr.Name()
			row.StudentEmail = usr.Email
		} else if errors.Cause(err) != user.ErrNotFound {
			return Roster{}, errors.Wrap(err, "resolving student")
		}

		for _, col := range roster.Columns {
			cell := RosterCell{SessionID: col.SessionID}
			if !subjects[col.SubjectID] {
				cell.Status = StatusNA
			} else {
				cell.Status, err = svc.status(ctx, col.SessionID, studentID)
				if err != nil {
					return Roster{}, err
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		roster.Rows = append(roster.Rows, row)
	}

	sort.Slice(roster.Rows, func(i, j int) bool {
		if roster.Rows[i].StudentEmail != roster.Rows[j].StudentEmail {
			return roster.Rows[i].StudentEmail < roster.Rows[j].StudentEmail
		}
		return roster.Rows[i].StudentID < roster.Rows[j].StudentID
	})
	return roster, nil
}

func (svc *Service) status(ctx context.Context, sessionID, studentID string) (Status, error) {
	att, err := svc.repo.GetAttendance(ctx, sessionID, studentID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return StatusUnmarked, nil
		}
		return "", errors.Wrap(err, "looking up attendance")
	}
	if att.Present {
		return StatusPresent, nil
	}
	return StatusAbsent, nil
}

// StudentDay lists the student's scheduled slots for the date with their
// recorded presence state.
func (svc *Service) StudentDay(ctx context.Context, studentID string, date time.Time) ([]DayEntry, error) {
	date = dateOf(date)
	day := date.Format("Mon")

	enrollments, err := svc.school.QueryEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "listing enrollments")
	}

	var entries []DayEntry
	for _, enr := range enrollments {
		sub, err := svc.school.GetSubjectByID(ctx, enr.SubjectID)
		if err != nil {
			if errors.Cause(err) == school.ErrNotFound {
				continue
			}
			return nil, errors.Wrap(err, "resolving subject")
		}
		if !sub.IsActive || sub.IsDead {
			continue
		}

		schedules, err := svc.school.QuerySchedulesBySubject(ctx, sub.ID)
		if err != nil {
			return nil, errors.Wrap(err, "listing schedules")
		}
		for _, sched := range schedules {
			if sched.Day != day {
				continue
			}
			entry := DayEntry{
				SubjectID:   sub.ID,
				SubjectName: sub.Name,
				Day:         sched.Day,
				StartTime:   sched.StartTime,
				EndTime:     sched.EndTime,
				Status:      StatusUnmarked,
			}
			sess, err := svc.repo.GetSession(ctx, sub.ID, null.StringFrom(sched.ID), date)
			if err == nil {
				if entry.Status, err = svc.status(ctx, sess.ID, studentID); err != nil {
					return nil, err
				}
			} else if errors.Cause(err) != ErrNotFound {
				return nil, errors.Wrap(err, "looking up session")
			}
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime < entries[j].StartTime
		}
		return entries[i].SubjectName < entries[j].SubjectName
	})
	return entries, nil
}
