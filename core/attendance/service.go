package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/school"
	"github.com/classcheck/classcheck/core/user"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrSubjectInactive = errors.New("subject is not active")
)

// NowFunc returns the current time. It can be mocked in tests.
var NowFunc = time.Now

type Repository interface {
	GetSession(ctx context.Context, subjectID string, scheduleID null.String, date time.Time) (ClassSession, error)
	GetSessionByID(ctx context.Context, id string) (ClassSession, error)
	QuerySessionsByDate(ctx context.Context, date time.Time) ([]ClassSession, error)
	QuerySessionsBySubject(ctx context.Context, subjectID string) ([]ClassSession, error)
	CreateSession(ctx context.Context, sess ClassSession) error

	GetAttendance(ctx context.Context, sessionID, studentID string) (Attendance, error)
	QueryAttendanceBySession(ctx context.Context, sessionID string) ([]Attendance, error)
	CreateAttendance(ctx context.Context, att Attendance) error
	UpdateAttendance(ctx context.Context, att Attendance) error
}

type Service struct {
	repo   Repository
	school school.Repository
	users  user.Repository
	logger core.Logger
}

func NewService(repo Repository, schoolRepo school.Repository, userRepo user.Repository, logger core.Logger) *Service {
	return &Service{repo: repo, school: schoolRepo, users: userRepo, logger: logger}
}

// dateOf truncates an instant to its calendar date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// getOrCreateSession is idempotent on (subject, schedule, date).
func (svc *Service) getOrCreateSession(ctx context.Context, subjectID string, scheduleID null.String, date time.Time) (ClassSession, error) {
	sess, err := svc.repo.GetSession(ctx, subjectID, scheduleID, date)
	if err == nil {
		return sess, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return ClassSession{}, errors.Wrap(err, "looking up session")
	}

	sess = ClassSession{
		ID:         uuid.New().String(),
		SubjectID:  subjectID,
		ScheduleID: scheduleID,
		Date:       date,
		CreatedAt:  NowFunc(),
	}
	if err := svc.repo.CreateSession(ctx, sess); err != nil {
		return ClassSession{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

// Mark records presence for every student enrolled in the subject. It is
// refused when no schedule window is currently open. Checked students are
// present, the rest absent; re-submission within the window overwrites
// prior marks.
func (svc *Service) Mark(ctx context.Context, subjectID string, form MarkForm) (ClassSession, error) {
	sub, err := svc.school.GetSubjectByID(ctx, subjectID)
	if err != nil {
		return ClassSession{}, err
	}
	if !sub.IsActive || sub.IsDead {
		return ClassSession{}, ErrSubjectInactive
	}

	schedules, err := svc.school.QuerySchedulesBySubject(ctx, subjectID)
	if err != nil {
		return ClassSession{}, errors.Wrap(err, "listing schedules")
	}

	now := NowFunc()
	sched, err := eligibleSchedule(schedules, now,
		core.Conf.AttendanceMarkWindow, core.Conf.AttendanceScheduleFallback)
	if err != nil {
		return ClassSession{}, err
	}

	sess, err := svc.getOrCreateSession(ctx, subjectID, null.StringFrom(sched.ID), dateOf(now))
	if err != nil {
		return ClassSession{}, err
	}

	present := make(map[string]bool, len(form.PresentStudentIDs))
	for _, id := range form.PresentStudentIDs {
		present[id] = true
	}

	enrollments, err := svc.school.QueryEnrollmentsBySubject(ctx, subjectID)
	if err != nil {
		return ClassSession{}, errors.Wrap(err, "listing enrollments")
	}
	for _, enr := range enrollments {
		if err := svc.upsertAttendance(ctx, sess.ID, enr.StudentID, present[enr.StudentID]); err != nil {
			return ClassSession{}, err
		}
	}
	return sess, nil
}

func (svc *Service) upsertAttendance(ctx context.Context, sessionID, studentID string, present bool) error {
	att, err := svc.repo.GetAttendance(ctx, sessionID, studentID)
	if err == nil {
		att.Present = present
		att.MarkedAt = NowFunc()
		return errors.Wrap(svc.repo.UpdateAttendance(ctx, att), "updating attendance")
	}
	if errors.Cause(err) != ErrNotFound {
		return errors.Wrap(err, "looking up attendance")
	}

	att = Attendance{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		StudentID: studentID,
		Present:   present,
		MarkedAt:  NowFunc(),
	}
	return errors.Wrap(svc.repo.CreateAttendance(ctx, att), "creating attendance")
}

// GetSubjectSessions lists the subject's held sessions, oldest first.
func (svc *Service) GetSubjectSessions(ctx context.Context, subjectID string) ([]ClassSession, error) {
	return svc.repo.QuerySessionsBySubject(ctx, subjectID)
}

// SessionAttendance returns one held session with its recorded marks.
func (svc *Service) SessionAttendance(ctx context.Context, sessionID string) (ClassSession, []Attendance, error) {
	sess, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return ClassSession{}, nil, err
	}
	marks, err := svc.repo.QueryAttendanceBySession(ctx, sess.ID)
	if err != nil {
		return ClassSession{}, nil, errors.Wrap(err, "listing attendance")
	}
	return sess, marks, nil
}
