package dummy

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core/attendance"
)

type AttendanceRepo struct {
	mu          sync.RWMutex
	sessions    map[string]attendance.ClassSession
	attendances map[string]attendance.Attendance
}

var _ attendance.Repository = (*AttendanceRepo)(nil)

func NewAttendanceRepository() *AttendanceRepo {
	return &AttendanceRepo{
		sessions:    make(map[string]attendance.ClassSession),
		attendances: make(map[string]attendance.Attendance),
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (repo *AttendanceRepo) GetSession(_ context.Context, subjectID string, scheduleID null.String, date time.Time) (attendance.ClassSession, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, sess := range repo.sessions {
		if sess.SubjectID == subjectID && sess.ScheduleID == scheduleID && sameDate(sess.Date, date) {
			return sess, nil
		}
	}
	return attendance.ClassSession{}, attendance.ErrNotFound
}

func (repo *AttendanceRepo) GetSessionByID(_ context.Context, id string) (attendance.ClassSession, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	sess, ok := repo.sessions[id]
	if !ok {
		return attendance.ClassSession{}, attendance.ErrNotFound
	}
	return sess, nil
}

func (repo *AttendanceRepo) QuerySessionsByDate(_ context.Context, date time.Time) ([]attendance.ClassSession, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var sessions []attendance.ClassSession
	for _, sess := range repo.sessions {
		if sameDate(sess.Date, date) {
			sessions = append(sessions, sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

func (repo *AttendanceRepo) QuerySessionsBySubject(_ context.Context, subjectID string) ([]attendance.ClassSession, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var sessions []attendance.ClassSession
	for _, sess := range repo.sessions {
		if sess.SubjectID == subjectID {
			sessions = append(sessions, sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Date.Before(sessions[j].Date) })
	return sessions, nil
}

func (repo *AttendanceRepo) CreateSession(_ context.Context, sess attendance.ClassSession) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.sessions[sess.ID] = sess
	return nil
}

func (repo *AttendanceRepo) GetAttendance(_ context.Context, sessionID, studentID string) (attendance.Attendance, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, att := range repo.attendances {
		if att.SessionID == sessionID && att.StudentID == studentID {
			return att, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *AttendanceRepo) QueryAttendanceBySession(_ context.Context, sessionID string) ([]attendance.Attendance, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var atts []attendance.Attendance
	for _, att := range repo.attendances {
		if att.SessionID == sessionID {
			atts = append(atts, att)
		}
	}
	sort.Slice(atts, func(i, j int) bool { return atts[i].ID < atts[j].ID })
	return atts, nil
}

func (repo *AttendanceRepo) CreateAttendance(_ context.Context, att attendance.Attendance) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.attendances[att.ID] = att
	return nil
}

func (repo *AttendanceRepo) UpdateAttendance(_ context.Context, att attendance.Attendance) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.attendances[att.ID]; !ok {
		return attendance.ErrNotFound
	}
	repo.attendances[att.ID] = att
	return nil
}

// SessionCount reports the number of sessions stored for a subject.
func (repo *AttendanceRepo) SessionCount(subjectID string) int {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var n int
	for _, sess := range repo.sessions {
		if sess.SubjectID == subjectID {
			n++
		}
	}
	return n
}
