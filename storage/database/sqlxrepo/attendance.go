package sqlxrepo

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/attendance"
)

type attendanceRepo struct {
	db core.DB
}

var _ attendance.Repository = (*attendanceRepo)(nil)

func NewAttendanceRepository(db core.DB) *attendanceRepo {
	return &attendanceRepo{db: db}
}

func (repo *attendanceRepo) GetSession(ctx context.Context, subjectID string, scheduleID null.String, date time.Time) (attendance.ClassSession, error) {
	var sess attendance.ClassSession
	err := repo.db.GetContext(ctx, &sess, `
		SELECT * FROM class_session
		WHERE subject_id = $1 AND schedule_id IS NOT DISTINCT FROM $2 AND date = $3`,
		subjectID, scheduleID, date)
	return sess, trapNoRows(err, attendance.ErrNotFound)
}

func (repo *attendanceRepo) GetSessionByID(ctx context.Context, id string) (attendance.ClassSession, error) {
	var sess attendance.ClassSession
	err := repo.db.GetContext(ctx, &sess, "SELECT * FROM class_session WHERE id = $1", id)
	return sess, trapNoRows(err, attendance.ErrNotFound)
}

func (repo *attendanceRepo) QuerySessionsByDate(ctx context.Context, date time.Time) ([]attendance.ClassSession, error) {
	var sessions []attendance.ClassSession
	err := repo.db.SelectContext(ctx, &sessions,
		"SELECT * FROM class_session WHERE date = $1 ORDER BY created_at", date)
	return sessions, err
}

func (repo *attendanceRepo) QuerySessionsBySubject(ctx context.Context, subjectID string) ([]attendance.ClassSession, error) {
	var sessions []attendance.ClassSession
	err := repo.db.SelectContext(ctx, &sessions,
		"SELECT * FROM class_session WHERE subject_id = $1 ORDER BY date", subjectID)
	return sessions, err
}

func (repo *attendanceRepo) CreateSession(ctx context.Context, sess attendance.ClassSession) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO class_session (id, subject_id, schedule_id, date, created_at)
		VALUES (:id, :subject_id, :schedule_id, :date, :created_at)`, sess)
	return err
}

func (repo *attendanceRepo) GetAttendance(ctx context.Context, sessionID, studentID string) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := repo.db.GetContext(ctx, &att,
		"SELECT * FROM attendance WHERE session_id = $1 AND student_id = $2", sessionID, studentID)
	return att, trapNoRows(err, attendance.ErrNotFound)
}

func (repo *attendanceRepo) QueryAttendanceBySession(ctx context.Context, sessionID string) ([]attendance.Attendance, error) {
	var atts []attendance.Attendance
	err := repo.db.SelectContext(ctx, &atts,
		"SELECT * FROM attendance WHERE session_id = $1 ORDER BY marked_at", sessionID)
	return atts, err
}

func (repo *attendanceRepo) CreateAttendance(ctx context.Context, att attendance.Attendance) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attendance (id, session_id, student_id, present, marked_at)
		VALUES (:id, :session_id, :student_id, :present, :marked_at)`, att)
	return err
}

func (repo *attendanceRepo) UpdateAttendance(ctx context.Context, att attendance.Attendance) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE attendance
		SET present = :present, marked_at = :marked_at
		WHERE id = :id`, att)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}
