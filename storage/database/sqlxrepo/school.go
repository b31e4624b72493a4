package sqlxrepo

import (
	"context"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/school"
)

type schoolRepo struct {
	db core.DB
}

var _ school.Repository = (*schoolRepo)(nil)

func NewSchoolRepository(db core.DB) *schoolRepo {
	return &schoolRepo{db: db}
}

// Academic sessions

func (repo *schoolRepo) GetSessionByID(ctx context.Context, id string) (school.AcademicSession, error) {
	var sess school.AcademicSession
	err := repo.db.GetContext(ctx, &sess, "SELECT * FROM academic_session WHERE id = $1", id)
	return sess, trapNoRows(err, school.ErrNotFound)
}

func (repo *schoolRepo) GetSessionByName(ctx context.Context, name string) (school.AcademicSession, error) {
	var sess school.AcademicSession
	err := repo.db.GetContext(ctx, &sess, "SELECT * FROM academic_session WHERE name = $1", name)
	return sess, trapNoRows(err, school.ErrNotFound)
}

func (repo *schoolRepo) QuerySessions(ctx context.Context) ([]school.AcademicSession, error) {
	var sessions []school.AcademicSession
	err := repo.db.SelectContext(ctx, &sessions, "SELECT * FROM academic_session ORDER BY name")
	return sessions, err
}

func (repo *schoolRepo) CreateSession(ctx context.Context, sess school.AcademicSession) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO academic_session (id, name, is_active, is_dead, created_at, updated_at)
		VALUES (:id, :name, :is_active, :is_dead, :created_at, :updated_at)`, sess)
	return err
}

func (repo *schoolRepo) UpdateSession(ctx context.Context, sess school.AcademicSession) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE academic_session
		SET name = :name, is_active = :is_active, is_dead = :is_dead, updated_at = :updated_at
		WHERE id = :id`, sess)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// Departments

func (repo *schoolRepo) GetDepartmentByID(ctx context.Context, id string) (school.Department, error) {
	var dept school.Department
	err := repo.db.GetContext(ctx, &dept, "SELECT * FROM department WHERE id = $1", id)
	return dept, trapNoRows(err, school.ErrNotFound)
}

func (repo *schoolRepo) QueryDepartmentsBySession(ctx context.Context, sessionID string) ([]school.Department, error) {
	var depts []school.Department
	err := repo.db.SelectContext(ctx, &depts,
		"SELECT * FROM department WHERE session_id = $1 ORDER BY name", sessionID)
	return depts, err
}

func (repo *schoolRepo) CreateDepartment(ctx context.Context, dept school.Department) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO department (id, session_id, name, is_active, is_dead, created_at, updated_at)
		VALUES (:id, :session_id, :name, :is_active, :is_dead, :created_at, :updated_at)`, dept)
	return err
}

func (repo *schoolRepo) UpdateDepartment(ctx context.Context, dept school.Department) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE department
		SET session_id = :session_id, name = :name, is_active = :is_active,
			is_dead = :is_dead, updated_at = :updated_at
		WHERE id = :id`, dept)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// Classes

func (repo *schoolRepo) GetClassByID(ctx context.Context, id string) (school.StudentClass, error) {
	var cls school.StudentClass
	err := repo.db.GetContext(ctx, &cls, "SELECT * FROM student_class WHERE id = $1", id)
	return cls, trapNoRows(err, school.ErrNotFound)
}

func (repo *schoolRepo) QueryClassesByDepartment(ctx context.Context, deptID string) ([]school.StudentClass, error) {
	var classes []school.StudentClass
	err := repo.db.SelectContext(ctx, &classes,
		"SELECT * FROM student_class WHERE department_id = $1 ORDER BY name", deptID)
	return classes, err
}

func (repo *schoolRepo) CreateClass(ctx context.Context, cls school.StudentClass) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO student_class (id, department_id, name, is_active, is_dead, created_at, updated_at)
		VALUES (:id, :department_id, :name, :is_active, :is_dead, :created_at, :updated_at)`, cls)
	return err
}

func (repo *schoolRepo) UpdateClass(ctx context.Context, cls school.StudentClass) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE student_class
		SET department_id = :department_id, name = :name, is_active = :is_active,
			is_dead = :is_dead, updated_at = :updated_at
		WHERE id = :id`, cls)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// Subjects

func (repo *schoolRepo) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	var sub school.Subject
	err := repo.db.GetContext(ctx, &sub, "SELECT * FROM subject WHERE id = $1", id)
	return sub, trapNoRows(err, school.ErrNotFound)
}

func (repo *schoolRepo) QuerySubjectsByClass(ctx context.Context, classID string) ([]school.Subject, error) {
	var subjects []school.Subject
	err := repo.db.SelectContext(ctx, &subjects,
		"SELECT * FROM subject WHERE class_id = $1 ORDER BY name", classID)
	return subjects, err
}

func (repo *schoolRepo) QuerySubjectsByTeacherEmail(ctx context.Context, email string) ([]school.Subject, error) {
	var subjects []school.Subject
	err := repo.db.SelectContext(ctx, &subjects,
		"SELECT * FROM subject WHERE teacher_email = $1 ORDER BY name", email)
	return subjects, err
}

func (repo *schoolRepo) QuerySubjectsByTeacher(ctx context.Context, teacherID string) ([]school.Subject, error) {
	var subjects []school.Subject
	err := repo.db.SelectContext(ctx, &subjects,
		"SELECT * FROM subject WHERE teacher_id = $1 ORDER BY name", teacherID)
	return subjects, err
}

func (repo *schoolRepo) CreateSubject(ctx context.Context, sub school.Subject) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO subject (id, class_id, name, days, timing, teacher_email,
			teacher_id, is_active, is_dead, created_at, updated_at)
		VALUES (:id, :class_id, :name, :days, :timing, :teacher_email,
			:teacher_id, :is_active, :is_dead, :created_at, :updated_at)`, sub)
	return err
}

func (repo *schoolRepo) UpdateSubject(ctx context.Context, sub school.Subject) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE subject
		SET class_id = :class_id, name = :name, days = :days, timing = :timing,
			teacher_email = :teacher_email, teacher_id = :teacher_id,
			is_active = :is_active, is_dead = :is_dead, updated_at = :updated_at
		WHERE id = :id`, sub)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// Schedules

func (repo *schoolRepo) QuerySchedulesBySubject(ctx context.Context, subjectID string) ([]school.Schedule, error) {
	var schedules []school.Schedule
	err := repo.db.SelectContext(ctx, &schedules,
		"SELECT * FROM class_schedule WHERE subject_id = $1 ORDER BY start_time, id", subjectID)
	return schedules, err
}

func (repo *schoolRepo) CreateSchedule(ctx context.Context, sched school.Schedule) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO class_schedule (id, subject_id, day, start_time, end_time, created_at)
		VALUES (:id, :subject_id, :day, :start_time, :end_time, :created_at)`, sched)
	return err
}

// Enrollments

func (repo *schoolRepo) GetEnrollment(ctx context.Context, studentID, subjectID string) (school.Enrollment, error) {
	var enr school.Enrollment
	err := repo.db.GetContext(ctx, &enr,
		"SELECT * FROM enrollment WHERE student_id = $1 AND subject_id = $2", studentID, subjectID)
	return enr, trapNoRows(err, school.ErrNotFound)
}

func (repo *schoolRepo) QueryEnrollmentsBySubject(ctx context.Context, subjectID string) ([]school.Enrollment, error) {
	var enrollments []school.Enrollment
	err := repo.db.SelectContext(ctx, &enrollments,
		"SELECT * FROM enrollment WHERE subject_id = $1 ORDER BY enrolled_at", subjectID)
	return enrollments, err
}

func (repo *schoolRepo) QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]school.Enrollment, error) {
	var enrollments []school.Enrollment
	err := repo.db.SelectContext(ctx, &enrollments,
		"SELECT * FROM enrollment WHERE student_id = $1 ORDER BY enrolled_at", studentID)
	return enrollments, err
}

func (repo *schoolRepo) CreateEnrollment(ctx context.Context, enr school.Enrollment) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO enrollment (id, student_id, subject_id, enrolled_at)
		VALUES (:id, :student_id, :subject_id, :enrolled_at)`, enr)
	return err
}

// Proposals

func (repo *schoolRepo) GetProposalByID(ctx context.Context, id string) (school.Proposal, error) {
	var prop school.Proposal
	err := repo.db.GetContext(ctx, &prop, "SELECT * FROM class_proposal WHERE id = $1", id)
	return prop, trapNoRows(err, school.ErrNotFound)
}

func (repo *schoolRepo) QueryProposals(ctx context.Context, status string) ([]school.Proposal, error) {
	var props []school.Proposal
	if status == "" {
		err := repo.db.SelectContext(ctx, &props, "SELECT * FROM class_proposal ORDER BY created_at")
		return props, err
	}
	err := repo.db.SelectContext(ctx, &props,
		"SELECT * FROM class_proposal WHERE status = $1 ORDER BY created_at", status)
	return props, err
}

func (repo *schoolRepo) QueryProposalsByTeacher(ctx context.Context, teacherID string) ([]school.Proposal, error) {
	var props []school.Proposal
	err := repo.db.SelectContext(ctx, &props,
		"SELECT * FROM class_proposal WHERE teacher_id = $1 ORDER BY created_at", teacherID)
	return props, err
}

func (repo *schoolRepo) CreateProposal(ctx context.Context, prop school.Proposal) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO class_proposal (id, teacher_id, teacher_email, name, days,
			timing, status, subject_id, created_at, updated_at)
		VALUES (:id, :teacher_id, :teacher_email, :name, :days,
			:timing, :status, :subject_id, :created_at, :updated_at)`, prop)
	return err
}

func (repo *schoolRepo) UpdateProposal(ctx context.Context, prop school.Proposal) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE class_proposal
		SET status = :status, subject_id = :subject_id, updated_at = :updated_at
		WHERE id = :id`, prop)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}
