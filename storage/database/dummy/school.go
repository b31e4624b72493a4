package dummy

import (
	"context"
	"sort"
	"sync"

	"github.com/classcheck/classcheck/core/school"
)

type SchoolRepo struct {
	mu          sync.RWMutex
	sessions    map[string]school.AcademicSession
	departments map[string]school.Department
	classes     map[string]school.StudentClass
	subjects    map[string]school.Subject
	schedules   map[string]school.Schedule
	enrollments map[string]school.Enrollment
	proposals   map[string]school.Proposal
}

var _ school.Repository = (*SchoolRepo)(nil)

func NewSchoolRepository() *SchoolRepo {
	return &SchoolRepo{
		sessions:    make(map[string]school.AcademicSession),
		departments: make(map[string]school.Department),
		classes:     make(map[string]school.StudentClass),
		subjects:    make(map[string]school.Subject),
		schedules:   make(map[string]school.Schedule),
		enrollments: make(map[string]school.Enrollment),
		proposals:   make(map[string]school.Proposal),
	}
}

// Academic sessions

func (repo *SchoolRepo) GetSessionByID(_ context.Context, id string) (school.AcademicSession, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	sess, ok := repo.sessions[id]
	if !ok {
		return school.AcademicSession{}, school.ErrNotFound
	}
	return sess, nil
}

func (repo *SchoolRepo) GetSessionByName(_ context.Context, name string) (school.AcademicSession, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, sess := range repo.sessions {
		if sess.Name == name {
			return sess, nil
		}
	}
	return school.AcademicSession{}, school.ErrNotFound
}

func (repo *SchoolRepo) QuerySessions(_ context.Context) ([]school.AcademicSession, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	sessions := make([]school.AcademicSession, 0, len(repo.sessions))
	for _, sess := range repo.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions, nil
}

func (repo *SchoolRepo) CreateSession(_ context.Context, sess school.AcademicSession) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.sessions[sess.ID] = sess
	return nil
}

func (repo *SchoolRepo) UpdateSession(_ context.Context, sess school.AcademicSession) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.sessions[sess.ID]; !ok {
		return school.ErrNotFound
	}
	repo.sessions[sess.ID] = sess
	return nil
}

// Departments

func (repo *SchoolRepo) GetDepartmentByID(_ context.Context, id string) (school.Department, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	dept, ok := repo.departments[id]
	if !ok {
		return school.Department{}, school.ErrNotFound
	}
	return dept, nil
}

func (repo *SchoolRepo) QueryDepartmentsBySession(_ context.Context, sessionID string) ([]school.Department, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var depts []school.Department
	for _, dept := range repo.departments {
		if dept.SessionID == sessionID {
			depts = append(depts, dept)
		}
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].Name < depts[j].Name })
	return depts, nil
}

func (repo *SchoolRepo) CreateDepartment(_ context.Context, dept school.Department) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.departments[dept.ID] = dept
	return nil
}

func (repo *SchoolRepo) UpdateDepartment(_ context.Context, dept school.Department) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.departments[dept.ID]; !ok {
		return school.ErrNotFound
	}
	repo.departments[dept.ID] = dept
	return nil
}

// Classes

func (repo *SchoolRepo) GetClassByID(_ context.Context, id string) (school.StudentClass, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	cls, ok := repo.classes[id]
	if !ok {
		return school.StudentClass{}, school.ErrNotFound
	}
	return cls, nil
}

func (repo *SchoolRepo) QueryClassesByDepartment(_ context.Context, deptID string) ([]school.StudentClass, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var classes []school.StudentClass
	for _, cls := range repo.classes {
		if cls.DepartmentID == deptID {
			classes = append(classes, cls)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *SchoolRepo) CreateClass(_ context.Context, cls school.StudentClass) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.classes[cls.ID] = cls
	return nil
}

func (repo *SchoolRepo) UpdateClass(_ context.Context, cls school.StudentClass) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.classes[cls.ID]; !ok {
		return school.ErrNotFound
	}
	repo.classes[cls.ID] = cls
	return nil
}

// Subjects

func (repo *SchoolRepo) GetSubjectByID(_ context.Context, id string) (school.Subject, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	sub, ok := repo.subjects[id]
	if !ok {
		return school.Subject{}, school.ErrNotFound
	}
	return sub, nil
}

func (repo *SchoolRepo) querySubjects(match func(school.Subject) bool) []school.Subject {
	var subjects []school.Subject
	for _, sub := range repo.subjects {
		if match(sub) {
			subjects = append(subjects, sub)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects
}

func (repo *SchoolRepo) QuerySubjectsByClass(_ context.Context, classID string) ([]school.Subject, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.querySubjects(func(s school.Subject) bool { return s.ClassID == classID }), nil
}

func (repo *SchoolRepo) QuerySubjectsByTeacherEmail(_ context.Context, email string) ([]school.Subject, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.querySubjects(func(s school.Subject) bool { return s.TeacherEmail == email }), nil
}

func (repo *SchoolRepo) QuerySubjectsByTeacher(_ context.Context, teacherID string) ([]school.Subject, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.querySubjects(func(s school.Subject) bool {
		return s.TeacherID.Valid && s.TeacherID.String == teacherID
	}), nil
}

func (repo *SchoolRepo) CreateSubject(_ context.Context, sub school.Subject) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.subjects[sub.ID] = sub
	return nil
}

func (repo *SchoolRepo) UpdateSubject(_ context.Context, sub school.Subject) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.subjects[sub.ID]; !ok {
		return school.ErrNotFound
	}
	repo.subjects[sub.ID] = sub
	return nil
}

// Schedules

func (repo *SchoolRepo) QuerySchedulesBySubject(_ context.Context, subjectID string) ([]school.Schedule, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var schedules []school.Schedule
	for _, sched := range repo.schedules {
		if sched.SubjectID == subjectID {
			schedules = append(schedules, sched)
		}
	}
	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].StartTime != schedules[j].StartTime {
			return schedules[i].StartTime < schedules[j].StartTime
		}
		return schedules[i].ID < schedules[j].ID
	})
	return schedules, nil
}

func (repo *SchoolRepo) CreateSchedule(_ context.Context, sched school.Schedule) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.schedules[sched.ID] = sched
	return nil
}

// Enrollments

func (repo *SchoolRepo) GetEnrollment(_ context.Context, studentID, subjectID string) (school.Enrollment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	for _, enr := range repo.enrollments {
		if enr.StudentID == studentID && enr.SubjectID == subjectID {
			return enr, nil
		}
	}
	return school.Enrollment{}, school.ErrNotFound
}

func (repo *SchoolRepo) QueryEnrollmentsBySubject(_ context.Context, subjectID string) ([]school.Enrollment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var enrollments []school.Enrollment
	for _, enr := range repo.enrollments {
		if enr.SubjectID == subjectID {
			enrollments = append(enrollments, enr)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].ID < enrollments[j].ID })
	return enrollments, nil
}

func (repo *SchoolRepo) QueryEnrollmentsByStudent(_ context.Context, studentID string) ([]school.Enrollment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var enrollments []school.Enrollment
	for _, enr := range repo.enrollments {
		if enr.StudentID == studentID {
			enrollments = append(enrollments, enr)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].ID < enrollments[j].ID })
	return enrollments, nil
}

func (repo *SchoolRepo) CreateEnrollment(_ context.Context, enr school.Enrollment) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.enrollments[enr.ID] = enr
	return nil
}

// Proposals

func (repo *SchoolRepo) GetProposalByID(_ context.Context, id string) (school.Proposal, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	prop, ok := repo.proposals[id]
	if !ok {
		return school.Proposal{}, school.ErrNotFound
	}
	return prop, nil
}

func (repo *SchoolRepo) queryProposals(match func(school.Proposal) bool) []school.Proposal {
	var props []school.Proposal
	for _, prop := range repo.proposals {
		if match(prop) {
			props = append(props, prop)
		}
	}
	sort.Slice(props, func(i, j int) bool { return props[i].CreatedAt.Before(props[j].CreatedAt) })
	return props
}

func (repo *SchoolRepo) QueryProposals(_ context.Context, status string) ([]school.Proposal, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.queryProposals(func(p school.Proposal) bool {
		return status == "" || p.Status == status
	}), nil
}

func (repo *SchoolRepo) QueryProposalsByTeacher(_ context.Context, teacherID string) ([]school.Proposal, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.queryProposals(func(p school.Proposal) bool { return p.TeacherID == teacherID }), nil
}

func (repo *SchoolRepo) CreateProposal(_ context.Context, prop school.Proposal) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.proposals[prop.ID] = prop
	return nil
}

func (repo *SchoolRepo) UpdateProposal(_ context.Context, prop school.Proposal) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.proposals[prop.ID]; !ok {
		return school.ErrNotFound
	}
	repo.proposals[prop.ID] = prop
	return nil
}
