package school

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/classcheck/classcheck/core"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrGone            = errors.New("record was removed")
	ErrSubjectConflict = errors.New("schedule conflict")
	ErrAlreadyEnrolled = errors.New("student is already enrolled")
	ErrProposalClosed  = errors.New("proposal is no longer pending")
)

// NowFunc returns the current time. It can be mocked in tests.
var NowFunc = time.Now

type Repository interface {
	// academic sessions
	GetSessionByID(ctx context.Context, id string) (AcademicSession, error)
	GetSessionByName(ctx context.Context, name string) (AcademicSession, error)
	QuerySessions(ctx context.Context) ([]AcademicSession, error)
	CreateSession(ctx context.Context, sess AcademicSession) error
	UpdateSession(ctx context.Context, sess AcademicSession) error

	// departments
	GetDepartmentByID(ctx context.Context, id string) (Department, error)
	QueryDepartmentsBySession(ctx context.Context, sessionID string) ([]Department, error)
	CreateDepartment(ctx context.Context, dept Department) error
	UpdateDepartment(ctx context.Context, dept Department) error

	// classes
	GetClassByID(ctx context.Context, id string) (StudentClass, error)
	QueryClassesByDepartment(ctx context.Context, deptID string) ([]StudentClass, error)
	CreateClass(ctx context.Context, cls StudentClass) error
	UpdateClass(ctx context.Context, cls StudentClass) error

	// subjects
	GetSubjectByID(ctx context.Context, id string) (Subject, error)
	QuerySubjectsByClass(ctx context.Context, classID string) ([]Subject, error)
	QuerySubjectsByTeacherEmail(ctx context.Context, email string) ([]Subject, error)
	QuerySubjectsByTeacher(ctx context.Context, teacherID string) ([]Subject, error)
	CreateSubject(ctx context.Context, sub Subject) error
	UpdateSubject(ctx context.Context, sub Subject) error

	// schedules
	QuerySchedulesBySubject(ctx context.Context, subjectID string) ([]Schedule, error)
	CreateSchedule(ctx context.Context, sched Schedule) error

	// enrollments
	GetEnrollment(ctx context.Context, studentID, subjectID string) (Enrollment, error)
	QueryEnrollmentsBySubject(ctx context.Context, subjectID string) ([]Enrollment, error)
	QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]Enrollment, error)
	CreateEnrollment(ctx context.Context, enr Enrollment) error

	// proposals
	GetProposalByID(ctx context.Context, id string) (Proposal, error)
	QueryProposals(ctx context.Context, status string) ([]Proposal, error)
	QueryProposalsByTeacher(ctx context.Context, teacherID string) ([]Proposal, error)
	CreateProposal(ctx context.Context, prop Proposal) error
	UpdateProposal(ctx context.Context, prop Proposal) error
}

type Service struct {
	repo   Repository
	logger core.Logger
}

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Academic sessions

// currentSessionName derives the "year-year+1" label for the current date.
func currentSessionName() string {
	year := NowFunc().Year()
	return fmt.Sprintf("%d-%d", year, year+1)
}

// GetOrCreateCurrentSession returns the academic session for the current
// year, creating and activating it on first use.
func (svc *Service) GetOrCreateCurrentSession(ctx context.Context) (AcademicSession, error) {
	name := currentSessionName()
	sess, err := svc.repo.GetSessionByName(ctx, name)
	if err == nil {
		if !sess.IsActive && !sess.IsDead {
			sess.IsActive = true
			sess.UpdatedAt = NowFunc()
			if err := svc.repo.UpdateSession(ctx, sess); err != nil {
				return AcademicSession{}, errors.Wrap(err, "activating session")
			}
		}
		return sess, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return AcademicSession{}, errors.Wrap(err, "looking up session")
	}

	now := NowFunc()
	sess = AcademicSession{
		ID:        uuid.New().String(),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.repo.CreateSession(ctx, sess); err != nil {
		return AcademicSession{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

func (svc *Service) CreateSession(ctx context.Context, ns NewSession) (AcademicSession, error) {
	if err := ns.Validate(); err != nil {
		return AcademicSession{}, err
	}
	name := core.CleanString(ns.Name, true)
	if _, err := svc.repo.GetSessionByName(ctx, name); err == nil {
		return AcademicSession{}, core.NewValidationError(nil, core.FieldError{
			Field: "name", Error: "a session with this name already exists"})
	}

	now := NowFunc()
	sess := AcademicSession{
		ID:        uuid.New().String(),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.repo.CreateSession(ctx, sess); err != nil {
		return AcademicSession{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

func (svc *Service) GetSessions(ctx context.Context) ([]AcademicSession, error) {
	return svc.repo.QuerySessions(ctx)
}

// Departments

// dedupName returns name, name-1, name-2, ... whichever is not yet taken.
func dedupName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

func (svc *Service) CreateDepartment(ctx context.Context, nd NewDepartment) (Department, error) {
	if err := nd.Validate(); err != nil {
		return Department{}, err
	}

	var sess AcademicSession
	var err error
	if nd.SessionID == "" {
		sess, err = svc.GetOrCreateCurrentSession(ctx)
	} else {
		sess, err = svc.repo.GetSessionByID(ctx, nd.SessionID)
	}
	if err != nil {
		return Department{}, err
	}

	siblings, err := svc.repo.QueryDepartmentsBySession(ctx, sess.ID)
	if err != nil {
		return Department{}, errors.Wrap(err, "listing departments")
	}
	taken := make(map[string]bool, len(siblings))
	for _, d := range siblings {
		taken[d.Name] = true
	}

	now := NowFunc()
	dept := Department{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Name:      dedupName(core.CleanString(nd.Name, true), taken),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.repo.CreateDepartment(ctx, dept); err != nil {
		return Department{}, errors.Wrap(err, "creating department")
	}
	return dept, nil
}

func (svc *Service) GetDepartment(ctx context.Context, id string) (Department, error) {
	return svc.repo.GetDepartmentByID(ctx, id)
}

func (svc *Service) GetDepartments(ctx context.Context, sessionID string) ([]Department, error) {
	return svc.repo.QueryDepartmentsBySession(ctx, sessionID)
}

// Classes

// classSerial extracts n from "{department}-{n}" names; 0 when not generated
// from the given prefix.
func classSerial(name, prefix string) int {
	if !strings.HasPrefix(name, prefix+"-") {
		return 0
	}
	n, err := strconv.Atoi(name[len(prefix)+1:])
	if err != nil {
		return 0
	}
	return n
}

// CreateClass ignores any caller-supplied name and generates
// "{department}-{serial}" with the smallest free serial.
func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (StudentClass, error) {
	if err := nc.Validate(); err != nil {
		return StudentClass{}, err
	}
	dept, err := svc.repo.GetDepartmentByID(ctx, nc.DepartmentID)
	if err != nil {
		return StudentClass{}, err
	}
	siblings, err := svc.repo.QueryClassesByDepartment(ctx, dept.ID)
	if err != nil {
		return StudentClass{}, errors.Wrap(err, "listing classes")
	}

	used := make(map[int]bool, len(siblings))
	for _, c := range siblings {
		if n := classSerial(c.Name, dept.Name); n > 0 {
			used[n] = true
		}
	}
	serial := 1
	for used[serial] {
		serial++
	}

	now := NowFunc()
	cls := StudentClass{
		ID:           uuid.New().String(),
		DepartmentID: dept.ID,
		Name:         fmt.Sprintf("%s-%d", dept.Name, serial),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := svc.repo.CreateClass(ctx, cls); err != nil {
		return StudentClass{}, errors.Wrap(err, "creating class")
	}
	return cls, nil
}

func (svc *Service) GetClass(ctx context.Context, id string) (StudentClass, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) GetClasses(ctx context.Context, deptID string) ([]StudentClass, error) {
	return svc.repo.QueryClassesByDepartment(ctx, deptID)
}

// Subjects

// CreateSubject applies sibling name dedup then refuses creation when the
// teacher already runs an active subject at the same timing on a shared day.
func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	cls, err := svc.repo.GetClassByID(ctx, ns.ClassID)
	if err != nil {
		return Subject{}, err
	}

	email := core.CleanString(ns.TeacherEmail, true)
	existing, err := svc.repo.QuerySubjectsByTeacherEmail(ctx, email)
	if err != nil {
		return Subject{}, errors.Wrap(err, "checking teacher subjects")
	}
	for _, sub := range existing {
		if !sub.IsActive || sub.IsDead || sub.Timing != ns.Timing {
			continue
		}
		if shared := DaysOverlap(sub.Days, ns.Days); len(shared) > 0 {
			other, err := svc.repo.GetClassByID(ctx, sub.ClassID)
			if err != nil {
				return Subject{}, errors.Wrap(err, "resolving conflicting class")
			}
			return Subject{}, errors.Wrapf(ErrSubjectConflict,
				"%s already teaches %q in %s at %s on %s",
				email, sub.Name, other.Name, sub.Timing, strings.Join(shared, ", "))
		}
	}

	siblings, err := svc.repo.QuerySubjectsByClass(ctx, cls.ID)
	if err != nil {
		return Subject{}, errors.Wrap(err, "listing subjects")
	}
	taken := make(map[string]bool, len(siblings))
	for _, s := range siblings {
		taken[s.Name] = true
	}

	now := NowFunc()
	sub := Subject{
		ID:           uuid.New().String(),
		ClassID:      cls.ID,
		Name:         dedupName(core.CleanString(ns.Name, true), taken),
		Days:         ns.Days,
		Timing:       ns.Timing,
		TeacherEmail: email,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := svc.repo.CreateSubject(ctx, sub); err != nil {
		return Subject{}, errors.Wrap(err, "creating subject")
	}
	return sub, nil
}

func (svc *Service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) GetSubjects(ctx context.Context, classID string) ([]Subject, error) {
	return svc.repo.QuerySubjectsByClass(ctx, classID)
}

// VisibleTeacherSubjects returns the teacher's subjects whose whole
// ancestry (class, department, session) is active, ordered by department,
// class then subject name.
func (svc *Service) VisibleTeacherSubjects(ctx context.Context, teacherID string) ([]Subject, error) {
	subjects, err := svc.repo.QuerySubjectsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		sub       Subject
		dept, cls string
	}
	var visible []ranked
	for _, sub := range subjects {
		if !sub.IsActive || sub.IsDead {
			continue
		}
		cls, err := svc.repo.GetClassByID(ctx, sub.ClassID)
		if err != nil {
			return nil, errors.Wrap(err, "resolving class")
		}
		if !cls.IsActive || cls.IsDead {
			continue
		}
		dept, err := svc.repo.GetDepartmentByID(ctx, cls.DepartmentID)
		if err != nil {
			return nil, errors.Wrap(err, "resolving department")
		}
		if !dept.IsActive || dept.IsDead {
			continue
		}
		sess, err := svc.repo.GetSessionByID(ctx, dept.SessionID)
		if err != nil {
			return nil, errors.Wrap(err, "resolving session")
		}
		if !sess.IsActive || sess.IsDead {
			continue
		}
		visible = append(visible, ranked{sub: sub, dept: dept.Name, cls: cls.Name})
	}

	sort.Slice(visible, func(i, j int) bool {
		if visible[i].dept != visible[j].dept {
			return visible[i].dept < visible[j].dept
		}
		if visible[i].cls != visible[j].cls {
			return visible[i].cls < visible[j].cls
		}
		return visible[i].sub.Name < visible[j].sub.Name
	})
	out := make([]Subject, len(visible))
	for i, v := range visible {
		out[i] = v.sub
	}
	return out, nil
}

// Activation state

// DeactivateDepartment flips active off for the department, then its
// classes, then their subjects, one level at a time.
func (svc *Service) DeactivateDepartment(ctx context.Context, id string) error {
	dept, err := svc.repo.GetDepartmentByID(ctx, id)
	if err != nil {
		return err
	}
	dept.IsActive = false
	dept.UpdatedAt = NowFunc()
	if err := svc.repo.UpdateDepartment(ctx, dept); err != nil {
		return errors.Wrap(err, "deactivating department")
	}

	classes, err := svc.repo.QueryClassesByDepartment(ctx, dept.ID)
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	for _, cls := range classes {
		if err := svc.DeactivateClass(ctx, cls.ID); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) DeactivateClass(ctx context.Context, id string) error {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return err
	}
	cls.IsActive = false
	cls.UpdatedAt = NowFunc()
	if err := svc.repo.UpdateClass(ctx, cls); err != nil {
		return errors.Wrap(err, "deactivating class")
	}

	subjects, err := svc.repo.QuerySubjectsByClass(ctx, cls.ID)
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	for _, sub := range subjects {
		if err := svc.DeactivateSubject(ctx, sub.ID); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) DeactivateSubject(ctx context.Context, id string) error {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return err
	}
	sub.IsActive = false
	sub.UpdatedAt = NowFunc()
	return errors.Wrap(svc.repo.UpdateSubject(ctx, sub), "deactivating subject")
}

// RestoreDepartment reactivates only the department itself; children must
// be restored individually.
func (svc *Service) RestoreDepartment(ctx context.Context, id string) error {
	dept, err := svc.repo.GetDepartmentByID(ctx, id)
	if err != nil {
		return err
	}
	if dept.IsDead {
		return ErrGone
	}
	dept.IsActive = true
	dept.UpdatedAt = NowFunc()
	return errors.Wrap(svc.repo.UpdateDepartment(ctx, dept), "restoring department")
}

func (svc *Service) RestoreClass(ctx context.Context, id string) error {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return err
	}
	if cls.IsDead {
		return ErrGone
	}
	cls.IsActive = true
	cls.UpdatedAt = NowFunc()
	return errors.Wrap(svc.repo.UpdateClass(ctx, cls), "restoring class")
}

func (svc *Service) RestoreSubject(ctx context.Context, id string) error {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return err
	}
	if sub.IsDead {
		return ErrGone
	}
	sub.IsActive = true
	sub.UpdatedAt = NowFunc()
	return errors.Wrap(svc.repo.UpdateSubject(ctx, sub), "restoring subject")
}

// MarkDeadDepartment irreversibly removes the department from circulation.
// Unlike deactivation it does not cascade.
func (svc *Service) MarkDeadDepartment(ctx context.Context, id string) error {
	dept, err := svc.repo.GetDepartmentByID(ctx, id)
	if err != nil {
		return err
	}
	dept.IsDead = true
	dept.IsActive = false
	dept.UpdatedAt = NowFunc()
	return errors.Wrap(svc.repo.UpdateDepartment(ctx, dept), "removing department")
}

func (svc *Service) MarkDeadClass(ctx context.Context, id string) error {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return err
	}
	cls.IsDead = true
	cls.IsActive = false
	cls.UpdatedAt = NowFunc()
	return errors.Wrap(svc.repo.UpdateClass(ctx, cls), "removing class")
}

func (svc *Service) MarkDeadSubject(ctx context.Context, id string) error {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return err
	}
	sub.IsDead = true
	sub.IsActive = false
	sub.UpdatedAt = NowFunc()
	return errors.Wrap(svc.repo.UpdateSubject(ctx, sub), "removing subject")
}

// Schedules

// addHour returns hhmm plus one hour, wrapping at midnight.
func addHour(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", errors.Wrapf(err, "parsing time %q", hhmm)
	}
	return t.Add(time.Hour).Format("15:04"), nil
}

func (svc *Service) CreateSchedule(ctx context.Context, ns NewSchedule) (Schedule, error) {
	if err := ns.Validate(); err != nil {
		return Schedule{}, err
	}
	if !isDayCode(ns.Day) {
		return Schedule{}, core.NewValidationError(nil, core.FieldError{
			Field: "day", Error: "invalid day code (expected Mon..Sun)"})
	}
	if _, err := svc.repo.GetSubjectByID(ctx, ns.SubjectID); err != nil {
		return Schedule{}, err
	}

	end := ns.EndTime
	if end == "" {
		var err error
		if end, err = addHour(ns.StartTime); err != nil {
			return Schedule{}, err
		}
	}

	sched := Schedule{
		ID:        uuid.New().String(),
		SubjectID: ns.SubjectID,
		Day:       ns.Day,
		StartTime: ns.StartTime,
		EndTime:   end,
		CreatedAt: NowFunc(),
	}
	if err := svc.repo.CreateSchedule(ctx, sched); err != nil {
		return Schedule{}, errors.Wrap(err, "creating schedule")
	}
	return sched, nil
}

func (svc *Service) GetSchedules(ctx context.Context, subjectID string) ([]Schedule, error) {
	return svc.repo.QuerySchedulesBySubject(ctx, subjectID)
}

func isDayCode(day string) bool {
	for _, c := range core.DayCodes {
		if c == day {
			return true
		}
	}
	return false
}

// Enrollments

func (svc *Service) Enroll(ctx context.Context, studentID, subjectID string) (Enrollment, error) {
	if _, err := svc.repo.GetSubjectByID(ctx, subjectID); err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.repo.GetEnrollment(ctx, studentID, subjectID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if errors.Cause(err) != ErrNotFound {
		return Enrollment{}, errors.Wrap(err, "checking enrollment")
	}

	enr := Enrollment{
		ID:         uuid.New().String(),
		StudentID:  studentID,
		SubjectID:  subjectID,
		EnrolledAt: NowFunc(),
	}
	if err := svc.repo.CreateEnrollment(ctx, enr); err != nil {
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

func (svc *Service) GetEnrollments(ctx context.Context, subjectID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsBySubject(ctx, subjectID)
}

func (svc *Service) GetStudentEnrollments(ctx context.Context, studentID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByStudent(ctx, studentID)
}

// Proposals

func (svc *Service) CreateProposal(ctx context.Context, np NewProposal) (Proposal, error) {
	if err := np.Validate(); err != nil {
		return Proposal{}, err
	}
	now := NowFunc()
	prop := Proposal{
		ID:           uuid.New().String(),
		TeacherID:    np.TeacherID,
		TeacherEmail: core.CleanString(np.TeacherEmail, true),
		Name:         core.CleanString(np.Name, true),
		Days:         np.Days,
		Timing:       np.Timing,
		Status:       ProposalPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := svc.repo.CreateProposal(ctx, prop); err != nil {
		return Proposal{}, errors.Wrap(err, "creating proposal")
	}
	return prop, nil
}

func (svc *Service) GetProposals(ctx context.Context, status string) ([]Proposal, error) {
	return svc.repo.QueryProposals(ctx, status)
}

func (svc *Service) GetTeacherProposals(ctx context.Context, teacherID string) ([]Proposal, error) {
	return svc.repo.QueryProposalsByTeacher(ctx, teacherID)
}

// ApproveProposal creates the proposed subject in the given class along
// with one schedule per weekday, each lasting an hour from the proposed
// timing. The subject creation runs the usual conflict check, so an
// approval can still be refused.
func (svc *Service) ApproveProposal(ctx context.Context, id, classID string) (Proposal, error) {
	prop, err := svc.repo.GetProposalByID(ctx, id)
	if err != nil {
		return Proposal{}, err
	}
	if prop.Status != ProposalPending {
		return Proposal{}, ErrProposalClosed
	}

	sub, err := svc.CreateSubject(ctx, NewSubject{
		Name:         prop.Name,
		ClassID:      classID,
		Days:         prop.Days,
		Timing:       prop.Timing,
		TeacherEmail: prop.TeacherEmail,
	})
	if err != nil {
		return Proposal{}, err
	}

	// the proposing teacher already has an account
	sub.TeacherID.SetValid(prop.TeacherID)
	sub.UpdatedAt = NowFunc()
	if err := svc.repo.UpdateSubject(ctx, sub); err != nil {
		return Proposal{}, errors.Wrap(err, "assigning teacher")
	}

	for _, day := range prop.Days {
		if _, err := svc.CreateSchedule(ctx, NewSchedule{
			SubjectID: sub.ID,
			Day:       day,
			StartTime: prop.Timing,
		}); err != nil {
			return Proposal{}, err
		}
	}

	prop.Status = ProposalApproved
	prop.SubjectID.SetValid(sub.ID)
	prop.UpdatedAt = NowFunc()
	if err := svc.repo.UpdateProposal(ctx, prop); err != nil {
		return Proposal{}, errors.Wrap(err, "approving proposal")
	}
	return prop, nil
}

func (svc *Service) RejectProposal(ctx context.Context, id string) (Proposal, error) {
	prop, err := svc.repo.GetProposalByID(ctx, id)
	if err != nil {
		return Proposal{}, err
	}
	if prop.Status != ProposalPending {
		return Proposal{}, ErrProposalClosed
	}
	prop.Status = ProposalRejected
	prop.UpdatedAt = NowFunc()
	if err := svc.repo.UpdateProposal(ctx, prop); err != nil {
		return Proposal{}, errors.Wrap(err, "rejecting proposal")
	}
	return prop, nil
}
