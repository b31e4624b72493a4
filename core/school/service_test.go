package school_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/school"
	"github.com/classcheck/classcheck/storage/database/dummy"
	"github.com/classcheck/classcheck/tests"
)

var ctx = context.Background()

func TestMain(m *testing.M) {
	tests.InitConf()
	school.NowFunc = func() time.Time {
		return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	}
	os.Exit(m.Run())
}

func newService() (*school.Service, *dummy.SchoolRepo) {
	repo := dummy.NewSchoolRepository()
	svc := school.NewService(repo, core.NewStdLogger(log.New(os.Stderr, "", 0)))
	return svc, repo
}

func TestCreateDepartmentDedup(t *testing.T) {
	svc, _ := newService()

	first, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: " Science "})
	require.NoError(t, err)
	assert.Equal(t, "science", first.Name)
	assert.True(t, first.IsActive)

	// the current-year session was derived and activated
	sessions, err := svc.GetSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "2026-2027", sessions[0].Name)
	assert.True(t, sessions[0].IsActive)
	assert.Equal(t, sessions[0].ID, first.SessionID)

	second, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "SCIENCE"})
	require.NoError(t, err)
	assert.Equal(t, "science-1", second.Name)

	third, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "science"})
	require.NoError(t, err)
	assert.Equal(t, "science-2", third.Name)
}

func TestCreateClassGeneratedName(t *testing.T) {
	svc, _ := newService()

	dept, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "science"})
	require.NoError(t, err)

	// the requested name is discarded
	first, err := svc.CreateClass(ctx, school.NewClass{Name: "Anything", DepartmentID: dept.ID})
	require.NoError(t, err)
	assert.Equal(t, "science-1", first.Name)

	second, err := svc.CreateClass(ctx, school.NewClass{DepartmentID: dept.ID})
	require.NoError(t, err)
	assert.Equal(t, "science-2", second.Name)
}

func newSubject(classID string) school.NewSubject {
	return school.NewSubject{
		Name:         "Algebra",
		ClassID:      classID,
		Days:         []string{"Mon", "Wed"},
		Timing:       "10:00",
		TeacherEmail: "t@x.com",
	}
}

func TestCreateSubjectConflict(t *testing.T) {
	svc, _ := newService()

	dept, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "science"})
	require.NoError(t, err)
	cls, err := svc.CreateClass(ctx, school.NewClass{DepartmentID: dept.ID})
	require.NoError(t, err)

	sub, err := svc.CreateSubject(ctx, newSubject(cls.ID))
	require.NoError(t, err)
	assert.Equal(t, "algebra", sub.Name)

	// same teacher, same timing, shared day
	conflicting := newSubject(cls.ID)
	conflicting.Name = "Geometry"
	conflicting.Days = []string{"Wed", "Fri"}
	_, err = svc.CreateSubject(ctx, conflicting)
	require.Error(t, err)
	assert.Equal(t, school.ErrSubjectConflict, errors.Cause(err))
	assert.Contains(t, err.Error(), "algebra")
	assert.Contains(t, err.Error(), cls.Name)

	subjects, err := svc.GetSubjects(ctx, cls.ID)
	require.NoError(t, err)
	assert.Len(t, subjects, 1)

	// different timing is fine
	ok := conflicting
	ok.Timing = "14:00"
	_, err = svc.CreateSubject(ctx, ok)
	assert.NoError(t, err)
}

func TestCreateSubjectNameDedup(t *testing.T) {
	svc, _ := newService()

	dept, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "science"})
	require.NoError(t, err)
	cls, err := svc.CreateClass(ctx, school.NewClass{DepartmentID: dept.ID})
	require.NoError(t, err)

	first := newSubject(cls.ID)
	_, err = svc.CreateSubject(ctx, first)
	require.NoError(t, err)

	second := newSubject(cls.ID)
	second.TeacherEmail = "other@x.com"
	sub, err := svc.CreateSubject(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "algebra-1", sub.Name)
}

func TestVisibleTeacherSubjects(t *testing.T) {
	svc, repo := newService()

	assign := func(t *testing.T, id string) {
		t.Helper()
		sub, err := svc.GetSubject(ctx, id)
		require.NoError(t, err)
		sub.TeacherID.SetValid("teacher-1")
		require.NoError(t, repo.UpdateSubject(ctx, sub))
	}

	science, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "science"})
	require.NoError(t, err)
	sciCls, err := svc.CreateClass(ctx, school.NewClass{DepartmentID: science.ID})
	require.NoError(t, err)
	arts, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "arts"})
	require.NoError(t, err)
	artCls, err := svc.CreateClass(ctx, school.NewClass{DepartmentID: arts.ID})
	require.NoError(t, err)

	biology := newSubject(sciCls.ID)
	biology.Name = "Biology"
	biology.Timing = "14:00"
	algebra, err := svc.CreateSubject(ctx, newSubject(sciCls.ID))
	require.NoError(t, err)
	bio, err := svc.CreateSubject(ctx, biology)
	require.NoError(t, err)

	drama := newSubject(artCls.ID)
	drama.Name = "Drama"
	drama.Timing = "16:00"
	dra, err := svc.CreateSubject(ctx, drama)
	require.NoError(t, err)

	for _, id := range []string{algebra.ID, bio.ID, dra.ID} {
		assign(t, id)
	}

	subjects, err := svc.VisibleTeacherSubjects(ctx, "teacher-1")
	require.NoError(t, err)
	require.Len(t, subjects, 3)
	// arts sorts before science
	assert.Equal(t, "drama", subjects[0].Name)
	assert.Equal(t, "algebra", subjects[1].Name)
	assert.Equal(t, "biology", subjects[2].Name)

	// subjects under an inactive department disappear
	require.NoError(t, svc.DeactivateDepartment(ctx, arts.ID))
	subjects, err = svc.VisibleTeacherSubjects(ctx, "teacher-1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "algebra", subjects[0].Name)

	// an inactive subject disappears even with its ancestry intact
	require.NoError(t, svc.DeactivateSubject(ctx, bio.ID))
	subjects, err = svc.VisibleTeacherSubjects(ctx, "teacher-1")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "algebra", subjects[0].Name)
}

func TestDeactivateCascadesRestoreDoesNot(t *testing.T) {
	svc, _ := newService()

	dept, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "science"})
	require.NoError(t, err)
	cls, err := svc.CreateClass(ctx, school.NewClass{DepartmentID: dept.ID})
	require.NoError(t, err)
	sub, err := svc.CreateSubject(ctx, newSubject(cls.ID))
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateDepartment(ctx, dept.ID))

	dept, err = svc.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	cls, err = svc.GetClass(ctx, cls.ID)
	require.NoError(t, err)
	sub, err = svc.GetSubject(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, dept.IsActive)
	assert.False(t, cls.IsActive)
	assert.False(t, sub.IsActive)
	assert.False(t, dept.IsDead)

	// restoring the department leaves children inactive
	require.NoError(t, svc.RestoreDepartment(ctx, dept.ID))
	dept, err = svc.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	cls, err = svc.GetClass(ctx, cls.ID)
	require.NoError(t, err)
	sub, err = svc.GetSubject(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, dept.IsActive)
	assert.False(t, cls.IsActive)
	assert.False(t, sub.IsActive)

	// each level restores independently
	require.NoError(t, svc.RestoreClass(ctx, cls.ID))
	require.NoError(t, svc.RestoreSubject(ctx, sub.ID))
	cls, err = svc.GetClass(ctx, cls.ID)
	require.NoError(t, err)
	sub, err = svc.GetSubject(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, cls.IsActive)
	assert.True(t, sub.IsActive)
}

func TestMarkDeadBlocksRestore(t *testing.T) {
	svc, _ := newService()

	dept, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "science"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkDeadDepartment(ctx, dept.ID))
	dept, err = svc.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.True(t, dept.IsDead)
	assert.False(t, dept.IsActive)

	err = svc.RestoreDepartment(ctx, dept.ID)
	assert.Equal(t, school.ErrGone, errors.Cause(err))
}

func TestCreateScheduleDefaultEnd(t *testing.T) {
	svc, _ := newService()

	dept, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "science"})
	require.NoError(t, err)
	cls, err := svc.CreateClass(ctx, school.NewClass{DepartmentID: dept.ID})
	require.NoError(t, err)
	sub, err := svc.CreateSubject(ctx, newSubject(cls.ID))
	require.NoError(t, err)

	sched, err := svc.CreateSchedule(ctx, school.NewSchedule{
		SubjectID: sub.ID,
		Day:       "Mon",
		StartTime: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "10:30", sched.EndTime)

	explicit, err := svc.CreateSchedule(ctx, school.NewSchedule{
		SubjectID: sub.ID,
		Day:       "Wed",
		StartTime: "09:30",
		EndTime:   "11:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "11:00", explicit.EndTime)
}

func TestProposalLifecycle(t *testing.T) {
	svc, _ := newService()

	dept, err := svc.CreateDepartment(ctx, school.NewDepartment{Name: "science"})
	require.NoError(t, err)
	cls, err := svc.CreateClass(ctx, school.NewClass{DepartmentID: dept.ID})
	require.NoError(t, err)

	prop, err := svc.CreateProposal(ctx, school.NewProposal{
		TeacherID:    "teacher-1",
		TeacherEmail: "t@x.com",
		Name:         "Physics",
		Days:         []string{"Tue", "Thu"},
		Timing:       "11:00",
	})
	require.NoError(t, err)
	assert.Equal(t, school.ProposalPending, prop.Status)

	prop, err = svc.ApproveProposal(ctx, prop.ID, cls.ID)
	require.NoError(t, err)
	assert.Equal(t, school.ProposalApproved, prop.Status)
	require.True(t, prop.SubjectID.Valid)

	sub, err := svc.GetSubject(ctx, prop.SubjectID.String)
	require.NoError(t, err)
	assert.Equal(t, "physics", sub.Name)
	require.True(t, sub.TeacherID.Valid)
	assert.Equal(t, "teacher-1", sub.TeacherID.String)

	schedules, err := svc.GetSchedules(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	for _, sched := range schedules {
		assert.Equal(t, "11:00", sched.StartTime)
		assert.Equal(t, "12:00", sched.EndTime)
	}

	// closed proposals cannot be re-approved or rejected
	_, err = svc.ApproveProposal(ctx, prop.ID, cls.ID)
	assert.Equal(t, school.ErrProposalClosed, errors.Cause(err))
	_, err = svc.RejectProposal(ctx, prop.ID)
	assert.Equal(t, school.ErrProposalClosed, errors.Cause(err))
}

func TestRejectProposal(t *testing.T) {
	svc, _ := newService()

	prop, err := svc.CreateProposal(ctx, school.NewProposal{
		TeacherID:    "teacher-1",
		TeacherEmail: "t@x.com",
		Name:         "Physics",
		Days:         []string{"Tue"},
		Timing:       "11:00",
	})
	require.NoError(t, err)

	prop, err = svc.RejectProposal(ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, school.ProposalRejected, prop.Status)
	assert.False(t, prop.SubjectID.Valid)
}
