package user_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/school"
	"github.com/classcheck/classcheck/core/user"
	"github.com/classcheck/classcheck/services/email"
	"github.com/classcheck/classcheck/storage/database/dummy"
	"github.com/classcheck/classcheck/tests"
)

var (
	ctx = context.Background()
	now = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
)

func TestMain(m *testing.M) {
	tests.InitConf()
	user.NowFunc = func() time.Time { return now }
	os.Exit(m.Run())
}

type fixture struct {
	svc        *user.Service
	repo       *dummy.UserRepo
	schoolRepo *dummy.SchoolRepo
	mailSvc    interface {
		core.EmailService
		SentMessages() []core.EmailMessage
	}
}

func newFixture() *fixture {
	repo := dummy.NewUserRepository()
	schoolRepo := dummy.NewSchoolRepository()
	mailSvc := email.NewDummyService()
	lg := core.NewStdLogger(log.New(os.Stderr, "", 0))
	return &fixture{
		svc:        user.NewService(repo, schoolRepo, mailSvc, lg),
		repo:       repo,
		schoolRepo: schoolRepo,
		mailSvc:    mailSvc,
	}
}

func failingMailFixture(failWith error) *fixture {
	f := newFixture()
	mailSvc := email.NewDummyService()
	mailSvc.FailWith = failWith
	lg := core.NewStdLogger(log.New(os.Stderr, "", 0))
	f.svc = user.NewService(f.repo, f.schoolRepo, mailSvc, lg)
	f.mailSvc = mailSvc
	return f
}

func TestInviteDeliveryFailureLeavesNoRecord(t *testing.T) {
	f := failingMailFixture(errors.New("smtp unreachable"))

	_, err := f.svc.Invite(ctx, "new@x.com", user.RoleStudent, null.String{})
	require.Error(t, err)
	assert.True(t, core.IsDeliveryError(err))
	assert.Equal(t, 0, f.repo.InvitationCount("new@x.com"))
}

func TestInviteDeliverySuccessPersists(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(ctx, "New@X.com ", user.RoleTeacher, null.String{})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", inv.Email)
	assert.NotEmpty(t, inv.Token)
	assert.Equal(t, 1, f.repo.InvitationCount("new@x.com"))

	msgs := f.mailSvc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].TextContent, inv.Token)
}

func TestInviteDuplicatePending(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Invite(ctx, "new@x.com", user.RoleStudent, null.String{})
	require.NoError(t, err)

	_, err = f.svc.Invite(ctx, "new@x.com", user.RoleStudent, null.String{})
	assert.Equal(t, user.ErrInvitationExists, errors.Cause(err))
	assert.Equal(t, 1, f.repo.InvitationCount("new@x.com"))
}

func TestInviteExpiredRefreshedInPlace(t *testing.T) {
	f := newFixture()

	stale := user.Invitation{
		ID:        "inv-1",
		Email:     "new@x.com",
		Token:     "stale-token",
		Role:      user.RoleStudent,
		CreatedAt: now.Add(-80 * time.Hour),
	}
	require.NoError(t, f.repo.CreateInvitation(ctx, stale))

	inv, err := f.svc.Invite(ctx, "new@x.com", user.RoleTeacher, null.String{})
	require.NoError(t, err)
	assert.Equal(t, stale.ID, inv.ID)
	assert.NotEqual(t, stale.Token, inv.Token)
	assert.Equal(t, user.RoleTeacher, inv.Role)
	assert.Equal(t, now, inv.CreatedAt)
	assert.Equal(t, 1, f.repo.InvitationCount("new@x.com"))
}

func TestInviteExistingAccount(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(ctx, user.NewUser{
		FirstName: "Jo", LastName: "Doe", Email: "jo@x.com",
		Role: user.RoleTeacher, Password: "horse battery staple",
	})
	require.NoError(t, err)

	_, err = f.svc.Invite(ctx, "jo@x.com", user.RoleTeacher, null.String{})
	assert.Equal(t, user.ErrEmailTaken, errors.Cause(err))
}

func TestBulkInviteIndependentOutcomes(t *testing.T) {
	f := newFixture()

	outcomes := f.svc.BulkInvite(ctx, "a@x.com, not-an-email ,b@x.com,", user.RoleStudent, null.String{})
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].OK)
	assert.Equal(t, "a@x.com", outcomes[0].Email)
	assert.False(t, outcomes[1].OK)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.True(t, outcomes[2].OK)
	assert.Equal(t, "b@x.com", outcomes[2].Email)
}

func (f *fixture) invite(t *testing.T, email string, role user.Role, subjectID null.String) user.Invitation {
	t.Helper()
	inv, err := f.svc.Invite(ctx, email, role, subjectID)
	require.NoError(t, err)
	return inv
}

func registration() user.RegisterUser {
	return user.RegisterUser{FirstName: "Jo", LastName: "Doe", Password: "horse battery staple"}
}

func (f *fixture) seedSubject(t *testing.T, id, teacherEmail string) school.Subject {
	t.Helper()
	sub := school.Subject{
		ID:           id,
		ClassID:      "class-1",
		Name:         "algebra-" + id,
		Days:         []string{"Mon"},
		Timing:       "10:00",
		TeacherEmail: teacherEmail,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.schoolRepo.CreateSubject(ctx, sub))
	return sub
}

func TestRegisterTeacherBackfill(t *testing.T) {
	f := newFixture()
	f.seedSubject(t, "sub-1", "t@x.com")
	f.seedSubject(t, "sub-2", "t@x.com")
	f.seedSubject(t, "sub-3", "other@x.com")

	inv := f.invite(t, "t@x.com", user.RoleTeacher, null.String{})
	usr, resolutions, err := f.svc.Register(ctx, inv.Token, registration())
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, usr.Role)
	require.Len(t, resolutions, 2)
	for _, res := range resolutions {
		assert.Equal(t, "subject_assignment", res.Kind)
		assert.Equal(t, user.ResolutionApplied, res.Status)
	}

	for _, id := range []string{"sub-1", "sub-2"} {
		sub, err := f.schoolRepo.GetSubjectByID(ctx, id)
		require.NoError(t, err)
		require.True(t, sub.TeacherID.Valid)
		assert.Equal(t, usr.ID, sub.TeacherID.String)
	}
	untouched, err := f.schoolRepo.GetSubjectByID(ctx, "sub-3")
	require.NoError(t, err)
	assert.False(t, untouched.TeacherID.Valid)

	// the token is spent
	_, _, err = f.svc.Register(ctx, inv.Token, registration())
	assert.Equal(t, user.ErrInvitationInvalid, errors.Cause(err))
}

func TestRegisterStudentEnrollment(t *testing.T) {
	f := newFixture()
	sub := f.seedSubject(t, "sub-1", "t@x.com")

	inv := f.invite(t, "s@x.com", user.RoleStudent, null.StringFrom(sub.ID))
	usr, resolutions, err := f.svc.Register(ctx, inv.Token, registration())
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.Equal(t, "enrollment", resolutions[0].Kind)
	assert.Equal(t, user.ResolutionApplied, resolutions[0].Status)

	_, err = f.schoolRepo.GetEnrollment(ctx, usr.ID, sub.ID)
	assert.NoError(t, err)
}

func TestRegisterMissingSubjectSkipped(t *testing.T) {
	f := newFixture()

	inv := f.invite(t, "s@x.com", user.RoleStudent, null.StringFrom("gone-subject"))
	usr, resolutions, err := f.svc.Register(ctx, inv.Token, registration())
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.Equal(t, user.ResolutionTargetMissing, resolutions[0].Status)

	enrollments, err := f.schoolRepo.QueryEnrollmentsByStudent(ctx, usr.ID)
	require.NoError(t, err)
	assert.Empty(t, enrollments)
}

func TestRegisterExpiredInvitation(t *testing.T) {
	f := newFixture()

	stale := user.Invitation{
		ID:        "inv-1",
		Email:     "s@x.com",
		Token:     "stale-token",
		Role:      user.RoleStudent,
		CreatedAt: now.Add(-72*time.Hour - time.Second),
	}
	require.NoError(t, f.repo.CreateInvitation(ctx, stale))

	_, _, err := f.svc.Register(ctx, stale.Token, registration())
	assert.Equal(t, user.ErrInvitationInvalid, errors.Cause(err))

	// exactly at the boundary is still valid
	boundary := stale
	boundary.ID, boundary.Token = "inv-2", "boundary-token"
	boundary.Email = "b@x.com"
	boundary.CreatedAt = now.Add(-72 * time.Hour)
	require.NoError(t, f.repo.CreateInvitation(ctx, boundary))

	_, _, err = f.svc.Register(ctx, boundary.Token, registration())
	assert.NoError(t, err)
}

func TestRegisterUnknownToken(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.Register(ctx, "nope", registration())
	assert.Equal(t, user.ErrInvitationInvalid, errors.Cause(err))
}

func TestPasswordPolicy(t *testing.T) {
	tt := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"too short", "abc", true},
		{"entirely numeric", "1234567890", true},
		{"too common", "Password1", true},
		{"too similar to email", "jodoe@x.com", true},
		{"acceptable", "horse battery staple", false},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			nu := user.NewUser{
				FirstName: "Jo", LastName: "Doe", Email: "jodoe@x.com",
				Role: user.RoleStudent, Password: tc.password,
			}
			err := nu.Validate()
			if tc.wantErr {
				require.Error(t, err)
				var vErr *core.ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.NotEmpty(t, vErr.Fields)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture()

	usr, err := f.svc.Create(ctx, user.NewUser{
		FirstName: "Jo", LastName: "Doe", Email: "jo@x.com",
		Role: user.RoleTeacher, Password: "horse battery staple",
	})
	require.NoError(t, err)

	got, err := f.svc.Authenticate(ctx, user.Credentials{Email: "jo@x.com", Password: "horse battery staple"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = f.svc.Authenticate(ctx, user.Credentials{Email: "jo@x.com", Password: "wrong password"})
	assert.Equal(t, user.ErrAuthenticationFailed, errors.Cause(err))

	_, err = f.svc.Authenticate(ctx, user.Credentials{Email: "ghost@x.com", Password: "whatever!"})
	assert.Equal(t, user.ErrAuthenticationFailed, errors.Cause(err))

	usr.IsActive = false
	require.NoError(t, f.repo.UpdateUser(ctx, usr))
	_, err = f.svc.Authenticate(ctx, user.Credentials{Email: "jo@x.com", Password: "horse battery staple"})
	assert.Equal(t, user.ErrAuthenticationFailed, errors.Cause(err))
}

func TestSetPassword(t *testing.T) {
	f := newFixture()

	usr, err := f.svc.Create(ctx, user.NewUser{
		FirstName: "Jo", LastName: "Doe", Email: "jo@x.com",
		Role: user.RoleTeacher, Password: "horse battery staple",
	})
	require.NoError(t, err)

	// new passwords go through the usual policy
	err = f.svc.SetPassword(ctx, usr, "short")
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))

	require.NoError(t, f.svc.SetPassword(ctx, usr, "correct horse battery"))
	_, err = f.svc.Authenticate(ctx, user.Credentials{Email: "jo@x.com", Password: "correct horse battery"})
	assert.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, user.Credentials{Email: "jo@x.com", Password: "horse battery staple"})
	assert.Equal(t, user.ErrAuthenticationFailed, errors.Cause(err))
}

func TestPurgeStaleInvitations(t *testing.T) {
	f := newFixture()

	old := user.Invitation{
		ID: "inv-old", Email: "old@x.com", Token: "old-token",
		Role: user.RoleStudent, CreatedAt: now.Add(-31 * 24 * time.Hour),
	}
	fresh := user.Invitation{
		ID: "inv-fresh", Email: "fresh@x.com", Token: "fresh-token",
		Role: user.RoleStudent, CreatedAt: now.Add(-time.Hour),
	}
	spent := user.Invitation{
		ID: "inv-spent", Email: "spent@x.com", Token: "spent-token",
		Role: user.RoleStudent, IsUsed: true, CreatedAt: now.Add(-60 * 24 * time.Hour),
	}
	require.NoError(t, f.repo.CreateInvitation(ctx, old))
	require.NoError(t, f.repo.CreateInvitation(ctx, fresh))
	require.NoError(t, f.repo.CreateInvitation(ctx, spent))

	n, err := f.svc.PurgeStaleInvitations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, f.repo.InvitationCount("old@x.com"))
	assert.Equal(t, 1, f.repo.InvitationCount("fresh@x.com"))
	// consumed invitations are kept
	assert.Equal(t, 1, f.repo.InvitationCount("spent@x.com"))
}
