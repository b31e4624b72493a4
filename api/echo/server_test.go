package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/attendance"
	"github.com/classcheck/classcheck/core/school"
	"github.com/classcheck/classcheck/core/user"
	"github.com/classcheck/classcheck/services/email"
	"github.com/classcheck/classcheck/storage/database/dummy"
	"github.com/classcheck/classcheck/tests"
)

var ctx = context.Background()

func TestMain(m *testing.M) {
	tests.InitConf()
	os.Exit(m.Run())
}

type testServer struct {
	*server
	userRepo   *dummy.UserRepo
	schoolRepo *dummy.SchoolRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	userRepo := dummy.NewUserRepository()
	schoolRepo := dummy.NewSchoolRepository()
	attendanceRepo := dummy.NewAttendanceRepository()
	lg := core.NewStdLogger(log.New(os.Stderr, "", 0))
	mailSvc := email.NewDummyService()

	userSvc := user.NewService(userRepo, schoolRepo, mailSvc, lg)
	schoolSvc := school.NewService(schoolRepo, lg)
	attendanceSvc := attendance.NewService(attendanceRepo, schoolRepo, userRepo, lg)

	s := NewServer(Options{
		Address:       "localhost:0",
		UserSvc:       userSvc,
		SchoolSvc:     schoolSvc,
		AttendanceSvc: attendanceSvc,
		Logger:        lg,
	})
	return &testServer{server: s, userRepo: userRepo, schoolRepo: schoolRepo}
}

func (ts *testServer) seedUser(t *testing.T, email string, role user.Role) (user.User, string) {
	t.Helper()
	usr, err := ts.UserSvc.Create(ctx, user.NewUser{
		FirstName: "Test", LastName: "User", Email: email,
		Role: role, Password: "horse battery staple",
	})
	require.NoError(t, err)
	token, err := generateToken(usr, 0)
	require.NoError(t, err)
	return usr, token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echoHeaderContentType, "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "admin@x.com", user.RoleAdmin)

	rec := ts.do(t, http.MethodPost, "/v1/users/login", "",
		user.Credentials{Email: "admin@x.com", Password: "horse battery staple"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin@x.com", resp.User.Email)

	rec = ts.do(t, http.MethodPost, "/v1/users/login", "",
		user.Credentials{Email: "admin@x.com", Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCapabilityGating(t *testing.T) {
	ts := newTestServer(t)
	_, studentToken := ts.seedUser(t, "student@x.com", user.RoleStudent)
	_, teacherToken := ts.seedUser(t, "teacher@x.com", user.RoleTeacher)

	// students cannot invite
	rec := ts.do(t, http.MethodPost, "/v1/invites/teachers", studentToken,
		bulkInviteRequest{Emails: "x@x.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// teachers cannot invite other teachers or manage structure
	rec = ts.do(t, http.MethodPost, "/v1/invites/teachers", teacherToken,
		bulkInviteRequest{Emails: "x@x.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.do(t, http.MethodPost, "/v1/departments", teacherToken,
		school.NewDepartment{Name: "science"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInviteAndRegisterFlow(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.seedUser(t, "admin@x.com", user.RoleAdmin)

	rec := ts.do(t, http.MethodPost, "/v1/invites/teachers", adminToken,
		bulkInviteRequest{Emails: "t@x.com, not-an-email"})
	require.Equal(t, http.StatusOK, rec.Code)

	var outcomes []user.InviteOutcome
	decode(t, rec, &outcomes)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].OK)
	assert.False(t, outcomes[1].OK)

	inv, err := ts.userRepo.GetInvitationByEmail(ctx, "t@x.com")
	require.NoError(t, err)

	rec = ts.do(t, http.MethodPost, "/v1/register/"+inv.Token, "",
		user.RegisterUser{FirstName: "Jo", LastName: "Doe", Password: "horse battery staple"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp registerResponse
	decode(t, rec, &resp)
	assert.Equal(t, "t@x.com", resp.User.Email)
	assert.Equal(t, user.RoleTeacher, resp.User.Role)

	// the token is now spent
	rec = ts.do(t, http.MethodPost, "/v1/register/"+inv.Token, "",
		user.RegisterUser{FirstName: "Jo", LastName: "Doe", Password: "horse battery staple"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStructureEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.seedUser(t, "admin@x.com", user.RoleAdmin)
	ts.seedUser(t, "teach@x.com", user.RoleTeacher)
	ts.seedUser(t, "learn@x.com", user.RoleStudent)

	rec := ts.do(t, http.MethodPost, "/v1/departments", adminToken,
		school.NewDepartment{Name: "Science"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var dept school.Department
	decode(t, rec, &dept)
	assert.Equal(t, "science", dept.Name)

	rec = ts.do(t, http.MethodPost, "/v1/classes", adminToken,
		school.NewClass{Name: "ignored", DepartmentID: dept.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	var cls school.StudentClass
	decode(t, rec, &cls)
	assert.Equal(t, "science-1", cls.Name)

	newSub := school.NewSubject{
		Name: "Algebra", ClassID: cls.ID, Days: []string{"Mon", "Wed"},
		Timing: "10:00", TeacherEmail: "t@x.com",
	}
	rec = ts.do(t, http.MethodPost, "/v1/subjects", adminToken, newSub)
	require.Equal(t, http.StatusCreated, rec.Code)

	// conflicting subject is refused
	conflicting := newSub
	conflicting.Name = "Geometry"
	conflicting.Days = []string{"Wed"}
	rec = ts.do(t, http.MethodPost, "/v1/subjects", adminToken, conflicting)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// malformed input reports field errors
	bad := newSub
	bad.TeacherEmail = "nope"
	rec = ts.do(t, http.MethodPost, "/v1/subjects", adminToken, bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp errorResponse
	decode(t, rec, &errResp)
	assert.NotEmpty(t, errResp.Fields)

	rec = ts.do(t, http.MethodGet, "/v1/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash dashboardResponse
	decode(t, rec, &dash)
	assert.Equal(t, 1, dash.Departments)
	assert.Equal(t, 1, dash.Classes)
	assert.Equal(t, 1, dash.Subjects)
	assert.Equal(t, 1, dash.Teachers)
	assert.Equal(t, 1, dash.Students)
}

func TestMarkAttendanceOwnership(t *testing.T) {
	ts := newTestServer(t)
	owner, ownerToken := ts.seedUser(t, "owner@x.com", user.RoleTeacher)
	_, otherToken := ts.seedUser(t, "other@x.com", user.RoleTeacher)

	sub := school.Subject{
		ID: "sub-1", ClassID: "class-1", Name: "algebra",
		Days: []string{"Mon"}, Timing: "10:00",
		TeacherEmail: owner.Email, TeacherID: null.StringFrom(owner.ID),
		IsActive: true,
	}
	require.NoError(t, ts.schoolRepo.CreateSubject(ctx, sub))
	require.NoError(t, ts.schoolRepo.CreateSchedule(ctx, school.Schedule{
		ID: "sched-1", SubjectID: sub.ID, Day: "Mon", StartTime: "10:00", EndTime: "11:00",
	}))

	attendance.NowFunc = func() time.Time {
		return time.Date(2026, 9, 7, 10, 50, 0, 0, time.UTC) // Monday, in window
	}
	defer func() { attendance.NowFunc = time.Now }()

	rec := ts.do(t, http.MethodPost, "/v1/subjects/sub-1/attendance", otherToken,
		attendance.MarkForm{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/subjects/sub-1/attendance", ownerToken,
		attendance.MarkForm{})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshToken(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.seedUser(t, "admin@x.com", user.RoleAdmin)

	rec := ts.do(t, http.MethodPost, "/v1/users/token/refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)

	rec = ts.do(t, http.MethodGet, "/v1/users/me", resp.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
