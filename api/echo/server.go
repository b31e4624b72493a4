// Package echoapi exposes the application over HTTP.
package echoapi

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/attendance"
	"github.com/classcheck/classcheck/core/school"
	"github.com/classcheck/classcheck/core/user"
)

type Options struct {
	Address       string
	UserSvc       *user.Service
	SchoolSvc     *school.Service
	AttendanceSvc *attendance.Service
	Logger        core.Logger
}

type Server interface {
	Start() error
	Stop() error
}

type server struct {
	Options
	e *echo.Echo
}

var _ Server = (*server)(nil)

func NewServer(opts Options) *server {
	s := &server{Options: opts, e: echo.New()}
	s.setup()
	return s
}

func (s *server) setup() {
	s.e.HideBanner = true
	s.e.HTTPErrorHandler = s.appHTTPErrorHandler
	if core.Conf.Debug {
		s.e.Logger.SetLevel(log.DEBUG)
	}

	s.e.Use(
		middleware.Recover(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := s.e.Group("/v1")

	// open endpoints
	v1.POST("/users/login", s.login)
	v1.POST("/register/:token", s.register)

	// authenticated endpoints
	auth := v1.Group("", s.jwtMiddleware())
	auth.GET("/users/me", s.me)
	auth.POST("/users/token/refresh", s.refreshToken)

	auth.POST("/invites/teachers", s.inviteTeachers, s.requireAction(user.ActionInviteTeachers))
	auth.POST("/invites/students", s.inviteStudents, s.requireAction(user.ActionInviteStudents))
	auth.POST("/subjects/:id/invite", s.inviteToSubject, s.requireAction(user.ActionInviteStudents))

	structure := auth.Group("", s.requireAction(user.ActionManageStructure))
	structure.GET("/sessions", s.sessionList)
	structure.POST("/sessions", s.sessionCreate)
	structure.GET("/sessions/:id/departments", s.departmentList)
	structure.POST("/departments", s.departmentCreate)
	structure.POST("/departments/:id/deactivate", s.departmentDeactivate)
	structure.POST("/departments/:id/restore", s.departmentRestore)
	structure.DELETE("/departments/:id", s.departmentMarkDead)
	structure.GET("/departments/:id/classes", s.classList)
	structure.POST("/classes", s.classCreate)
	structure.POST("/classes/:id/deactivate", s.classDeactivate)
	structure.POST("/classes/:id/restore", s.classRestore)
	structure.DELETE("/classes/:id", s.classMarkDead)
	structure.GET("/classes/:id/subjects", s.subjectList)
	structure.POST("/subjects", s.subjectCreate)
	structure.POST("/subjects/:id/deactivate", s.subjectDeactivate)
	structure.POST("/subjects/:id/restore", s.subjectRestore)
	structure.DELETE("/subjects/:id", s.subjectMarkDead)
	structure.POST("/subjects/:id/enrollments", s.enrollStudent)
	structure.GET("/dashboard", s.dashboard)

	auth.GET("/subjects/:id/schedules", s.scheduleList)
	auth.POST("/subjects/:id/schedules", s.scheduleCreate, s.requireAction(user.ActionManageStructure))

	auth.POST("/proposals", s.proposalCreate, s.requireAction(user.ActionProposeSubject))
	auth.GET("/proposals/mine", s.proposalMine, s.requireAction(user.ActionProposeSubject))
	auth.GET("/proposals", s.proposalList, s.requireAction(user.ActionReviewProposals))
	auth.POST("/proposals/:id/approve", s.proposalApprove, s.requireAction(user.ActionReviewProposals))
	auth.POST("/proposals/:id/reject", s.proposalReject, s.requireAction(user.ActionReviewProposals))

	auth.GET("/teacher/subjects", s.teacherSubjects, s.requireAction(user.ActionMarkAttendance))
	auth.POST("/subjects/:id/attendance", s.markAttendance, s.requireAction(user.ActionMarkAttendance))
	auth.GET("/subjects/:id/sessions", s.subjectSessions, s.requireAction(user.ActionViewRoster))
	auth.GET("/attendance/:id", s.sessionAttendance, s.requireAction(user.ActionViewRoster))
	auth.GET("/roster", s.roster, s.requireAction(user.ActionViewRoster))
	auth.GET("/student/day", s.studentDay)
}

func (s *server) Start() error {
	s.Logger.Info("server listening on " + s.Address)
	return s.e.Start(s.Address)
}

func (s *server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}
