package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/classcheck/classcheck/core/school"
	"github.com/classcheck/classcheck/core/user"
)

// Academic sessions

func (s *server) sessionList(c echo.Context) error {
	sessions, err := s.SchoolSvc.GetSessions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}

func (s *server) sessionCreate(c echo.Context) error {
	var ns school.NewSession
	if err := c.Bind(&ns); err != nil {
		return err
	}
	sess, err := s.SchoolSvc.CreateSession(c.Request().Context(), ns)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sess)
}

// Departments

func (s *server) departmentList(c echo.Context) error {
	depts, err := s.SchoolSvc.GetDepartments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, depts)
}

func (s *server) departmentCreate(c echo.Context) error {
	var nd school.NewDepartment
	if err := c.Bind(&nd); err != nil {
		return err
	}
	dept, err := s.SchoolSvc.CreateDepartment(c.Request().Context(), nd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dept)
}

func (s *server) departmentDeactivate(c echo.Context) error {
	if err := s.SchoolSvc.DeactivateDepartment(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) departmentRestore(c echo.Context) error {
	if err := s.SchoolSvc.RestoreDepartment(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) departmentMarkDead(c echo.Context) error {
	if err := s.SchoolSvc.MarkDeadDepartment(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Classes

func (s *server) classList(c echo.Context) error {
	classes, err := s.SchoolSvc.GetClasses(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, classes)
}

func (s *server) classCreate(c echo.Context) error {
	var nc school.NewClass
	if err := c.Bind(&nc); err != nil {
		return err
	}
	cls, err := s.SchoolSvc.CreateClass(c.Request().Context(), nc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cls)
}

func (s *server) classDeactivate(c echo.Context) error {
	if err := s.SchoolSvc.DeactivateClass(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) classRestore(c echo.Context) error {
	if err := s.SchoolSvc.RestoreClass(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) classMarkDead(c echo.Context) error {
	if err := s.SchoolSvc.MarkDeadClass(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Subjects

func (s *server) subjectList(c echo.Context) error {
	subjects, err := s.SchoolSvc.GetSubjects(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, subjects)
}

func (s *server) subjectCreate(c echo.Context) error {
	var ns school.NewSubject
	if err := c.Bind(&ns); err != nil {
		return err
	}
	sub, err := s.SchoolSvc.CreateSubject(c.Request().Context(), ns)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

func (s *server) subjectDeactivate(c echo.Context) error {
	if err := s.SchoolSvc.DeactivateSubject(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) subjectRestore(c echo.Context) error {
	if err := s.SchoolSvc.RestoreSubject(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) subjectMarkDead(c echo.Context) error {
	if err := s.SchoolSvc.MarkDeadSubject(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) enrollStudent(c echo.Context) error {
	var req struct {
		StudentID string `json:"student_id"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if _, err := s.UserSvc.GetByID(c.Request().Context(), req.StudentID); err != nil {
		return err
	}
	enr, err := s.SchoolSvc.Enroll(c.Request().Context(), req.StudentID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, enr)
}

// Schedules

func (s *server) scheduleList(c echo.Context) error {
	schedules, err := s.SchoolSvc.GetSchedules(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, schedules)
}

func (s *server) scheduleCreate(c echo.Context) error {
	var ns school.NewSchedule
	if err := c.Bind(&ns); err != nil {
		return err
	}
	ns.SubjectID = c.Param("id")
	sched, err := s.SchoolSvc.CreateSchedule(c.Request().Context(), ns)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sched)
}

// Proposals

func (s *server) proposalCreate(c echo.Context) error {
	usr, err := s.getContextUser(c)
	if err != nil {
		return err
	}
	var np school.NewProposal
	if err := c.Bind(&np); err != nil {
		return err
	}
	np.TeacherID = usr.ID
	np.TeacherEmail = usr.Email
	prop, err := s.SchoolSvc.CreateProposal(c.Request().Context(), np)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, prop)
}

func (s *server) proposalList(c echo.Context) error {
	props, err := s.SchoolSvc.GetProposals(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, props)
}

func (s *server) proposalMine(c echo.Context) error {
	claims := getContextClaims(c)
	props, err := s.SchoolSvc.GetTeacherProposals(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, props)
}

func (s *server) proposalApprove(c echo.Context) error {
	var req struct {
		ClassID string `json:"class_id"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	prop, err := s.SchoolSvc.ApproveProposal(c.Request().Context(), c.Param("id"), req.ClassID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prop)
}

func (s *server) proposalReject(c echo.Context) error {
	prop, err := s.SchoolSvc.RejectProposal(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prop)
}

// Dashboard

type dashboardResponse struct {
	Sessions         int `json:"sessions"`
	Departments      int `json:"departments"`
	Classes          int `json:"classes"`
	Subjects         int `json:"subjects"`
	Teachers         int `json:"teachers"`
	Students         int `json:"students"`
	PendingProposals int `json:"pending_proposals"`
}

func (s *server) dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	var resp dashboardResponse

	sessions, err := s.SchoolSvc.GetSessions(ctx)
	if err != nil {
		return err
	}
	resp.Sessions = len(sessions)
	for _, sess := range sessions {
		depts, err := s.SchoolSvc.GetDepartments(ctx, sess.ID)
		if err != nil {
			return err
		}
		resp.Departments += len(depts)
		for _, dept := range depts {
			classes, err := s.SchoolSvc.GetClasses(ctx, dept.ID)
			if err != nil {
				return err
			}
			resp.Classes += len(classes)
			for _, cls := range classes {
				subjects, err := s.SchoolSvc.GetSubjects(ctx, cls.ID)
				if err != nil {
					return err
				}
				resp.Subjects += len(subjects)
			}
		}
	}

	users, err := s.UserSvc.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, usr := range users {
		switch usr.Role {
		case user.RoleTeacher:
			resp.Teachers++
		case user.RoleStudent:
			resp.Students++
		}
	}

	pending, err := s.SchoolSvc.GetProposals(ctx, school.ProposalPending)
	if err != nil {
		return err
	}
	resp.PendingProposals = len(pending)
	return c.JSON(http.StatusOK, resp)
}
