package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core/user"
)

type (
	bulkInviteRequest struct {
		// comma-delimited address list
		Emails string `json:"emails"`
	}

	registerResponse struct {
		User        user.User         `json:"user"`
		Resolutions []user.Resolution `json:"resolutions"`
	}
)

func (s *server) register(c echo.Context) error {
	var ru user.RegisterUser
	if err := c.Bind(&ru); err != nil {
		return err
	}
	usr, resolutions, err := s.UserSvc.Register(c.Request().Context(), c.Param("token"), ru)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registerResponse{User: usr, Resolutions: resolutions})
}

func (s *server) inviteTeachers(c echo.Context) error {
	return s.bulkInvite(c, user.RoleTeacher, null.String{})
}

func (s *server) inviteStudents(c echo.Context) error {
	return s.bulkInvite(c, user.RoleStudent, null.String{})
}

// inviteToSubject sends student invitations that enroll the registrant in
// the subject. A teacher may only invite to their own subjects.
func (s *server) inviteToSubject(c echo.Context) error {
	sub, err := s.SchoolSvc.GetSubject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	claims := getContextClaims(c)
	if claims.Role == user.RoleTeacher {
		if !sub.TeacherID.Valid || sub.TeacherID.String != claims.UserID {
			return echo.ErrForbidden
		}
	}
	return s.bulkInvite(c, user.RoleStudent, null.StringFrom(sub.ID))
}

func (s *server) bulkInvite(c echo.Context, role user.Role, subjectID null.String) error {
	var req bulkInviteRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	outcomes := s.UserSvc.BulkInvite(c.Request().Context(), req.Emails, role, subjectID)
	return c.JSON(http.StatusOK, outcomes)
}
