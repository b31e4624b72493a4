package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/classcheck/classcheck/core/attendance"
	"github.com/classcheck/classcheck/core/user"
)

func (s *server) teacherSubjects(c echo.Context) error {
	claims := getContextClaims(c)
	subjects, err := s.SchoolSvc.VisibleTeacherSubjects(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, subjects)
}

// subjectSessions lists the sessions held for a subject. A teacher may
// only read their own subjects.
func (s *server) subjectSessions(c echo.Context) error {
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
	sessions, err := s.AttendanceSvc.GetSubjectSessions(c.Request().Context(), sub.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}

type sessionAttendanceResponse struct {
	Session attendance.ClassSession `json:"session"`
	Marks   []attendance.Attendance `json:"marks"`
}

func (s *server) sessionAttendance(c echo.Context) error {
	sess, marks, err := s.AttendanceSvc.SessionAttendance(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionAttendanceResponse{Session: sess, Marks: marks})
}

// markAttendance records presence for the subject's current session. A
// teacher may only mark their own subjects.
func (s *server) markAttendance(c echo.Context) error {
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

	var form attendance.MarkForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	sess, err := s.AttendanceSvc.Mark(c.Request().Context(), sub.ID, form)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// queryDate reads the "date" query param, defaulting to today.
func queryDate(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return attendance.NowFunc(), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid date (expected YYYY-MM-DD)")
	}
	return date, nil
}

func (s *server) roster(c echo.Context) error {
	date, err := queryDate(c)
	if err != nil {
		return err
	}
	roster, err := s.AttendanceSvc.Roster(c.Request().Context(), date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roster)
}

func (s *server) studentDay(c echo.Context) error {
	claims := getContextClaims(c)
	date, err := queryDate(c)
	if err != nil {
		return err
	}
	entries, err := s.AttendanceSvc.StudentDay(c.Request().Context(), claims.UserID, date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}
