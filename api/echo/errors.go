package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/attendance"
	"github.com/classcheck/classcheck/core/school"
	"github.com/classcheck/classcheck/core/user"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields []core.FieldError `json:"fields,omitempty"`
}

// appHTTPErrorHandler maps domain errors onto HTTP statuses: validation
// 400, auth 401/403, business-rule refusals 409, delivery faults 502,
// missing records 404, everything else 500.
func (s *server) appHTTPErrorHandler(err error, c echo.Context) {
	var (
		status int
		resp   errorResponse
	)

	switch cause := errors.Cause(err).(type) {
	case *echo.HTTPError:
		status = cause.Code
		resp.Error = http.StatusText(status)
		if msg, ok := cause.Message.(string); ok {
			resp.Error = msg
		}
	case *core.ValidationError:
		status = http.StatusBadRequest
		resp.Error = "Invalid input"
		resp.Fields = cause.Fields
	case validator.ValidationErrors:
		status = http.StatusBadRequest
		resp.Error = "Invalid input"
		for _, fe := range cause {
			resp.Fields = append(resp.Fields, core.FieldError{
				Field: fe.Field(),
				Error: fe.Translate(core.Translator),
			})
		}
	case *core.DeliveryError:
		status = http.StatusBadGateway
		resp.Error = "Could not deliver notification"
		s.Logger.Error("notification delivery failed", err)
	default:
		switch errors.Cause(err) {
		case user.ErrNotFound, school.ErrNotFound, attendance.ErrNotFound:
			status = http.StatusNotFound
			resp.Error = "Not found"
		case user.ErrAuthenticationFailed:
			status = http.StatusUnauthorized
			resp.Error = errors.Cause(err).Error()
		case user.ErrEmailTaken, user.ErrInvitationExists, user.ErrInvitationInvalid,
			school.ErrSubjectConflict, school.ErrAlreadyEnrolled, school.ErrProposalClosed,
			school.ErrGone, attendance.ErrNoClassToday, attendance.ErrOutsideWindow,
			attendance.ErrSubjectInactive:
			status = http.StatusConflict
			resp.Error = err.Error()
		default:
			status = http.StatusInternalServerError
			resp.Error = "Internal server error"
			s.Logger.Error("unhandled request error", err)
		}
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, resp)
}
