package school

import (
	"time"

	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core"
)

const (
	ProposalPending  = "PENDING"
	ProposalApproved = "APPROVED"
	ProposalRejected = "REJECTED"
)

type (
	// AcademicSession is the top of the academic hierarchy, labeled by a
	// year range ("2026-2027").
	AcademicSession struct {
		ID        string    `json:"id" db:"id"`
		Name      string    `json:"name" db:"name"`
		IsActive  bool      `json:"is_active" db:"is_active"`
		IsDead    bool      `json:"is_dead" db:"is_dead"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
		UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	}

	Department struct {
		ID        string    `json:"id" db:"id"`
		SessionID string    `json:"session_id" db:"session_id"`
		Name      string    `json:"name" db:"name"`
		IsActive  bool      `json:"is_active" db:"is_active"`
		IsDead    bool      `json:"is_dead" db:"is_dead"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
		UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	}

	// StudentClass name is always system-generated as "{department}-{serial}".
	StudentClass struct {
		ID           string    `json:"id" db:"id"`
		DepartmentID string    `json:"department_id" db:"department_id"`
		Name         string    `json:"name" db:"name"`
		IsActive     bool      `json:"is_active" db:"is_active"`
		IsDead       bool      `json:"is_dead" db:"is_dead"`
		CreatedAt    time.Time `json:"created_at" db:"created_at"`
		UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	}

	// Subject is the teachable unit. TeacherID stays null until an account
	// registers with a matching TeacherEmail.
	Subject struct {
		ID           string         `json:"id" db:"id"`
		ClassID      string         `json:"class_id" db:"class_id"`
		Name         string         `json:"name" db:"name"`
		Days         pq.StringArray `json:"days" db:"days"`
		Timing       string         `json:"timing" db:"timing"` // "HH:MM"
		TeacherEmail string         `json:"teacher_email" db:"teacher_email"`
		TeacherID    null.String    `json:"teacher_id" db:"teacher_id"`
		IsActive     bool           `json:"is_active" db:"is_active"`
		IsDead       bool           `json:"is_dead" db:"is_dead"`
		CreatedAt    time.Time      `json:"created_at" db:"created_at"`
		UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
	}

	// Schedule is a recurring weekday slot for a subject.
	Schedule struct {
		ID        string    `json:"id" db:"id"`
		SubjectID string    `json:"subject_id" db:"subject_id"`
		Day       string    `json:"day" db:"day"`               // "Mon".."Sun"
		StartTime string    `json:"start_time" db:"start_time"` // "HH:MM"
		EndTime   string    `json:"end_time" db:"end_time"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
	}

	Enrollment struct {
		ID         string    `json:"id" db:"id"`
		StudentID  string    `json:"student_id" db:"student_id"`
		SubjectID  string    `json:"subject_id" db:"subject_id"`
		EnrolledAt time.Time `json:"enrolled_at" db:"enrolled_at"`
	}

	// Proposal is a teacher's request to run a subject. Approval creates the
	// subject and its weekly schedules.
	Proposal struct {
		ID           string         `json:"id" db:"id"`
		TeacherID    string         `json:"teacher_id" db:"teacher_id"`
		TeacherEmail string         `json:"teacher_email" db:"teacher_email"`
		Name         string         `json:"name" db:"name"`
		Days         pq.StringArray `json:"days" db:"days"`
		Timing       string         `json:"timing" db:"timing"`
		Status       string         `json:"status" db:"status"`
		SubjectID    null.String    `json:"subject_id" db:"subject_id"`
		CreatedAt    time.Time      `json:"created_at" db:"created_at"`
		UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
	}
)

type (
	NewSession struct {
		Name string `json:"name" validate:"required"`
	}

	NewDepartment struct {
		Name      string `json:"name" validate:"required"`
		SessionID string `json:"session_id"` // optional; current year session derived when empty
	}

	// NewClass carries a requested name for API symmetry only; the stored
	// name is always generated from the department.
	NewClass struct {
		Name         string `json:"name"`
		DepartmentID string `json:"department_id" validate:"required"`
	}

	NewSubject struct {
		Name         string   `json:"name" validate:"required"`
		ClassID      string   `json:"class_id" validate:"required"`
		Days         []string `json:"days" validate:"required,min=1,daycodes"`
		Timing       string   `json:"timing" validate:"required,timeofday"`
		TeacherEmail string   `json:"teacher_email" validate:"required,email"`
	}

	NewSchedule struct {
		SubjectID string `json:"subject_id" validate:"required"`
		Day       string `json:"day" validate:"required"`
		StartTime string `json:"start_time" validate:"required,timeofday"`
		EndTime   string `json:"end_time" validate:"omitempty,timeofday"` // defaults to start + 1h
	}

	NewProposal struct {
		TeacherID    string   `json:"-"`
		TeacherEmail string   `json:"-"`
		Name         string   `json:"name" validate:"required"`
		Days         []string `json:"days" validate:"required,min=1,daycodes"`
		Timing       string   `json:"timing" validate:"required,timeofday"`
	}
)

func (ns NewSession) Validate() error {
	ns.Name = core.CleanString(ns.Name, true)
	return core.Validate.Struct(ns)
}

func (nd NewDepartment) Validate() error {
	nd.Name = core.CleanString(nd.Name, true)
	return core.Validate.Struct(nd)
}

func (nc NewClass) Validate() error {
	return core.Validate.Struct(nc)
}

func (ns NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name, true)
	ns.TeacherEmail = core.CleanString(ns.TeacherEmail, true)
	return core.Validate.Struct(ns)
}

func (ns NewSchedule) Validate() error {
	return core.Validate.Struct(ns)
}

func (np NewProposal) Validate() error {
	np.Name = core.CleanString(np.Name, true)
	return core.Validate.Struct(np)
}

// HasDay reports whether the subject meets on the given weekday code.
func (s Subject) HasDay(day string) bool {
	for _, d := range s.Days {
		if d == day {
			return true
		}
	}
	return false
}

// DaysOverlap reports whether the two weekday sets intersect and returns
// the shared codes.
func DaysOverlap(a, b []string) []string {
	var shared []string
	for _, da := range a {
		for _, db := range b {
			if da == db {
				shared = append(shared, da)
				break
			}
		}
	}
	return shared
}
