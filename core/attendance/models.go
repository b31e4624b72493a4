package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Status is the reported presence state for a (student, session) pair.
type Status string

const (
	StatusPresent  Status = "Present"
	StatusAbsent   Status = "Absent"
	StatusUnmarked Status = "Unmarked" // session exists but no attendance row yet
	StatusNA       Status = "N/A"      // student not enrolled in the session's subject
)

type (
	// ClassSession is a concrete calendar-date instance of a subject's
	// schedule; the unit attendance is recorded against.
	ClassSession struct {
		ID         string      `json:"id" db:"id"`
		SubjectID  string      `json:"subject_id" db:"subject_id"`
		ScheduleID null.String `json:"schedule_id" db:"schedule_id"`
		Date       time.Time   `json:"date" db:"date"`
		CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	}

	Attendance struct {
		ID        string    `json:"id" db:"id"`
		SessionID string    `json:"session_id" db:"session_id"`
		StudentID string    `json:"student_id" db:"student_id"`
		Present   bool      `json:"present" db:"present"`
		MarkedAt  time.Time `json:"marked_at" db:"marked_at"`
	}

	// MarkForm is the submitted attendance state: checked students are
	// present, enrolled students left out are absent.
	MarkForm struct {
		PresentStudentIDs []string `json:"present_student_ids"`
	}
)

type (
	RosterCell struct {
		SessionID string `json:"session_id"`
		Status    Status `json:"status"`
	}

	RosterRow struct {
		StudentID    string       `json:"student_id"`
		StudentName  string       `json:"student_name"`
		StudentEmail string       `json:"student_email"`
		Cells        []RosterCell `json:"cells"`
	}

	RosterColumn struct {
		SessionID   string `json:"session_id"`
		SubjectID   string `json:"subject_id"`
		SubjectName string `json:"subject_name"`
	}

	Roster struct {
		Date    string         `json:"date"`
		Columns []RosterColumn `json:"columns"`
		Rows    []RosterRow    `json:"rows"`
	}

	// DayEntry is one scheduled slot in a student's day view.
	DayEntry struct {
		SubjectID   string `json:"subject_id"`
		SubjectName string `json:"subject_name"`
		Day         string `json:"day"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
		Status      Status `json:"status"`
	}
)
