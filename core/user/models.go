package user

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/classcheck/classcheck/core"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// Action is a gated operation. Roles grant actions through Can, keeping
// authorization decisions in one place.
type Action string

const (
	ActionManageStructure Action = "structure:manage"
	ActionInviteTeachers  Action = "invite:teachers"
	ActionInviteStudents  Action = "invite:students"
	ActionProposeSubject  Action = "proposal:create"
	ActionReviewProposals Action = "proposal:review"
	ActionMarkAttendance  Action = "attendance:mark"
	ActionViewRoster      Action = "roster:view"
)

func (r Role) Can(action Action) bool {
	switch r {
	case RoleAdmin:
		switch action {
		case ActionManageStructure, ActionInviteTeachers, ActionInviteStudents,
			ActionReviewProposals, ActionViewRoster:
			return true
		}
	case RoleTeacher:
		switch action {
		case ActionInviteStudents, ActionProposeSubject, ActionMarkAttendance, ActionViewRoster:
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id" db:"id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	LastLogin    null.Time `json:"last_login" db:"last_login"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (u User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

type (
	NewUser struct {
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name" validate:"required"`
		Email     string `json:"email" validate:"required,email"`
		Role      Role   `json:"role" validate:"required"`
		Password  string `json:"password" validate:"required"`
	}

	// RegisterUser completes an invitation; email and role come from the
	// invitation record.
	RegisterUser struct {
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name" validate:"required"`
		Password  string `json:"password" validate:"required"`
	}

	Credentials struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
)

func (nu NewUser) Validate() error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true)
	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	if !nu.Role.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
	}
	return validatePassword(nu.Password, nu.Email, nu.FirstName, nu.LastName)
}

func (ru RegisterUser) Validate(email string) error {
	ru.FirstName = core.CleanString(ru.FirstName)
	ru.LastName = core.CleanString(ru.LastName)
	if err := core.Validate.Struct(ru); err != nil {
		return err
	}
	return validatePassword(ru.Password, email, ru.FirstName, ru.LastName)
}

func (c Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true)
	return core.Validate.Struct(c)
}
