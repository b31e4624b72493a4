package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core"
	"github.com/classcheck/classcheck/core/school"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrEmailTaken           = errors.New("an account with this email already exists")
	ErrInvitationExists     = errors.New("a pending invitation already exists for this email")
	ErrInvitationInvalid    = errors.New("invitation is invalid, expired or already used")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

var (
	// NowFunc returns the current time. It can be mocked in tests.
	NowFunc = time.Now

	// TokenFunc generates invitation tokens. It can be mocked in tests.
	TokenFunc = func() string { return uuid.New().String() }
)

type Repository interface {
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	QueryUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, usr User) error
	UpdateUser(ctx context.Context, usr User) error

	GetInvitationByToken(ctx context.Context, token string) (Invitation, error)
	GetInvitationByEmail(ctx context.Context, email string) (Invitation, error)
	CreateInvitation(ctx context.Context, inv Invitation) error
	UpdateInvitation(ctx context.Context, inv Invitation) error
	DeleteInvitationsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type Service struct {
	repo    Repository
	school  school.Repository
	mailSvc core.EmailService
	logger  core.Logger
}

func NewService(repo Repository, schoolRepo school.Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		school:  schoolRepo,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// Accounts

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true))
}

func (svc *Service) GetAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx)
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}
	email := core.CleanString(nu.Email, true)
	if _, err := svc.repo.GetUserByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "looking up email")
	}

	now := NowFunc()
	usr := User{
		ID:        uuid.New().String(),
		FirstName: core.CleanString(nu.FirstName),
		LastName:  core.CleanString(nu.LastName),
		Email:     email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	if err := svc.repo.CreateUser(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// Authenticate checks the credentials against the account store. Unknown
// emails and wrong passwords fail identically.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	if err := creds.Validate(); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(creds.Email, true))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, errors.Wrap(err, "looking up email")
	}
	if !usr.IsActive {
		return User{}, ErrAuthenticationFailed
	}
	if err := usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrAuthenticationFailed
	}
	return usr, nil
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) error {
	usr.LastLogin = null.TimeFrom(NowFunc())
	usr.UpdatedAt = NowFunc()
	return errors.Wrap(svc.repo.UpdateUser(ctx, usr), "setting last login")
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) error {
	if err := validatePassword(pwd, usr.Email, usr.FirstName, usr.LastName); err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = NowFunc()
	return errors.Wrap(svc.repo.UpdateUser(ctx, usr), "updating user")
}

// Invitations

// Invite creates a single-use invitation and emails the registration link.
// Delivery must succeed before the record is persisted, so a failed send
// leaves no ledger entry behind.
func (svc *Service) Invite(ctx context.Context, email string, role Role, subjectID null.String) (Invitation, error) {
	email = core.CleanString(email, true)
	if err := core.Validate.Var(email, "required,email"); err != nil {
		return Invitation{}, core.NewValidationError(nil, core.FieldError{
			Field: "email", Error: "invalid email address"})
	}
	if !role.Valid() || role == RoleAdmin {
		return Invitation{}, core.NewValidationError(nil, core.FieldError{
			Field: "role", Error: "invalid role"})
	}

	if _, err := svc.repo.GetUserByEmail(ctx, email); err == nil {
		return Invitation{}, ErrEmailTaken
	} else if errors.Cause(err) != ErrNotFound {
		return Invitation{}, errors.Wrap(err, "looking up email")
	}

	now := NowFunc()
	existing, err := svc.repo.GetInvitationByEmail(ctx, email)
	switch {
	case err == nil && existing.IsValid(now):
		return Invitation{}, ErrInvitationExists
	case err == nil && existing.IsUsed:
		return Invitation{}, ErrInvitationExists
	case err == nil:
		// expired and unused; refresh it in place
		existing.Token = TokenFunc()
		existing.Role = role
		existing.SubjectID = subjectID
		existing.CreatedAt = now
		if err := svc.deliver(existing); err != nil {
			return Invitation{}, err
		}
		if err := svc.repo.UpdateInvitation(ctx, existing); err != nil {
			return Invitation{}, errors.Wrap(err, "refreshing invitation")
		}
		return existing, nil
	case errors.Cause(err) != ErrNotFound:
		return Invitation{}, errors.Wrap(err, "looking up invitation")
	}

	inv := Invitation{
		ID:        uuid.New().String(),
		Email:     email,
		Token:     TokenFunc(),
		Role:      role,
		SubjectID: subjectID,
		CreatedAt: now,
	}
	if err := svc.deliver(inv); err != nil {
		return Invitation{}, err
	}
	if err := svc.repo.CreateInvitation(ctx, inv); err != nil {
		return Invitation{}, errors.Wrap(err, "creating invitation")
	}
	return inv, nil
}

// BulkInvite fans an invite out over a comma-delimited address list. Each
// address is processed independently and reported on its own.
func (svc *Service) BulkInvite(ctx context.Context, emails string, role Role, subjectID null.String) []InviteOutcome {
	var outcomes []InviteOutcome
	for _, email := range strings.Split(emails, ",") {
		email = core.CleanString(email, true)
		if email == "" {
			continue
		}
		outcome := InviteOutcome{Email: email, OK: true}
		if _, err := svc.Invite(ctx, email, role, subjectID); err != nil {
			outcome.OK = false
			outcome.Error = err.Error()
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (svc *Service) deliver(inv Invitation) error {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: inv.Email}},
		Subject:      fmt.Sprintf("You are invited to join %s", core.Conf.AppName),
		TemplateName: "invitation",
		TemplateData: map[string]interface{}{
			"Role":      strings.Title(strings.ToLower(string(inv.Role))),
			"Link":      fmt.Sprintf("%s/register/%s", core.Conf.FrontendBaseURL, inv.Token),
			"ExpiresAt": inv.ExpiresAt().Format("Jan 2, 2006 15:04 MST"),
		},
	}
	if err := svc.mailSvc.SendMessage(msg); err != nil {
		return core.NewDeliveryError(err)
	}
	return nil
}

// PurgeStaleInvitations deletes unused invitations older than the purge
// delta. Consumed invitations are kept as a registration record.
func (svc *Service) PurgeStaleInvitations(ctx context.Context) (int, error) {
	cutoff := NowFunc().Add(-core.Conf.InvitationPurgeDelta)
	return svc.repo.DeleteInvitationsBefore(ctx, cutoff)
}

// Registration

// ResolutionStatus distinguishes an applied reconciliation from one whose
// target went missing and was deliberately skipped.
type ResolutionStatus string

const (
	ResolutionApplied       ResolutionStatus = "applied"
	ResolutionTargetMissing ResolutionStatus = "target_missing"
)

type Resolution struct {
	Kind      string           `json:"kind"` // "subject_assignment" or "enrollment"
	SubjectID string           `json:"subject_id"`
	Status    ResolutionStatus `json:"status"`
}

// Register consumes an invitation token, creates the account and runs the
// post-registration reconciliations: teacher email backfill onto pending
// subjects, and enrollment when the invitation is subject-scoped. A missing
// reconciliation target is skipped, not an error.
func (svc *Service) Register(ctx context.Context, token string, ru RegisterUser) (User, []Resolution, error) {
	inv, err := svc.repo.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, nil, ErrInvitationInvalid
		}
		return User{}, nil, errors.Wrap(err, "looking up invitation")
	}
	now := NowFunc()
	if !inv.IsValid(now) {
		return User{}, nil, ErrInvitationInvalid
	}
	if err := ru.Validate(inv.Email); err != nil {
		return User{}, nil, err
	}
	if _, err := svc.repo.GetUserByEmail(ctx, inv.Email); err == nil {
		return User{}, nil, ErrEmailTaken
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, nil, errors.Wrap(err, "looking up email")
	}

	usr := User{
		ID:        uuid.New().String(),
		FirstName: core.CleanString(ru.FirstName),
		LastName:  core.CleanString(ru.LastName),
		Email:     inv.Email,
		Role:      inv.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(ru.Password); err != nil {
		return User{}, nil, errors.Wrap(err, "setting password")
	}
	if err := svc.repo.CreateUser(ctx, usr); err != nil {
		return User{}, nil, errors.Wrap(err, "creating user")
	}

	inv.IsUsed = true
	if err := svc.repo.UpdateInvitation(ctx, inv); err != nil {
		return User{}, nil, errors.Wrap(err, "consuming invitation")
	}

	resolutions, err := svc.resolve(ctx, usr, inv)
	if err != nil {
		return User{}, nil, err
	}
	return usr, resolutions, nil
}

// resolve wires the new account into the academic hierarchy.
func (svc *Service) resolve(ctx context.Context, usr User, inv Invitation) ([]Resolution, error) {
	var resolutions []Resolution

	if usr.Role == RoleTeacher {
		subjects, err := svc.school.QuerySubjectsByTeacherEmail(ctx, usr.Email)
		if err != nil {
			return nil, errors.Wrap(err, "querying pending subjects")
		}
		for _, sub := range subjects {
			if sub.TeacherID.Valid {
				continue
			}
			sub.TeacherID = null.StringFrom(usr.ID)
			sub.UpdatedAt = NowFunc()
			if err := svc.school.UpdateSubject(ctx, sub); err != nil {
				return nil, errors.Wrap(err, "assigning subject")
			}
			resolutions = append(resolutions, Resolution{
				Kind: "subject_assignment", SubjectID: sub.ID, Status: ResolutionApplied})
		}
	}

	if inv.SubjectID.Valid {
		subjectID := inv.SubjectID.String
		if _, err := svc.school.GetSubjectByID(ctx, subjectID); err != nil {
			if errors.Cause(err) != school.ErrNotFound {
				return nil, errors.Wrap(err, "resolving invitation subject")
			}
			svc.logger.Warn("invitation subject missing, skipping enrollment",
				fmt.Errorf("subject %s for %s", subjectID, usr.Email))
			resolutions = append(resolutions, Resolution{
				Kind: "enrollment", SubjectID: subjectID, Status: ResolutionTargetMissing})
			return resolutions, nil
		}
		enr := school.Enrollment{
			ID:         uuid.New().String(),
			StudentID:  usr.ID,
			SubjectID:  subjectID,
			EnrolledAt: NowFunc(),
		}
		if err := svc.school.CreateEnrollment(ctx, enr); err != nil {
			return nil, errors.Wrap(err, "creating enrollment")
		}
		resolutions = append(resolutions, Resolution{
			Kind: "enrollment", SubjectID: subjectID, Status: ResolutionApplied})
	}
	return resolutions, nil
}
