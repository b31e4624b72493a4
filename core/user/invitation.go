package user

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/classcheck/classcheck/core"
)

// Invitation is a single-use, time-limited token binding an email address
// to a future account and role. Subject-scoped invitations additionally
// carry the subject the registrant will be enrolled in.
type Invitation struct {
	ID        string      `json:"id" db:"id"`
	Email     string      `json:"email" db:"email"`
	Token     string      `json:"token" db:"token"`
	Role      Role        `json:"role" db:"role"`
	SubjectID null.String `json:"subject_id" db:"subject_id"`
	IsUsed    bool        `json:"is_used" db:"is_used"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

func (inv Invitation) ExpiresAt() time.Time {
	return inv.CreatedAt.Add(core.Conf.InvitationValidityDelta)
}

// IsValid reports whether the invitation can still be consumed at the
// given instant. The expiry boundary is inclusive.
func (inv Invitation) IsValid(now time.Time) bool {
	return !inv.IsUsed && !now.After(inv.ExpiresAt())
}

// InviteOutcome is the per-address result of a bulk invite. A failed
// address never aborts the rest of the batch.
type InviteOutcome struct {
	Email string `json:"email"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
