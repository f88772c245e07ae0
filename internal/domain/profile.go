package domain

import "time"

// UserType classifies a marketplace account. The set is closed: resolution
// logic switches exhaustively so an unknown value can never silently pass
// for a general account.
type UserType string

const (
	UserTypeAuditor      UserType = "auditor"
	UserTypeProjectOwner UserType = "project_owner"
	UserTypeAdmin        UserType = "admin"
	UserTypeGeneral      UserType = "general"
)

// ParseUserType validates a raw user type string.
func ParseUserType(s string) (UserType, error) {
	switch UserType(s) {
	case UserTypeAuditor, UserTypeProjectOwner, UserTypeAdmin, UserTypeGeneral:
		return UserType(s), nil
	default:
		return "", ErrInvalidUserType
	}
}

// VerificationStatus tracks auditor identity verification.
type VerificationStatus string

const (
	VerificationNone     VerificationStatus = "none"
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
)

// UserProfile is the marketplace-level user record, distinct from the
// provider identity. Created lazily on sign-up or first successful fetch.
type UserProfile struct {
	UserID          string
	DisplayName     string
	Bio             string
	UserType        UserType
	Verification    VerificationStatus
	Specializations []string
	AuditsCompleted int
	AuditsRequested int
	AvatarKey       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfilePatch carries a partial profile update. Nil fields are left as-is.
type ProfilePatch struct {
	DisplayName     *string
	Bio             *string
	Specializations *[]string
	AvatarKey       *string
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.DisplayName == nil && p.Bio == nil && p.Specializations == nil && p.AvatarKey == nil
}
