package domain

import "time"

// UserRole is one (user, role, active) grant. A user may hold several,
// independently active or inactive.
type UserRole struct {
	UserID    string
	Role      UserType
	Active    bool
	GrantedAt time.Time
}

// PrimaryUserType resolves the effective account type for a role set.
// Resolution is deterministic regardless of slice order: an active admin
// grant always wins, then auditor, then project_owner, then general.
func PrimaryUserType(roles []UserRole) UserType {
	var hasAuditor, hasOwner bool
	for _, r := range roles {
		if !r.Active {
			continue
		}
		switch r.Role {
		case UserTypeAdmin:
			return UserTypeAdmin
		case UserTypeAuditor:
			hasAuditor = true
		case UserTypeProjectOwner:
			hasOwner = true
		case UserTypeGeneral:
			// never outranks anything
		}
	}
	switch {
	case hasAuditor:
		return UserTypeAuditor
	case hasOwner:
		return UserTypeProjectOwner
	default:
		return UserTypeGeneral
	}
}

// HasRole reports whether an active grant with the given role exists.
func HasRole(roles []UserRole, role UserType) bool {
	for _, r := range roles {
		if r.Active && r.Role == role {
			return true
		}
	}
	return false
}
