package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"audit-hub/internal/domain"
)

var _ domain.ProfileStore = (*ProfileRepository)(nil)

// ProfileRepository reads and writes profile rows in the gateway's table store.
type ProfileRepository struct {
	db *Connection
}

// NewProfileRepository creates a profile repository over the shared connection.
func NewProfileRepository(db *Connection) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile fetches a profile row by user id.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	query := `SELECT user_id, display_name, bio, user_type, verification, specializations,
			         audits_completed, audits_requested, avatar_key, created_at, updated_at
			  FROM profiles WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.DisplayName, &p.Bio, &p.UserType, &p.Verification, &p.Specializations,
		&p.AuditsCompleted, &p.AuditsRequested, &p.AvatarKey, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// UpsertProfile inserts a profile row, or refreshes display fields if the
// row already exists (sign-up retries and lazy provisioning both hit this).
func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile domain.UserProfile) error {
	query := `INSERT INTO profiles (user_id, display_name, bio, user_type, verification, specializations,
			                        audits_completed, audits_requested, avatar_key, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			  ON CONFLICT (user_id) DO UPDATE
			  SET display_name = EXCLUDED.display_name,
			      user_type = EXCLUDED.user_type,
			      updated_at = now()`

	_, err := r.db.Exec(ctx, query,
		profile.UserID, profile.DisplayName, profile.Bio, profile.UserType, profile.Verification,
		profile.Specializations, profile.AuditsCompleted, profile.AuditsRequested, profile.AvatarKey,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// PatchProfile applies a partial update; nil patch fields are left as-is.
func (r *ProfileRepository) PatchProfile(ctx context.Context, userID string, patch domain.ProfilePatch) error {
	if patch.Empty() {
		return domain.ErrInvalidProfileUpdate
	}

	query := `UPDATE profiles
			  SET display_name = COALESCE($2, display_name),
			      bio = COALESCE($3, bio),
			      specializations = COALESCE($4, specializations),
			      avatar_key = COALESCE($5, avatar_key),
			      updated_at = now()
			  WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID, patch.DisplayName, patch.Bio, patch.Specializations, patch.AvatarKey)
	if err != nil {
		return fmt.Errorf("failed to patch profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}

	return nil
}

var _ domain.RoleStore = (*RoleRepository)(nil)

// RoleRepository reads and writes role grant rows.
type RoleRepository struct {
	db *Connection
}

// NewRoleRepository creates a role repository over the shared connection.
func NewRoleRepository(db *Connection) *RoleRepository {
	return &RoleRepository{db: db}
}

// ListRoles fetches every grant for the user, active or not. Primary-role
// resolution happens in the domain so it stays deterministic.
func (r *RoleRepository) ListRoles(ctx context.Context, userID string) ([]domain.UserRole, error) {
	query := `SELECT user_id, role, is_active, granted_at
			  FROM user_roles WHERE user_id = $1
			  ORDER BY granted_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.UserRole
	for rows.Next() {
		var role domain.UserRole
		if err := rows.Scan(&role.UserID, &role.Role, &role.Active, &role.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roles: %w", err)
	}

	return roles, nil
}

// GrantRole inserts a grant row; re-granting an existing role reactivates it.
func (r *RoleRepository) GrantRole(ctx context.Context, role domain.UserRole) error {
	query := `INSERT INTO user_roles (user_id, role, is_active, granted_at)
			  VALUES ($1, $2, $3, now())
			  ON CONFLICT (user_id, role) DO UPDATE SET is_active = EXCLUDED.is_active`

	_, err := r.db.Exec(ctx, query, role.UserID, role.Role, role.Active)
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}

	return nil
}
