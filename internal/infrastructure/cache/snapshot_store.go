package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"audit-hub/internal/domain"
)

// Durable snapshot keys. Each key is an independent JSON file so that
// corruption in one never blocks loading the others.
const (
	keySession = "auth_session"
	keyProfile = "auth_profile"
	keyRoles   = "auth_roles"
)

// SnapshotStore mirrors the last-known auth state to disk. It is a mirror
// only: once a live gateway response arrives the controller overwrites it,
// so no expiry is enforced here. Implements domain.SnapshotStore.
type SnapshotStore struct {
	dir    string
	logger *slog.Logger
}

// NewSnapshotStore creates a snapshot store rooted at dir, creating the
// directory if needed.
func NewSnapshotStore(dir string, logger *slog.Logger) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &SnapshotStore{dir: dir, logger: logger}, nil
}

// Load reads the three snapshot keys. Each key is parsed independently;
// a missing or corrupt key is logged and loaded as absent, never as an
// error to the caller.
func (s *SnapshotStore) Load() domain.Snapshot {
	var snap domain.Snapshot

	var session domain.Session
	if s.loadKey(keySession, &session) {
		snap.Session = &session
	}

	var profile domain.UserProfile
	if s.loadKey(keyProfile, &profile) {
		snap.Profile = &profile
	}

	var roles []domain.UserRole
	if s.loadKey(keyRoles, &roles) {
		snap.Roles = roles
	}

	return snap
}

// Persist writes all three snapshots. A nil session/profile or empty role
// set removes the corresponding key instead of storing a sentinel.
func (s *SnapshotStore) Persist(session *domain.Session, profile *domain.UserProfile, roles []domain.UserRole) error {
	var errs []error

	if session == nil {
		errs = append(errs, s.removeKey(keySession))
	} else {
		errs = append(errs, s.writeKey(keySession, session))
	}

	if profile == nil {
		errs = append(errs, s.removeKey(keyProfile))
	} else {
		errs = append(errs, s.writeKey(keyProfile, profile))
	}

	if len(roles) == 0 {
		errs = append(errs, s.removeKey(keyRoles))
	} else {
		errs = append(errs, s.writeKey(keyRoles, roles))
	}

	return errors.Join(errs...)
}

// Clear removes all three keys.
func (s *SnapshotStore) Clear() error {
	return s.Persist(nil, nil, nil)
}

func (s *SnapshotStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *SnapshotStore) loadKey(key string, v any) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("snapshot key unreadable, treating as absent", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("snapshot key corrupt, treating as absent", "key", key, "error", err)
		return false
	}
	return true
}

func (s *SnapshotStore) writeKey(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	// Write-then-rename so a crash mid-write cannot corrupt the key.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(key))
}

func (s *SnapshotStore) removeKey(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
